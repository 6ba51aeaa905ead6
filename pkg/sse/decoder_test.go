package sse_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing/iotest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/folio/pkg/sse"
)

// chunkReader hands out one pre-split chunk per Read call, then returns err
// (io.EOF when err is nil).
type chunkReader struct {
	chunks [][]byte
	err    error
}

func newChunkReader(chunks ...string) *chunkReader {
	r := &chunkReader{}
	for _, c := range chunks {
		r.chunks = append(r.chunks, []byte(c))
	}
	return r
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}

	n := copy(p, r.chunks[0])
	if n < len(r.chunks[0]) {
		r.chunks[0] = r.chunks[0][n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

// splitAt cuts s into byte chunks at the given offsets.
func splitAt(s string, offsets ...int) []string {
	var chunks []string
	prev := 0
	for _, off := range offsets {
		chunks = append(chunks, s[prev:off])
		prev = off
	}
	return append(chunks, s[prev:])
}

func collectPayloads(d *sse.Decoder) ([]string, error) {
	var payloads []string
	for frame, err := range d.Frames() {
		if err != nil {
			return payloads, err
		}
		payloads = append(payloads, frame.Payload)
	}
	return payloads, nil
}

var _ = Describe("Decoder", func() {
	Describe("Next", func() {
		It("decodes a single frame", func() {
			d := sse.NewDecoder(strings.NewReader("data: {\"type\":\"text-delta\",\"text\":\"hi\"}\n\n"))

			frame, err := d.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(frame.Payload).To(Equal(`{"type":"text-delta","text":"hi"}`))
			Expect(frame.Line).To(Equal(1))

			frame, err = d.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(frame).To(BeNil())
		})

		It("decodes multiple frames separated by blank lines", func() {
			d := sse.NewDecoder(strings.NewReader("data: one\n\n\n\ndata: two\n\ndata: three\n"))

			payloads, err := collectPayloads(d)
			Expect(err).NotTo(HaveOccurred())
			Expect(payloads).To(Equal([]string{"one", "two", "three"}))
		})

		It("trims whitespace around the payload", func() {
			d := sse.NewDecoder(strings.NewReader("data:    {\"a\":1}   \t\n"))

			frame, err := d.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(frame.Payload).To(Equal(`{"a":1}`))
		})

		It("yields empty payloads for bare data lines", func() {
			d := sse.NewDecoder(strings.NewReader("data: \n"))

			frame, err := d.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(frame).NotTo(BeNil())
			Expect(frame.Payload).To(BeEmpty())
		})

		It("strips carriage returns from CRLF lines", func() {
			d := sse.NewDecoder(strings.NewReader("data: crlf\r\n\r\n"))

			payloads, err := collectPayloads(d)
			Expect(err).NotTo(HaveOccurred())
			Expect(payloads).To(Equal([]string{"crlf"}))
		})

		It("returns nil on empty input", func() {
			d := sse.NewDecoder(strings.NewReader(""))

			frame, err := d.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(frame).To(BeNil())
		})
	})

	Context("with non-frame lines", func() {
		It("skips comments, other fields and lines without the exact prefix", func() {
			input := ": keep-alive\n" +
				"event: message\n" +
				"data:no-space\n" +
				"id: 7\n" +
				"data: kept\n" +
				"retry: 1000\n"
			d := sse.NewDecoder(strings.NewReader(input))

			payloads, err := collectPayloads(d)
			Expect(err).NotTo(HaveOccurred())
			Expect(payloads).To(Equal([]string{"kept"}))
			Expect(d.Skipped()).To(Equal(5))
		})

		It("never drops or reorders valid frames around malformed ones", func() {
			input := "data: {\"n\":1}\n" +
				"garbage line\n" +
				"data: {not json\n" +
				"data: {\"n\":2}\n" +
				"\n" +
				"data: {\"n\":3}\n"
			d := sse.NewDecoder(strings.NewReader(input))

			payloads, err := collectPayloads(d)
			Expect(err).NotTo(HaveOccurred())
			Expect(payloads).To(Equal([]string{`{"n":1}`, `{not json`, `{"n":2}`, `{"n":3}`}))
		})
	})

	Context("with arbitrary chunk boundaries", func() {
		const stream = "data: {\"type\":\"text-delta\",\"text\":\"こんにちは\"}\n\n" +
			": comment\n" +
			"data: {\"type\":\"text-delta\",\"text\":\"世界 🌏\"}\n\n" +
			"data: {\"type\":\"finish\"}\n\n"

		expected := []string{
			`{"type":"text-delta","text":"こんにちは"}`,
			`{"type":"text-delta","text":"世界 🌏"}`,
			`{"type":"finish"}`,
		}

		It("yields the same frames for every two-way split", func() {
			for i := 1; i < len(stream); i++ {
				d := sse.NewDecoder(newChunkReader(splitAt(stream, i)...))

				payloads, err := collectPayloads(d)
				Expect(err).NotTo(HaveOccurred(), "split at %d", i)
				Expect(payloads).To(Equal(expected), "split at %d", i)
			}
		})

		It("yields the same frames when read one byte at a time", func() {
			d := sse.NewDecoder(iotest.OneByteReader(strings.NewReader(stream)))

			payloads, err := collectPayloads(d)
			Expect(err).NotTo(HaveOccurred())
			Expect(payloads).To(Equal(expected))
		})

		It("reassembles a frame split mid-prefix and mid-character", func() {
			line := "data: {\"type\":\"text-delta\",\"text\":\"応答\"}\n"
			// Cut inside the 3-byte encoding of 応.
			cut := strings.Index(line, "応") + 1
			d := sse.NewDecoder(newChunkReader(line[:2], line[2:11], line[11:cut], line[cut:]))

			payloads, err := collectPayloads(d)
			Expect(err).NotTo(HaveOccurred())
			Expect(payloads).To(Equal([]string{`{"type":"text-delta","text":"応答"}`}))
		})

		It("handles the da / ta: split", func() {
			d := sse.NewDecoder(newChunkReader(
				"da",
				"ta: {\"typ",
				"e\":\"text-delta\",\"text\":\"応答\"}\n",
			))

			payloads, err := collectPayloads(d)
			Expect(err).NotTo(HaveOccurred())
			Expect(payloads).To(Equal([]string{`{"type":"text-delta","text":"応答"}`}))
		})
	})

	Context("at end of stream", func() {
		It("discards an unterminated trailing line", func() {
			d := sse.NewDecoder(strings.NewReader("data: complete\ndata: partial"))

			payloads, err := collectPayloads(d)
			Expect(err).NotTo(HaveOccurred())
			Expect(payloads).To(Equal([]string{"complete"}))
		})

		It("replaces invalid UTF-8 with the replacement character", func() {
			d := sse.NewDecoder(strings.NewReader("data: a\xffb\n"))

			frame, err := d.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(frame.Payload).To(Equal("a\uFFFDb"))
		})
	})

	Context("with failures", func() {
		It("fails immediately without a body", func() {
			d := sse.NewDecoder(nil)

			frame, err := d.Next()
			Expect(err).To(MatchError(sse.ErrNoBody))
			Expect(frame).To(BeNil())
		})

		It("propagates transport errors after delivering earlier frames", func() {
			boom := errors.New("connection reset")
			src := newChunkReader("data: first\n", "data: sec")
			src.err = boom
			d := sse.NewDecoder(src)

			payloads, err := collectPayloads(d)
			Expect(payloads).To(Equal([]string{"first"}))
			Expect(err).To(MatchError(boom))
			Expect(err.Error()).To(HavePrefix("reading stream:"))
		})

		It("reports over-long lines as errors", func() {
			d := sse.NewDecoder(strings.NewReader("data: " + strings.Repeat("x", 2*1024*1024) + "\n"))

			_, err := d.Next()
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("WithTee", func() {
		It("copies raw bytes verbatim to the destination", func() {
			input := ": ping\ndata: {\"type\":\"text-delta\",\"text\":\"x\"}\n\ndata: tail"
			var dst bytes.Buffer
			d := sse.NewDecoder(strings.NewReader(input), sse.WithTee(&dst))

			_, err := collectPayloads(d)
			Expect(err).NotTo(HaveOccurred())
			Expect(dst.String()).To(Equal(input))
		})
	})

	Describe("Frames", func() {
		It("stops when the consumer breaks early", func() {
			d := sse.NewDecoder(strings.NewReader("data: 1\ndata: 2\ndata: 3\n"))

			var seen []string
			for frame, err := range d.Frames() {
				Expect(err).NotTo(HaveOccurred())
				seen = append(seen, frame.Payload)
				if len(seen) == 2 {
					break
				}
			}
			Expect(seen).To(Equal([]string{"1", "2"}))

			frame, err := d.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(frame.Payload).To(Equal("3"))
		})
	})
})
