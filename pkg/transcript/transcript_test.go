package transcript_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/folio/pkg/llm"
	"github.com/papercomputeco/folio/pkg/transcript"
)

var _ = Describe("Transcript", func() {
	var t *transcript.Transcript

	BeforeEach(func() {
		t = transcript.New()
	})

	begin := func(text string) {
		Expect(t.AppendUserMessage(text)).To(Succeed())
		Expect(t.BeginAssistantPlaceholder()).To(Succeed())
	}

	Describe("AppendUserMessage", func() {
		It("appends a user entry", func() {
			Expect(t.AppendUserMessage("hello")).To(Succeed())
			Expect(t.Messages()).To(Equal([]llm.ChatMessage{
				{Role: llm.RoleUser, Content: "hello"},
			}))
		})

		It("is rejected while a reply is streaming", func() {
			begin("first")
			Expect(t.AppendUserMessage("second")).To(MatchError(transcript.ErrStreamInProgress))
			Expect(t.Messages()).To(HaveLen(2))
		})

		It("clears the previous error", func() {
			begin("first")
			t.FinalizeOnError(errors.New("boom"))
			Expect(t.Snapshot().Err).To(HaveOccurred())

			Expect(t.AppendUserMessage("again")).To(Succeed())
			Expect(t.Snapshot().Err).NotTo(HaveOccurred())
		})
	})

	Describe("BeginAssistantPlaceholder", func() {
		It("appends an empty assistant entry after the user message", func() {
			begin("hello")

			snap := t.Snapshot()
			Expect(snap.Loading).To(BeTrue())
			Expect(snap.Messages).To(Equal([]llm.ChatMessage{
				{Role: llm.RoleUser, Content: "hello"},
				{Role: llm.RoleAssistant, Content: ""},
			}))
		})

		It("requires a preceding user message", func() {
			Expect(t.BeginAssistantPlaceholder()).To(MatchError(transcript.ErrNoUserMessage))
		})

		It("allows only one in-progress reply", func() {
			begin("hello")
			Expect(t.BeginAssistantPlaceholder()).To(MatchError(transcript.ErrStreamInProgress))
		})
	})

	Describe("ApplyDelta", func() {
		It("requires an in-progress reply", func() {
			Expect(t.ApplyDelta("x")).To(MatchError(transcript.ErrNoStreamInProgress))

			Expect(t.AppendUserMessage("hello")).To(Succeed())
			Expect(t.ApplyDelta("x")).To(MatchError(transcript.ErrNoStreamInProgress))
		})

		It("grows the last entry in place", func() {
			begin("hello")
			Expect(t.ApplyDelta("Hel")).To(Succeed())
			Expect(t.ApplyDelta("lo")).To(Succeed())

			msgs := t.Messages()
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[1]).To(Equal(llm.ChatMessage{Role: llm.RoleAssistant, Content: "Hello"}))
		})

		It("is associative across splits", func() {
			begin("q")
			Expect(t.ApplyDelta("Hel")).To(Succeed())
			Expect(t.ApplyDelta("lo")).To(Succeed())
			split := t.Messages()[1].Content

			other := transcript.New()
			Expect(other.AppendUserMessage("q")).To(Succeed())
			Expect(other.BeginAssistantPlaceholder()).To(Succeed())
			Expect(other.ApplyDelta("Hello")).To(Succeed())

			Expect(split).To(Equal(other.Messages()[1].Content))
		})

		It("preserves whitespace and markdown markers", func() {
			begin("q")
			Expect(t.ApplyDelta("## 見出し\n\n")).To(Succeed())
			Expect(t.ApplyDelta("- **a**  ")).To(Succeed())
			Expect(t.Messages()[1].Content).To(Equal("## 見出し\n\n- **a**  "))
		})
	})

	Describe("FinalizeOnError", func() {
		It("removes an empty placeholder", func() {
			begin("hello")
			t.FinalizeOnError(errors.New("rejected"))

			snap := t.Snapshot()
			Expect(snap.Loading).To(BeFalse())
			Expect(snap.Err).To(MatchError("rejected"))
			Expect(snap.Messages).To(Equal([]llm.ChatMessage{
				{Role: llm.RoleUser, Content: "hello"},
			}))
		})

		It("keeps partial content", func() {
			begin("hello")
			Expect(t.ApplyDelta("Par")).To(Succeed())
			t.FinalizeOnError(errors.New("connection lost"))

			snap := t.Snapshot()
			Expect(snap.Messages).To(HaveLen(2))
			Expect(snap.Messages[1].Content).To(Equal("Par"))
			Expect(snap.Err).To(MatchError("connection lost"))
		})

		It("never removes earlier completed replies", func() {
			begin("first")
			Expect(t.ApplyDelta("answer")).To(Succeed())
			t.FinalizeOnComplete()

			t.FinalizeOnError(errors.New("late"))
			Expect(t.Messages()).To(HaveLen(2))
		})
	})

	Describe("FinalizeOnComplete", func() {
		It("clears loading and leaves content untouched", func() {
			begin("hello")
			Expect(t.ApplyDelta("done")).To(Succeed())
			t.FinalizeOnComplete()

			snap := t.Snapshot()
			Expect(snap.Loading).To(BeFalse())
			Expect(snap.Err).NotTo(HaveOccurred())
			Expect(snap.Messages[1].Content).To(Equal("done"))
			Expect(t.ApplyDelta("more")).To(MatchError(transcript.ErrNoStreamInProgress))
		})

		It("keeps an empty reply when the stream completed without text", func() {
			begin("hello")
			t.FinalizeOnComplete()
			Expect(t.Messages()).To(HaveLen(2))
		})
	})

	Describe("Snapshot", func() {
		It("returns copies that later deltas do not change", func() {
			begin("hello")
			Expect(t.ApplyDelta("a")).To(Succeed())
			snap := t.Snapshot()

			Expect(t.ApplyDelta("b")).To(Succeed())
			Expect(snap.Messages[1].Content).To(Equal("a"))
			Expect(t.Messages()[1].Content).To(Equal("ab"))
		})
	})

	Describe("Clear", func() {
		It("empties the transcript and error", func() {
			begin("hello")
			t.FinalizeOnError(errors.New("x"))
			Expect(t.Clear()).To(Succeed())

			snap := t.Snapshot()
			Expect(snap.Messages).To(BeEmpty())
			Expect(snap.Err).NotTo(HaveOccurred())
		})

		It("is rejected while streaming", func() {
			begin("hello")
			Expect(t.Clear()).To(MatchError(transcript.ErrStreamInProgress))
		})
	})
})
