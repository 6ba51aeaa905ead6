package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	foliocmder "github.com/papercomputeco/folio/cmd/folio"
	configcmder "github.com/papercomputeco/folio/cmd/folio/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		subcommands := []string{}
		for _, sub := range cmd.Commands() {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		configDir string
		out       *bytes.Buffer
	)

	BeforeEach(func() {
		configDir = GinkgoT().TempDir()
		out = &bytes.Buffer{}
	})

	run := func(args ...string) error {
		out.Reset()
		cmd := foliocmder.NewFolioCmd()
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append([]string{"config", "--config-dir", configDir}, args...))
		return cmd.Execute()
	}

	Describe("set subcommand", func() {
		It("writes config.toml", func() {
			Expect(run("set", "client.api_target", "https://advisor.example.com/api/v1")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("Set"))

			data, err := os.ReadFile(filepath.Join(configDir, "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`api_target = "https://advisor.example.com/api/v1"`))
		})

		It("rejects unknown keys", func() {
			Expect(run("set", "proxy.provider", "anthropic")).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("requires exactly two arguments", func() {
			Expect(run("set", "client.timeout")).NotTo(Succeed())
			Expect(run("set")).NotTo(Succeed())
		})

		DescribeTable("validates values",
			func(key, value string) {
				Expect(run("set", key, value)).NotTo(Succeed())
			},
			Entry("duration", "client.timeout", "soon"),
			Entry("bool", "chat.record", "maybe"),
			Entry("uint", "replay.chunk_size", "-3"),
			Entry("provider", "events.provider", "carrier-pigeon"),
		)
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			Expect(run("set", "replay.chunk_delay", "5ms")).To(Succeed())

			Expect(run("get", "replay.chunk_delay")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("5ms"))
		})

		It("reports the default for an unset key", func() {
			Expect(run("get", "client.timeout")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("5m"))
		})

		It("rejects unknown keys", func() {
			Expect(run("get", "invalid_key")).NotTo(Succeed())
		})

		It("requires exactly one argument", func() {
			Expect(run("get")).NotTo(Succeed())
		})
	})

	Describe("list subcommand", func() {
		It("lists every key", func() {
			Expect(run("set", "events.brokers", "b1:9092,b2:9092")).To(Succeed())

			Expect(run("list")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("client.api_target"))
			Expect(out.String()).To(ContainSubstring("events.topic"))
			Expect(out.String()).To(ContainSubstring(`"b1:9092,b2:9092"`))
			Expect(out.String()).To(ContainSubstring("chat.context_file"))
		})

		It("rejects any arguments", func() {
			Expect(run("list", "extra")).NotTo(Succeed())
		})
	})
})
