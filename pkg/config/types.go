package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent folio configuration stored as config.toml
// in the .folio/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int          `toml:"version"`
	Client  ClientConfig `toml:"client"`
	Chat    ChatConfig   `toml:"chat"`
	Replay  ReplayConfig `toml:"replay"`
	Events  EventsConfig `toml:"events"`
}

// ClientConfig holds settings for reaching the advisor API.
// APITarget is a full URL (scheme + host + port + API root).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
	Timeout   string `toml:"timeout,omitempty"`
}

// ChatConfig holds settings for the folio chat REPL.
type ChatConfig struct {
	ContextFile string `toml:"context_file,omitempty"`
	Record      bool   `toml:"record,omitempty"`
	RecordDir   string `toml:"record_dir,omitempty"`
}

// ReplayConfig holds settings for the tape replay server.
type ReplayConfig struct {
	Listen     string `toml:"listen,omitempty"`
	Tape       string `toml:"tape,omitempty"`
	ChunkSize  uint   `toml:"chunk_size,omitempty"`
	ChunkDelay string `toml:"chunk_delay,omitempty"`
}

// EventsConfig selects where turn events are published.
type EventsConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"client.timeout": {
		get: func(c *Config) string { return c.Client.Timeout },
		set: durationSetter("client.timeout", func(c *Config, v string) { c.Client.Timeout = v }),
	},
	"chat.context_file": {
		get: func(c *Config) string { return c.Chat.ContextFile },
		set: func(c *Config, v string) error { c.Chat.ContextFile = v; return nil },
	},
	"chat.record": {
		get: func(c *Config) string { return strconv.FormatBool(c.Chat.Record) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for chat.record: %w", err)
			}
			c.Chat.Record = b
			return nil
		},
	},
	"chat.record_dir": {
		get: func(c *Config) string { return c.Chat.RecordDir },
		set: func(c *Config, v string) error { c.Chat.RecordDir = v; return nil },
	},
	"replay.listen": {
		get: func(c *Config) string { return c.Replay.Listen },
		set: func(c *Config, v string) error { c.Replay.Listen = v; return nil },
	},
	"replay.tape": {
		get: func(c *Config) string { return c.Replay.Tape },
		set: func(c *Config, v string) error { c.Replay.Tape = v; return nil },
	},
	"replay.chunk_size": {
		get: func(c *Config) string {
			if c.Replay.ChunkSize == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Replay.ChunkSize), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for replay.chunk_size: %w", err)
			}
			c.Replay.ChunkSize = uint(n)
			return nil
		},
	},
	"replay.chunk_delay": {
		get: func(c *Config) string { return c.Replay.ChunkDelay },
		set: durationSetter("replay.chunk_delay", func(c *Config, v string) { c.Replay.ChunkDelay = v }),
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error {
			switch v {
			case EventsProviderNop, EventsProviderKafka:
				c.Events.Provider = v
				return nil
			default:
				return fmt.Errorf("invalid value for events.provider: %q (available: %s, %s)", v, EventsProviderNop, EventsProviderKafka)
			}
		},
	},
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error { c.Events.Brokers = SplitList(v); return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}

func durationSetter(key string, assign func(c *Config, v string)) func(c *Config, v string) error {
	return func(c *Config, v string) error {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		assign(c, v)
		return nil
	}
}

// SplitList splits a comma-separated value, dropping blanks.
func SplitList(v string) []string {
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
