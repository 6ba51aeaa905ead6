package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/folio/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the FOLIO_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (FOLIO_CLIENT_API_TARGET, FOLIO_REPLAY_LISTEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Client
	v.SetDefault("client.api_target", d.Client.APITarget)
	v.SetDefault("client.timeout", d.Client.Timeout)

	// Chat
	v.SetDefault("chat.context_file", d.Chat.ContextFile)
	v.SetDefault("chat.record", d.Chat.Record)
	v.SetDefault("chat.record_dir", d.Chat.RecordDir)

	// Replay
	v.SetDefault("replay.listen", d.Replay.Listen)
	v.SetDefault("replay.tape", d.Replay.Tape)
	v.SetDefault("replay.chunk_size", d.Replay.ChunkSize)
	v.SetDefault("replay.chunk_delay", d.Replay.ChunkDelay)

	// Events
	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}

// StringList reads a list key that may come from a TOML array, a
// comma-separated flag or a comma-separated env var.
func StringList(v *viper.Viper, key string) []string {
	return SplitList(strings.Join(v.GetStringSlice(key), ","))
}
