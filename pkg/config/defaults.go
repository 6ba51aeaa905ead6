package config

// Turn event publishers.
const (
	EventsProviderNop   = "nop"
	EventsProviderKafka = "kafka"
)

const (
	defaultClientAPITarget = "http://localhost:8000/api/v1"
	defaultClientTimeout   = "5m"

	defaultReplayListen     = ":8765"
	defaultReplayChunkSize  = 64
	defaultReplayChunkDelay = "20ms"

	defaultEventsTopic = "folio.chat.turns"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
			Timeout:   defaultClientTimeout,
		},
		Replay: ReplayConfig{
			Listen:     defaultReplayListen,
			ChunkSize:  defaultReplayChunkSize,
			ChunkDelay: defaultReplayChunkDelay,
		},
		Events: EventsConfig{
			Provider: EventsProviderNop,
			Topic:    defaultEventsTopic,
		},
	}
}
