package replay

import "time"

const (
	defaultChunkSize = 64
)

// Config is the replay server configuration.
type Config struct {
	// ListenAddr is the address Run listens on, e.g. ":8765".
	ListenAddr string

	// ChunkSize is the number of tape bytes per write. Small chunks split
	// lines and multi-byte characters the way a slow network would.
	// Defaults to 64.
	ChunkSize int

	// ChunkDelay is the pause between writes.
	ChunkDelay time.Duration
}
