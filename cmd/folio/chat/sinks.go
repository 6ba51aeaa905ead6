package chatcmder

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/folio/pkg/config"
	"github.com/papercomputeco/folio/pkg/dotdir"
	"github.com/papercomputeco/folio/pkg/eventstream"
	"github.com/papercomputeco/folio/pkg/eventstream/kafka"
	"github.com/papercomputeco/folio/pkg/eventstream/nop"
)

// tapeExt is the extension of recorded response streams.
const tapeExt = ".sse"

// resolveRecordDir returns recordDir if set, or the tapes directory inside
// the .folio directory.
func resolveRecordDir(recordDir, configDir string) (string, error) {
	if recordDir != "" {
		if err := os.MkdirAll(recordDir, 0o755); err != nil {
			return "", fmt.Errorf("creating record directory: %w", err)
		}
		return recordDir, nil
	}
	return dotdir.NewManager().Subdir(configDir, dotdir.TapesDir)
}

// newTapeOpener returns a recorder that creates one tape file per exchange.
func newTapeOpener(dir string, logger *slog.Logger) func() (io.WriteCloser, error) {
	return func() (io.WriteCloser, error) {
		name := fmt.Sprintf("%s-%s%s", time.Now().UTC().Format("20060102T150405Z"), uuid.NewString()[:8], tapeExt)
		path := filepath.Join(dir, name)

		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("creating tape: %w", err)
		}

		logger.Debug("recording response stream", slog.String("path", path))
		return f, nil
	}
}

func newPublisher(provider string, brokers []string, topic string) (eventstream.Publisher, error) {
	switch provider {
	case "", config.EventsProviderNop:
		return nop.NewPublisher(), nil
	case config.EventsProviderKafka:
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: brokers,
			Topic:   topic,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown events provider %q", provider)
	}
}
