// Package contextfile loads the portfolio context attached to chat requests
// from a JSON or TOML file, and reloads it when the file changes.
package contextfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"

	"github.com/papercomputeco/folio/pkg/llm"
)

// Load reads a portfolio context. Files ending in ".toml" are parsed as
// TOML; anything else is parsed as JSON.
func Load(path string) (*llm.PortfolioContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading context file: %w", err)
	}

	pc := &llm.PortfolioContext{}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), pc); err != nil {
			return nil, fmt.Errorf("parsing context file %s: %w", path, err)
		}
		return pc, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(pc); err != nil {
		return nil, fmt.Errorf("parsing context file %s: %w", path, err)
	}
	return pc, nil
}

// Watch calls onChange with the reloaded context each time path is written
// or replaced, until ctx is done. A file that fails to parse is logged and
// skipped so the previous context stays in effect.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func(*llm.PortfolioContext)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating context watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, which drops a watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching context dir: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			pc, err := Load(path)
			if err != nil {
				logger.Warn("ignoring invalid context file", slog.Any("error", err))
				continue
			}
			logger.Info("reloaded portfolio context", slog.String("path", path))
			onChange(pc)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("context watcher error: %w", err)
		}
	}
}
