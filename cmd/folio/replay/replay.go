// Package replaycmder provides the replay command, which serves a recorded
// response stream so the chat client can run without the advisor backend.
package replaycmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/folio/pkg/cliui"
	"github.com/papercomputeco/folio/pkg/config"
	"github.com/papercomputeco/folio/pkg/logger"
	"github.com/papercomputeco/folio/pkg/replay"
)

type replayCommander struct {
	flags config.FlagSet

	tapePath   string
	listen     string
	chunkSize  uint
	chunkDelay time.Duration
	debug      bool

	logger *slog.Logger
}

var replayFlagKeys = []string{
	config.FlagReplayListen,
	config.FlagChunkSize,
	config.FlagChunkDelay,
}

const replayLongDesc string = `Serve a recorded response stream at POST /chat.

The tape is a file of raw server-sent event bytes, as written by
"folio chat --record". Every valid chat request is answered with the whole
tape, written in small chunks with a pause between them so clients see
lines and multi-byte characters split the way a slow network splits them.

Point the chat client at the replay server:
  folio replay .folio/tapes/20260101T120000Z-1a2b3c4d.sse
  folio chat --api-target http://localhost:8765

The tape may also be set with "folio config set replay.tape <path>".`

const replayShortDesc string = "Serve a recorded answer stream"

func NewReplayCmd() *cobra.Command {
	cmder := &replayCommander{flags: config.Registry}

	cmd := &cobra.Command{
		Use:   "replay [tape]",
		Short: replayShortDesc,
		Long:  replayLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cmder.debug, _ = cmd.Flags().GetBool("debug")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, cmder.flags, replayFlagKeys)
			cmder.loadViper(v)

			if len(args) == 1 {
				cmder.tapePath = args[0]
			}
			if cmder.tapePath == "" {
				return fmt.Errorf("no tape given: pass a path or set replay.tape")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.logger = logger.New(
				logger.WithDebug(cmder.debug),
				logger.WithSource(cmder.debug),
				logger.WithPretty(true),
				logger.WithWriter(cmd.ErrOrStderr()),
			)
			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagReplayListen, &cmder.listen)
	config.AddUintFlag(cmd, cmder.flags, config.FlagChunkSize, &cmder.chunkSize)
	config.AddDurationFlag(cmd, cmder.flags, config.FlagChunkDelay, &cmder.chunkDelay)

	return cmd
}

func (c *replayCommander) loadViper(v *viper.Viper) {
	c.tapePath = v.GetString("replay.tape")
	c.listen = v.GetString("replay.listen")
	c.chunkSize = v.GetUint("replay.chunk_size")
	c.chunkDelay = v.GetDuration("replay.chunk_delay")
}

func (c *replayCommander) run(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var tape []byte
	err := cliui.Step(out, "Loading tape", func() error {
		var err error
		tape, err = os.ReadFile(c.tapePath)
		if err != nil {
			return fmt.Errorf("reading tape: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", c.listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", c.listen, err)
	}

	server := replay.New(replay.Config{
		ListenAddr: c.listen,
		ChunkSize:  int(c.chunkSize),
		ChunkDelay: c.chunkDelay,
	}, tape, c.logger)

	fmt.Fprintf(out, "\n  %s %s\n",
		cliui.KeyStyle.Render("Listening on"),
		cliui.ValueStyle.Render("http://"+listener.Addr().String()),
	)
	fmt.Fprintf(out, "  %s\n\n", cliui.DimStyle.Render(
		fmt.Sprintf("%d bytes, %d per chunk, %s apart. Ctrl+C to stop.",
			len(tape), c.chunkSize, c.chunkDelay)))

	go func() {
		<-ctx.Done()
		if err := server.Close(); err != nil {
			c.logger.Warn("stopping replay server", slog.Any("error", err))
		}
	}()

	return server.RunWithListener(listener)
}
