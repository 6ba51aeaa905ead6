// Package chatcmder provides the chat command: an interactive REPL that
// streams the portfolio advisor's answers into the terminal.
package chatcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/papercomputeco/folio/pkg/client"
	"github.com/papercomputeco/folio/pkg/cliui"
	"github.com/papercomputeco/folio/pkg/config"
	"github.com/papercomputeco/folio/pkg/contextfile"
	"github.com/papercomputeco/folio/pkg/logger"
	"github.com/papercomputeco/folio/pkg/session"
	"github.com/papercomputeco/folio/pkg/utils"
)

type chatCommander struct {
	flags config.FlagSet

	apiTarget      string
	timeout        time.Duration
	contextFile    string
	record         bool
	recordDir      string
	eventsProvider string
	eventsBrokers  []string
	eventsTopic    string
	message        string
	logFile        string
	configDir      string
	debug          bool

	in     io.Reader
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger
}

var chatFlagKeys = []string{
	config.FlagAPITarget,
	config.FlagTimeout,
	config.FlagContextFile,
	config.FlagRecord,
	config.FlagRecordDir,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
	config.FlagEventsTopic,
}

const chatLongDesc string = `Start an interactive chat session with the portfolio advisor.

Answers stream into the terminal as they are generated. When stdout is a
terminal the finished answer is rendered as markdown.

While the transcript is empty, suggested prompts are shown; send one with
/1 to /4. Other commands:
  /clear    Start a new conversation
  /exit     Quit (Ctrl+D also quits)

Press Ctrl+C while an answer is streaming to cancel it.

A portfolio context file (JSON or TOML) can be attached with --context. It
is reloaded whenever the file changes.

Examples:
  folio chat
  folio chat --api-target https://advisor.example.com/api/v1
  folio chat --context portfolio.toml --record
  folio chat -m "リスクを下げたい"`

const chatShortDesc string = "Interactive chat with the portfolio advisor"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{flags: config.Registry}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.debug, _ = cmd.Flags().GetBool("debug")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, cmder.flags, chatFlagKeys)
			cmder.loadViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			cmder.errOut = cmd.ErrOrStderr()

			closeLog, err := cmder.setupLogger()
			if err != nil {
				return err
			}
			defer closeLog()

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddDurationFlag(cmd, cmder.flags, config.FlagTimeout, &cmder.timeout)
	config.AddStringFlag(cmd, cmder.flags, config.FlagContextFile, &cmder.contextFile)
	config.AddBoolFlag(cmd, cmder.flags, config.FlagRecord, &cmder.record)
	config.AddStringFlag(cmd, cmder.flags, config.FlagRecordDir, &cmder.recordDir)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringSliceFlag(cmd, cmder.flags, config.FlagEventsBrokers, &cmder.eventsBrokers)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEventsTopic, &cmder.eventsTopic)
	cmd.Flags().StringVarP(&cmder.message, "message", "m", "", "Send one message, print the answer, and exit")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")

	return cmd
}

func (c *chatCommander) loadViper(v *viper.Viper) {
	c.apiTarget = v.GetString("client.api_target")
	c.timeout = v.GetDuration("client.timeout")
	c.contextFile = v.GetString("chat.context_file")
	c.record = v.GetBool("chat.record")
	c.recordDir = v.GetString("chat.record_dir")
	c.eventsProvider = v.GetString("events.provider")
	c.eventsBrokers = config.StringList(v, "events.brokers")
	c.eventsTopic = v.GetString("events.topic")
}

// setupLogger logs pretty records to stderr, plus JSON to --log-file.
func (c *chatCommander) setupLogger() (func(), error) {
	pretty := logger.New(
		logger.WithDebug(c.debug),
		logger.WithSource(c.debug),
		logger.WithPretty(true),
		logger.WithWriter(c.errOut),
	)

	if c.logFile == "" {
		c.logger = pretty
		return func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	c.logger = logger.Multi(pretty, logger.New(
		logger.WithDebug(true),
		logger.WithSource(c.debug),
		logger.WithJSON(true),
		logger.WithWriter(f),
	))
	return func() { _ = f.Close() }, nil
}

func (c *chatCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	publisher, err := newPublisher(c.eventsProvider, c.eventsBrokers, c.eventsTopic)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			c.logger.Warn("closing event publisher", slog.Any("error", err))
		}
	}()

	view := newRenderer(c.out, c.markdownOutput())

	opts := []session.Option{
		session.WithLogger(c.logger),
		session.WithPublisher(publisher),
		session.WithObserver(view.observe),
	}

	if c.record {
		dir, err := resolveRecordDir(c.recordDir, c.configDir)
		if err != nil {
			return err
		}
		opts = append(opts, session.WithRecorder(newTapeOpener(dir, c.logger)))
	}

	if c.contextFile != "" {
		pc, err := contextfile.Load(c.contextFile)
		if err != nil {
			return err
		}
		opts = append(opts, session.WithPortfolioContext(pc))
	}

	cl := client.New(client.Config{
		BaseURL: c.apiTarget,
		Timeout: c.timeout,
	}, c.logger)
	sess := session.New(cl, opts...)

	if c.contextFile != "" {
		go func() {
			err := contextfile.Watch(ctx, c.contextFile, c.logger, sess.SetPortfolioContext)
			if err != nil && !errors.Is(err, context.Canceled) {
				c.logger.Warn("context file watcher stopped", slog.Any("error", err))
			}
		}()
	}

	if c.message != "" {
		return c.sendOnce(ctx, sess, view)
	}

	return c.repl(ctx, cancel, sess, view)
}

// sendOnce sends one message and reports a failed exchange as the command's
// error.
func (c *chatCommander) sendOnce(ctx context.Context, sess *session.Session, view *renderer) error {
	c.logger.Debug("sending message", slog.String("preview", utils.Truncate(c.message, 60)))
	start := time.Now()
	if err := sess.SendMessage(ctx, c.message); err != nil {
		return err
	}
	st := sess.State()
	view.finish(st, time.Since(start))
	return st.Err
}

func (c *chatCommander) repl(ctx context.Context, cancel context.CancelFunc, sess *session.Session, view *renderer) error {
	fmt.Fprintf(c.out, "\n  %s %s\n", cliui.KeyStyle.Render("Advisor:"), cliui.ValueStyle.Render(c.apiTarget))
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /clear to start over, /exit or Ctrl+D to quit."))

	// Ctrl+C cancels a streaming answer, or quits at the prompt.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigCh:
				if sess.State().Loading {
					sess.Cancel()
					continue
				}
				cancel()
				return
			}
		}
	}()

	lines := readLines(ctx, c.in)

	for {
		st := sess.State()
		if len(st.Messages) == 0 {
			printSuggestions(c.out)
		}
		fmt.Fprint(c.out, cliui.UserPrompt)

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(c.out)
			return nil
		}

		in := parseInput(line)
		switch in.kind {
		case inputEmpty:
			continue
		case inputExit:
			fmt.Fprintln(c.out)
			return nil
		case inputClear:
			if err := sess.Clear(); err != nil {
				fmt.Fprintf(c.out, "  %s %s\n\n", cliui.FailMark, cliui.ErrorStyle.Render(err.Error()))
				continue
			}
			fmt.Fprintf(c.out, "  %s %s\n\n", cliui.SuccessMark, cliui.DimStyle.Render("New conversation"))
			continue
		case inputUnknownCommand:
			fmt.Fprintf(c.out, "  %s %s\n\n", cliui.FailMark, cliui.ErrorStyle.Render("unknown command "+in.text))
			continue
		}

		c.logger.Debug("sending message", slog.String("preview", utils.Truncate(in.text, 60)))
		start := time.Now()
		if err := sess.SendMessage(ctx, in.text); err != nil {
			fmt.Fprintf(c.out, "  %s %s\n\n", cliui.FailMark, cliui.ErrorStyle.Render(err.Error()))
			continue
		}
		view.finish(sess.State(), time.Since(start))
	}
}

// markdownOutput reports whether stdout is a terminal. Answers are rendered
// with glamour only there.
func (c *chatCommander) markdownOutput() bool {
	f, ok := c.out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
