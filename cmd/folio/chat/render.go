package chatcmder

import (
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"

	"github.com/papercomputeco/folio/pkg/cliui"
	"github.com/papercomputeco/folio/pkg/llm"
	"github.com/papercomputeco/folio/pkg/session"
)

// renderer writes a streaming reply to the terminal. In plain mode each new
// suffix of the reply is written as it arrives. In markdown mode a progress
// line is kept while streaming and the finished reply is rendered with
// glamour.
type renderer struct {
	out      io.Writer
	markdown bool

	started       bool
	printed       int
	progressShown bool
}

func newRenderer(out io.Writer, markdown bool) *renderer {
	return &renderer{out: out, markdown: markdown}
}

// observe is the session observer. Terminal states are left to finish.
func (r *renderer) observe(st session.State) {
	if !st.Loading {
		return
	}

	reply, ok := lastReply(st.Messages)
	if !ok {
		return
	}

	if !r.started {
		r.started = true
		if !r.markdown {
			fmt.Fprint(r.out, cliui.AssistantPrompt)
		}
	}

	if r.markdown {
		r.progressShown = true
		fmt.Fprintf(r.out, "\r%s  %s", ansi.EraseEntireLine,
			cliui.DimStyle.Render(fmt.Sprintf("receiving… %d chars", utf8.RuneCountInString(reply))))
		return
	}

	if len(reply) > r.printed {
		fmt.Fprint(r.out, reply[r.printed:])
		r.printed = len(reply)
	}
}

// finish completes the output of one exchange and resets the renderer.
func (r *renderer) finish(st session.State, elapsed time.Duration) {
	defer func() {
		r.started = false
		r.printed = 0
		r.progressShown = false
	}()

	reply, _ := lastReply(st.Messages)

	if r.markdown {
		if r.progressShown {
			fmt.Fprintf(r.out, "\r%s", ansi.EraseEntireLine)
		}
		if reply != "" {
			rendered, _ := cliui.RenderMarkdown(reply)
			fmt.Fprintf(r.out, "%s\n%s", cliui.AssistantPrompt, rendered)
		}
	} else {
		if !r.started && reply != "" {
			fmt.Fprint(r.out, cliui.AssistantPrompt)
		}
		if len(reply) > r.printed {
			fmt.Fprint(r.out, reply[r.printed:])
		}
		if r.started || reply != "" {
			fmt.Fprintln(r.out)
		}
	}

	if st.Err != nil {
		fmt.Fprintf(r.out, "  %s %s\n", cliui.FailMark, cliui.ErrorStyle.Render(st.ErrorMessage()))
	}

	fmt.Fprintf(r.out, "  %s\n\n", cliui.DimStyle.Render(summary(st.Usage, elapsed)))
}

func summary(usage *llm.Usage, elapsed time.Duration) string {
	if usage == nil {
		return cliui.FormatDuration(elapsed)
	}
	return fmt.Sprintf("%s · %d in / %d out tokens",
		cliui.FormatDuration(elapsed), usage.InputTokens, usage.OutputTokens)
}

// lastReply returns the content of the trailing assistant message.
func lastReply(messages []llm.ChatMessage) (string, bool) {
	if len(messages) == 0 {
		return "", false
	}
	last := messages[len(messages)-1]
	if last.Role != llm.RoleAssistant {
		return "", false
	}
	return last.Content, true
}
