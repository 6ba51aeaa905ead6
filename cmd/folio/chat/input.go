package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/papercomputeco/folio/pkg/cliui"
	"github.com/papercomputeco/folio/pkg/session"
)

type inputKind int

const (
	inputEmpty inputKind = iota
	inputMessage
	inputClear
	inputExit
	inputUnknownCommand
)

type input struct {
	kind inputKind
	text string
}

// parseInput classifies one line typed at the prompt. /1 to /4 expand to the
// matching suggested prompt.
func parseInput(line string) input {
	line = strings.TrimSpace(line)
	if line == "" {
		return input{kind: inputEmpty}
	}

	cmd, ok := strings.CutPrefix(line, "/")
	if !ok {
		return input{kind: inputMessage, text: line}
	}

	switch cmd {
	case "exit", "quit":
		return input{kind: inputExit}
	case "clear":
		return input{kind: inputClear}
	}

	suggestions := session.Suggestions()
	if n, err := strconv.Atoi(cmd); err == nil && n >= 1 && n <= len(suggestions) {
		return input{kind: inputMessage, text: suggestions[n-1]}
	}

	return input{kind: inputUnknownCommand, text: line}
}

func printSuggestions(w io.Writer) {
	fmt.Fprintf(w, "  %s\n", cliui.DimStyle.Render("Suggestions:"))
	for i, s := range session.Suggestions() {
		fmt.Fprintf(w, "    %s %s\n", cliui.KeyStyle.Render(fmt.Sprintf("/%d", i+1)), cliui.ChipStyle.Render(s))
	}
	fmt.Fprintln(w)
}

// readLines feeds lines from r until EOF or ctx is done. The channel is
// closed at EOF.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	return lines
}
