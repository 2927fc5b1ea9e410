package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/askdb/internal/sampledata"
)

const chatPrompt = "askdb> "

// chatSession answers questions and dot-commands line by line.
type chatSession struct {
	cc     *CommandContext
	out    io.Writer
	errOut io.Writer
}

func runChatREPL(cmd *cobra.Command, cc *CommandContext) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          chatPrompt,
		HistoryFile:     historyPath(cc),
		AutoComplete:    newChatCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat: %w", err)
	}
	defer func() { _ = rl.Close() }()

	s := &chatSession{cc: cc, out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}

	_, _ = fmt.Fprintf(s.out, "askdb chat (%s: %s)\n", cc.Cfg.Target.Type, cc.Cfg.Target.Database)
	_, _ = fmt.Fprintln(s.out, "Ask a question, or type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(s.out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if quit := s.handleLine(cmd.Context(), line); quit {
			return nil
		}
	}
}

// handleLine processes one line of input and reports whether the session
// should end.
func (s *chatSession) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if strings.HasPrefix(line, ".") {
		return s.handleDotCommand(ctx, line)
	}

	ans := s.cc.Compiler.Answer(ctx, line, s.cc.Exec)
	if err := renderAnswer(s.cc.Renderer, ans); err != nil {
		_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
	}
	_, _ = fmt.Fprintln(s.out)
	return false
}

func (s *chatSession) handleDotCommand(ctx context.Context, line string) bool {
	command, rest, _ := strings.Cut(line, " ")
	command = strings.ToLower(command)
	rest = strings.TrimSpace(rest)

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printChatHelp(s.out)

	case ".schema":
		if err := renderSchema(s.cc.Renderer, s.cc.Compiler.Schema(), ""); err != nil {
			_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
		}

	case ".examples":
		for i, q := range sampledata.Examples() {
			_, _ = fmt.Fprintf(s.out, "  %d. %s\n", i+1, q)
		}

	case ".sql":
		if rest == "" {
			_, _ = fmt.Fprintln(s.errOut, "Usage: .sql <statement>")
			return false
		}
		if err := runRawSQL(ctx, s.cc, rest); err != nil {
			_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
		}

	case ".clear":
		_, _ = fmt.Fprint(s.out, "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(s.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func printChatHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .schema         Show the tables and relationships questions can use
  .examples       List example questions
  .sql <stmt>     Run a SQL statement directly
  .clear          Clear the screen
  .quit / .exit   Exit the chat

Tips:
  - Ask in plain English, e.g. "How many users do we have?"
  - Use arrow keys to navigate history
  - Tab completes dot-commands and example questions
`
	_, _ = fmt.Fprintln(w, help)
}

// historyPath resolves the chat history file against the project root.
func historyPath(cc *CommandContext) string {
	p := cc.Cfg.HistoryFile
	if p == "" || filepath.IsAbs(p) || cc.Cfg.ProjectRoot == "" {
		return p
	}
	return filepath.Join(cc.Cfg.ProjectRoot, p)
}

// newChatCompleter completes dot-commands and the example questions.
func newChatCompleter() *readline.PrefixCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem(".help"),
		readline.PcItem(".schema"),
		readline.PcItem(".examples"),
		readline.PcItem(".sql"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	}
	for _, q := range sampledata.Examples() {
		items = append(items, readline.PcItem(q))
	}
	return readline.NewPrefixCompleter(items...)
}
