// Package output renders command results for terminals, pipes and scripts.
package output

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Mode selects how results are written.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeTable    Mode = "table"
	ModeJSON     Mode = "json"
	ModeCSV      Mode = "csv"
	ModeMarkdown Mode = "markdown"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeAuto, ModeTable, ModeJSON, ModeCSV, ModeMarkdown:
		return true
	}
	return false
}

// ParseMode maps user input to a Mode. "md" and "text" are accepted as
// aliases and the empty string means auto.
func ParseMode(s string) Mode {
	switch s {
	case "":
		return ModeAuto
	case "md":
		return ModeMarkdown
	case "text":
		return ModeTable
	}
	return Mode(s)
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
