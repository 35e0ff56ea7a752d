package ui

import (
	"os"

	"github.com/charmbracelet/x/term"
)

// DefaultTermWidth is the fallback terminal width when detection fails.
const DefaultTermWidth = 120

// DisplayContext holds the width and terminal state of the operator console.
type DisplayContext struct {
	TermWidth int
	IsTTY     bool
}

// NewDisplayContext inspects stdout.
func NewDisplayContext() *DisplayContext {
	return DisplayFor(os.Stdout)
}

// DisplayFor inspects f; non-terminals get DefaultTermWidth.
func DisplayFor(f *os.File) *DisplayContext {
	fd := f.Fd()
	isTTY := term.IsTerminal(fd)

	width := DefaultTermWidth
	if isTTY {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
	}
	return &DisplayContext{TermWidth: width, IsTTY: isTTY}
}

// FixedDisplay returns a context with a fixed width, for tests and pipes.
func FixedDisplay(width int) *DisplayContext {
	return &DisplayContext{TermWidth: width}
}
