package session

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// LineReader supplies interactive input. It returns io.EOF when input ends.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

// Prompt reads from the terminal with history and completion of command
// prefixes.
type Prompt struct {
	rl *readline.Instance
}

// NewPrompt opens a terminal prompt. historyFile may be empty. complete
// returns the candidates offered on tab.
func NewPrompt(historyFile string, complete func() []string) (*Prompt, error) {
	cfg := &readline.Config{
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	}
	if complete != nil {
		cfg.AutoComplete = readline.NewPrefixCompleter(
			readline.PcItemDynamic(func(string) []string { return complete() }),
		)
	}
	rl, err := readline.NewEx(cfg)
	if err != nil {
		return nil, err
	}
	return &Prompt{rl: rl}, nil
}

// ReadLine shows prompt and returns the next line. Interrupts end input.
func (p *Prompt) ReadLine(prompt string) (string, error) {
	p.rl.SetPrompt(prompt)
	line, err := p.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", io.EOF
	}
	return line, err
}

// Close restores the terminal.
func (p *Prompt) Close() error {
	return p.rl.Close()
}

// ScannerReader reads lines from a non-terminal source and ignores prompts.
type ScannerReader struct {
	sc *bufio.Scanner
}

// NewScannerReader reads lines from r.
func NewScannerReader(r io.Reader) *ScannerReader {
	return &ScannerReader{sc: bufio.NewScanner(r)}
}

func (s *ScannerReader) ReadLine(string) (string, error) {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(s.sc.Text(), "\r"), nil
}
