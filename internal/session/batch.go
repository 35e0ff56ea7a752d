package session

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/docportal/repocli/internal/commands"
)

// Separator splits several commands given on one line.
const Separator = ";;"

// SplitCommands breaks text into commands at newlines and Separator,
// dropping blank entries and comments.
func SplitCommands(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		for _, part := range strings.Split(line, Separator) {
			if cmd := strings.TrimSpace(part); cmd != "" && !commands.IsComment(cmd) {
				out = append(out, cmd)
			}
		}
	}
	return out
}

// FromArguments joins process arguments with spaces and splits the result
// into commands.
func FromArguments(args []string) []string {
	return SplitCommands(strings.Join(args, " "))
}

// ParseBatch reads one command per line. Blank lines and comments are
// skipped; every other line is kept verbatim and unexpanded, Separator
// included.
func ParseBatch(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if cmd := strings.TrimSpace(sc.Text()); cmd != "" && !commands.IsComment(cmd) {
			out = append(out, cmd)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadBatchFile loads the commands of a batch file. Markdown files are read
// as runbooks: only their repocli code blocks are taken.
func ReadBatchFile(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read runbook: %w", err)
		}
		cmds, err := ExtractRunbook(data)
		if err != nil {
			return nil, fmt.Errorf("read runbook %s: %w", path, err)
		}
		return cmds, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	defer f.Close()
	cmds, err := ParseBatch(f)
	if err != nil {
		return nil, fmt.Errorf("read batch file %s: %w", path, err)
	}
	return cmds, nil
}
