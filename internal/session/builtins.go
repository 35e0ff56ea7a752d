package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/docportal/repocli/internal/commands"
	"github.com/docportal/repocli/internal/diag"
	"github.com/docportal/repocli/internal/ui"
)

// BuiltinGroup is the group label of the always-present commands.
const BuiltinGroup = "Basic commands"

// Builtins returns the commands every session has, bound to s.
func Builtins(s *Session) *commands.CommandSet {
	return &commands.CommandSet{
		Group:    BuiltinGroup,
		TypeName: "Builtins",
		Declarations: []commands.Declaration{
			commands.Decl0("help", "Lists all commands with their syntax and description", s.help),
			commands.Decl1("help {0}", "Lists the commands whose syntax contains {0}", s.helpFor),
			commands.Decl1("process {0}", "Runs the commands of batch file {0}; markdown runbooks run their repocli code blocks", s.process),
			commands.Decl0("show command statistics", "Shows invocation count and duration of every command used in this session", s.showStatistics),
			commands.Decl0("show queue", "Lists the commands waiting to run", s.showQueue),
			commands.Decl0("cancel on error", "Stops and saves the remaining commands when a command fails", s.cancelOnError),
			commands.Decl0("skip on error", "Records failing commands and continues with the next one", s.skipOnError),
			commands.Decl2("set property {0} to {1}", "Defines ${{0}} for expansion in later commands", s.setProperty),
			commands.Decl0("show properties", "Lists the properties available for ${name} expansion", s.showProperties),
			commands.Decl1("show file {0}", "Prints file {0}; markdown is rendered", s.showFile),
			commands.Decl0("whoami", "Prints the operator and session of this run", s.whoami),
		},
	}
}

func (s *Session) help(context.Context) (commands.Result, error) {
	diag.RenderHelp(s.out, s.registry.Groups(), "")
	return commands.Done(), nil
}

func (s *Session) helpFor(_ context.Context, filter string) (commands.Result, error) {
	diag.RenderHelp(s.out, s.registry.Groups(), filter)
	return commands.Done(), nil
}

func (s *Session) process(_ context.Context, path string) (commands.Result, error) {
	cmds, err := ReadBatchFile(path)
	if err != nil {
		return nil, err
	}
	s.logger.Info("processing batch file", "file", path, "commands", len(cmds))
	return commands.Expand(cmds...), nil
}

func (s *Session) showStatistics(context.Context) (commands.Result, error) {
	diag.RenderStatistics(s.out, s.registry.Statistics().Snapshot())
	return commands.Done(), nil
}

func (s *Session) showQueue(context.Context) (commands.Result, error) {
	pending := s.queue.Pending()
	if len(pending) == 0 {
		fmt.Fprintln(s.out, ui.Info("The queue is empty"))
		return commands.Done(), nil
	}
	fmt.Fprintln(s.out, ui.Header("Queued commands"), ui.Hint(ui.Count(len(pending), "command", "commands")))
	for i, cmd := range pending {
		fmt.Fprintf(s.out, "%4d  %s\n", i+1, cmd)
	}
	return commands.Done(), nil
}

func (s *Session) cancelOnError(context.Context) (commands.Result, error) {
	s.SetPolicy(CancelOnError)
	fmt.Fprintln(s.out, ui.Success("Failing commands now cancel the remaining queue"))
	return commands.Done(), nil
}

func (s *Session) skipOnError(context.Context) (commands.Result, error) {
	s.SetPolicy(SkipOnError)
	fmt.Fprintln(s.out, ui.Successf("Failing commands are now skipped and saved to %s", s.failedFile))
	return commands.Done(), nil
}

func (s *Session) setProperty(_ context.Context, name, value string) (commands.Result, error) {
	s.SetProperty(name, value)
	fmt.Fprintln(s.out, ui.Successf("%s = %s", name, value))
	return commands.Done(), nil
}

func (s *Session) showProperties(context.Context) (commands.Result, error) {
	names := s.PropertyNames()
	if len(names) == 0 {
		fmt.Fprintln(s.out, ui.Info("No properties defined"))
		return commands.Done(), nil
	}
	tbl := ui.NewTable(
		ui.Column{Header: "property", Style: ui.Accent},
		ui.Column{Header: "value"},
	)
	for _, name := range names {
		tbl.AddRow(name, s.props[name])
	}
	fmt.Fprintln(s.out, tbl.Render())
	return commands.Done(), nil
}

func (s *Session) showFile(_ context.Context, path string) (commands.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("show file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		width := ui.DefaultTermWidth
		if f, ok := s.out.(*os.File); ok {
			width = ui.DisplayFor(f).TermWidth
		}
		rendered, err := ui.RenderMarkdown(string(data), width)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", path, err)
		}
		_, err = io.WriteString(s.out, rendered)
		return commands.Done(), err
	}
	if _, err := s.out.Write(data); err != nil {
		return nil, err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		fmt.Fprintln(s.out)
	}
	return commands.Done(), nil
}

func (s *Session) whoami(context.Context) (commands.Result, error) {
	operator := s.operator
	if operator == "" {
		operator = "unknown"
	}
	fmt.Fprintf(s.out, "%s (session %s)\n", operator, s.id)
	return commands.Done(), nil
}
