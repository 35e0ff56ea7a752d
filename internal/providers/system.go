package providers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/docportal/repocli/internal/commands"
	"github.com/docportal/repocli/internal/shellquote"
	"github.com/docportal/repocli/internal/ui"
)

type systemCommands struct{ Deps }

// SystemCommands has no group label and registers under its type name.
func SystemCommands(d Deps) *commands.CommandSet {
	c := &systemCommands{d}
	return &commands.CommandSet{
		TypeName: "SystemCommands",
		Declarations: []commands.Declaration{
			commands.Decl1("run external process {0}", "Runs command line {0} and prints its output", c.runProcess),
			commands.Decl0("show store statistics", "Shows row counts of the repository store", c.storeStats),
		},
	}
}

// maxOutputLine is the longest line of child output that is printed.
const maxOutputLine = 1024 * 1024

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) line(prefix, s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, prefix+s)
}

// runProcess streams stdout and stderr of the child concurrently and only
// returns once both streams are drained and the child has exited.
func (c *systemCommands) runProcess(ctx context.Context, cmdline string) (commands.Result, error) {
	argv, err := shellquote.Split(cmdline)
	if err != nil {
		return nil, fmt.Errorf("parse command line %q: %w", cmdline, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command line")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", argv[0], err)
	}
	c.logger().Debug("external process started", "command", shellquote.Join(argv), "pid", cmd.Process.Pid)

	out := &lockedWriter{w: c.out()}
	var g errgroup.Group
	drain := func(r io.Reader, prefix string) func() error {
		return func() error {
			sc := bufio.NewScanner(r)
			sc.Buffer(make([]byte, 64*1024), maxOutputLine)
			for sc.Scan() {
				out.line(prefix, sc.Text())
			}
			if err := sc.Err(); err != nil {
				// The child blocks on a full pipe unless it is read to EOF.
				_, _ = io.Copy(io.Discard, r)
				return err
			}
			return nil
		}
	}
	g.Go(drain(stdout, ""))
	g.Go(drain(stderr, ui.SymbolWarning+" "))
	drainErr := g.Wait()

	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("external process %q: %w", cmdline, err)
	}
	if drainErr != nil {
		return nil, fmt.Errorf("read output of %q: %w", cmdline, drainErr)
	}
	return commands.Done(), nil
}

func (c *systemCommands) storeStats(ctx context.Context) (commands.Result, error) {
	st, err := c.Store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	tbl := ui.NewTable(
		ui.Column{Header: "table", Style: ui.Muted},
		ui.Column{Header: "rows", Align: ui.AlignRight},
	)
	tbl.AddRow("objects", strconv.Itoa(st.Objects))
	types := make([]string, 0, len(st.Types))
	for typ := range st.Types {
		types = append(types, typ)
	}
	sort.Strings(types)
	for _, typ := range types {
		tbl.AddRow("  "+typ, strconv.Itoa(st.Types[typ]))
	}
	tbl.AddRow("links", strconv.Itoa(st.Links))
	tbl.AddRow("access rules", strconv.Itoa(st.AccessRules))
	tbl.AddRow("classifications", strconv.Itoa(st.Classifications))
	tbl.AddRow("categories", strconv.Itoa(st.Categories))
	fmt.Fprintln(c.out(), ui.Header(c.Store.Path()))
	fmt.Fprintln(c.out(), tbl.Render())
	return commands.Done(), nil
}
