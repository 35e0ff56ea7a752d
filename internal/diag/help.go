package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/docportal/repocli/internal/commands"
	"github.com/docportal/repocli/internal/ui"
)

// RenderHelp lists the commands of every group, in dispatch order, whose
// syntax contains filter. An empty filter lists everything. It returns the
// number of commands listed.
func RenderHelp(w io.Writer, groups []*commands.Group, filter string) int {
	n := 0
	for _, g := range groups {
		tbl := ui.NewTable(
			ui.Column{Header: "command", Style: ui.Accent},
			ui.Column{Header: "description", Style: ui.Muted},
		)
		for _, d := range g.Descriptors {
			if filter != "" && !strings.Contains(d.Syntax(), filter) {
				continue
			}
			tbl.AddRow(d.Syntax(), d.Help())
		}
		if tbl.Len() == 0 {
			continue
		}
		n += tbl.Len()
		fmt.Fprintf(w, "\n%s %s\n", ui.Header(g.Name), ui.Hint(ui.Count(tbl.Len(), "command", "commands")))
		fmt.Fprintln(w, tbl.Render())
	}
	if n == 0 && filter != "" {
		fmt.Fprintln(w, ui.Infof("No command contains %q", filter))
	}
	return n
}
