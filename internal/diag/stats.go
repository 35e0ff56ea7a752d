package diag

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/docportal/repocli/internal/commands"
	"github.com/docportal/repocli/internal/ui"
)

// RenderStatistics writes one row per invoked command with its total and
// average duration and invocation count.
func RenderStatistics(w io.Writer, stats []commands.Stat) {
	if len(stats) == 0 {
		fmt.Fprintln(w, ui.Info("No commands invoked yet"))
		return
	}
	tbl := ui.NewTable(
		ui.Column{Header: "command", Style: ui.Accent},
		ui.Column{Header: "total", Align: ui.AlignRight},
		ui.Column{Header: "average", Align: ui.AlignRight},
		ui.Column{Header: "count", Align: ui.AlignRight},
	)
	for _, st := range stats {
		tbl.AddRow(
			st.Descriptor.Syntax(),
			formatDuration(st.Total),
			formatDuration(st.Average()),
			strconv.Itoa(st.Count),
		)
	}
	fmt.Fprintln(w, tbl.Render())
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.String()
	}
	return d.Round(time.Millisecond).String()
}
