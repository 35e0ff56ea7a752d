package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/docportal/repocli/internal/buildinfo"
	"github.com/docportal/repocli/internal/ui"
)

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the repocli build",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeVersion(cmd.OutOrStdout(), buildinfo.Current(), versionJSON)
	},
}

func writeVersion(out io.Writer, info buildinfo.Info, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	fmt.Fprintln(out, ui.Header(info.Short()))
	tbl := ui.NewTable(ui.Column{Header: "build", Style: ui.Muted}, ui.Column{Header: ""})
	for _, f := range info.Fields() {
		tbl.AddRow(f.Name, f.Value)
	}
	fmt.Fprintln(out, tbl.Render())
	return nil
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print the build as JSON")
	rootCmd.AddCommand(versionCmd)
}
