package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docportal/repocli/internal/config"
	"github.com/docportal/repocli/internal/providers"
	"github.com/docportal/repocli/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create, inspect and edit the repocli configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigInit(cmd.OutOrStdout(), configPath)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow(cmd.OutOrStdout(), configPath)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one configuration key",
	Long: fmt.Sprintf(`Set one configuration key and rewrite the config file.

Known keys: %s.
Use properties.<name> to define a ${name} expansion value.
Comments in the file are not kept.`, strings.Join(config.SettableKeys(), ", ")),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigSet(cmd.OutOrStdout(), configPath, args[0], args[1])
	},
}

func runConfigInit(out io.Writer, explicitPath string) error {
	path := config.ResolveConfigPath(explicitPath)
	_, statErr := os.Stat(path)
	if _, err := config.CreateDefault(path); err != nil {
		return err
	}
	if statErr == nil {
		fmt.Fprintln(out, ui.Infof("Config already exists: %s", path))
		return nil
	}
	fmt.Fprintln(out, ui.Successf("Created %s", path))
	return nil
}

// loadForEdit loads the config at path, or an empty one when the file
// does not exist yet.
func loadForEdit(path string) (*config.Config, bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &config.Config{}, false, nil
	}
	c, err := config.LoadFrom(path)
	if err != nil {
		return nil, true, err
	}
	return c, true, nil
}

func runConfigSet(out io.Writer, explicitPath, key, value string) error {
	path := config.ResolveConfigPath(explicitPath)
	c, _, err := loadForEdit(path)
	if err != nil {
		return err
	}
	if err := c.Set(key, value); err != nil {
		return err
	}
	if err := config.SaveTo(path, c); err != nil {
		return err
	}
	fmt.Fprintln(out, ui.Successf("%s = %s", key, value))
	return nil
}

func runConfigShow(out io.Writer, explicitPath string) error {
	path := config.ResolveConfigPath(explicitPath)
	c, exists, err := loadForEdit(path)
	if err != nil {
		return err
	}

	if exists {
		fmt.Fprintln(out, ui.Header(path))
	} else {
		fmt.Fprintln(out, ui.Header(path), ui.Hint("(not created yet, run 'repocli config init')"))
	}

	internal := c.InternalProviders()
	if len(internal) == 0 {
		internal = providers.DefaultInternal()
	}
	policy := c.FailurePolicy
	if policy == "" {
		policy = "cancel"
	}

	tbl := ui.NewTable(ui.Column{Header: "key", Style: ui.Muted}, ui.Column{Header: "value"})
	tbl.AddRow("system_name", c.GetSystemName())
	tbl.AddRow("project", valueOrDash(c.Project))
	tbl.AddRow("store_path", c.GetStorePath())
	tbl.AddRow("failure_policy", policy)
	tbl.AddRow("recovery_file", c.GetRecoveryFile())
	tbl.AddRow("failed_file", c.GetFailedFile())
	tbl.AddRow("log_level", c.GetLogLevel())
	tbl.AddRow("history_file", valueOrDash(c.GetHistoryFile()))
	tbl.AddRow("ui.accent", valueOrDash(c.UI.Accent))
	tbl.AddRow("providers.internal", joinOrDash(internal))
	tbl.AddRow("providers.external", joinOrDash(c.ExternalProviders()))

	names := make([]string, 0, len(c.Properties))
	for name := range c.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		tbl.AddRow("properties."+name, c.Properties[name])
	}
	fmt.Fprintln(out, tbl.Render())
	return nil
}

func valueOrDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
