// Package cli implements the command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/docportal/repocli/internal/config"
	"github.com/docportal/repocli/internal/diag"
	"github.com/docportal/repocli/internal/ui"
)

var (
	// Global flags
	configPath   string
	storePath    string
	logLevelFlag string
	skipOnError  bool
	batchFiles   []string

	// Resolved values
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "repocli [command [;; command]...]",
	Short: "repocli - administrative command shell for the document repository",
	Long: `repocli runs repository administration commands such as loading,
exporting and deleting objects, editing links and access rules.

Commands given as arguments are separated by ";;" and run in order, then
repocli exits. Without arguments or --file it starts an interactive prompt;
type "help" there to list every command.`,
	Example: `  repocli "load all objects from directory ./objects ;; check link integrity"
  repocli --skip-on-error --file nightly.txt
  repocli`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadResolved(configPath)
		if err != nil {
			return configError(err)
		}
		cfg = loaded
		ui.ConfigureTheme(cfg.UI.Accent)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		level := logLevelFlag
		if level == "" {
			level = cfg.GetLogLevel()
		}
		logger, err := NewLogger(os.Stderr, level)
		if err != nil {
			return configError(err)
		}

		interactive := len(args) == 0 && len(batchFiles) == 0
		return runSession(cmd.Context(), sessionEnv{
			cfg:         cfg,
			args:        args,
			files:       batchFiles,
			storePath:   storePath,
			skipOnError: skipOnError,
			interactive: interactive,
			terminal:    isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd()),
			in:          os.Stdin,
			out:         os.Stdout,
			errOut:      os.Stderr,
			logger:      logger,
		})
	},
}

// Execute runs the CLI. Errors are printed here; the returned error only
// carries the exit status.
func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	diag.FormatError(os.Stderr, err)
	return err
}

func configError(err error) error {
	fmt.Fprintln(os.Stderr, ui.Errorf("Configuration error: %v", err))
	return &ExitError{Code: ExitConfig}
}

func init() {
	// Lines such as "help" or "show file -" belong to the session, not to cobra.
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.Flags().SetInterspersed(false)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "Path to the repository database (overrides store_path in config)")
	rootCmd.Flags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.Flags().BoolVar(&skipOnError, "skip-on-error", false, "Record failing commands and continue instead of cancelling")
	rootCmd.Flags().StringArrayVarP(&batchFiles, "file", "f", nil, "Batch file of commands to run (repeatable)")
}
