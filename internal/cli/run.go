package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/user"
	"sort"

	"github.com/docportal/repocli/internal/buildinfo"
	"github.com/docportal/repocli/internal/commands"
	"github.com/docportal/repocli/internal/config"
	"github.com/docportal/repocli/internal/diag"
	"github.com/docportal/repocli/internal/providers"
	"github.com/docportal/repocli/internal/session"
	"github.com/docportal/repocli/internal/store"
	"github.com/docportal/repocli/internal/ui"
)

// sessionEnv is everything a run needs from the process.
type sessionEnv struct {
	cfg         *config.Config
	args        []string
	files       []string
	storePath   string
	skipOnError bool
	// interactive runs prompt once the initial queue is done.
	interactive bool
	// terminal selects the line-editing prompt over plain line reading.
	terminal    bool
	in          io.Reader
	out, errOut io.Writer
	logger      *slog.Logger
}

// runSession wires store, providers, registry and session together and runs
// the command loop.
func runSession(ctx context.Context, env sessionEnv) error {
	if env.cfg == nil {
		env.cfg = &config.Config{}
	}
	if env.logger == nil {
		env.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	policy, err := session.ParsePolicy(env.cfg.FailurePolicy)
	if err != nil {
		return configErrorTo(env.errOut, err)
	}
	if env.skipOnError {
		policy = session.SkipOnError
	}

	path := env.storePath
	if path == "" {
		path = env.cfg.GetStorePath()
	}
	st, err := store.Open(path)
	if err != nil {
		return configErrorTo(env.errOut, err)
	}
	defer st.Close()

	var reg *commands.Registry
	var reader session.LineReader
	if env.interactive {
		r, closeReader, err := newLineReader(env, func() []string { return commandPrefixes(reg) })
		if err != nil {
			return err
		}
		defer closeReader()
		reader = r
	}

	s := session.New(session.Options{
		SystemName:   env.cfg.GetSystemName(),
		Operator:     currentOperator(),
		Policy:       policy,
		Interactive:  env.interactive,
		Reader:       reader,
		Transactor:   storeTransactor(st),
		Out:          env.out,
		Err:          env.errOut,
		Logger:       env.logger,
		RecoveryFile: env.cfg.GetRecoveryFile(),
		FailedFile:   env.cfg.GetFailedFile(),
		Properties:   env.cfg.Properties,
	})

	catalog := providers.NewCatalog(providers.Deps{
		Store:   st,
		Project: env.cfg.Project,
		Out:     env.out,
		Logger:  env.logger.With("session", s.ID()),
	})
	internal := env.cfg.InternalProviders()
	if len(internal) == 0 {
		internal = providers.DefaultInternal()
	}
	reg, err = commands.Build(commands.Sources{
		Builtins: []any{session.Builtins(s)},
		Internal: internal,
		External: env.cfg.ExternalProviders(),
		Resolver: catalog,
		Logger:   env.logger,
	})
	if err != nil {
		diag.FormatError(env.errOut, err)
		return &ExitError{Code: ExitConfig}
	}
	s.SetRegistry(reg)

	s.Enqueue(session.FromArguments(env.args)...)
	for _, file := range env.files {
		cmds, err := session.ReadBatchFile(file)
		if err != nil {
			return configErrorTo(env.errOut, err)
		}
		s.Enqueue(cmds...)
	}

	if env.interactive {
		fmt.Fprintln(env.out, ui.Header(buildinfo.Current().Short()))
		fmt.Fprintln(env.out, ui.Hint(`Type "help" to list the commands, "exit" to leave.`))
	}

	err = s.Run(ctx)
	var cancelled *session.CancelledError
	if errors.As(err, &cancelled) {
		return &ExitError{Code: ExitCancelled}
	}
	return err
}

func configErrorTo(w io.Writer, err error) error {
	fmt.Fprintln(w, ui.Errorf("Configuration error: %v", err))
	return &ExitError{Code: ExitConfig}
}

// newLineReader returns the interactive input source and its cleanup.
func newLineReader(env sessionEnv, complete func() []string) (session.LineReader, func(), error) {
	if !env.terminal {
		return session.NewScannerReader(env.in), func() {}, nil
	}
	prompt, err := session.NewPrompt(env.cfg.GetHistoryFile(), complete)
	if err != nil {
		return nil, nil, fmt.Errorf("open prompt: %w", err)
	}
	return prompt, func() { prompt.Close() }, nil
}

// commandPrefixes lists the distinct literal prefixes of all commands, the
// tab completion candidates.
func commandPrefixes(reg *commands.Registry) []string {
	if reg == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, d := range reg.Descriptors() {
		p := d.LiteralPrefix()
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// storeTransactor runs every command in its own store transaction.
func storeTransactor(st *store.Store) session.Transactor {
	return session.TransactorFunc(func(ctx context.Context) (context.Context, session.Tx, error) {
		txCtx, tx, err := st.Begin(ctx)
		if err != nil {
			return ctx, nil, err
		}
		return txCtx, tx, nil
	})
}

func currentOperator() string {
	if name := os.Getenv("REPOCLI_OPERATOR"); name != "" {
		return name
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}
