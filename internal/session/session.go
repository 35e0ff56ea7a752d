// Package session runs the command loop: it feeds queued and interactive
// input through the registry, one command per transactional scope, and
// applies the failure policy when a command errors.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docportal/repocli/internal/atomicfile"
	"github.com/docportal/repocli/internal/commands"
	"github.com/docportal/repocli/internal/diag"
	"github.com/docportal/repocli/internal/ui"
)

const (
	DefaultRecoveryFile = "unprocessed-commands.txt"
	DefaultFailedFile   = "failed-commands.txt"
)

// Options configures a session.
type Options struct {
	// ID identifies the session in logs. A random UUID when empty.
	ID         string
	SystemName string
	Operator   string
	Policy     Policy
	// Interactive sessions prompt Reader once the queue is empty.
	Interactive bool
	Reader      LineReader
	Transactor  Transactor
	Out         io.Writer
	Err         io.Writer
	Logger      *slog.Logger
	// RecoveryFile receives unprocessed commands after a cancel-on-error
	// failure; FailedFile receives skip-on-error failures at the end.
	RecoveryFile string
	FailedFile   string
	Properties   map[string]string
	// FormatError writes the diagnostic of a failed command.
	FormatError func(io.Writer, error)
}

// Session is one run of the command loop.
type Session struct {
	id         string
	systemName string
	operator   string
	registry   *commands.Registry
	queue      *Queue
	policy     Policy
	state      State

	interactive bool
	reader      LineReader
	tx          Transactor
	out, errOut io.Writer
	logger      *slog.Logger

	recoveryFile string
	failedFile   string
	props        map[string]string
	formatError  func(io.Writer, error)

	started time.Time
}

// New creates a session. Attach a registry with SetRegistry before Run.
func New(opts Options) *Session {
	s := &Session{
		id:           opts.ID,
		systemName:   opts.SystemName,
		operator:     opts.Operator,
		queue:        NewQueue(),
		policy:       opts.Policy,
		interactive:  opts.Interactive,
		reader:       opts.Reader,
		tx:           opts.Transactor,
		out:          opts.Out,
		errOut:       opts.Err,
		recoveryFile: opts.RecoveryFile,
		failedFile:   opts.FailedFile,
		props:        make(map[string]string, len(opts.Properties)),
		formatError:  opts.FormatError,
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.systemName == "" {
		s.systemName = "repocli"
	}
	if s.tx == nil {
		s.tx = nopTransactor
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.errOut == nil {
		s.errOut = os.Stderr
	}
	if s.recoveryFile == "" {
		s.recoveryFile = DefaultRecoveryFile
	}
	if s.failedFile == "" {
		s.failedFile = DefaultFailedFile
	}
	if s.formatError == nil {
		s.formatError = diag.FormatError
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.logger = logger.With("session", s.id)
	for k, v := range opts.Properties {
		s.props[k] = v
	}
	return s
}

// SetRegistry attaches the command catalog.
func (s *Session) SetRegistry(r *commands.Registry) { s.registry = r }

// Registry returns the attached command catalog.
func (s *Session) Registry() *commands.Registry { return s.registry }

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Operator returns the name of the operator running the session.
func (s *Session) Operator() string { return s.operator }

// Queue returns the session queue.
func (s *Session) Queue() *Queue { return s.queue }

// Enqueue appends initial commands at the tail of the queue.
func (s *Session) Enqueue(cmds ...string) { s.queue.Append(cmds...) }

// Policy returns the current failure policy.
func (s *Session) Policy() Policy { return s.policy }

// SetPolicy switches the failure policy. It applies from the next failure
// on, including to commands already queued.
func (s *Session) SetPolicy(p Policy) {
	if p != s.policy {
		s.logger.Debug("failure policy changed", "from", s.policy.String(), "to", p.String())
	}
	s.policy = p
}

// State returns the loop state.
func (s *Session) State() State { return s.state }

// Out returns the operator console.
func (s *Session) Out() io.Writer { return s.out }

// SetProperty defines a ${name} expansion value.
func (s *Session) SetProperty(name, value string) { s.props[name] = value }

// Property returns an expansion value.
func (s *Session) Property(name string) (string, bool) {
	v, ok := s.props[name]
	return v, ok
}

// PropertyNames returns the defined property names in order.
func (s *Session) PropertyNames() []string {
	names := make([]string, 0, len(s.props))
	for name := range s.props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Prompt returns the interactive prompt text.
func (s *Session) Prompt() string {
	return ui.AccentBold.Render(s.systemName) + ":> "
}

func (s *Session) setState(st State) {
	if st != s.state {
		s.logger.Debug("session state", "from", s.state.String(), "to", st.String())
	}
	s.state = st
}

// Run processes the queue and, for interactive sessions, prompt input until
// both are exhausted or the operator exits. A batch session stopped by a
// cancel-on-error failure returns a *CancelledError.
func (s *Session) Run(ctx context.Context) error {
	if s.registry == nil {
		return errors.New("session has no command registry")
	}
	s.started = time.Now()
	s.setState(s.initialState())
	s.logger.Info("session started", "interactive", s.interactive, "queued", s.queue.Len(), "policy", s.policy.String())

	var stopErr error
	for {
		line, ok, err := s.next()
		if err != nil {
			stopErr = err
			break
		}
		if !ok {
			break
		}
		if isExit(line) {
			s.saveUnprocessed(nil)
			break
		}

		cancelled := s.Execute(ctx, line)
		if cancelled != nil && !s.interactive {
			stopErr = cancelled
			break
		}
	}

	s.terminate()
	return stopErr
}

// initialState is AwaitingInput for an interactive session with nothing
// queued and Expanding otherwise.
func (s *Session) initialState() State {
	if s.interactive && s.queue.Len() == 0 {
		return StateAwaitingInput
	}
	return StateExpanding
}

// next returns the queue head, or a prompted line when the queue is empty
// in an interactive session. ok is false when input is exhausted.
func (s *Session) next() (line string, ok bool, err error) {
	if cmd, ok := s.queue.Pop(); ok {
		s.setState(StateExpanding)
		return cmd, true, nil
	}
	if !s.interactive || s.reader == nil {
		return "", false, nil
	}

	s.setState(StateAwaitingInput)
	for {
		line, err := s.reader.ReadLine(s.Prompt())
		if errors.Is(err, io.EOF) {
			return "", false, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("read command: %w", err)
		}
		if line = strings.TrimSpace(line); line != "" {
			return line, true, nil
		}
	}
}

func isExit(line string) bool {
	switch strings.TrimSpace(line) {
	case "exit", "quit":
		return true
	}
	return false
}

// Execute runs one command inside its own transactional scope and pushes
// its follow-ups to the head of the queue. When the command fails the
// failure policy is applied; under cancel-on-error the returned
// *CancelledError describes what was saved.
func (s *Session) Execute(ctx context.Context, line string) *CancelledError {
	expanded := ExpandProperties(line, s.props)

	txCtx, tx, err := s.tx.Begin(ctx)
	if err != nil {
		return s.fail(line, err)
	}

	outcome, err := s.registry.Dispatch(txCtx, expanded)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", "error", &RollbackError{Command: expanded, Err: rbErr})
		}
		return s.fail(line, err)
	}
	if err := tx.Commit(); err != nil {
		return s.fail(line, fmt.Errorf("commit: %w", err))
	}

	switch {
	case outcome.Comment:
	case outcome.Descriptor == nil:
		fmt.Fprintln(s.out, ui.Warningf("Command not understood: %s", expanded))
		fmt.Fprintln(s.out, ui.Hint(`Type "help" to list the available commands.`))
	default:
		s.queue.PushFront(outcome.FollowUps...)
		s.logger.Debug("command processed",
			"command", outcome.Descriptor.Syntax(),
			"elapsed", outcome.Elapsed,
			"follow_ups", len(outcome.FollowUps))
	}
	return nil
}

func (s *Session) fail(line string, err error) *CancelledError {
	fmt.Fprintln(s.errOut, ui.Errorf("Command failed: %s", line))
	s.formatError(s.errOut, err)

	if s.policy == SkipOnError {
		s.queue.Fail(line)
		s.logger.Warn("skipping failed command", "command", line, "error", err)
		return nil
	}

	saved := s.saveUnprocessed([]string{line})
	s.logger.Warn("cancelled remaining commands", "command", line, "unprocessed", saved, "error", err)
	return &CancelledError{
		Command:      line,
		RecoveryFile: s.recoveryFile,
		Unprocessed:  saved,
		Err:          err,
	}
}

// saveUnprocessed writes head followed by the drained queue to the recovery
// file and returns how many commands were saved.
func (s *Session) saveUnprocessed(head []string) int {
	lines := append(head, s.queue.Drain()...)
	if len(lines) == 0 {
		return 0
	}
	if err := atomicfile.WriteLines(s.recoveryFile, lines); err != nil {
		s.logger.Error("failed to save unprocessed commands", "file", s.recoveryFile, "error", err)
		return len(lines)
	}
	fmt.Fprintln(s.errOut, ui.Warningf("%d unprocessed command(s) saved to %s", len(lines), s.recoveryFile))
	return len(lines)
}

func (s *Session) terminate() {
	s.setState(StateTerminating)
	if failed := s.queue.Failed(); len(failed) > 0 {
		if err := atomicfile.WriteLines(s.failedFile, failed); err != nil {
			s.logger.Error("failed to save failed commands", "file", s.failedFile, "error", err)
		} else {
			fmt.Fprintln(s.errOut, ui.Warningf("%d failed command(s) saved to %s", len(failed), s.failedFile))
		}
	}
	elapsed := time.Since(s.started)
	fmt.Fprintln(s.out, ui.Hint(fmt.Sprintf("Session %s ended after %s", s.id, elapsed.Round(time.Millisecond))))
	s.logger.Info("session ended", "elapsed", elapsed, "failed", len(s.queue.Failed()))
}
