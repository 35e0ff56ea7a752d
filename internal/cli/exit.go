package cli

import "fmt"

// Process exit statuses.
const (
	ExitOK = 0
	// ExitCancelled ends a batch run stopped by a failure under cancel-on-error.
	ExitCancelled = 1
	// ExitConfig reports unreadable configuration or broken built-in commands.
	ExitConfig = 2
)

// ExitError signals a non-zero exit code without printing an extra
// error message. The command is expected to have already written its own
// output.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}
