// Package diag renders operator diagnostics: error reports with their cause
// chain, command help and invocation statistics.
package diag

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/docportal/repocli/internal/ui"
)

// CauseBanner separates an error from the cause printed after it.
const CauseBanner = "--- caused by ---"

type blockingReferencer interface {
	BlockingReferences() [][2]string
}

type tracer interface {
	Trace() string
}

// FormatError writes a multi-line report of err: its type and message, its
// trace when one was captured, then every underlying cause in turn.
// Errors carrying blocking references list each source -> destination pair
// first.
func FormatError(w io.Writer, err error) {
	if err == nil {
		return
	}
	var blocked blockingReferencer
	if errors.As(err, &blocked) {
		pairs := blocked.BlockingReferences()
		fmt.Fprintln(w, ui.Error(fmt.Sprintf("%d blocking reference(s):", len(pairs))))
		for _, p := range pairs {
			fmt.Fprintf(w, "  %s -> %s\n", ui.Syntax(p[0]), p[1])
		}
	}
	formatChain(w, err, 0)
}

// FormatErrorString returns the report FormatError would write.
func FormatErrorString(err error) string {
	var sb strings.Builder
	FormatError(&sb, err)
	return sb.String()
}

func formatChain(w io.Writer, err error, depth int) {
	for ; err != nil; depth++ {
		if depth > 0 {
			fmt.Fprintln(w, ui.Hint(CauseBanner))
		}
		fmt.Fprintf(w, "%s: %s\n", TypeName(err), err.Error())
		if t, ok := err.(tracer); ok {
			if trace := t.Trace(); trace != "" {
				for _, line := range strings.Split(trace, "\n") {
					fmt.Fprintln(w, "    "+line)
				}
			}
		}

		if multi, ok := err.(interface{ Unwrap() []error }); ok {
			for _, cause := range multi.Unwrap() {
				formatChain(w, cause, depth+1)
			}
			return
		}
		err = errors.Unwrap(err)
	}
}

// TypeName returns the package-qualified type of err without pointer marks.
func TypeName(err error) string {
	return strings.TrimLeft(fmt.Sprintf("%T", err), "*")
}
