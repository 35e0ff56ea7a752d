package commands

import (
	"fmt"
	"strconv"
)

// Kind is the semantic type a placeholder coerces to.
type Kind string

const (
	KindInt  Kind = "int"
	KindLong Kind = "long"
	KindText Kind = "text"
)

// Valid reports whether k is one of the supported placeholder kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindInt, KindLong, KindText:
		return true
	}
	return false
}

// coerce converts a captured token to the native representation of k.
// Numeric kinds use locale-invariant, grouping-free base-10 parsing.
func (k Kind) coerce(token string) (any, error) {
	switch k {
	case KindInt:
		n, err := strconv.ParseInt(token, 10, 32)
		if err != nil {
			return nil, err
		}
		return int(n), nil
	case KindLong:
		n, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return nil, err
		}
		return n, nil
	default:
		return token, nil
	}
}

// Args is the ordered list of coerced placeholder values handed to an operation.
// Element i holds the value captured for placeholder {i}.
type Args []any

// String returns argument i as text.
func (a Args) String(i int) string {
	if i < 0 || i >= len(a) {
		return ""
	}
	switch v := a[i].(type) {
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Int returns argument i as an int. Long values are narrowed.
func (a Args) Int(i int) int {
	if i < 0 || i >= len(a) {
		return 0
	}
	switch v := a[i].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

// Int64 returns argument i as an int64.
func (a Args) Int64(i int) int64 {
	if i < 0 || i >= len(a) {
		return 0
	}
	switch v := a[i].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	}
	return 0
}

// Result is what an operation hands back to the dispatcher: either no
// follow-up work or an ordered list of follow-up command lines.
type Result interface {
	followUps() []string
}

// NoFollowUp is the result of an operation that queues nothing.
type NoFollowUp struct{}

func (NoFollowUp) followUps() []string { return nil }

// FollowUpCommands lists command lines to run next, in order, ahead of
// anything already queued.
type FollowUpCommands []string

func (f FollowUpCommands) followUps() []string {
	if len(f) == 0 {
		return nil
	}
	out := make([]string, len(f))
	copy(out, f)
	return out
}

// Done is shorthand for an operation that queues nothing.
func Done() Result { return NoFollowUp{} }

// Expand queues the given command lines as follow-ups.
func Expand(lines ...string) Result { return FollowUpCommands(lines) }

// followUpsOf normalizes a possibly nil result.
func followUpsOf(r Result) []string {
	if r == nil {
		return nil
	}
	return r.followUps()
}
