// Package commands holds the command catalog of the admin CLI: the
// descriptors that pair a syntax pattern with an operation, the registry that
// groups them, and the matcher that turns an input line into an invocation.
package commands

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
)

// Operation is the callable behind a command. It runs inside the caller's
// transactional scope, which travels on ctx.
type Operation func(ctx context.Context, args Args) (Result, error)

// Locator finds operations by name. Providers that are not compiled against
// a fixed table implement it so targets can be looked up on demand.
type Locator interface {
	Operation(name string) (Operation, bool)
}

// Target identifies the operation a descriptor invokes. Resolution happens on
// first invocation.
type Target struct {
	Owner string
	Name  string

	op      Operation
	locator Locator
}

// Func returns a target bound to op.
func Func(owner, name string, op Operation) Target {
	return Target{Owner: owner, Name: name, op: op}
}

// Lookup returns a target that is resolved through l when first invoked.
func Lookup(owner, name string, l Locator) Target {
	return Target{Owner: owner, Name: name, locator: l}
}

func (t Target) String() string {
	if t.Owner == "" {
		return t.Name
	}
	return t.Owner + "." + t.Name
}

func (t Target) resolve() (Operation, error) {
	if t.op != nil {
		return t.op, nil
	}
	if t.locator == nil {
		return nil, &ResolutionError{Target: t, Err: fmt.Errorf("no operation bound")}
	}
	op, ok := t.locator.Operation(t.Name)
	if !ok || op == nil {
		return nil, &ResolutionError{Target: t, Err: fmt.Errorf("%s has no operation %q", t.Owner, t.Name)}
	}
	return op, nil
}

type segment struct {
	literal string
	index   int // placeholder index, -1 for literals
}

func (s segment) isPlaceholder() bool { return s.index >= 0 }

// Descriptor is one matchable, invokable command.
type Descriptor struct {
	syntax  string
	kinds   []Kind
	help    string
	target  Target
	segs    []segment
	literal string

	mu       sync.Mutex
	resolved Operation
}

// NewDescriptor parses syntax and validates that kinds has one supported kind
// per placeholder. Placeholders are written {0}, {1}, ... and kinds[i] is the
// kind of placeholder {i}.
func NewDescriptor(syntax string, kinds []Kind, help string, target Target) (*Descriptor, error) {
	segs, err := parseSyntax(syntax, kinds)
	if err != nil {
		return nil, err
	}
	d := &Descriptor{
		syntax: syntax,
		kinds:  append([]Kind(nil), kinds...),
		help:   help,
		target: target,
		segs:   segs,
	}
	if len(segs) > 0 && !segs[0].isPlaceholder() {
		d.literal = segs[0].literal
	}
	return d, nil
}

// MustDescriptor is NewDescriptor for declarations known to be well formed.
func MustDescriptor(syntax string, kinds []Kind, help string, target Target) *Descriptor {
	d, err := NewDescriptor(syntax, kinds, help, target)
	if err != nil {
		panic(err)
	}
	return d
}

func parseSyntax(syntax string, kinds []Kind) ([]segment, error) {
	bad := func(format string, args ...any) error {
		return &ConfigurationError{Syntax: syntax, Reason: fmt.Sprintf(format, args...)}
	}
	if strings.TrimSpace(syntax) == "" {
		return nil, bad("empty syntax")
	}
	for i, k := range kinds {
		if !k.Valid() {
			return nil, bad("parameter %d has unsupported kind %q", i, k)
		}
	}

	var segs []segment
	seen := make(map[int]bool)
	var lit strings.Builder
	for i := 0; i < len(syntax); {
		if syntax[i] == '{' {
			end := strings.IndexByte(syntax[i:], '}')
			if end > 1 {
				if n, err := strconv.Atoi(syntax[i+1 : i+end]); err == nil && n >= 0 {
					if lit.Len() > 0 {
						segs = append(segs, segment{literal: lit.String(), index: -1})
						lit.Reset()
					} else if len(segs) > 0 {
						return nil, bad("placeholders {%d} and {%d} have no literal text between them", segs[len(segs)-1].index, n)
					}
					if n >= len(kinds) {
						return nil, bad("placeholder {%d} has no declared kind", n)
					}
					if seen[n] {
						return nil, bad("placeholder {%d} appears more than once", n)
					}
					seen[n] = true
					segs = append(segs, segment{index: n})
					i += end + 1
					continue
				}
			}
		}
		lit.WriteByte(syntax[i])
		i++
	}
	if lit.Len() > 0 {
		segs = append(segs, segment{literal: lit.String(), index: -1})
	}
	if len(seen) != len(kinds) {
		return nil, bad("%d parameter kinds declared for %d placeholders", len(kinds), len(seen))
	}
	return segs, nil
}

// Syntax returns the declared pattern.
func (d *Descriptor) Syntax() string { return d.syntax }

// Help returns the help text.
func (d *Descriptor) Help() string { return d.help }

// Kinds returns the parameter kinds in placeholder order.
func (d *Descriptor) Kinds() []Kind { return append([]Kind(nil), d.kinds...) }

// Target returns the operation reference.
func (d *Descriptor) Target() Target { return d.target }

// LiteralPrefix is the fixed text before the first placeholder.
func (d *Descriptor) LiteralPrefix() string { return d.literal }

// TryMatch matches line against the full pattern and returns the coerced
// arguments. It reports false, never an error, when the line does not match.
func (d *Descriptor) TryMatch(line string) (Args, bool) {
	if !strings.HasPrefix(line, d.literal) {
		return nil, false
	}
	args := make(Args, len(d.kinds))
	pos := 0
	for i, seg := range d.segs {
		if !seg.isPlaceholder() {
			if !strings.HasPrefix(line[pos:], seg.literal) {
				return nil, false
			}
			pos += len(seg.literal)
			continue
		}

		var token string
		if i == len(d.segs)-1 {
			token = line[pos:]
		} else {
			next := d.segs[i+1].literal
			at := strings.Index(line[pos:], next)
			if at < 0 {
				return nil, false
			}
			token = line[pos : pos+at]
		}
		if token == "" {
			return nil, false
		}
		value, err := d.kinds[seg.index].coerce(token)
		if err != nil {
			return nil, false
		}
		args[seg.index] = value
		pos += len(token)
	}
	if pos != len(line) {
		return nil, false
	}
	return args, true
}

// Invoke runs the target operation and returns its follow-up commands.
// Errors raised by the operation are returned as-is. A failed resolution is
// not cached, so the next call tries again.
func (d *Descriptor) Invoke(ctx context.Context, args Args) (followUps []string, err error) {
	op, err := d.operation()
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			followUps = nil
			err = &PanicError{Syntax: d.syntax, Value: r, stack: debug.Stack()}
		}
	}()
	result, err := op(ctx, args)
	if err != nil {
		return nil, err
	}
	return followUpsOf(result), nil
}

func (d *Descriptor) operation() (Operation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.resolved != nil {
		return d.resolved, nil
	}
	op, err := d.target.resolve()
	if err != nil {
		return nil, err
	}
	d.resolved = op
	return op, nil
}

func (d *Descriptor) String() string { return d.syntax }
