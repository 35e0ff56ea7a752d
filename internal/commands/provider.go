package commands

import (
	"context"
	"fmt"
	"sort"
)

// Declaration is one entry of a declarative command table.
type Declaration struct {
	Syntax string
	Help   string
	// Order sorts declarations within their group; ties keep declaration order.
	Order int
	// Name identifies the operation for diagnostics. Defaults to Syntax.
	Name  string
	Kinds []Kind
	Op    Operation
}

// CommandSet is a declarative provider: a table of declarations registered
// as one group.
type CommandSet struct {
	// Group is the display label. When empty, TypeName is used.
	Group string
	// TypeName is the provider's short type name.
	TypeName     string
	Declarations []Declaration
}

// GroupName returns the label the set registers under.
func (s *CommandSet) GroupName() string {
	if s.Group != "" {
		return s.Group
	}
	return s.TypeName
}

// Descriptors builds one descriptor per declaration, ordered by Order with
// ties broken by position in the table.
func (s *CommandSet) Descriptors() ([]*Descriptor, error) {
	type entry struct {
		d     *Descriptor
		order int
	}
	entries := make([]entry, 0, len(s.Declarations))
	for _, decl := range s.Declarations {
		if decl.Op == nil {
			return nil, &ConfigurationError{Syntax: decl.Syntax, Reason: "no operation bound"}
		}
		name := decl.Name
		if name == "" {
			name = decl.Syntax
		}
		d, err := NewDescriptor(decl.Syntax, decl.Kinds, decl.Help, Func(s.TypeName, name, decl.Op))
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{d: d, order: decl.Order})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].order < entries[j].order })
	out := make([]*Descriptor, len(entries))
	for i, e := range entries {
		out[i] = e.d
	}
	return out, nil
}

// LegacyProvider is the instance-based provider contract: an object that
// hands over pre-built descriptors under a display name.
type LegacyProvider interface {
	DisplayName() string
	Commands() ([]*Descriptor, error)
}

// ProviderResolver turns a configured provider name into a provider value,
// either a *CommandSet or a LegacyProvider.
type ProviderResolver interface {
	ResolveProvider(name string) (any, error)
}

// ProviderResolverFunc adapts a function to ProviderResolver.
type ProviderResolverFunc func(name string) (any, error)

func (f ProviderResolverFunc) ResolveProvider(name string) (any, error) { return f(name) }

// Param is the set of Go types a typed operation may take for a placeholder.
type Param interface {
	int | int32 | int64 | string
}

func kindOf[T Param]() Kind {
	var zero T
	switch any(zero).(type) {
	case int, int32:
		return KindInt
	case int64:
		return KindLong
	default:
		return KindText
	}
}

func argAs[T Param](args Args, i int) T {
	var out T
	switch p := any(&out).(type) {
	case *int:
		*p = args.Int(i)
	case *int32:
		*p = int32(args.Int(i))
	case *int64:
		*p = args.Int64(i)
	case *string:
		*p = args.String(i)
	}
	return out
}

// Decl0 declares a command without placeholders.
func Decl0(syntax, help string, fn func(ctx context.Context) (Result, error)) Declaration {
	return Declaration{
		Syntax: syntax,
		Help:   help,
		Op:     func(ctx context.Context, _ Args) (Result, error) { return fn(ctx) },
	}
}

// Decl1 declares a one-placeholder command; the kind is taken from A.
func Decl1[A Param](syntax, help string, fn func(ctx context.Context, a A) (Result, error)) Declaration {
	return Declaration{
		Syntax: syntax,
		Help:   help,
		Kinds:  []Kind{kindOf[A]()},
		Op: func(ctx context.Context, args Args) (Result, error) {
			return fn(ctx, argAs[A](args, 0))
		},
	}
}

// Decl2 declares a two-placeholder command.
func Decl2[A, B Param](syntax, help string, fn func(ctx context.Context, a A, b B) (Result, error)) Declaration {
	return Declaration{
		Syntax: syntax,
		Help:   help,
		Kinds:  []Kind{kindOf[A](), kindOf[B]()},
		Op: func(ctx context.Context, args Args) (Result, error) {
			return fn(ctx, argAs[A](args, 0), argAs[B](args, 1))
		},
	}
}

// Decl3 declares a three-placeholder command.
func Decl3[A, B, C Param](syntax, help string, fn func(ctx context.Context, a A, b B, c C) (Result, error)) Declaration {
	return Declaration{
		Syntax: syntax,
		Help:   help,
		Kinds:  []Kind{kindOf[A](), kindOf[B](), kindOf[C]()},
		Op: func(ctx context.Context, args Args) (Result, error) {
			return fn(ctx, argAs[A](args, 0), argAs[B](args, 1), argAs[C](args, 2))
		},
	}
}

// WithOrder returns a copy of d with the given sort order.
func (d Declaration) WithOrder(order int) Declaration {
	d.Order = order
	return d
}

// Named returns a copy of d with an explicit operation name.
func (d Declaration) Named(name string) Declaration {
	d.Name = name
	return d
}

func providerGroup(name string, provider any) (string, []*Descriptor, error) {
	switch p := provider.(type) {
	case *CommandSet:
		ds, err := p.Descriptors()
		return p.GroupName(), ds, err
	case LegacyProvider:
		ds, err := p.Commands()
		return p.DisplayName(), ds, err
	case nil:
		return "", nil, fmt.Errorf("provider %s resolved to nothing", name)
	default:
		return "", nil, fmt.Errorf("provider %s has unsupported type %T", name, provider)
	}
}
