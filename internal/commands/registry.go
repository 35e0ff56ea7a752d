package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// CommentMarker starts a line that is never dispatched.
const CommentMarker = "#"

// Group is a named, ordered list of descriptors.
type Group struct {
	Name        string
	Descriptors []*Descriptor
}

// Registry is the categorized command catalog. It is built once and read-only
// afterwards, apart from the invocation statistics it accumulates.
type Registry struct {
	groups map[string]*Group
	names  []string
	stats  *Statistics
	logger *slog.Logger
}

// Sources lists where a registry build takes its commands from.
type Sources struct {
	// Builtins are always registered first. Any failure here aborts the build.
	Builtins []any
	// Internal and External are provider names, loaded in that order.
	Internal []string
	External []string
	Resolver ProviderResolver
	Logger   *slog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{
		groups: make(map[string]*Group),
		stats:  NewStatistics(),
		logger: logger,
	}
}

// Build assembles a registry from built-ins and configured providers.
// Built-in failures are returned; provider failures are logged and the
// provider is skipped.
func Build(src Sources) (*Registry, error) {
	r := NewRegistry(src.Logger)
	for _, builtin := range src.Builtins {
		name, ds, err := providerGroup("builtin", builtin)
		if err != nil {
			return nil, fmt.Errorf("register built-in commands: %w", err)
		}
		r.Register(name, ds)
	}

	for _, pass := range []struct {
		label string
		names []string
	}{
		{"internal", src.Internal},
		{"external", src.External},
	} {
		for _, name := range pass.names {
			if err := r.loadProvider(src.Resolver, name); err != nil {
				r.logger.Error("skipping command provider",
					"provider", name, "list", pass.label, "error", err)
			}
		}
	}
	return r, nil
}

func (r *Registry) loadProvider(resolver ProviderResolver, name string) error {
	if resolver == nil {
		return &ProviderLoadError{Provider: name, Err: fmt.Errorf("no provider resolver configured")}
	}
	provider, err := resolver.ResolveProvider(name)
	if err != nil {
		return &ProviderLoadError{Provider: name, Err: err}
	}
	group, ds, err := providerGroup(name, provider)
	if err != nil {
		return &ProviderLoadError{Provider: name, Err: err}
	}
	r.Register(group, ds)
	r.logger.Debug("loaded command provider", "provider", name, "group", group, "commands", len(ds))
	return nil
}

// Register installs a group, replacing any group already registered under
// the same name.
func (r *Registry) Register(name string, descriptors []*Descriptor) {
	if _, exists := r.groups[name]; exists {
		r.logger.Warn("replacing command group", "group", name)
	} else {
		r.names = append(r.names, name)
		sort.Strings(r.names)
	}
	r.groups[name] = &Group{Name: name, Descriptors: append([]*Descriptor(nil), descriptors...)}
}

// Groups returns the groups sorted by name.
func (r *Registry) Groups() []*Group {
	out := make([]*Group, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.groups[name])
	}
	return out
}

// Group returns the group registered under name.
func (r *Registry) Group(name string) (*Group, bool) {
	g, ok := r.groups[name]
	return g, ok
}

// Descriptors returns every descriptor in dispatch order.
func (r *Registry) Descriptors() []*Descriptor {
	var out []*Descriptor
	for _, g := range r.Groups() {
		out = append(out, g.Descriptors...)
	}
	return out
}

// Statistics returns the invocation statistics of this registry.
func (r *Registry) Statistics() *Statistics { return r.stats }

// Match finds the first descriptor whose pattern accepts line.
func (r *Registry) Match(line string) (*Descriptor, Args, bool) {
	for _, name := range r.names {
		for _, d := range r.groups[name].Descriptors {
			if args, ok := d.TryMatch(line); ok {
				return d, args, true
			}
		}
	}
	return nil, nil, false
}

// Outcome describes what a dispatch did.
type Outcome struct {
	// Descriptor is the matched command; nil for comments and unmatched lines.
	Descriptor *Descriptor
	FollowUps  []string
	Comment    bool
	Elapsed    time.Duration
}

// Understood reports whether the line was a comment or matched a command.
func (o Outcome) Understood() bool { return o.Comment || o.Descriptor != nil }

// IsComment reports whether line is a comment.
func IsComment(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), CommentMarker)
}

// Dispatch matches line against the catalog, first match wins, and invokes
// the matched command. Errors from the operation are returned unchanged.
// An unmatched line is not an error: the outcome has no descriptor.
func (r *Registry) Dispatch(ctx context.Context, line string) (Outcome, error) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, CommentMarker) {
		return Outcome{Comment: true}, nil
	}
	d, args, ok := r.Match(line)
	if !ok {
		return Outcome{}, nil
	}
	start := time.Now()
	followUps, err := d.Invoke(ctx, args)
	if err != nil {
		return Outcome{Descriptor: d}, err
	}
	elapsed := time.Since(start)
	r.stats.Record(d, elapsed)
	return Outcome{Descriptor: d, FollowUps: followUps, Elapsed: elapsed}, nil
}
