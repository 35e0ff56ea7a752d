// Package providers holds the repository command providers and the catalog
// that maps configured provider names onto them.
package providers

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/docportal/repocli/internal/store"
)

// Deps are the collaborators shared by all providers.
type Deps struct {
	Store *store.Store
	// Project prefixes object IDs created or listed without one.
	Project string
	Out     io.Writer
	Logger  *slog.Logger
}

func (d Deps) out() io.Writer {
	if d.Out == nil {
		return os.Stdout
	}
	return d.Out
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return d.Logger
}

// QualifiedPrefix is the namespace of provider names in configuration.
const QualifiedPrefix = "repocli.providers."

// Factory builds one provider.
type Factory func(Deps) (any, error)

// Catalog resolves configured provider names.
type Catalog struct {
	deps      Deps
	factories map[string]Factory
}

// NewCatalog returns a catalog holding every provider of this package.
func NewCatalog(deps Deps) *Catalog {
	c := &Catalog{deps: deps, factories: make(map[string]Factory)}
	c.Add("ObjectCommands", func(d Deps) (any, error) { return ObjectCommands(d), nil })
	c.Add("LinkCommands", func(d Deps) (any, error) { return LinkCommands(d), nil })
	c.Add("AccessCommands", func(d Deps) (any, error) { return NewAccessCommands(d) })
	c.Add("ClassificationCommands", func(d Deps) (any, error) { return ClassificationCommands(d), nil })
	c.Add("SystemCommands", func(d Deps) (any, error) { return SystemCommands(d), nil })
	return c
}

// Add registers a factory under a short name.
func (c *Catalog) Add(name string, f Factory) {
	c.factories[name] = f
}

// Names returns the registered short names in order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.factories))
	for name := range c.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveProvider builds the provider registered under name. Both the
// short name and the qualified form are accepted.
func (c *Catalog) ResolveProvider(name string) (any, error) {
	short := strings.TrimPrefix(strings.TrimSpace(name), QualifiedPrefix)
	f, ok := c.factories[short]
	if !ok {
		return nil, fmt.Errorf("no command provider named %q", name)
	}
	return f(c.deps)
}

// DefaultInternal lists the providers loaded when configuration names none.
func DefaultInternal() []string {
	return []string{
		QualifiedPrefix + "ObjectCommands",
		QualifiedPrefix + "LinkCommands",
		QualifiedPrefix + "AccessCommands",
		QualifiedPrefix + "ClassificationCommands",
		QualifiedPrefix + "SystemCommands",
	}
}
