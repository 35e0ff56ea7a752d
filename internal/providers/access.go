package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/docportal/repocli/internal/commands"
	"github.com/docportal/repocli/internal/store"
	"github.com/docportal/repocli/internal/ui"
)

// AccessCommands manages access rules. It hands over pre-built descriptors
// whose operations are looked up by name on first use.
type AccessCommands struct {
	deps Deps
}

// NewAccessCommands fails when no store is available.
func NewAccessCommands(d Deps) (*AccessCommands, error) {
	if d.Store == nil {
		return nil, errors.New("access commands need a repository store")
	}
	return &AccessCommands{deps: d}, nil
}

// DisplayName is the group label.
func (a *AccessCommands) DisplayName() string { return "Access Commands" }

var accessTable = []struct {
	syntax string
	name   string
	kinds  []commands.Kind
	help   string
}{
	{"grant {0} on object {1} to {2}", "grant", textKinds(3), "Grants permission {0} on object {1} to principal {2}"},
	{"revoke {0} on object {1} from {2}", "revoke", textKinds(3), "Revokes permission {0} on object {1} from principal {2}"},
	{"list access rules of object {0}", "list", textKinds(1), "Lists the access rules of object {0}"},
	{"delete all access rules of object {0}", "deleteAll", textKinds(1), "Removes every access rule of object {0}"},
}

func textKinds(n int) []commands.Kind {
	kinds := make([]commands.Kind, n)
	for i := range kinds {
		kinds[i] = commands.KindText
	}
	return kinds
}

// Commands returns the access rule descriptors.
func (a *AccessCommands) Commands() ([]*commands.Descriptor, error) {
	out := make([]*commands.Descriptor, 0, len(accessTable))
	for _, e := range accessTable {
		d, err := commands.NewDescriptor(e.syntax, e.kinds, e.help, commands.Lookup("AccessCommands", e.name, a))
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Operation implements commands.Locator.
func (a *AccessCommands) Operation(name string) (commands.Operation, bool) {
	switch name {
	case "grant":
		return a.grant, true
	case "revoke":
		return a.revoke, true
	case "list":
		return a.list, true
	case "deleteAll":
		return a.deleteAll, true
	}
	return nil, false
}

func ruleFrom(args commands.Args) store.AccessRule {
	return store.AccessRule{Permission: args.String(0), ObjectID: args.String(1), Principal: args.String(2)}
}

func (a *AccessCommands) grant(ctx context.Context, args commands.Args) (commands.Result, error) {
	rule := ruleFrom(args)
	if err := a.deps.Store.Grant(ctx, rule); err != nil {
		return nil, err
	}
	fmt.Fprintln(a.deps.out(), ui.Successf("Granted %s on %s to %s", rule.Permission, rule.ObjectID, rule.Principal))
	return commands.Done(), nil
}

func (a *AccessCommands) revoke(ctx context.Context, args commands.Args) (commands.Result, error) {
	rule := ruleFrom(args)
	removed, err := a.deps.Store.Revoke(ctx, rule)
	if err != nil {
		return nil, err
	}
	if !removed {
		fmt.Fprintln(a.deps.out(), ui.Infof("%s had no %s rule on %s", rule.Principal, rule.Permission, rule.ObjectID))
		return commands.Done(), nil
	}
	fmt.Fprintln(a.deps.out(), ui.Successf("Revoked %s on %s from %s", rule.Permission, rule.ObjectID, rule.Principal))
	return commands.Done(), nil
}

func (a *AccessCommands) list(ctx context.Context, args commands.Args) (commands.Result, error) {
	id := args.String(0)
	rules, err := a.deps.Store.AccessRules(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		fmt.Fprintln(a.deps.out(), ui.Infof("%s has no access rules", id))
		return commands.Done(), nil
	}
	tbl := ui.NewTable(
		ui.Column{Header: "permission", Style: ui.Accent},
		ui.Column{Header: "principal"},
		ui.Column{Header: "since", Style: ui.Muted},
	)
	for _, r := range rules {
		tbl.AddRow(r.Permission, r.Principal, r.Created.Format("2006-01-02"))
	}
	fmt.Fprintln(a.deps.out(), tbl.Render())
	return commands.Done(), nil
}

func (a *AccessCommands) deleteAll(ctx context.Context, args commands.Args) (commands.Result, error) {
	id := args.String(0)
	n, err := a.deps.Store.DeleteAccessRules(ctx, id)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(a.deps.out(), ui.Successf("Removed %d access rule(s) of %s", n, id))
	return commands.Done(), nil
}
