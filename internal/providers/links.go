package providers

import (
	"context"
	"fmt"

	"github.com/docportal/repocli/internal/commands"
	"github.com/docportal/repocli/internal/ui"
)

type linkCommands struct{ Deps }

// LinkCommands edits and checks the references between objects.
func LinkCommands(d Deps) *commands.CommandSet {
	c := &linkCommands{d}
	return &commands.CommandSet{
		Group:    "Link Commands",
		TypeName: "LinkCommands",
		Declarations: []commands.Declaration{
			commands.Decl2("link object {0} to {1}", "Adds a reference from object {0} to object {1}", c.link),
			commands.Decl2("unlink object {0} from {1}", "Removes the reference from object {0} to object {1}", c.unlink),
			commands.Decl1("list links of object {0}", "Lists outgoing and incoming references of object {0}", c.list),
			commands.Decl0("check link integrity", "Reports references whose source or target no longer exists", c.check),
		},
	}
}

func (c *linkCommands) link(ctx context.Context, source, target string) (commands.Result, error) {
	if err := c.Store.AddLink(ctx, source, target); err != nil {
		return nil, err
	}
	fmt.Fprintln(c.out(), ui.Successf("Linked %s -> %s", source, target))
	return commands.Done(), nil
}

func (c *linkCommands) unlink(ctx context.Context, source, target string) (commands.Result, error) {
	removed, err := c.Store.RemoveLink(ctx, source, target)
	if err != nil {
		return nil, err
	}
	if !removed {
		fmt.Fprintln(c.out(), ui.Infof("%s does not link to %s", source, target))
		return commands.Done(), nil
	}
	fmt.Fprintln(c.out(), ui.Successf("Unlinked %s -> %s", source, target))
	return commands.Done(), nil
}

func (c *linkCommands) list(ctx context.Context, id string) (commands.Result, error) {
	out, err := c.Store.OutgoingLinks(ctx, id)
	if err != nil {
		return nil, err
	}
	in, err := c.Store.IncomingLinks(ctx, id)
	if err != nil {
		return nil, err
	}
	w := c.out()
	for _, target := range out {
		fmt.Fprintf(w, "%s -> %s\n", id, ui.Syntax(target))
	}
	for _, source := range in {
		fmt.Fprintf(w, "%s <- %s\n", id, ui.Syntax(source))
	}
	if len(out)+len(in) == 0 {
		fmt.Fprintln(w, ui.Infof("%s has no links", id))
	}
	return commands.Done(), nil
}

func (c *linkCommands) check(ctx context.Context) (commands.Result, error) {
	dangling, err := c.Store.DanglingLinks(ctx)
	if err != nil {
		return nil, err
	}
	if len(dangling) == 0 {
		fmt.Fprintln(c.out(), ui.Success("All links resolve"))
		return commands.Done(), nil
	}
	for _, l := range dangling {
		fmt.Fprintln(c.out(), ui.Warningf("%s -> %s is dangling", l.Source, l.Target))
	}
	return nil, fmt.Errorf("%d dangling link(s)", len(dangling))
}
