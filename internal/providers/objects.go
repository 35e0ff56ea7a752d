package providers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/docportal/repocli/internal/commands"
	"github.com/docportal/repocli/internal/ui"
)

type objectCommands struct{ Deps }

// ObjectCommands loads, exports, lists and deletes metadata objects.
func ObjectCommands(d Deps) *commands.CommandSet {
	c := &objectCommands{d}
	return &commands.CommandSet{
		Group:    "Object Commands",
		TypeName: "ObjectCommands",
		Declarations: []commands.Declaration{
			commands.Decl1("load object from file {0}", "Loads the object stored in YAML or JSON file {0}", c.load).WithOrder(10),
			commands.Decl1("load all objects from directory {0}", "Loads every object file in directory {0}, linked objects first", c.loadAll).WithOrder(10),
			commands.Decl1("update object from file {0}", "Replaces an existing object with the content of file {0}", c.update).WithOrder(10),
			commands.Decl3("export object {0} to directory {1} with {2}", "Writes object {0} to directory {1} in style {2} (save or json)", c.export).WithOrder(20),
			commands.Decl3("export all objects of type {0} to directory {1} with {2}", "Exports every object of type {0} to directory {1} in style {2}", c.exportAll).WithOrder(20),
			commands.Decl2("delete object from {0} to {1}", "Deletes the objects whose IDs lie between {0} and {1}", c.deleteRange).WithOrder(30),
			commands.Decl1("delete object {0}", "Deletes object {0} unless other objects link to it", c.delete).WithOrder(40),
			commands.Decl1("list objects of type {0}", "Lists the IDs of all objects of type {0}", c.list).WithOrder(50),
			commands.Decl1("count objects of type {0}", "Counts the objects of type {0}", c.count).WithOrder(50),
			commands.Decl1("show next id of type {0}", "Shows the next free ID of type {0} in the configured project", c.nextID).WithOrder(50),
			commands.Decl1("show object {0}", "Prints object {0}", c.show).WithOrder(50),
		},
	}
}

func (c *objectCommands) load(ctx context.Context, path string) (commands.Result, error) {
	obj, err := ReadObjectFile(path)
	if err != nil {
		return nil, err
	}
	if err := c.Store.CreateObject(ctx, obj); err != nil {
		return nil, err
	}
	fmt.Fprintln(c.out(), ui.Successf("Loaded %s", obj.ID))
	return commands.Done(), nil
}

func (c *objectCommands) loadAll(_ context.Context, dir string) (commands.Result, error) {
	paths, err := LoadOrder(dir)
	if err != nil {
		return nil, err
	}
	cmds := make([]string, len(paths))
	for i, p := range paths {
		cmds[i] = "load object from file " + p
	}
	c.logger().Info("queued object loads", "directory", dir, "objects", len(cmds))
	return commands.Expand(cmds...), nil
}

func (c *objectCommands) update(ctx context.Context, path string) (commands.Result, error) {
	obj, err := ReadObjectFile(path)
	if err != nil {
		return nil, err
	}
	if err := c.Store.UpdateObject(ctx, obj); err != nil {
		return nil, err
	}
	fmt.Fprintln(c.out(), ui.Successf("Updated %s", obj.ID))
	return commands.Done(), nil
}

func (c *objectCommands) export(ctx context.Context, id, dir, style string) (commands.Result, error) {
	format, err := ParseExportFormat(style)
	if err != nil {
		return nil, err
	}
	obj, err := c.Store.GetObject(ctx, id)
	if err != nil {
		return nil, err
	}
	path, err := WriteObjectFile(dir, obj, format)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(c.out(), ui.Successf("Exported %s to %s", id, path))
	return commands.Done(), nil
}

func (c *objectCommands) exportAll(ctx context.Context, typ, dir, style string) (commands.Result, error) {
	if _, err := ParseExportFormat(style); err != nil {
		return nil, err
	}
	ids, err := c.Store.ObjectIDsOfType(ctx, typ)
	if err != nil {
		return nil, err
	}
	cmds := make([]string, len(ids))
	for i, id := range ids {
		cmds[i] = fmt.Sprintf("export object %s to directory %s with %s", id, dir, style)
	}
	return commands.Expand(cmds...), nil
}

func (c *objectCommands) delete(ctx context.Context, id string) (commands.Result, error) {
	if err := c.Store.DeleteObject(ctx, id); err != nil {
		return nil, err
	}
	fmt.Fprintln(c.out(), ui.Successf("Deleted %s", id))
	return commands.Done(), nil
}

func (c *objectCommands) deleteRange(ctx context.Context, from, to string) (commands.Result, error) {
	ids, err := c.Store.ObjectIDsInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	cmds := make([]string, len(ids))
	for i, id := range ids {
		cmds[i] = "delete object " + id
	}
	return commands.Expand(cmds...), nil
}

func (c *objectCommands) list(ctx context.Context, typ string) (commands.Result, error) {
	ids, err := c.Store.ObjectIDsOfType(ctx, typ)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		fmt.Fprintln(c.out(), id)
	}
	fmt.Fprintln(c.out(), ui.Hint(ui.Count(len(ids), "object", "objects")))
	return commands.Done(), nil
}

func (c *objectCommands) count(ctx context.Context, typ string) (commands.Result, error) {
	n, err := c.Store.CountObjects(ctx, typ)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(c.out(), "%d\n", n)
	return commands.Done(), nil
}

func (c *objectCommands) nextID(ctx context.Context, typ string) (commands.Result, error) {
	if c.Project == "" {
		return nil, fmt.Errorf("no project configured")
	}
	id, err := c.Store.NextObjectID(ctx, c.Project, typ)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(c.out(), id)
	return commands.Done(), nil
}

func (c *objectCommands) show(ctx context.Context, id string) (commands.Result, error) {
	obj, err := c.Store.GetObject(ctx, id)
	if err != nil {
		return nil, err
	}
	w := c.out()
	fmt.Fprintln(w, ui.Header(obj.ID), ui.Hint(obj.Label))
	keys := make([]string, 0, len(obj.Fields))
	for k := range obj.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	tbl := ui.NewTable(ui.Column{Header: "field", Style: ui.Muted}, ui.Column{Header: "value"})
	for _, k := range keys {
		tbl.AddRow(k, obj.Fields[k])
	}
	if tbl.Len() > 0 {
		fmt.Fprintln(w, tbl.Render())
	}
	if len(obj.Links) > 0 {
		fmt.Fprintln(w, "links:", ui.Syntax(strings.Join(obj.Links, ", ")))
	}
	fmt.Fprintln(w, ui.Hint(fmt.Sprintf("created %s, modified %s",
		obj.Created.Format("2006-01-02 15:04:05"), obj.Modified.Format("2006-01-02 15:04:05"))))
	return commands.Done(), nil
}
