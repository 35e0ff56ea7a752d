package providers

import (
	"context"
	"fmt"

	"github.com/docportal/repocli/internal/commands"
	"github.com/docportal/repocli/internal/slugs"
	"github.com/docportal/repocli/internal/store"
	"github.com/docportal/repocli/internal/ui"
)

type classificationCommands struct{ Deps }

// ClassificationCommands edits classification trees.
func ClassificationCommands(d Deps) *commands.CommandSet {
	c := &classificationCommands{d}
	return &commands.CommandSet{
		Group:    "Classification Commands",
		TypeName: "ClassificationCommands",
		Declarations: []commands.Declaration{
			commands.Decl2("create classification {0} with label {1}", "Creates an empty classification {0}", c.create),
			commands.Decl3("add category {0} to classification {1} with label {2}", "Appends category {0} to classification {1}", c.addCategory),
			commands.Decl2("add category labelled {0} to classification {1}", "Appends a category whose ID is derived from label {0}", c.addLabelled).WithOrder(-1),
			commands.Decl1("list classification {0}", "Lists the categories of classification {0}", c.list),
			commands.Decl1("delete classification {0}", "Deletes classification {0} and its categories", c.delete),
		},
	}
}

func (c *classificationCommands) create(ctx context.Context, id, label string) (commands.Result, error) {
	if err := c.Store.CreateClassification(ctx, id, label); err != nil {
		return nil, err
	}
	fmt.Fprintln(c.out(), ui.Successf("Created classification %s", id))
	return commands.Done(), nil
}

func (c *classificationCommands) addCategory(ctx context.Context, id, classID, label string) (commands.Result, error) {
	if err := c.Store.AddCategory(ctx, classID, store.Category{ID: id, Label: label}); err != nil {
		return nil, err
	}
	fmt.Fprintln(c.out(), ui.Successf("Added %s to %s", id, classID))
	return commands.Done(), nil
}

func (c *classificationCommands) addLabelled(ctx context.Context, label, classID string) (commands.Result, error) {
	id := slugs.ComponentSlug(label)
	if id == "" {
		return nil, fmt.Errorf("cannot derive a category id from label %q", label)
	}
	return c.addCategory(ctx, id, classID, label)
}

func (c *classificationCommands) list(ctx context.Context, id string) (commands.Result, error) {
	cl, err := c.Store.GetClassification(ctx, id)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(c.out(), ui.Header(cl.Label), ui.Hint(ui.Count(len(cl.Categories), "category", "categories")))
	for _, cat := range cl.Categories {
		fmt.Fprintf(c.out(), "  %s  %s\n", ui.Syntax(cat.ID), cat.Label)
	}
	return commands.Done(), nil
}

func (c *classificationCommands) delete(ctx context.Context, id string) (commands.Result, error) {
	if err := c.Store.DeleteClassification(ctx, id); err != nil {
		return nil, err
	}
	fmt.Fprintln(c.out(), ui.Successf("Deleted classification %s", id))
	return commands.Done(), nil
}
