package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

type recorder struct {
	calls []string
}

func (r *recorder) op(name string, result Result) Operation {
	return func(_ context.Context, args Args) (Result, error) {
		r.calls = append(r.calls, fmt.Sprintf("%s%v", name, []any(args)))
		return result, nil
	}
}

type legacyAccess struct {
	ds []*Descriptor
}

func (l *legacyAccess) DisplayName() string              { return "Access Commands" }
func (l *legacyAccess) Commands() ([]*Descriptor, error) { return l.ds, nil }

func TestBuildOrdersGroupsAndDescriptors(t *testing.T) {
	rec := &recorder{}
	objects := &CommandSet{
		Group:    "Object Commands",
		TypeName: "ObjectCommands",
		Declarations: []Declaration{
			{Syntax: "delete object {0}", Kinds: []Kind{KindText}, Order: 20, Op: rec.op("single", nil)},
			{Syntax: "delete object from {0} to {1}", Kinds: []Kind{KindText, KindText}, Order: 10, Op: rec.op("range", nil)},
			{Syntax: "list objects", Order: 20, Op: rec.op("list", nil)},
		},
	}
	system := &CommandSet{
		TypeName:     "SystemCommands",
		Declarations: []Declaration{{Syntax: "show store statistics", Op: rec.op("stats", nil)}},
	}
	access := &legacyAccess{ds: []*Descriptor{
		MustDescriptor("list access rules of object {0}", []Kind{KindText}, "", Func("access", "list", rec.op("acl", nil))),
	}}
	catalog := map[string]any{
		"providers.ObjectCommands": objects,
		"providers.SystemCommands": system,
		"providers.AccessCommands": access,
	}
	resolver := ProviderResolverFunc(func(name string) (any, error) {
		p, ok := catalog[name]
		if !ok {
			return nil, fmt.Errorf("unknown provider")
		}
		return p, nil
	})

	reg, err := Build(Sources{
		Builtins: []any{&CommandSet{Group: "Basic commands", Declarations: []Declaration{{Syntax: "help", Op: rec.op("help", nil)}}}},
		Internal: []string{"providers.ObjectCommands", "providers.SystemCommands"},
		External: []string{"providers.AccessCommands"},
		Resolver: resolver,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var names []string
	for _, g := range reg.Groups() {
		names = append(names, g.Name)
	}
	want := "Access Commands,Basic commands,Object Commands,SystemCommands"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("groups = %s, want %s", got, want)
	}

	g, _ := reg.Group("Object Commands")
	var syntaxes []string
	for _, d := range g.Descriptors {
		syntaxes = append(syntaxes, d.Syntax())
	}
	wantOrder := "delete object from {0} to {1}|delete object {0}|list objects"
	if got := strings.Join(syntaxes, "|"); got != wantOrder {
		t.Errorf("descriptor order = %s, want %s", got, wantOrder)
	}
}

func TestBuildSkipsBrokenProviders(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	good := &CommandSet{Group: "Good", Declarations: []Declaration{{Syntax: "ping", Op: noop}}}
	bad := &CommandSet{Group: "Bad", Declarations: []Declaration{{Syntax: "scale {0}", Kinds: []Kind{"double"}, Op: noop}}}

	reg, err := Build(Sources{
		Internal: []string{"missing.Provider", "bad.Provider"},
		External: []string{"good.Provider"},
		Resolver: ProviderResolverFunc(func(name string) (any, error) {
			switch name {
			case "good.Provider":
				return good, nil
			case "bad.Provider":
				return bad, nil
			}
			return nil, errors.New("not found")
		}),
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := reg.Group("Good"); !ok {
		t.Error("expected the working provider to load")
	}
	if _, ok := reg.Group("Bad"); ok {
		t.Error("expected the malformed provider to be skipped")
	}
	if !strings.Contains(logs.String(), "missing.Provider") {
		t.Errorf("expected provider failure to be logged, got %q", logs.String())
	}
}

func TestBuildFailsOnBrokenBuiltin(t *testing.T) {
	broken := &CommandSet{Group: "Basic commands", Declarations: []Declaration{{Syntax: "get {0}{1}", Kinds: []Kind{KindText, KindText}, Op: noop}}}
	_, err := Build(Sources{Builtins: []any{broken}})
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestRegisterReplacesGroup(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register("Objects", []*Descriptor{MustDescriptor("a", nil, "", Func("t", "a", noop))})
	reg.Register("Objects", []*Descriptor{MustDescriptor("b", nil, "", Func("t", "b", noop))})

	g, _ := reg.Group("Objects")
	if len(g.Descriptors) != 1 || g.Descriptors[0].Syntax() != "b" {
		t.Errorf("expected group to be replaced wholesale, got %v", g.Descriptors)
	}
	if len(reg.Groups()) != 1 {
		t.Errorf("expected one group, got %d", len(reg.Groups()))
	}
}

func TestDispatchFirstMatchWins(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry(nil)
	reg.Register("Objects", []*Descriptor{
		MustDescriptor("delete object from {0} to {1}", []Kind{KindText, KindText}, "", Func("t", "range", rec.op("range", nil))),
		MustDescriptor("delete object {0}", []Kind{KindText}, "", Func("t", "single", rec.op("single", nil))),
	})
	reg.Register("Shadowed", []*Descriptor{
		MustDescriptor("delete object {0}", []Kind{KindText}, "", Func("t", "shadow", rec.op("shadow", nil))),
	})

	for i := 0; i < 2; i++ {
		out, err := reg.Dispatch(context.Background(), "delete object DocPortal_document_00000001")
		if err != nil {
			t.Fatal(err)
		}
		if out.Descriptor.Syntax() != "delete object {0}" {
			t.Errorf("matched %q", out.Descriptor.Syntax())
		}
	}
	if _, err := reg.Dispatch(context.Background(), "delete object from a to b"); err != nil {
		t.Fatal(err)
	}

	want := "single[DocPortal_document_00000001],single[DocPortal_document_00000001],range[a b]"
	if got := strings.Join(rec.calls, ","); got != want {
		t.Errorf("calls = %s, want %s", got, want)
	}
}

func TestDispatchComments(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry(nil)
	d := MustDescriptor("# {0}", []Kind{KindText}, "", Func("t", "hash", rec.op("hash", Expand("x"))))
	reg.Register("Greedy", []*Descriptor{d})

	for _, line := range []string{"# this is a comment", "   #indented", "#"} {
		out, err := reg.Dispatch(context.Background(), line)
		if err != nil {
			t.Fatal(err)
		}
		if !out.Comment || len(out.FollowUps) != 0 {
			t.Errorf("Dispatch(%q) = %+v, want comment with no follow-ups", line, out)
		}
	}
	if len(rec.calls) != 0 {
		t.Errorf("comment invoked a descriptor: %v", rec.calls)
	}
	if _, ok := reg.Statistics().Get(d); ok {
		t.Error("comment recorded statistics")
	}
}

func TestDispatchNotUnderstood(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register("Basic", []*Descriptor{MustDescriptor("help", nil, "", Func("t", "help", noop))})

	out, err := reg.Dispatch(context.Background(), "frobnicate the index")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Understood() {
		t.Error("expected unmatched line not to be understood")
	}
}

func TestDispatchReturnsFollowUpsAndRecordsStatistics(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry(nil)
	d := MustDescriptor("export all objects of type {0} to directory {1} with {2}", []Kind{KindText, KindText, KindText}, "",
		Func("t", "exportAll", rec.op("exportAll", Expand(
			"export object DocPortal_document_00000001 to directory /tmp/out with save",
			"export object DocPortal_document_00000002 to directory /tmp/out with save",
		))))
	reg.Register("Objects", []*Descriptor{d})

	out, err := reg.Dispatch(context.Background(), "  export all objects of type document to directory /tmp/out with save ")
	if err != nil {
		t.Fatal(err)
	}
	if len(out.FollowUps) != 2 || !strings.Contains(out.FollowUps[0], "00000001") {
		t.Errorf("follow-ups = %v", out.FollowUps)
	}
	st, ok := reg.Statistics().Get(d)
	if !ok || st.Count != 1 {
		t.Errorf("stat = %+v, %v", st, ok)
	}
}

func TestDispatchErrorSkipsStatistics(t *testing.T) {
	reg := NewRegistry(nil)
	d := MustDescriptor("fail", nil, "", Func("t", "fail", func(context.Context, Args) (Result, error) {
		return nil, errors.New("boom")
	}))
	reg.Register("Basic", []*Descriptor{d})

	out, err := reg.Dispatch(context.Background(), "fail")
	if err == nil {
		t.Fatal("expected error")
	}
	if out.Descriptor != d {
		t.Error("expected outcome to name the failing descriptor")
	}
	if len(reg.Statistics().Snapshot()) != 0 {
		t.Error("failed invocation recorded statistics")
	}
}
