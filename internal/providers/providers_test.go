package providers

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/docportal/repocli/internal/commands"
	"github.com/docportal/repocli/internal/store"
	"github.com/docportal/repocli/internal/testutil"
)

type rig struct {
	repo *testutil.TestRepo
	reg  *commands.Registry
	out  *bytes.Buffer
}

func newRig(t *testing.T, repo *testutil.TestRepo) *rig {
	t.Helper()
	out := &bytes.Buffer{}
	catalog := NewCatalog(Deps{Store: repo.Store, Project: "DocPortal", Out: out})
	reg, err := commands.Build(commands.Sources{Internal: DefaultInternal(), Resolver: catalog})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return &rig{repo: repo, reg: reg, out: out}
}

func (r *rig) dispatch(t *testing.T, line string) []string {
	t.Helper()
	outcome, err := r.reg.Dispatch(context.Background(), line)
	if err != nil {
		t.Fatalf("%s: %v", line, err)
	}
	if !outcome.Understood() {
		t.Fatalf("%s: not understood", line)
	}
	return outcome.FollowUps
}

func (r *rig) dispatchErr(t *testing.T, line string) error {
	t.Helper()
	outcome, err := r.reg.Dispatch(context.Background(), line)
	if err == nil && !outcome.Understood() {
		t.Fatalf("%s: not understood", line)
	}
	return err
}

func TestCatalogResolvesShortAndQualifiedNames(t *testing.T) {
	c := NewCatalog(Deps{})
	for _, name := range []string{"ObjectCommands", QualifiedPrefix + "LinkCommands", " SystemCommands "} {
		if p, err := c.ResolveProvider(name); err != nil || p == nil {
			t.Errorf("ResolveProvider(%q) = %v, %v", name, p, err)
		}
	}
	if _, err := c.ResolveProvider("repocli.providers.Missing"); err == nil {
		t.Error("expected error for unknown provider")
	}
	if want := 5; len(c.Names()) != want {
		t.Errorf("Names() = %v", c.Names())
	}
}

func TestBuildSkipsProviderThatCannotBeInstantiated(t *testing.T) {
	var logs bytes.Buffer
	catalog := NewCatalog(Deps{})
	reg, err := commands.Build(commands.Sources{
		Internal: []string{QualifiedPrefix + "AccessCommands", QualifiedPrefix + "ClassificationCommands"},
		External: []string{"com.example.Unknown"},
		Resolver: catalog,
		Logger:   slog.New(slog.NewTextHandler(&logs, nil)),
	})
	if err != nil {
		t.Fatalf("provider failures must not abort the build: %v", err)
	}
	if _, ok := reg.Group("Access Commands"); ok {
		t.Error("access commands registered without a store")
	}
	if _, ok := reg.Group("Classification Commands"); !ok {
		t.Error("classification commands missing")
	}
	if strings.Count(logs.String(), "skipping command provider") != 2 {
		t.Errorf("expected two skipped providers in log:\n%s", logs.String())
	}
}

func TestGroupsAndDispatchOrder(t *testing.T) {
	r := newRig(t, testutil.NewTestRepo(t).Build())
	var names []string
	for _, g := range r.reg.Groups() {
		names = append(names, g.Name)
	}
	want := []string{"Access Commands", "Classification Commands", "Link Commands", "Object Commands", "SystemCommands"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("groups = %v, want %v", names, want)
	}
}

func TestDeleteObjectMatchesSingleAndRange(t *testing.T) {
	repo := testutil.NewTestRepo(t).
		WithObject("DocPortal_document_00000001", "one").
		WithObject("DocPortal_document_00000002", "two").
		WithObject("DocPortal_document_00000004", "four").
		Build()
	r := newRig(t, repo)

	d, args, ok := r.reg.Match("delete object DocPortal_document_00000001")
	if !ok || d.Syntax() != "delete object {0}" || args.String(0) != "DocPortal_document_00000001" {
		t.Fatalf("single delete matched %v %v", d, args)
	}

	followUps := r.dispatch(t, "delete object from DocPortal_document_00000002 to DocPortal_document_00000009")
	want := []string{"delete object DocPortal_document_00000002", "delete object DocPortal_document_00000004"}
	if !reflect.DeepEqual(followUps, want) {
		t.Errorf("range follow-ups = %v, want %v", followUps, want)
	}

	r.dispatch(t, "delete object DocPortal_document_00000001")
	repo.AssertObjectNotExists("DocPortal_document_00000001")
}

func TestDeleteLinkedObjectReportsBlockingReferences(t *testing.T) {
	repo := testutil.NewTestRepo(t).
		WithObject("DocPortal_document_00000001", "target").
		WithObject("DocPortal_derivate_00000001", "derivate", "DocPortal_document_00000001").
		Build()
	r := newRig(t, repo)

	err := r.dispatchErr(t, "delete object DocPortal_document_00000001")
	var blocked *store.BlockingReferencesError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected BlockingReferencesError, got %v", err)
	}
	repo.AssertObjectExists("DocPortal_document_00000001")
}

func TestExportAllExpandsPerObject(t *testing.T) {
	repo := testutil.NewTestRepo(t).
		WithObject("DocPortal_document_00000001", "one").
		WithObject("DocPortal_document_00000002", "two").
		WithObject("DocPortal_derivate_00000001", "other type").
		Build()
	r := newRig(t, repo)

	followUps := r.dispatch(t, "export all objects of type document to directory /tmp/out with save")
	want := []string{
		"export object DocPortal_document_00000001 to directory /tmp/out with save",
		"export object DocPortal_document_00000002 to directory /tmp/out with save",
	}
	if !reflect.DeepEqual(followUps, want) {
		t.Errorf("follow-ups = %v, want %v", followUps, want)
	}

	if err := r.dispatchErr(t, "export all objects of type document to directory /tmp/out with xml"); err == nil {
		t.Error("expected error for unknown export style")
	}
}

func TestExportAndReloadObject(t *testing.T) {
	repo := testutil.NewTestRepo(t).WithObject("DocPortal_document_00000001", "Annual report").Build()
	r := newRig(t, repo)
	exportDir := repo.Path("export")

	r.dispatch(t, "export object DocPortal_document_00000001 to directory "+exportDir+" with save")
	entries, err := os.ReadDir(exportDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("export dir entries = %v, err = %v", entries, err)
	}
	exported := filepath.Join(exportDir, entries[0].Name())
	repo.AssertFileContains(filepath.Join("export", entries[0].Name()), "Annual report")
	obj, err := ReadObjectFile(exported)
	if err != nil {
		t.Fatal(err)
	}
	if obj.ID != "DocPortal_document_00000001" || obj.Label != "Annual report" {
		t.Errorf("exported object = %+v", obj)
	}

	r.dispatch(t, "delete object DocPortal_document_00000001")
	r.dispatch(t, "load object from file "+exported)
	repo.AssertObjectExists("DocPortal_document_00000001")
}

func TestLoadAllObjectsOrdersByLinks(t *testing.T) {
	repo := testutil.NewTestRepo(t).
		WithFile("objects/a.yaml", "id: DocPortal_derivate_00000001\nlinks:\n  - DocPortal_document_00000002\n").
		WithFile("objects/b.yaml", "id: DocPortal_document_00000001\n").
		WithFile("objects/c.yaml", "id: DocPortal_document_00000002\nlinks:\n  - DocPortal_document_00000001\n").
		WithFile("objects/notes.txt", "not an object").
		Build()
	r := newRig(t, repo)

	followUps := r.dispatch(t, "load all objects from directory "+repo.Path("objects"))
	want := []string{
		"load object from file " + repo.Path("objects/b.yaml"),
		"load object from file " + repo.Path("objects/c.yaml"),
		"load object from file " + repo.Path("objects/a.yaml"),
	}
	if !reflect.DeepEqual(followUps, want) {
		t.Fatalf("follow-ups = %v, want %v", followUps, want)
	}
	for _, line := range followUps {
		r.dispatch(t, line)
	}
	repo.AssertObjectExists("DocPortal_derivate_00000001")
}

func TestLoadAllObjectsRejectsCycles(t *testing.T) {
	repo := testutil.NewTestRepo(t).
		WithFile("objects/a.yaml", "id: DocPortal_document_00000001\nlinks: [DocPortal_document_00000002]\n").
		WithFile("objects/b.yaml", "id: DocPortal_document_00000002\nlinks: [DocPortal_document_00000001]\n").
		Build()
	r := newRig(t, repo)

	err := r.dispatchErr(t, "load all objects from directory "+repo.Path("objects"))
	if err == nil || !strings.Contains(err.Error(), "link cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestReadObjectFileRejectsUnknownFields(t *testing.T) {
	repo := testutil.NewTestRepo(t).WithFile("bad.yaml", "id: DocPortal_document_00000001\ncolour: red\n").Build()
	if _, err := ReadObjectFile(repo.Path("bad.yaml")); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestAccessRulesResolveLazily(t *testing.T) {
	repo := testutil.NewTestRepo(t).WithObject("DocPortal_document_00000001", "doc").Build()
	r := newRig(t, repo)

	r.dispatch(t, "grant read on object DocPortal_document_00000001 to guest")
	r.dispatch(t, "grant write on object DocPortal_document_00000001 to editors")
	r.dispatch(t, "list access rules of object DocPortal_document_00000001")
	if !strings.Contains(r.out.String(), "editors") {
		t.Errorf("rule listing missing principal:\n%s", r.out.String())
	}
	r.dispatch(t, "revoke read on object DocPortal_document_00000001 from guest")

	rules, err := repo.Store.AccessRules(context.Background(), "DocPortal_document_00000001")
	if err != nil || len(rules) != 1 || rules[0].Principal != "editors" {
		t.Errorf("rules = %+v, err = %v", rules, err)
	}

	d, _, _ := r.reg.Match("delete all access rules of object DocPortal_document_00000001")
	if got := d.Target().String(); got != "AccessCommands.deleteAll" {
		t.Errorf("target = %s", got)
	}
}

func TestClassificationCommands(t *testing.T) {
	r := newRig(t, testutil.NewTestRepo(t).Build())

	r.dispatch(t, "create classification genres with label Genres")
	r.dispatch(t, "add category article to classification genres with label Article")
	r.dispatch(t, "add category labelled Conference Paper to classification genres")
	r.dispatch(t, "list classification genres")

	out := r.out.String()
	for _, want := range []string{"Genres", "article", "conference-paper"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if err := r.dispatchErr(t, "add category x to classification missing with label X"); !errors.Is(err, store.ErrClassificationNotFound) {
		t.Errorf("expected ErrClassificationNotFound, got %v", err)
	}
}

func TestLinkCommands(t *testing.T) {
	repo := testutil.NewTestRepo(t).
		WithObject("DocPortal_document_00000001", "a").
		WithObject("DocPortal_document_00000002", "b").
		Build()
	r := newRig(t, repo)

	r.dispatch(t, "link object DocPortal_document_00000002 to DocPortal_document_00000001")
	r.dispatch(t, "list links of object DocPortal_document_00000001")
	if !strings.Contains(r.out.String(), "<- DocPortal_document_00000002") {
		t.Errorf("incoming link not listed:\n%s", r.out.String())
	}
	r.dispatch(t, "check link integrity")
	r.dispatch(t, "unlink object DocPortal_document_00000002 from DocPortal_document_00000001")
	if err := r.dispatchErr(t, "link object DocPortal_document_00000002 to DocPortal_document_00000099"); !errors.Is(err, store.ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestObjectQueries(t *testing.T) {
	repo := testutil.NewTestRepo(t).
		WithObject("DocPortal_document_00000001", "a").
		WithObject("DocPortal_document_00000005", "b").
		Build()
	r := newRig(t, repo)

	r.dispatch(t, "count objects of type document")
	r.dispatch(t, "show next id of type document")
	r.dispatch(t, "show object DocPortal_document_00000005")
	out := r.out.String()
	for _, want := range []string{"2\n", "DocPortal_document_00000006", "DocPortal_document_00000005"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunExternalProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on POSIX utilities")
	}
	r := newRig(t, testutil.NewTestRepo(t).Build())

	r.dispatch(t, "run external process echo hello archive")
	if !strings.Contains(r.out.String(), "hello archive") {
		t.Errorf("process output missing:\n%s", r.out.String())
	}
	if err := r.dispatchErr(t, "run external process false"); err == nil {
		t.Error("expected error for failing process")
	}
}

func TestRunExternalProcessSurvivesOversizedLine(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on POSIX utilities")
	}
	r := newRig(t, testutil.NewTestRepo(t).Build())

	line := `run external process sh -c "head -c 1100000 /dev/zero | tr -c x a; echo; head -c 300000 /dev/zero | tr -c x b; echo; echo finished >&2"`
	done := make(chan error, 1)
	go func() {
		_, err := r.reg.Dispatch(context.Background(), line)
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, bufio.ErrTooLong) {
			t.Errorf("expected ErrTooLong, got %v", err)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("dispatch did not return after an oversized output line")
	}
	if !strings.Contains(r.out.String(), "finished") {
		t.Errorf("stderr was not drained:\n%.200s", r.out.String())
	}
}

func TestShowStoreStatistics(t *testing.T) {
	repo := testutil.NewTestRepo(t).WithObject("DocPortal_document_00000001", "a").Build()
	r := newRig(t, repo)

	r.dispatch(t, "show store statistics")
	if !strings.Contains(r.out.String(), "document") || !strings.Contains(r.out.String(), "objects") {
		t.Errorf("unexpected statistics:\n%s", r.out.String())
	}
}
