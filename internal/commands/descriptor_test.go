package commands

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
)

func noop(context.Context, Args) (Result, error) { return Done(), nil }

func mustDescriptor(t *testing.T, syntax string, kinds ...Kind) *Descriptor {
	t.Helper()
	d, err := NewDescriptor(syntax, kinds, "", Func("test", syntax, noop))
	if err != nil {
		t.Fatalf("NewDescriptor(%q): %v", syntax, err)
	}
	return d
}

func TestNewDescriptorLiteralPrefix(t *testing.T) {
	tests := []struct {
		syntax string
		kinds  []Kind
		want   string
	}{
		{syntax: "delete object {0}", kinds: []Kind{KindText}, want: "delete object "},
		{syntax: "delete object from {0} to {1}", kinds: []Kind{KindText, KindText}, want: "delete object from "},
		{syntax: "show command statistics", want: "show command statistics"},
		{syntax: "{0} objects", kinds: []Kind{KindInt}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.syntax, func(t *testing.T) {
			d := mustDescriptor(t, tt.syntax, tt.kinds...)
			if got := d.LiteralPrefix(); got != tt.want {
				t.Errorf("LiteralPrefix() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewDescriptorRejectsBadDeclarations(t *testing.T) {
	tests := []struct {
		name   string
		syntax string
		kinds  []Kind
	}{
		{name: "unsupported kind", syntax: "scale by {0}", kinds: []Kind{"float"}},
		{name: "too few kinds", syntax: "link {0} to {1}", kinds: []Kind{KindText}},
		{name: "too many kinds", syntax: "show {0}", kinds: []Kind{KindText, KindText}},
		{name: "adjacent placeholders", syntax: "merge {0}{1}", kinds: []Kind{KindText, KindText}},
		{name: "duplicate placeholder", syntax: "copy {0} to {0}", kinds: []Kind{KindText}},
		{name: "empty syntax", syntax: "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDescriptor(tt.syntax, tt.kinds, "", Func("test", "op", noop))
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
		})
	}
}

func TestTryMatch(t *testing.T) {
	single := mustDescriptor(t, "delete object {0}", KindText)
	ranged := mustDescriptor(t, "delete object from {0} to {1}", KindText, KindText)
	numbered := mustDescriptor(t, "show next {0} ids starting at {1}", KindInt, KindLong)
	export := mustDescriptor(t, "export all objects of type {0} to directory {1} with {2}", KindText, KindText, KindText)

	tests := []struct {
		name   string
		d      *Descriptor
		input  string
		want   Args
		wantOK bool
	}{
		{
			name:   "single text placeholder",
			d:      single,
			input:  "delete object DocPortal_document_00000001",
			want:   Args{"DocPortal_document_00000001"},
			wantOK: true,
		},
		{
			name:  "range pattern rejects single form",
			d:     ranged,
			input: "delete object DocPortal_document_00000001",
		},
		{
			name:   "range pattern",
			d:      ranged,
			input:  "delete object from DocPortal_document_00000001 to DocPortal_document_00000009",
			want:   Args{"DocPortal_document_00000001", "DocPortal_document_00000009"},
			wantOK: true,
		},
		{
			name:   "numeric placeholders",
			d:      numbered,
			input:  "show next 5 ids starting at 9000000000",
			want:   Args{5, int64(9000000000)},
			wantOK: true,
		},
		{
			name:  "non numeric token for int",
			d:     numbered,
			input: "show next five ids starting at 1",
		},
		{
			name:  "int overflow",
			d:     numbered,
			input: "show next 9000000000 ids starting at 1",
		},
		{
			name:   "three text placeholders",
			d:      export,
			input:  "export all objects of type document to directory /tmp/out with save",
			want:   Args{"document", "/tmp/out", "save"},
			wantOK: true,
		},
		{
			name:  "prefix mismatch",
			d:     single,
			input: "Delete object x",
		},
		{
			name:  "empty placeholder",
			d:     single,
			input: "delete object ",
		},
		{
			name:  "trailing text after final literal",
			d:     mustDescriptor(t, "show command statistics"),
			input: "show command statistics now",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.d.TryMatch(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("TryMatch(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d args, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("arg %d = %#v, want %#v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTryMatchImpliesLiteralPrefix(t *testing.T) {
	ds := []*Descriptor{
		mustDescriptor(t, "delete object {0}", KindText),
		mustDescriptor(t, "delete object from {0} to {1}", KindText, KindText),
		mustDescriptor(t, "{0} is a number", KindInt),
		mustDescriptor(t, "process {0}", KindText),
	}
	inputs := []string{
		"delete object a",
		"delete object from a to b",
		"42 is a number",
		"process batch.txt",
		"process",
		"delete objects",
		"",
	}
	for _, d := range ds {
		for _, in := range inputs {
			if _, ok := d.TryMatch(in); ok && !strings.HasPrefix(in, d.LiteralPrefix()) {
				t.Errorf("%q matched %q without its literal prefix", d.Syntax(), in)
			}
		}
	}
}

func TestTryMatchNumericRoundTrip(t *testing.T) {
	d := mustDescriptor(t, "repeat {0} times every {1} ms", KindInt, KindLong)
	ints := []int{0, 1, -1, 42, 2147483647, -2147483648}
	longs := []int64{0, 7, -9000000000, 9223372036854775807}
	for _, i := range ints {
		for _, l := range longs {
			in := "repeat " + strconv.Itoa(i) + " times every " + strconv.FormatInt(l, 10) + " ms"
			args, ok := d.TryMatch(in)
			if !ok {
				t.Fatalf("TryMatch(%q) failed", in)
			}
			if got := strconv.Itoa(args.Int(0)); got != strconv.Itoa(i) {
				t.Errorf("int round trip: got %s, want %d", got, i)
			}
			if got := strconv.FormatInt(args.Int64(1), 10); got != strconv.FormatInt(l, 10) {
				t.Errorf("long round trip: got %s, want %d", got, l)
			}
		}
	}
}

type fakeLocator map[string]Operation

func (l fakeLocator) Operation(name string) (Operation, bool) {
	op, ok := l[name]
	return op, ok
}

func TestInvokeNormalizesResults(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   []string
	}{
		{name: "nil result", result: nil, want: nil},
		{name: "no follow up", result: Done(), want: nil},
		{name: "empty list", result: FollowUpCommands{}, want: nil},
		{name: "follow ups", result: Expand("a", "b"), want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := func(context.Context, Args) (Result, error) { return tt.result, nil }
			d, err := NewDescriptor("run", nil, "", Func("test", "run", op))
			if err != nil {
				t.Fatal(err)
			}
			got, err := d.Invoke(context.Background(), nil)
			if err != nil {
				t.Fatalf("Invoke: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("follow-up %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestInvokePropagatesErrorsUnchanged(t *testing.T) {
	boom := errors.New("object does not exist")
	op := func(context.Context, Args) (Result, error) { return Expand("ignored"), boom }
	d, _ := NewDescriptor("fail", nil, "", Func("test", "fail", op))

	got, err := d.Invoke(context.Background(), nil)
	if err != boom {
		t.Fatalf("expected the operation's own error, got %v", err)
	}
	if got != nil {
		t.Errorf("expected no follow-ups on error, got %v", got)
	}
}

func TestInvokeRecoversPanics(t *testing.T) {
	op := func(context.Context, Args) (Result, error) { panic("bad state") }
	d, _ := NewDescriptor("explode", nil, "", Func("test", "explode", op))

	_, err := d.Invoke(context.Background(), nil)
	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("expected PanicError, got %v", err)
	}
	if !strings.Contains(panicErr.Trace(), "goroutine") {
		t.Errorf("expected a stack trace, got %q", panicErr.Trace())
	}
}

func TestInvokeRetriesFailedResolution(t *testing.T) {
	locator := fakeLocator{}
	d, err := NewDescriptor("reindex", nil, "", Lookup("plugin", "reindex", locator))
	if err != nil {
		t.Fatal(err)
	}

	_, err = d.Invoke(context.Background(), nil)
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}

	calls := 0
	locator["reindex"] = func(context.Context, Args) (Result, error) {
		calls++
		return Done(), nil
	}
	if _, err := d.Invoke(context.Background(), nil); err != nil {
		t.Fatalf("second Invoke: %v", err)
	}
	if calls != 1 {
		t.Errorf("operation called %d times, want 1", calls)
	}
}

func TestTypedDeclarations(t *testing.T) {
	var gotID string
	var gotCount int
	var gotOffset int64
	decl := Decl3("export {0} limit {1} offset {2}", "", func(_ context.Context, id string, count int, offset int64) (Result, error) {
		gotID, gotCount, gotOffset = id, count, offset
		return Done(), nil
	})

	wantKinds := []Kind{KindText, KindInt, KindLong}
	for i, k := range wantKinds {
		if decl.Kinds[i] != k {
			t.Errorf("kind %d = %q, want %q", i, decl.Kinds[i], k)
		}
	}

	set := &CommandSet{TypeName: "ExportCommands", Declarations: []Declaration{decl}}
	ds, err := set.Descriptors()
	if err != nil {
		t.Fatal(err)
	}
	args, ok := ds[0].TryMatch("export doc_1 limit 10 offset 20")
	if !ok {
		t.Fatal("expected match")
	}
	if _, err := ds[0].Invoke(context.Background(), args); err != nil {
		t.Fatal(err)
	}
	if gotID != "doc_1" || gotCount != 10 || gotOffset != 20 {
		t.Errorf("got (%q, %d, %d)", gotID, gotCount, gotOffset)
	}
}
