package shellquote

import (
	"errors"
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "plain", in: "echo hello  world", want: []string{"echo", "hello", "world"}},
		{name: "single quotes", in: "grep 'a b' file", want: []string{"grep", "a b", "file"}},
		{name: "double quotes", in: `printf "%s\n" "say \"hi\""`, want: []string{"printf", `%s\n`, `say "hi"`}},
		{name: "escaped space", in: `ls my\ dir`, want: []string{"ls", "my dir"}},
		{name: "empty quoted arg", in: `touch ''`, want: []string{"touch", ""}},
		{name: "adjacent quoting", in: `a'b'"c"`, want: []string{"abc"}},
		{name: "blank", in: "   ", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(tt.in)
			if err != nil {
				t.Fatalf("Split(%q): %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitUnterminated(t *testing.T) {
	for _, in := range []string{`echo "open`, "echo 'open", `echo trailing\`} {
		if _, err := Split(in); !errors.Is(err, ErrUnterminated) {
			t.Errorf("Split(%q) error = %v, want ErrUnterminated", in, err)
		}
	}
}

func TestJoinRoundTrips(t *testing.T) {
	argv := []string{"rsync", "-a", "my dir/", "it's", "", "$HOME"}
	got, err := Split(Join(argv))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, argv) {
		t.Errorf("Split(Join(%q)) = %q", argv, got)
	}
}
