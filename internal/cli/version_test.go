package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/docportal/repocli/internal/buildinfo"
)

func TestWriteVersion(t *testing.T) {
	info := buildinfo.Info{
		Version:    "v1.4.0",
		ModulePath: buildinfo.ModulePath,
		Commit:     "3f2a9c1d8e",
		GoVersion:  "go1.24.2",
		Platform:   "linux/amd64",
	}

	var out bytes.Buffer
	if err := writeVersion(&out, info, false); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"repocli v1.4.0 (3f2a9c1)", "module", buildinfo.ModulePath, "linux/amd64"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("version output missing %q:\n%s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "commit time") {
		t.Errorf("empty commit time printed:\n%s", out.String())
	}

	out.Reset()
	if err := writeVersion(&out, info, true); err != nil {
		t.Fatal(err)
	}
	var decoded buildinfo.Info
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("--json output is not JSON: %v\n%s", err, out.String())
	}
	if decoded != info {
		t.Errorf("decoded = %+v, want %+v", decoded, info)
	}
}
