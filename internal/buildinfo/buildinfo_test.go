package buildinfo

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func withBuildInfo(t *testing.T, bi *debug.BuildInfo, version, commit, date string) {
	t.Helper()
	prevRead, prevVersion, prevCommit, prevDate := ReadBuildInfo, Version, Commit, Date
	t.Cleanup(func() {
		ReadBuildInfo, Version, Commit, Date = prevRead, prevVersion, prevCommit, prevDate
	})
	ReadBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
	Version, Commit, Date = version, commit, date
}

func TestCurrent(t *testing.T) {
	tagged := &debug.BuildInfo{
		GoVersion: "go1.24.2",
		Main:      debug.Module{Path: "github.com/docportal/repocli", Version: "v1.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "3f2a9c1d8e"},
			{Key: "vcs.time", Value: "2026-09-30T08:15:00Z"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "GOOS", Value: "linux"},
			{Key: "GOARCH", Value: "arm64"},
		},
	}
	local := &debug.BuildInfo{Main: debug.Module{Path: "github.com/docportal/repocli", Version: "(devel)"}}

	tests := []struct {
		name                  string
		bi                    *debug.BuildInfo
		version, commit, date string
		want                  Info
	}{
		{
			name: "module build information",
			bi:   tagged,
			want: Info{Version: "v1.4.0", ModulePath: ModulePath, Commit: "3f2a9c1d8e", CommitTime: "2026-09-30T08:15:00Z",
				Modified: true, GoVersion: "go1.24.2", Platform: "linux/arm64"},
		},
		{
			name:    "ldflags fill a local build",
			bi:      local,
			version: "v1.5.0-rc1", commit: "77aa01", date: "2026-10-01",
			want: Info{Version: "v1.5.0-rc1", ModulePath: ModulePath, Commit: "77aa01", CommitTime: "2026-10-01",
				GoVersion: runtime.Version(), Platform: runtime.GOOS + "/" + runtime.GOARCH},
		},
		{
			name: "no build information",
			want: Info{Version: "devel", ModulePath: ModulePath, GoVersion: runtime.Version(), Platform: runtime.GOOS + "/" + runtime.GOARCH},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuildInfo(t, tt.bi, tt.version, tt.commit, tt.date)
			if got := Current(); got != tt.want {
				t.Errorf("Current() = %+v\nwant %+v", got, tt.want)
			}
		})
	}
}

func TestShort(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "devel"}, "repocli devel"},
		{Info{Version: "v1.4.0", Commit: "3f2a9c1d8e"}, "repocli v1.4.0 (3f2a9c1)"},
		{Info{Version: "v1.4.0", Commit: "77aa01", Modified: true}, "repocli v1.4.0 (77aa01, modified)"},
	}
	for _, tt := range tests {
		if got := tt.info.Short(); got != tt.want {
			t.Errorf("Short() = %q, want %q", got, tt.want)
		}
	}
}

func TestFieldsSkipEmptyValues(t *testing.T) {
	var names []string
	for _, f := range (Info{Version: "devel", ModulePath: ModulePath, GoVersion: "go1.24.2", Platform: "linux/amd64"}).Fields() {
		names = append(names, f.Name)
	}
	if got := strings.Join(names, ","); got != "version,module,go,platform" {
		t.Errorf("fields = %s", got)
	}
}
