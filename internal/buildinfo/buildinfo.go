// Package buildinfo describes the running repocli binary.
package buildinfo

import (
	"runtime"
	"runtime/debug"
	"strings"
)

// Release metadata set with -ldflags -X. Empty for local builds, which then
// rely on the module build information.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)

// ModulePath is reported when the binary carries no build information.
const ModulePath = "github.com/docportal/repocli"

// ReadBuildInfo is replaced in tests.
var ReadBuildInfo = debug.ReadBuildInfo

// Info is what `repocli version` and the interactive banner print.
type Info struct {
	Version    string `json:"version"`
	ModulePath string `json:"module_path"`
	Commit     string `json:"commit,omitempty"`
	CommitTime string `json:"commit_time,omitempty"`
	Modified   bool   `json:"modified"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Current merges the module build information with the ldflags values.
// ldflags only fill what the build information leaves empty.
func Current() Info {
	info := Info{
		Version:    "devel",
		ModulePath: ModulePath,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}

	if bi, ok := ReadBuildInfo(); ok && bi != nil {
		settings := make(map[string]string, len(bi.Settings))
		for _, s := range bi.Settings {
			settings[s.Key] = s.Value
		}
		if bi.Main.Path != "" {
			info.ModulePath = bi.Main.Path
		}
		info.Version = normalize(bi.Main.Version)
		if bi.GoVersion != "" {
			info.GoVersion = bi.GoVersion
		}
		if goos, goarch := settings["GOOS"], settings["GOARCH"]; goos != "" && goarch != "" {
			info.Platform = goos + "/" + goarch
		}
		info.Commit = settings["vcs.revision"]
		info.CommitTime = settings["vcs.time"]
		info.Modified = strings.EqualFold(settings["vcs.modified"], "true")
	}

	if info.Version == "devel" {
		info.Version = normalize(Version)
	}
	if info.Commit == "" {
		info.Commit = Commit
	}
	if info.CommitTime == "" {
		info.CommitTime = Date
	}
	return info
}

func normalize(v string) string {
	if v == "" || v == "(devel)" {
		return "devel"
	}
	return v
}

// Short is the one-line form, e.g. "repocli v1.2.0 (3f2a9c1, modified)".
func (i Info) Short() string {
	var details []string
	if i.Commit != "" {
		commit := i.Commit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		details = append(details, commit)
	}
	if i.Modified {
		details = append(details, "modified")
	}
	s := "repocli " + i.Version
	if len(details) > 0 {
		s += " (" + strings.Join(details, ", ") + ")"
	}
	return s
}

// Field is one labelled line of the long form.
type Field struct {
	Name  string
	Value string
}

// Fields lists the populated values in display order.
func (i Info) Fields() []Field {
	fields := []Field{
		{"version", i.Version},
		{"module", i.ModulePath},
	}
	if i.Commit != "" {
		fields = append(fields, Field{"commit", i.Commit})
	}
	if i.CommitTime != "" {
		fields = append(fields, Field{"commit time", i.CommitTime})
	}
	if i.Modified {
		fields = append(fields, Field{"modified", "yes"})
	}
	return append(fields, Field{"go", i.GoVersion}, Field{"platform", i.Platform})
}
