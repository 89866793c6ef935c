// Package version exposes build metadata for omctl and the API client User-Agent.
package version

import (
	"runtime/debug"
	"strings"
	"time"
)

// Version and Commit may be set with -ldflags "-X .../internal/version.Version=v1.2.3".
// Anything left empty is taken from the embedded VCS info, then defaulted.
var (
	Version = ""
	Commit  = ""
)

// Product is the name sent in the User-Agent header.
const Product = "openmotics-go"

func init() {
	info, _ := debug.ReadBuildInfo()
	Version, Commit = resolve(Version, Commit, info, time.Now())
}

// resolve fills version and commit from build info where they are unset.
func resolve(version, commit string, info *debug.BuildInfo, now time.Time) (string, string) {
	var rev, when string
	dirty := false
	if info != nil {
		if version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				rev = s.Value
			case "vcs.time":
				when = s.Value
			case "vcs.modified":
				dirty = s.Value == "true"
			}
		}
	}

	if commit == "" && rev != "" {
		commit = rev[:min(len(rev), 7)]
		if dirty {
			commit += "-dirty"
		}
	}
	if commit == "" {
		commit = "unknown"
	}

	if version == "" {
		stamp := now
		if t, err := time.Parse(time.RFC3339, when); err == nil {
			stamp = t
		}
		version = "dev-" + stamp.Format("20060102")
	}
	return version, commit
}

// Full is the version followed by the commit, as printed by `omctl version`.
func Full() string {
	var b strings.Builder
	b.WriteString(Version)
	b.WriteString(" (commit: ")
	b.WriteString(Commit)
	b.WriteString(")")
	return b.String()
}

// UserAgent returns the User-Agent value used for API requests.
func UserAgent() string {
	return Product + "/" + Version
}
