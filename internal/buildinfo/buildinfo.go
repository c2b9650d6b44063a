// Package buildinfo carries the build identity stamped in by the linker:
//
//	go build -ldflags "-X changeblind/internal/buildinfo.Version=v1.2.0 -X changeblind/internal/buildinfo.Commit=$(git rev-parse --short HEAD)"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short is the identifier logged at startup and stored with archived runs:
// the version when stamped, else the commit, else "dev".
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	return "dev"
}

// Long adds the commit and build date to Short when they are known.
func Long() string {
	s := Short()
	if Commit != "" && Commit != "unknown" && Commit != s {
		s = fmt.Sprintf("%s (%s)", s, Commit)
	}
	if Date != "" && Date != "unknown" {
		s += " built " + Date
	}
	return s
}
