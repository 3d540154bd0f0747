// Package version reports the build of the mkc binary.
package version

import "fmt"

// Commit and BuildTime are stamped by the release build:
//
//	go build -ldflags "-X github.com/example/mkc/internal/version.Commit=$(git rev-parse HEAD)"
var (
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Name is the binary name shown by `mkc version` and `mkc --version`.
const Name = "mkc"

// String returns the mkc version line: the short commit and build time.
// Builds carry no semver.
func String() string {
	return fmt.Sprintf("%s dev (commit: %s, built: %s)", Name, shortCommit(), BuildTime)
}

// shortCommit abbreviates a full hash to seven characters.
func shortCommit() string {
	const short = 7
	if len(Commit) <= short {
		return Commit
	}
	return Commit[:short]
}
