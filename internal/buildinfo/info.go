// Package buildinfo holds version details stamped in at link time:
//
//	go build -ldflags "-X github.com/meisai-dev/meisai/internal/buildinfo.Version=v0.3.0"
package buildinfo

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
