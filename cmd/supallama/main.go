// Package main provides the CLI entry point for supallama.
package main

import (
	"os"
	"runtime/debug"

	"github.com/supallama/supallama/internal/cli"
)

// Set via -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	v := cli.VersionInfo{Version: version, Commit: commit, Date: date}
	if info, ok := debug.ReadBuildInfo(); ok {
		v = v.WithBuildInfo(info)
	}
	os.Exit(cli.ExitCode(cli.Execute(v)))
}
