package cli

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// VersionInfo identifies the build.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

func (v VersionInfo) String() string {
	version := v.Version
	if version == "" {
		version = "dev"
	}
	commit, date := v.Commit, v.Date
	if commit == "" {
		commit = "unknown"
	}
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("%s (%s, %s)", version, commit, date)
}

// WithBuildInfo fills what ldflags left unset from the module and VCS
// stamps of info. A version set at link time wins.
func (v VersionInfo) WithBuildInfo(info *debug.BuildInfo) VersionInfo {
	if info == nil || (v.Version != "" && v.Version != "dev") {
		return v
	}
	if mv := info.Main.Version; mv != "" && mv != "(devel)" {
		v.Version = mv
	}

	var revision string
	dirty := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.time":
			v.Date = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(revision) >= 7 {
		v.Commit = revision[:7]
		if dirty {
			v.Commit += "-dirty"
		}
	}
	return v
}

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, _ = fmt.Fprintf(a.Stdout, "supallama %s\n", a.Version)
			return nil
		},
	}
}
