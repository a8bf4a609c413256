package version

import (
	"fmt"
	"runtime/debug"
)

// Version is the vcs revision baked into the binary, or "dev" for local
// builds without vcs stamping.
var Version = func() string {
	commit := ""
	modified := false
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				commit = setting.Value
			case "vcs.modified":
				modified = setting.Value == "true"
			}
		}
	}
	if commit == "" {
		return "dev"
	}
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if modified {
		return fmt.Sprintf("%s-dirty", commit)
	}
	return commit
}()
