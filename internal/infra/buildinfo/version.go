package buildinfo

import (
	"runtime"
	"runtime/debug"
	"sync"
)

// Build-time variables (set via ldflags).
var (
	// Version is the semantic version.
	Version = "dev"

	// Commit is the git commit hash.
	Commit = "unknown"

	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// Info contains build information.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

var (
	once sync.Once
	info Info
)

// Get returns the build information.
func Get() Info {
	once.Do(func() {
		info = Info{
			Version:   Version,
			Commit:    Commit,
			BuildTime: BuildTime,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		}
		if bi, ok := debug.ReadBuildInfo(); ok {
			fillFromBuildInfo(&info, bi)
		}
	})
	return info
}

func fillFromBuildInfo(i *Info, bi *debug.BuildInfo) {
	if i.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		i.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if i.Commit == "unknown" && s.Value != "" {
				i.Commit = s.Value
				if len(i.Commit) > 12 {
					i.Commit = i.Commit[:12]
				}
			}
		case "vcs.time":
			if i.BuildTime == "unknown" && s.Value != "" {
				i.BuildTime = s.Value
			}
		}
	}
}

// String formats the build information on one line.
func (i Info) String() string {
	return i.Version + " (" + i.Commit + ") built at " + i.BuildTime + " with " + i.GoVersion
}

// String returns the formatted version string of this binary.
func String() string {
	return Get().String()
}
