package version

import (
	"fmt"
	"runtime/debug"
)

// Tag and GitCommit are set at build time with -ldflags "-X".
var (
	Tag       = "v0.0.0-dev"
	GitCommit = "HEAD"
)

type Version struct {
	Tag    string `json:"tag"`
	Commit string `json:"commit"`
	Dirty  bool   `json:"dirty"`
}

func (v Version) String() string {
	if len(v.Commit) < 12 {
		return v.Tag
	}
	if v.Dirty {
		return fmt.Sprintf("%s-%s-dirty", v.Tag, v.Commit[:8])
	}
	return fmt.Sprintf("%s+%s", v.Tag, v.Commit[:8])
}

func Get() Version {
	v := Version{
		Tag:    Tag,
		Commit: GitCommit,
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return v
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if v.Commit == "HEAD" {
				v.Commit = setting.Value
			}
		case "vcs.modified":
			v.Dirty = setting.Value == "true"
		}
	}
	return v
}
