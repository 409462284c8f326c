package java

import "fmt"

// Source records where an installation was found; it only matters for tie-breaking
type Source int

const (
	SourceOverride Source = iota
	SourceBundled
	SourceSearchPath
	SourceInstallRoot
)

func (s Source) String() string {
	switch s {
	case SourceOverride:
		return "override"
	case SourceBundled:
		return "bundled"
	case SourceSearchPath:
		return "search-path"
	case SourceInstallRoot:
		return "install-root"
	}
	return fmt.Sprintf("source(%d)", int(s))
}

// Installation describes one Java runtime found on the host
type Installation struct {
	Path         string // resolved path of the java executable
	Home         string
	Version      Version
	Vendor       string
	OS           string // canonical, see platform.NormalizeOS
	Architecture string // canonical, see platform.NormalizeArch
	Bitness      int
	Source       Source
}

func (i Installation) String() string {
	return fmt.Sprintf("Java %s (%s, %s) %s", i.Version, i.Vendor, i.Architecture, i.Path)
}
