package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// Key identifies the (operating system, architecture) pair a JavaFX bundle is built for
type Key struct {
	OS   string
	Arch string
}

var osAliases = map[string]string{
	"linux":   "linux",
	"darwin":  "macos",
	"macos":   "macos",
	"mac":     "macos",
	"osx":     "macos",
	"windows": "windows",
	"win":     "windows",
	"win32":   "windows",
	"win64":   "windows",
}

var archAliases = map[string]string{
	"x64":     "x64",
	"amd64":   "x64",
	"x86_64":  "x64",
	"x86-64":  "x64",
	"arm64":   "arm64",
	"aarch64": "arm64",
	"x86":     "x86",
	"386":     "x86",
	"i386":    "x86",
	"i686":    "x86",
	"arm":     "arm32",
	"arm32":   "arm32",
	"armv7":   "arm32",
	"armv7l":  "arm32",
	"aarch32": "arm32",
}

var archBits = map[string]int{
	"x64":   64,
	"arm64": 64,
	"x86":   32,
	"arm32": 32,
}

// NormalizeOS maps an operating system spelling to its canonical name.
// Java reports os.name as "Windows 10", "Mac OS X" and similar.
func NormalizeOS(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := osAliases[n]; ok {
		return canonical
	}
	switch {
	case strings.HasPrefix(n, "windows"):
		return "windows"
	case strings.HasPrefix(n, "mac"):
		return "macos"
	}
	return n
}

// NormalizeArch maps an architecture spelling to its canonical name
func NormalizeArch(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := archAliases[n]; ok {
		return canonical
	}
	return n
}

// Canonicalize builds a Key with both parts normalized
func Canonicalize(osName, arch string) Key {
	return Key{OS: NormalizeOS(osName), Arch: NormalizeArch(arch)}
}

// Parse reads a key in "<os>-<arch>" form, e.g. "linux-x64" or "darwin-aarch64".
// The architecture may itself contain a dash ("linux-x86-64"). Unknown
// operating systems and architectures are rejected.
func Parse(s string) (Key, error) {
	s = strings.TrimSpace(s)
	osName, arch, ok := strings.Cut(s, "-")
	if !ok || osName == "" || arch == "" {
		return Key{}, fmt.Errorf("invalid platform key %q: expected <os>-<arch>", s)
	}
	key := Canonicalize(osName, arch)
	if !knownOS(key.OS) {
		return Key{}, fmt.Errorf("invalid platform key %q: unknown operating system %q", s, osName)
	}
	if Bitness(key.Arch) == 0 {
		return Key{}, fmt.Errorf("invalid platform key %q: unknown architecture %q", s, arch)
	}
	return key, nil
}

func knownOS(name string) bool {
	for _, canonical := range osAliases {
		if canonical == name {
			return true
		}
	}
	return false
}

// Current returns the key of the running process
func Current() Key {
	return Canonicalize(runtime.GOOS, runtime.GOARCH)
}

// String renders the key as used in manifests and cache paths
func (k Key) String() string {
	return k.OS + "-" + k.Arch
}

// IsZero reports whether the key is unset
func (k Key) IsZero() bool {
	return k.OS == "" && k.Arch == ""
}

// Bitness returns the pointer width of a canonical architecture, or 0 when unknown
func Bitness(arch string) int {
	return archBits[NormalizeArch(arch)]
}
