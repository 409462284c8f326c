package java

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"fxlaunch/internal/config"
	"fxlaunch/internal/env"
	"fxlaunch/internal/platform"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	probeTimeout     = 5 * time.Second
	probeConcurrency = 4
)

// runFunc executes a java binary and returns its combined output
type runFunc func(ctx context.Context, exe string, args ...string) ([]byte, error)

// Detector finds Java installations on the system
type Detector struct {
	override    string
	searchPaths []string

	goos       string
	getenv     func(string) string
	homeDir    func() (string, error)
	executable func() (string, error)
	registry   func() []string
	run        runFunc
}

type candidate struct {
	exe    string
	source Source
}

// NewDetector creates a detector for the override and search paths in cfg
func NewDetector(cfg *config.Config) *Detector {
	d := &Detector{
		goos:       runtime.GOOS,
		getenv:     os.Getenv,
		homeDir:    os.UserHomeDir,
		executable: os.Executable,
		registry: func() []string {
			homes := env.RegisteredJavaHomes()
			if h := env.SystemJavaHome(); h != "" {
				homes = append(homes, h)
			}
			return homes
		},
		run: runJava,
	}
	if cfg != nil {
		d.override = cfg.JavaPath
		d.searchPaths = append([]string{}, cfg.SearchPaths...)
	}
	return d
}

// Discover enumerates usable installations. It never fails: candidates that
// cannot be read or whose metadata cannot be parsed are skipped.
func (d *Detector) Discover(ctx context.Context) []Installation {
	candidates := d.dedupe(d.candidates())

	results := make([]*Installation, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(probeConcurrency)
	for i, c := range candidates {
		g.Go(func() error {
			if inst, ok := d.probe(gctx, c); ok {
				results[i] = &inst
			}
			return nil
		})
	}
	_ = g.Wait()

	found := make([]Installation, 0, len(results))
	for _, r := range results {
		if r != nil {
			found = append(found, *r)
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if c := found[i].Version.Compare(found[j].Version); c != 0 {
			return c > 0
		}
		return found[i].Path < found[j].Path
	})
	return found
}

// candidates lists java executables in priority order
func (d *Detector) candidates() []candidate {
	var out []candidate
	add := func(exe string, src Source) {
		if exe != "" {
			out = append(out, candidate{exe: exe, source: src})
		}
	}
	addHome := func(home string, src Source) {
		if home != "" {
			add(d.javaExe(home), src)
		}
	}

	if d.override != "" {
		if info, err := os.Stat(d.override); err == nil && info.IsDir() {
			addHome(d.override, SourceOverride)
		} else {
			add(d.override, SourceOverride)
		}
	}

	addHome(d.getenv("JAVA_HOME"), SourceSearchPath)
	for _, dir := range filepath.SplitList(d.getenv("PATH")) {
		if dir != "" {
			add(filepath.Join(dir, d.javaBinary()), SourceSearchPath)
		}
	}

	for _, root := range d.installRoots() {
		for _, home := range d.homesUnder(root) {
			addHome(home, SourceInstallRoot)
		}
	}
	if d.goos == "linux" {
		add("/etc/alternatives/java", SourceInstallRoot)
	}
	for _, home := range d.registry() {
		addHome(home, SourceInstallRoot)
	}
	for _, root := range d.searchPaths {
		addHome(root, SourceInstallRoot)
		for _, home := range d.homesUnder(root) {
			addHome(home, SourceInstallRoot)
		}
	}

	for _, home := range d.bundledHomes() {
		addHome(home, SourceBundled)
	}

	return out
}

// dedupe resolves symlinks and keeps one candidate per real executable,
// preferring the higher-priority source
func (d *Detector) dedupe(cands []candidate) []candidate {
	index := make(map[string]int)
	out := make([]candidate, 0, len(cands))

	for _, c := range cands {
		info, err := os.Stat(c.exe)
		if err != nil || info.IsDir() {
			continue
		}
		resolved, err := filepath.EvalSymlinks(c.exe)
		if err != nil {
			continue
		}
		key := resolved
		if d.goos == "windows" {
			key = strings.ToLower(resolved)
		}
		if i, seen := index[key]; seen {
			if c.source < out[i].source {
				out[i].source = c.source
			}
			continue
		}
		index[key] = len(out)
		out = append(out, candidate{exe: resolved, source: c.source})
	}
	return out
}

// probe runs the candidate and extracts its metadata
func (d *Detector) probe(ctx context.Context, c candidate) (Installation, bool) {
	pctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	output, runErr := d.run(pctx, c.exe, "-XshowSettings:properties", "-version")
	if runErr != nil && len(output) == 0 {
		log.Debug().Err(runErr).Str("java", c.exe).Msg("skipping java candidate that failed to run")
		return Installation{}, false
	}

	home := filepath.Dir(filepath.Dir(c.exe))
	props := parseProperties(output)
	release := readReleaseFile(home)

	version, ok := parseVersionOutput(output)
	if !ok {
		raw := firstNonEmpty(props["java.runtime.version"], props["java.version"])
		// The release file only describes a JVM that actually started.
		if raw == "" && runErr == nil {
			raw = release["JAVA_VERSION"]
		}
		if raw == "" {
			log.Debug().Err(runErr).Str("java", c.exe).Msg("skipping java candidate without version metadata")
			return Installation{}, false
		}
		var err error
		if version, err = ParseVersion(raw); err != nil {
			log.Debug().Err(err).Str("java", c.exe).Msg("skipping java candidate with unparsable version")
			return Installation{}, false
		}
	}

	arch := platform.NormalizeArch(firstNonEmpty(props["os.arch"], release["OS_ARCH"]))
	bitness, convErr := strconv.Atoi(props["sun.arch.data.model"])
	if convErr != nil || bitness == 0 {
		bitness = platform.Bitness(arch)
	}

	return Installation{
		Path:         c.exe,
		Home:         firstNonEmpty(props["java.home"], home),
		Version:      version,
		Vendor:       firstNonEmpty(props["java.vendor"], release["IMPLEMENTOR"]),
		OS:           platform.NormalizeOS(firstNonEmpty(props["os.name"], release["OS_NAME"])),
		Architecture: arch,
		Bitness:      bitness,
		Source:       c.source,
	}, true
}

// installRoots returns the platform-conventional directories holding JDKs
func (d *Detector) installRoots() []string {
	home, _ := d.homeDir()
	var roots []string

	switch d.goos {
	case "windows":
		for _, pf := range []string{d.getenv("ProgramFiles"), d.getenv("ProgramFiles(x86)"), `C:\Program Files`} {
			if pf == "" {
				continue
			}
			for _, vendor := range []string{"Java", "Eclipse Adoptium", "Eclipse Foundation", "Zulu",
				"Amazon Corretto", "Microsoft", "BellSoft", "SapMachine\\JDK", "Semeru"} {
				roots = append(roots, filepath.Join(pf, vendor))
			}
		}
		if profile := firstNonEmpty(d.getenv("USERPROFILE"), home); profile != "" {
			roots = append(roots, filepath.Join(profile, ".jdks"))
		}
	case "darwin":
		roots = append(roots, "/Library/Java/JavaVirtualMachines")
		if home != "" {
			roots = append(roots,
				filepath.Join(home, "Library", "Java", "JavaVirtualMachines"),
				filepath.Join(home, ".jdks"),
				filepath.Join(home, ".sdkman", "candidates", "java"))
		}
	default:
		roots = append(roots, "/usr/lib/jvm", "/usr/java", "/opt/java")
		if home != "" {
			roots = append(roots,
				filepath.Join(home, ".jdks"),
				filepath.Join(home, ".sdkman", "candidates", "java"))
		}
	}
	return roots
}

// homesUnder lists the immediate child directories of root that look like a
// Java home, following the macOS bundle layout where needed
func (d *Detector) homesUnder(root string) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}

	homes := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && entry.Type()&os.ModeSymlink == 0 {
			continue
		}
		home := filepath.Join(root, entry.Name())
		if bundle := filepath.Join(home, "Contents", "Home"); d.isJavaHome(bundle) {
			home = bundle
		}
		if d.isJavaHome(home) {
			homes = append(homes, home)
		}
	}
	return homes
}

// bundledHomes returns the runtime directories shipped next to the launcher
func (d *Detector) bundledHomes() []string {
	exe, err := d.executable()
	if err != nil {
		return nil
	}
	dir := filepath.Dir(exe)
	return []string{
		filepath.Join(dir, "jre"),
		filepath.Join(dir, "runtime"),
		filepath.Join(dir, "..", "runtime"),
	}
}

// isJavaHome checks if a directory contains bin/java
func (d *Detector) isJavaHome(home string) bool {
	info, err := os.Stat(d.javaExe(home))
	return err == nil && !info.IsDir()
}

func (d *Detector) javaExe(home string) string {
	return filepath.Join(home, "bin", d.javaBinary())
}

func (d *Detector) javaBinary() string {
	if d.goos == "windows" {
		return "java.exe"
	}
	return "java"
}

func runJava(ctx context.Context, exe string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, exe, args...).CombinedOutput()
}
