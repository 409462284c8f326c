package launch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fxlaunch/internal/apperr"
	"fxlaunch/internal/cache"
	"fxlaunch/internal/java"
	"fxlaunch/internal/platform"
)

const baseModule = "javafx.base"

// Plan is everything needed to start the target application. It is built
// fresh per invocation and never persisted.
type Plan struct {
	JavaExecutable    string
	ModulePathEntries []string // JavaFX module jars first, then the target jar
	TargetReference   string   // jar path or main class
	ExtraArgs         []string // passed to the application
	AddModules        []string
	ClassPath         []string // only used with a main class target
}

// Planner joins a Java installation and a cached JavaFX bundle
type Planner struct {
	AddModules []string // overrides the modules derived from the bundle
	ClassPath  []string
}

// Plan validates the pair and builds the launch plan. It has no side effects.
func (p Planner) Plan(inst java.Installation, entry cache.Entry, target string, extraArgs []string) (Plan, error) {
	if !entry.Verified {
		return Plan{}, planError(fmt.Errorf("%s is not verified", entry.Descriptor))
	}
	if inst.Path == "" {
		return Plan{}, planError(errors.New("no Java executable selected"))
	}

	bundle := entry.Descriptor.Platform
	arch := platform.NormalizeArch(inst.Architecture)
	switch {
	case arch == "" || platform.Bitness(arch) == 0:
		return Plan{}, planError(fmt.Errorf("architecture of %s is unknown (%q)", inst.Path, inst.Architecture))
	case arch != bundle.Arch:
		return Plan{}, planError(fmt.Errorf("Java at %s is %s but the JavaFX bundle is built for %s", inst.Path, arch, bundle))
	}
	if osName := platform.NormalizeOS(inst.OS); osName != "" && osName != bundle.OS {
		return Plan{}, planError(fmt.Errorf("Java at %s runs on %s but the JavaFX bundle is built for %s", inst.Path, osName, bundle))
	}

	target = strings.TrimSpace(target)
	if target == "" {
		return Plan{}, planError(errors.New("no target application given"))
	}
	if len(entry.Modules) == 0 {
		return Plan{}, planError(fmt.Errorf("%s contains no JavaFX modules", entry.Descriptor))
	}

	modules := orderModules(entry.Modules)
	plan := Plan{
		JavaExecutable:    inst.Path,
		ModulePathEntries: modules,
		TargetReference:   target,
		ExtraArgs:         append([]string(nil), extraArgs...),
		AddModules:        p.AddModules,
	}
	if len(plan.AddModules) == 0 {
		plan.AddModules = moduleNames(modules)
	}

	if isJar(target) {
		plan.ModulePathEntries = append(plan.ModulePathEntries, target)
	} else {
		plan.ClassPath = append([]string(nil), p.ClassPath...)
	}

	return plan, nil
}

// Args returns the java command line, excluding the executable itself
func (pl Plan) Args(jvmArgs ...string) []string {
	args := append([]string(nil), jvmArgs...)
	args = append(args,
		"--module-path", strings.Join(pl.ModulePathEntries, string(os.PathListSeparator)),
		"--add-modules", strings.Join(pl.AddModules, ","),
	)

	if isJar(pl.TargetReference) {
		args = append(args, "-jar", pl.TargetReference)
	} else {
		if len(pl.ClassPath) > 0 {
			args = append(args, "-cp", strings.Join(pl.ClassPath, string(os.PathListSeparator)))
		}
		args = append(args, pl.TargetReference)
	}

	return append(args, pl.ExtraArgs...)
}

// Command returns the executable followed by Args
func (pl Plan) Command(jvmArgs ...string) []string {
	return append([]string{pl.JavaExecutable}, pl.Args(jvmArgs...)...)
}

// orderModules puts javafx.base first, then sorts by file name
func orderModules(paths []string) []string {
	out := append([]string(nil), paths...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := moduleName(out[i]), moduleName(out[j])
		if (a == baseModule) != (b == baseModule) {
			return a == baseModule
		}
		if a != b {
			return a < b
		}
		return out[i] < out[j]
	})
	return out
}

func moduleNames(paths []string) []string {
	names := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		name := moduleName(p)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

func moduleName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".jar")
}

func isJar(target string) bool {
	return strings.EqualFold(filepath.Ext(target), ".jar")
}

func planError(err error) error {
	return apperr.New(apperr.PlanError, "plan", err)
}
