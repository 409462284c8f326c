package launch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fxlaunch/internal/apperr"
	"fxlaunch/internal/cache"
	"fxlaunch/internal/java"
	"fxlaunch/internal/manifest"
	"fxlaunch/internal/platform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const libDir = "/cache/javafx/21.0.1/linux-x64/javafx-sdk-21.0.1/lib"

func verifiedEntry() cache.Entry {
	return cache.Entry{
		Descriptor: manifest.Descriptor{
			JavaFXVersion: "21.0.1",
			Platform:      platform.Key{OS: "linux", Arch: "x64"},
		},
		LocalPath: "/cache/javafx/21.0.1/linux-x64",
		Verified:  true,
		Modules: []string{
			libDir + "/javafx.controls.jar",
			libDir + "/javafx.base.jar",
			libDir + "/javafx.graphics.jar",
			libDir + "/javafx.fxml.jar",
		},
	}
}

func linuxJava(arch string) java.Installation {
	return java.Installation{
		Path:         "/usr/lib/jvm/java-21/bin/java",
		Version:      java.MustParseVersion("21.0.1"),
		OS:           "linux",
		Architecture: arch,
		Bitness:      platform.Bitness(arch),
	}
}

func TestPlanOrdersModulePath(t *testing.T) {
	t.Parallel()

	plan, err := Planner{}.Plan(linuxJava("x64"), verifiedEntry(), "/apps/demo.jar", []string{"--scene", "main"})
	require.NoError(t, err)

	assert.Equal(t, "/usr/lib/jvm/java-21/bin/java", plan.JavaExecutable)
	assert.Equal(t, []string{
		libDir + "/javafx.base.jar",
		libDir + "/javafx.controls.jar",
		libDir + "/javafx.fxml.jar",
		libDir + "/javafx.graphics.jar",
		"/apps/demo.jar",
	}, plan.ModulePathEntries)
	assert.Equal(t, []string{"javafx.base", "javafx.controls", "javafx.fxml", "javafx.graphics"}, plan.AddModules)
	assert.Equal(t, "/apps/demo.jar", plan.TargetReference)
	assert.Equal(t, []string{"--scene", "main"}, plan.ExtraArgs)
}

func TestPlanArgsForJar(t *testing.T) {
	t.Parallel()

	plan, err := Planner{AddModules: []string{"javafx.controls"}}.Plan(linuxJava("x64"), verifiedEntry(), "/apps/demo.jar", []string{"-v"})
	require.NoError(t, err)

	sep := string(os.PathListSeparator)
	want := []string{
		"-Xmx512m",
		"--module-path", strings.Join(plan.ModulePathEntries, sep),
		"--add-modules", "javafx.controls",
		"-jar", "/apps/demo.jar",
		"-v",
	}
	assert.Equal(t, want, plan.Args("-Xmx512m"))
	assert.Equal(t, append([]string{plan.JavaExecutable}, want...), plan.Command("-Xmx512m"))
}

func TestPlanArgsForMainClass(t *testing.T) {
	t.Parallel()

	planner := Planner{ClassPath: []string{"/apps/classes", "/apps/lib/dep.jar"}}
	plan, err := planner.Plan(linuxJava("x64"), verifiedEntry(), "com.example.Main", nil)
	require.NoError(t, err)

	assert.Len(t, plan.ModulePathEntries, 4, "main class is not a module path entry")
	args := plan.Args()
	assert.Equal(t, []string{"-cp", "/apps/classes" + string(os.PathListSeparator) + "/apps/lib/dep.jar", "com.example.Main"}, args[len(args)-3:])
}

func TestPlanRejectsMismatches(t *testing.T) {
	t.Parallel()

	unverified := verifiedEntry()
	unverified.Verified = false

	empty := verifiedEntry()
	empty.Modules = nil

	windows := linuxJava("x64")
	windows.OS = "windows"

	noPath := linuxJava("x64")
	noPath.Path = ""

	tests := []struct {
		name   string
		inst   java.Installation
		entry  cache.Entry
		target string
	}{
		{"unverified entry", linuxJava("x64"), unverified, "app.jar"},
		{"arch mismatch", linuxJava("arm64"), verifiedEntry(), "app.jar"},
		{"unknown arch", linuxJava("sparcv9"), verifiedEntry(), "app.jar"},
		{"missing arch", linuxJava(""), verifiedEntry(), "app.jar"},
		{"os mismatch", windows, verifiedEntry(), "app.jar"},
		{"no executable", noPath, verifiedEntry(), "app.jar"},
		{"no target", linuxJava("x64"), verifiedEntry(), "  "},
		{"no modules", linuxJava("x64"), empty, "app.jar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Planner{}.Plan(tt.inst, tt.entry, tt.target, nil)
			require.Error(t, err)
			assert.Equal(t, apperr.PlanError, apperr.KindOf(err))
		})
	}
}

func TestPlanAcceptsAliasedArchitecture(t *testing.T) {
	t.Parallel()

	inst := linuxJava("amd64")
	inst.OS = "Linux"
	_, err := Planner{}.Plan(inst, verifiedEntry(), "app.jar", nil)
	require.NoError(t, err)
}

func TestPlanUnverifiedAlwaysFails(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		inst := java.Installation{
			Path:         rapid.StringMatching(`/[a-z]{1,8}/bin/java`).Draw(t, "path"),
			OS:           rapid.SampledFrom([]string{"", "linux", "macos", "windows"}).Draw(t, "os"),
			Architecture: rapid.SampledFrom([]string{"", "x64", "arm64", "x86", "riscv64"}).Draw(t, "arch"),
		}
		entry := verifiedEntry()
		entry.Verified = false
		entry.Descriptor.Platform.Arch = rapid.SampledFrom([]string{"x64", "arm64"}).Draw(t, "bundleArch")

		_, err := Planner{}.Plan(inst, entry, "app.jar", nil)
		if apperr.KindOf(err) != apperr.PlanError {
			t.Fatalf("expected PlanError, got %v", err)
		}
	})
}

func TestOrderModulesIsStable(t *testing.T) {
	t.Parallel()

	in := []string{
		filepath.Join("b", "javafx.web.jar"),
		filepath.Join("a", "javafx.base.jar"),
		filepath.Join("a", "javafx.controls.jar"),
	}
	out := orderModules(in)
	assert.Equal(t, "javafx.base", moduleName(out[0]))
	assert.Equal(t, "javafx.controls", moduleName(out[1]))
	assert.Equal(t, "javafx.web", moduleName(out[2]))
	assert.Equal(t, filepath.Join("b", "javafx.web.jar"), in[0], "input is not reordered")
}
