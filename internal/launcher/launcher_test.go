package launcher

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"fxlaunch/internal/apperr"
	"fxlaunch/internal/cache"
	"fxlaunch/internal/config"
	"fxlaunch/internal/installer"
	"fxlaunch/internal/java"
	"fxlaunch/internal/platform"

	"github.com/cenkalti/backoff/v5"
	"github.com/jonboulle/clockwork"
	"github.com/opencontainers/go-digest"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var linuxX64 = platform.Key{OS: "linux", Arch: "x64"}

type staticJava []java.Installation

func (s staticJava) Discover(context.Context) []java.Installation {
	return append([]java.Installation(nil), s...)
}

func jdk(version, arch string) java.Installation {
	return java.Installation{
		Path:         "/usr/lib/jvm/jdk-" + version + "/bin/java",
		Home:         "/usr/lib/jvm/jdk-" + version,
		Version:      java.MustParseVersion(version),
		Vendor:       "Eclipse Adoptium",
		OS:           "linux",
		Architecture: arch,
		Bitness:      platform.Bitness(arch),
		Source:       java.SourceInstallRoot,
	}
}

func sdkZip(t *testing.T, version string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"lib/javafx.controls.jar", "lib/javafx.base.jar", "lib/javafx.graphics.jar", "lib/libprism_es2.so"} {
		w, err := zw.Create("javafx-sdk-" + version + "/" + name)
		require.NoError(t, err)
		_, err = w.Write([]byte(name))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

type fixture struct {
	launcher *Launcher
	fs       afero.Fs
	hits     *atomic.Int32
}

// newFixture serves one bundle per version and writes a manifest listing
// them for linux-x64 and macos-arm64
func newFixture(t *testing.T, key platform.Key, found []java.Installation, versions ...string) fixture {
	t.Helper()

	bundles := make(map[string][]byte)
	for _, v := range versions {
		bundles["/"+v+".zip"] = sdkZip(t, v)
	}

	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, ok := bundles[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	var doc strings.Builder
	doc.WriteString("schema = 1\n")
	for _, v := range versions {
		data := bundles["/"+v+".zip"]
		for _, plat := range []string{"linux-x64", "macos-arm64"} {
			doc.WriteString("\n[javafx.\"" + v + "\".platforms." + plat + "]\n")
			doc.WriteString("url = \"" + srv.URL + "/" + v + ".zip\"\n")
			doc.WriteString("checksum = \"" + digest.FromBytes(data).String() + "\"\n")
		}
	}
	manifestPath := filepath.Join(t.TempDir(), "manifest.toml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(doc.String()), 0o644))

	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "fxlaunch.json"))
	require.NoError(t, err)
	cfg.ApplyEnv(func(k string) string {
		switch k {
		case config.EnvManifest:
			return manifestPath
		case config.EnvCacheDir:
			return "/cache"
		}
		return ""
	})

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	fs := afero.NewMemMapFs()
	l := New(Options{
		Config:     cfg,
		Platform:   key,
		Discoverer: staticJava(found),
		Fs:         fs,
		Clock:      clockwork.NewFakeClock(),
		Downloader: installer.NewDownloader(
			installer.WithHTTPClient(client),
			installer.WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
		),
	})
	return fixture{launcher: l, fs: fs, hits: hits}
}

func TestUpdateInstallsOnceThenHitsCache(t *testing.T) {
	f := newFixture(t, linuxX64, nil, "21.0.1", "17.0.13")
	ctx := context.Background()

	res, err := f.launcher.Update(ctx, UpdateOptions{Version: "21.0.1"})
	require.NoError(t, err)
	assert.False(t, res.CacheHit)
	assert.Equal(t, 1, res.Fetches)
	assert.True(t, res.Entry.Verified)
	assert.Equal(t, filepath.Join("/cache", "javafx", "21.0.1", "linux-x64"), res.Entry.LocalPath)
	assert.Len(t, res.Entry.Modules, 3)
	assert.Equal(t, int32(1), f.hits.Load())

	entries, err := f.launcher.Cache().List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Verified)
	assert.Equal(t, "21.0.1", entries[0].Descriptor.JavaFXVersion)

	again, err := f.launcher.Update(ctx, UpdateOptions{Version: "21.0.1"})
	require.NoError(t, err)
	assert.True(t, again.CacheHit)
	assert.Equal(t, int32(1), f.hits.Load(), "cache hit must not touch the network")
}

func TestUpdateLatestAndPrune(t *testing.T) {
	f := newFixture(t, linuxX64, nil, "21.0.1", "17.0.13")
	ctx := context.Background()

	_, err := f.launcher.Update(ctx, UpdateOptions{Version: "17.0.13"})
	require.NoError(t, err)

	res, err := f.launcher.Update(ctx, UpdateOptions{Prune: cache.PruneOptions{Clear: true}})
	require.NoError(t, err)
	assert.Equal(t, "21.0.1", res.Descriptor.JavaFXVersion)
	require.Len(t, res.Pruned, 1)
	assert.Equal(t, "17.0.13", res.Pruned[0].Descriptor.JavaFXVersion)

	entries, err := f.launcher.Cache().List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "21.0.1", entries[0].Descriptor.JavaFXVersion)
}

func TestUpdateMatchesInstalledJavaSoLaunchHitsCache(t *testing.T) {
	// 23.x needs Java 21; the host only has 17
	found := []java.Installation{jdk("17.0.9", "x64")}
	f := newFixture(t, linuxX64, found, "23.0.1", "21.0.1")
	ctx := context.Background()

	res, err := f.launcher.Update(ctx, UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "21.0.1", res.Descriptor.JavaFXVersion)
	assert.Equal(t, 17, res.JavaMajor)

	prepared, err := f.launcher.Prepare(ctx, PrepareOptions{Target: "app.jar"})
	require.NoError(t, err)
	assert.True(t, prepared.CacheHit)
	assert.Equal(t, "21.0.1", prepared.Entry.Descriptor.JavaFXVersion)
	assert.Equal(t, int32(1), f.hits.Load())
}

func TestUpdateJavaMajorOverride(t *testing.T) {
	found := []java.Installation{jdk("17.0.9", "x64")}
	f := newFixture(t, linuxX64, found, "23.0.1", "21.0.1")

	res, err := f.launcher.Update(context.Background(), UpdateOptions{JavaMajor: 21})
	require.NoError(t, err)
	assert.Equal(t, "23.0.1", res.Descriptor.JavaFXVersion)
	assert.Equal(t, 21, res.JavaMajor)
}

func TestUpdateUnsupportedPlatformMakesNoRequests(t *testing.T) {
	f := newFixture(t, platform.Key{OS: "windows", Arch: "arm64"}, nil, "21.0.1")

	_, err := f.launcher.Update(context.Background(), UpdateOptions{Version: "21.0.1"})
	require.Error(t, err)
	assert.Equal(t, apperr.UnsupportedPlatform, apperr.KindOf(err))
	assert.Equal(t, 11, apperr.ExitCode(err))
	assert.Equal(t, int32(0), f.hits.Load())

	_, err = f.launcher.Update(context.Background(), UpdateOptions{Version: "99.0.0"})
	assert.Equal(t, apperr.UnknownVersion, apperr.KindOf(err))
}

func TestDetectSelectsHighestSatisfying(t *testing.T) {
	found := []java.Installation{jdk("11.0.2", "x64"), jdk("17.0.9", "x64")}
	f := newFixture(t, linuxX64, found, "21.0.1")

	res, err := f.launcher.Detect(context.Background(), ">= 17")
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, "17.0.9", res.Selected.Version.String())
	assert.Len(t, res.Installations, 2)

	res, err = f.launcher.Detect(context.Background(), ">= 21")
	require.Error(t, err)
	assert.False(t, res.Found)
	assert.Len(t, res.Installations, 2)
	assert.Equal(t, apperr.NoJavaFound, apperr.KindOf(err))

	_, err = f.launcher.Detect(context.Background(), "not a constraint")
	assert.Error(t, err)
}

func TestPrepareBuildsPlan(t *testing.T) {
	found := []java.Installation{jdk("11.0.2", "x64"), jdk("21.0.1", "x64")}
	f := newFixture(t, linuxX64, found, "21.0.1")

	prepared, err := f.launcher.Prepare(context.Background(), PrepareOptions{
		Target:        "/apps/demo.jar",
		ExtraArgs:     []string{"--debug"},
		JavaFXVersion: "21.0.1",
	})
	require.NoError(t, err)

	assert.Equal(t, "/usr/lib/jvm/jdk-21.0.1/bin/java", prepared.Plan.JavaExecutable)
	assert.True(t, prepared.Entry.Verified)
	require.Len(t, prepared.Plan.ModulePathEntries, 4)
	assert.Equal(t, "javafx.base.jar", filepath.Base(prepared.Plan.ModulePathEntries[0]))
	assert.Equal(t, "/apps/demo.jar", prepared.Plan.ModulePathEntries[3])
	assert.Equal(t, []string{"--debug"}, prepared.Plan.ExtraArgs)
}

func TestPrepareLatestRespectsJavaFloor(t *testing.T) {
	// 23.x needs Java 21, so a Java 17 host gets 21.0.1
	found := []java.Installation{jdk("17.0.9", "x64")}
	f := newFixture(t, linuxX64, found, "23.0.1", "21.0.1")

	prepared, err := f.launcher.Prepare(context.Background(), PrepareOptions{Target: "com.example.App"})
	require.NoError(t, err)
	assert.Equal(t, "21.0.1", prepared.Entry.Descriptor.JavaFXVersion)
	assert.Equal(t, "17.0.9", prepared.Installation.Version.String())
}

func TestPreparePinnedVersionNeedsNewerJava(t *testing.T) {
	found := []java.Installation{jdk("17.0.9", "x64")}
	f := newFixture(t, linuxX64, found, "23.0.1")

	_, err := f.launcher.Prepare(context.Background(), PrepareOptions{Target: "app.jar", JavaFXVersion: "23.0.1"})
	require.Error(t, err)
	assert.Equal(t, apperr.NoJavaFound, apperr.KindOf(err))
}

func TestPrepareArchitectureMismatch(t *testing.T) {
	found := []java.Installation{jdk("21.0.1", "arm64")}
	f := newFixture(t, linuxX64, found, "21.0.1")

	_, err := f.launcher.Prepare(context.Background(), PrepareOptions{Target: "app.jar", JavaFXVersion: "21.0.1"})
	require.Error(t, err)
	assert.Equal(t, apperr.PlanError, apperr.KindOf(err))
}

func TestPrepareChoose(t *testing.T) {
	found := []java.Installation{jdk("17.0.9", "x64"), jdk("21.0.1", "x64"), jdk("11.0.2", "x64")}
	f := newFixture(t, linuxX64, found, "21.0.1")

	var offered []string
	prepared, err := f.launcher.Prepare(context.Background(), PrepareOptions{
		Target:         "app.jar",
		JavaConstraint: "17",
		JavaFXVersion:  "21.0.1",
		Choose: func(cands []java.Installation) (java.Installation, error) {
			for _, c := range cands {
				offered = append(offered, c.Version.String())
			}
			return cands[len(cands)-1], nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"21.0.1", "17.0.9"}, offered)
	assert.Equal(t, "17.0.9", prepared.Installation.Version.String())
}

func TestPrepareCancelled(t *testing.T) {
	f := newFixture(t, linuxX64, []java.Installation{jdk("21.0.1", "x64")}, "21.0.1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.launcher.Prepare(ctx, PrepareOptions{Target: "app.jar", JavaFXVersion: "21.0.1"})
	require.Error(t, err)

	entries, err := f.launcher.Cache().List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInfo(t *testing.T) {
	found := []java.Installation{jdk("17.0.9", "x64")}
	f := newFixture(t, linuxX64, found, "23.0.1", "21.0.1")

	_, err := f.launcher.Update(context.Background(), UpdateOptions{Version: "21.0.1"})
	require.NoError(t, err)

	report, err := f.launcher.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean("/cache"), report.CacheRoot)
	assert.Equal(t, linuxX64, report.Platform)
	require.Len(t, report.Cached, 1)
	require.NoError(t, report.LatestErr)
	assert.Equal(t, "21.0.1", report.Latest.JavaFXVersion)
	assert.Len(t, report.Installations, 1)
}
