// Package launcher drives discovery, resolution, installation and planning
// for both front ends. Everything it touches on disk lives under the cache
// root it is configured with.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fxlaunch/internal/apperr"
	"fxlaunch/internal/cache"
	"fxlaunch/internal/config"
	"fxlaunch/internal/installer"
	"fxlaunch/internal/java"
	"fxlaunch/internal/launch"
	"fxlaunch/internal/manifest"
	"fxlaunch/internal/platform"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Discoverer enumerates the Java installations on the host
type Discoverer interface {
	Discover(ctx context.Context) []java.Installation
}

// Options configures a Launcher. Only Config is required.
type Options struct {
	Config     *config.Config
	Platform   platform.Key // host platform; detected when zero
	Discoverer Discoverer
	Fs         afero.Fs
	Clock      clockwork.Clock
	Downloader *installer.Downloader
	Loader     *manifest.Loader
}

// Launcher is the core shared by fxlaunch and fxlite
type Launcher struct {
	cfg        *config.Config
	platform   platform.Key
	discoverer Discoverer
	cache      *cache.Cache
	loader     *manifest.Loader
	installer  *installer.Installer

	mu       sync.Mutex
	resolver *manifest.Resolver
}

// New wires a launcher from opts, filling in production defaults
func New(opts Options) *Launcher {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	key := opts.Platform
	if key.IsZero() {
		key = platform.Current()
	}
	discoverer := opts.Discoverer
	if discoverer == nil {
		discoverer = java.NewDetector(cfg)
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	downloader := opts.Downloader
	if downloader == nil {
		downloader = installer.NewDownloader()
	}
	loader := opts.Loader
	if loader == nil {
		loader = manifest.NewLoader()
	}

	c := cache.NewWithFs(fs, cfg.CacheRoot(), clock)
	return &Launcher{
		cfg:        cfg,
		platform:   key,
		discoverer: discoverer,
		cache:      c,
		loader:     loader,
		installer:  installer.NewInstaller(c, downloader, loader),
	}
}

// Cache returns the bundle cache
func (l *Launcher) Cache() *cache.Cache {
	return l.cache
}

// Platform returns the platform bundles are resolved for
func (l *Launcher) Platform() platform.Key {
	return l.platform
}

// Resolver loads the manifest on first use
func (l *Launcher) Resolver(ctx context.Context) (*manifest.Resolver, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.resolver != nil {
		return l.resolver, nil
	}
	m, err := l.loader.Load(ctx, l.cfg.ManifestSource)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	l.resolver = manifest.NewResolver(m)
	return l.resolver, nil
}

// DetectResult lists every discovered installation and the one selected
type DetectResult struct {
	Installations []java.Installation
	Constraint    java.Constraint
	Selected      java.Installation
	Found         bool
}

// Detect discovers installations and selects the best one for constraint
// (the configured java_constraint when empty). When nothing qualifies the
// result is still returned alongside a NoJavaFound error.
func (l *Launcher) Detect(ctx context.Context, constraint string) (DetectResult, error) {
	c, err := l.constraint(constraint)
	if err != nil {
		return DetectResult{}, err
	}

	res := DetectResult{
		Installations: l.discoverer.Discover(ctx),
		Constraint:    c,
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	res.Selected, res.Found = java.Select(res.Installations, c)
	if !res.Found {
		return res, noJava(c, len(res.Installations))
	}
	return res, nil
}

// UpdateOptions controls Update
type UpdateOptions struct {
	Version   string // exact JavaFX version; configured or latest when empty
	JavaMajor int    // limits the latest version to releases running on this Java; detected when zero
	Force     bool
	Prune     cache.PruneOptions
}

// UpdateResult describes the bundle Update made available
type UpdateResult struct {
	Descriptor manifest.Descriptor
	Entry      cache.Entry
	CacheHit   bool
	Fetches    int
	Pruned     []cache.Entry
	JavaMajor  int // Java the latest version was matched to; 0 when pinned or unknown
}

// Update prunes the cache as requested, resolves the JavaFX bundle for the
// host platform and installs it unless a verified entry already exists.
// Without a pinned version it picks the newest release the Java that
// Prepare would select can run, so a later launch hits the cache.
func (l *Launcher) Update(ctx context.Context, opts UpdateOptions) (UpdateResult, error) {
	var res UpdateResult

	pruned, err := l.cache.Prune(opts.Prune)
	if err != nil {
		return res, err
	}
	res.Pruned = pruned
	for _, e := range pruned {
		log.Info().Str("bundle", e.Descriptor.String()).Msg("removed cached bundle")
	}

	version := opts.Version
	if version == "" {
		version = l.cfg.JavaFXVersion
	}
	if version == "" {
		res.JavaMajor = opts.JavaMajor
		if res.JavaMajor == 0 {
			if res.JavaMajor, err = l.detectMajor(ctx); err != nil {
				return res, err
			}
		}
	}

	desc, err := l.resolve(ctx, version, res.JavaMajor)
	if err != nil {
		return res, err
	}
	res.Descriptor = desc

	installed, err := l.installer.Install(ctx, desc, opts.Force)
	if err != nil {
		return res, err
	}
	res.Entry = installed.Entry
	res.CacheHit = installed.CacheHit
	res.Fetches = installed.Fetches
	return res, nil
}

// detectMajor returns the major version of the installation Prepare would
// select with the configured constraint, or 0 when none qualifies
func (l *Launcher) detectMajor(ctx context.Context) (int, error) {
	c, err := l.constraint("")
	if err != nil {
		return 0, err
	}
	installations := l.discoverer.Discover(ctx)
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	inst, ok := java.Select(installations, c)
	if !ok {
		log.Warn().Int("discovered", len(installations)).Str("constraint", c.String()).
			Msg("no suitable Java found, picking the newest JavaFX release")
		return 0, nil
	}
	log.Debug().Str("java", inst.Path).Int("major", inst.Version.Major).Msg("matching JavaFX to installed Java")
	return inst.Version.Major, nil
}

// ChooseFunc lets a front end pick among the qualifying installations,
// ordered best first
type ChooseFunc func(candidates []java.Installation) (java.Installation, error)

// PrepareOptions controls Prepare
type PrepareOptions struct {
	Target         string
	ExtraArgs      []string
	JavaConstraint string // configured constraint when empty
	JavaFXVersion  string // configured or latest when empty
	Choose         ChooseFunc
	Planner        launch.Planner
}

// Prepared is a ready-to-run launch plan with the pieces it was built from
type Prepared struct {
	Plan         launch.Plan
	Installation java.Installation
	Entry        cache.Entry
	CacheHit     bool
}

// Prepare discovers Java while the JavaFX bundle is resolved and installed,
// then joins both into a launch plan. The selected Java must satisfy the
// user constraint and the bundle's minimum Java version.
func (l *Launcher) Prepare(ctx context.Context, opts PrepareOptions) (Prepared, error) {
	userConstraint, err := l.constraint(opts.JavaConstraint)
	if err != nil {
		return Prepared{}, err
	}
	version := opts.JavaFXVersion
	if version == "" {
		version = l.cfg.JavaFXVersion
	}

	var (
		installations []java.Installation
		desc          manifest.Descriptor
		installed     installer.Result
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		installations = l.discoverer.Discover(gctx)
		return gctx.Err()
	})
	if version != "" {
		// The bundle is pinned, so it can be fetched while Java is probed.
		g.Go(func() error {
			var err error
			if desc, err = l.resolve(gctx, version, 0); err != nil {
				return err
			}
			installed, err = l.installer.Install(gctx, desc, false)
			return err
		})
	} else {
		g.Go(func() error {
			_, err := l.Resolver(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Prepared{}, err
	}

	constraint := userConstraint
	if version != "" {
		constraint = constraint.And(java.AtLeast(desc.RequiresJava))
	}
	inst, err := l.pickJava(installations, constraint, opts.Choose)
	if err != nil {
		return Prepared{}, err
	}

	if version == "" {
		if desc, err = l.resolve(ctx, "", inst.Version.Major); err != nil {
			return Prepared{}, err
		}
		if installed, err = l.installer.Install(ctx, desc, false); err != nil {
			return Prepared{}, err
		}
	}

	log.Debug().
		Str("java", inst.Path).
		Str("bundle", desc.String()).
		Bool("cache_hit", installed.CacheHit).
		Msg("building launch plan")

	plan, err := opts.Planner.Plan(inst, installed.Entry, opts.Target, opts.ExtraArgs)
	if err != nil {
		return Prepared{}, err
	}
	return Prepared{
		Plan:         plan,
		Installation: inst,
		Entry:        installed.Entry,
		CacheHit:     installed.CacheHit,
	}, nil
}

// InfoReport summarizes the launcher state for diagnostics
type InfoReport struct {
	Home           string
	ConfigPath     string
	CacheRoot      string
	ManifestSource string
	Platform       platform.Key
	Cached         []cache.Entry
	Latest         manifest.Descriptor
	LatestErr      error
	Installations  []java.Installation
}

// Info collects the diagnostics report. Manifest problems are reported in
// LatestErr rather than failing the whole report.
func (l *Launcher) Info(ctx context.Context) (InfoReport, error) {
	report := InfoReport{
		Home:           l.cfg.Home(),
		ConfigPath:     l.cfg.Path(),
		CacheRoot:      l.cache.Root(),
		ManifestSource: l.cfg.ManifestSource,
		Platform:       l.platform,
	}
	if report.ManifestSource == "" {
		report.ManifestSource = "embedded"
	}

	cached, err := l.cache.List()
	if err != nil {
		return report, err
	}
	report.Cached = cached

	report.Installations = l.discoverer.Discover(ctx)
	if err := ctx.Err(); err != nil {
		return report, err
	}

	javaMajor := 0
	if best, ok := java.Select(report.Installations, java.Constraint{}); ok {
		javaMajor = best.Version.Major
	}
	report.Latest, report.LatestErr = l.resolve(ctx, "", javaMajor)
	return report, nil
}

// resolve picks the descriptor for an explicit version, the configured
// version, or the newest release running on javaMajor
func (l *Launcher) resolve(ctx context.Context, version string, javaMajor int) (manifest.Descriptor, error) {
	r, err := l.Resolver(ctx)
	if err != nil {
		return manifest.Descriptor{}, err
	}
	if version == "" {
		version = l.cfg.JavaFXVersion
	}
	if version != "" {
		return r.Resolve(version, l.platform)
	}
	return r.Latest(l.platform, javaMajor)
}

func (l *Launcher) constraint(text string) (java.Constraint, error) {
	if text == "" {
		text = l.cfg.JavaConstraint
	}
	return java.ParseConstraint(text)
}

func (l *Launcher) pickJava(installations []java.Installation, c java.Constraint, choose ChooseFunc) (java.Installation, error) {
	if choose == nil {
		inst, ok := java.Select(installations, c)
		if !ok {
			return java.Installation{}, noJava(c, len(installations))
		}
		return inst, nil
	}

	candidates := java.Satisfying(installations, c)
	if len(candidates) == 0 {
		return java.Installation{}, noJava(c, len(installations))
	}
	inst, err := choose(candidates)
	if err != nil {
		return java.Installation{}, err
	}
	if !c.Allows(inst.Version) {
		return java.Installation{}, errors.New("chosen Java installation does not satisfy the version constraint")
	}
	return inst, nil
}

func noJava(c java.Constraint, discovered int) error {
	return apperr.New(apperr.NoJavaFound, "detect",
		fmt.Errorf("none of %d discovered installations satisfies %s", discovered, c))
}
