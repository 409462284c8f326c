package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"fxlaunch/internal/apperr"
	"fxlaunch/internal/config"
	"fxlaunch/internal/installer"
	"fxlaunch/internal/java"
	"fxlaunch/internal/launcher"
	"fxlaunch/internal/logging"
	"fxlaunch/internal/theme"
	"fxlaunch/internal/updater"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Version is set during build time via ldflags
var Version = "dev"

// app carries state shared by every command
type app struct {
	cfg         *config.Config
	verbose     bool
	interactive bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	var child childExitError
	if err != nil && !errors.As(err, &child) {
		fmt.Fprintln(os.Stderr, theme.ErrorMessage(err.Error()))
	}
	os.Exit(exitCode(err))
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "fxlaunch",
		Short:         "Run JavaFX applications on any installed Java",
		Long:          "fxlaunch finds a suitable Java runtime, fetches the matching JavaFX SDK into a local cache and starts your application with it.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if cmd.Name() != "self-update" && cmd.Name() != "version" {
				a.checkForUpdate(cmd.Context())
			}
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newDetectCmd(a),
		newUpdateCmd(a),
		newLaunchCmd(a),
		newCacheCmd(a),
		newInfoCmd(a),
		newConfigCmd(a),
		newSelfUpdateCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv(os.Getenv)
	a.cfg = cfg

	fd := os.Stdout.Fd()
	a.interactive = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)

	if err := logging.Init(logging.Options{Home: cfg.Home(), Verbose: a.verbose, Console: os.Stderr}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	log.Debug().Str("config", cfg.Path()).Str("cache", cfg.CacheRoot()).Bool("tty", a.interactive).Msg("starting")
	return nil
}

// launcherOptions controls the terminal widgets attached to a Launcher
type launcherOptions struct {
	spinner  bool
	progress *downloadProgress
	cancel   context.CancelFunc
}

func (a *app) newLauncher(opts launcherOptions) *launcher.Launcher {
	o := launcher.Options{Config: a.cfg}

	if a.interactive && opts.spinner {
		o.Discoverer = java.SpinnerDiscoverer{Detector: java.NewDetector(a.cfg), Cancel: opts.cancel}
	}
	if a.interactive && opts.progress != nil {
		o.Downloader = installer.NewDownloader(installer.WithProgress(opts.progress.Report))
	}
	return launcher.New(o)
}

// downloadProgress starts a progress bar on the first report, so cache hits
// never draw one
type downloadProgress struct {
	title  string
	cancel context.CancelFunc

	mu  sync.Mutex
	bar *installer.ProgressBar
}

func (p *downloadProgress) Report(done, total int64) {
	p.mu.Lock()
	if p.bar == nil {
		p.bar = installer.StartProgress(p.title, p.cancel)
	}
	bar := p.bar
	p.mu.Unlock()

	bar.Report(done, total)
}

func (p *downloadProgress) Finish(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Finish(err)
		p.bar = nil
	}
}

// checkForUpdate prints a notice when a newer release exists. It never
// fails the command.
func (a *app) checkForUpdate(ctx context.Context) {
	if a.cfg == nil || !a.interactive {
		return
	}
	upd, err := updater.NewUpdater(a.cfg, Version)
	if err != nil || !upd.ShouldCheckForUpdate() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	release, err := upd.CheckForUpdate(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("background update check failed")
		return
	}
	if release != nil {
		updater.ShowUpdateNotification(upd.CurrentVersion(), release.Version())
	}
}

// confirmAction shows a confirmation prompt
func confirmAction(title, description string) (bool, error) {
	var confirmed bool

	err := huh.NewConfirm().
		Title(theme.Subtitle.Render(title)).
		Description(theme.Faint.Render(description)).
		Affirmative(theme.SuccessStyle.Render("Yes")).
		Negative(theme.ErrorStyle.Render("No")).
		Value(&confirmed).
		Run()

	return confirmed, err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// childExitError carries the exit status of the launched application
type childExitError struct {
	code int
}

func (e childExitError) Error() string {
	return fmt.Sprintf("application exited with status %d", e.code)
}

func exitCode(err error) int {
	var child childExitError
	if errors.As(err, &child) {
		return child.code
	}
	return apperr.ExitCode(err)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the fxlaunch version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", theme.Title.Render("fxlaunch"), theme.CurrentStyle.Render(Version))
		},
	}
}
