// Command fxlite is the minimal front end. It shares the cache layout and
// resolution rules of fxlaunch but prints plain text and never prompts.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"fxlaunch/internal/apperr"
	"fxlaunch/internal/config"
	"fxlaunch/internal/launcher"
	"fxlaunch/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Getenv)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "fxlite: %v\n", err)
	}
	os.Exit(apperr.ExitCode(err))
}

var errUsage = errors.New("usage: fxlite detect | update [version] [--java-version N] | plan <target> [-- args...] | info")

func run(ctx context.Context, args []string, out io.Writer, getenv func(string) string) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv(getenv)

	if err := logging.Init(logging.Options{Home: cfg.Home(), Verbose: getenv("FXLITE_DEBUG") != "", Console: os.Stderr}); err != nil {
		return err
	}

	return dispatch(ctx, launcher.New(launcher.Options{Config: cfg}), args, out)
}

func dispatch(ctx context.Context, l *launcher.Launcher, args []string, out io.Writer) error {
	switch args[0] {
	case "detect":
		res, err := l.Detect(ctx, "")
		for _, inst := range res.Installations {
			mark := " "
			if res.Found && inst.Path == res.Selected.Path {
				mark = "*"
			}
			fmt.Fprintf(out, "%s %s\t%s\t%s\t%s\n", mark, inst.Version, inst.Architecture, inst.Source, inst.Path)
		}
		return err

	case "update":
		opts, err := parseUpdateArgs(args[1:])
		if err != nil {
			return err
		}
		res, err := l.Update(ctx, opts)
		if err != nil {
			return err
		}
		state := "downloaded"
		if res.CacheHit {
			state = "cached"
		}
		fmt.Fprintf(out, "%s %s %s\n", res.Descriptor, state, res.Entry.LocalPath)
		return nil

	case "plan":
		if len(args) < 2 {
			return errUsage
		}
		extra := args[2:]
		if len(extra) > 0 && extra[0] == "--" {
			extra = extra[1:]
		}
		prepared, err := l.Prepare(ctx, launcher.PrepareOptions{Target: args[1], ExtraArgs: extra})
		if err != nil {
			return err
		}
		for _, arg := range prepared.Plan.Command() {
			fmt.Fprintln(out, arg)
		}
		return nil

	case "info":
		report, err := l.Info(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "home\t%s\ncache\t%s\nmanifest\t%s\nplatform\t%s\n",
			report.Home, report.CacheRoot, report.ManifestSource, report.Platform)
		if report.LatestErr != nil {
			fmt.Fprintf(out, "latest\t%v\n", report.LatestErr)
		} else {
			fmt.Fprintf(out, "latest\t%s\n", report.Latest.JavaFXVersion)
		}
		for _, e := range report.Cached {
			fmt.Fprintf(out, "cached\t%s\t%s\t%t\n", e.Descriptor.JavaFXVersion, e.Descriptor.Platform, e.Verified)
		}
		for _, inst := range report.Installations {
			fmt.Fprintf(out, "java\t%s\t%s\t%s\n", inst.Version, inst.Architecture, inst.Path)
		}
		return nil
	}

	return fmt.Errorf("unknown command %q\n%s", strings.TrimSpace(args[0]), errUsage)
}

// parseUpdateArgs reads "[version] [--java-version N]"
func parseUpdateArgs(args []string) (launcher.UpdateOptions, error) {
	var opts launcher.UpdateOptions
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; {
		case arg == "--java-version" && i+1 < len(args):
			i++
			major, err := strconv.Atoi(args[i])
			if err != nil || major <= 0 {
				return opts, fmt.Errorf("invalid --java-version %q", args[i])
			}
			opts.JavaMajor = major
		case strings.HasPrefix(arg, "-"):
			return opts, errUsage
		case opts.Version == "":
			opts.Version = arg
		default:
			return opts, errUsage
		}
	}
	return opts, nil
}
