package main

import (
	"context"
	"fmt"

	"fxlaunch/internal/cache"
	"fxlaunch/internal/launcher"
	"fxlaunch/internal/theme"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newUpdateCmd(a *app) *cobra.Command {
	var (
		opts    launcher.UpdateOptions
		maxSize string
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Download the JavaFX SDK for this platform into the cache",
		Long: "update resolves the JavaFX SDK for this platform (the pinned version, or the newest one " +
			"the detected Java can run) and downloads it unless a verified copy is already cached.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if maxSize != "" {
				n, err := humanize.ParseBytes(maxSize)
				if err != nil {
					return fmt.Errorf("invalid --max-cache-size: %w", err)
				}
				opts.Prune.MaxSize = int64(n)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			progress := &downloadProgress{title: "Downloading JavaFX", cancel: cancel}
			l := a.newLauncher(launcherOptions{spinner: opts.Version == "" && opts.JavaMajor == 0, progress: progress, cancel: cancel})

			res, err := l.Update(ctx, opts)
			progress.Finish(err)
			for _, e := range res.Pruned {
				fmt.Fprintln(cmd.OutOrStdout(), theme.Faint.Render("Removed "+e.Descriptor.String()))
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if res.CacheHit {
				fmt.Fprintln(w, theme.SuccessMessage(fmt.Sprintf("%s is up to date", res.Descriptor)))
			} else {
				fmt.Fprintln(w, theme.SuccessMessage(fmt.Sprintf("Installed %s", res.Descriptor)))
			}
			fmt.Fprintln(w, theme.Label("Path", theme.PathStyle.Render(res.Entry.LocalPath)))
			fmt.Fprintln(w, theme.Label("Modules", fmt.Sprintf("%d", len(res.Entry.Modules))))
			fmt.Fprintln(w, theme.Label("Requires", fmt.Sprintf("Java %d+", res.Descriptor.RequiresJava)))
			if res.JavaMajor > 0 {
				fmt.Fprintln(w, theme.Label("Matched to", fmt.Sprintf("Java %d", res.JavaMajor)))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Version, "version", "", "exact JavaFX version (default: configured or newest)")
	f.IntVar(&opts.JavaMajor, "java-version", 0, "pick the newest JavaFX running on this Java major version (default: detected)")
	f.BoolVar(&opts.Force, "force", false, "mark the cached SDK stale and download it again")
	f.BoolVar(&opts.Prune.Clear, "clear", false, "remove cached SDKs before updating")
	f.BoolVar(&opts.Prune.KeepLatest, "keep-latest", false, "spare the newest cached version when clearing")
	f.IntVar(&opts.Prune.MaxCount, "max-cache-count", 0, "clear the cache when it holds more SDKs than this")
	f.StringVar(&maxSize, "max-cache-size", "", `clear the cache when it is larger than this, e.g. "500MB"`)
	return cmd
}

type entryView struct {
	Version    string   `json:"version"`
	Platform   string   `json:"platform"`
	Path       string   `json:"path"`
	Verified   bool     `json:"verified"`
	Checksum   string   `json:"checksum,omitempty"`
	Size       int64    `json:"size_bytes"`
	VerifiedAt string   `json:"verified_at,omitempty"`
	Modules    []string `json:"modules,omitempty"`
}

func viewEntry(e cache.Entry) entryView {
	v := entryView{
		Version:  e.Descriptor.JavaFXVersion,
		Platform: e.Descriptor.Platform.String(),
		Path:     e.LocalPath,
		Verified: e.Verified,
		Checksum: e.Descriptor.Checksum.String(),
		Size:     e.DiskSize,
		Modules:  e.Modules,
	}
	if !e.VerifiedAt.IsZero() {
		v.VerifiedAt = e.VerifiedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return v
}
