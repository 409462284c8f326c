package main

import (
	"context"
	"fmt"

	"fxlaunch/internal/java"
	"fxlaunch/internal/theme"

	"github.com/spf13/cobra"
)

func newInfoCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show paths, cached SDKs and discovered Java installations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			l := a.newLauncher(launcherOptions{spinner: !asJSON, cancel: cancel})
			report, err := l.Info(ctx)
			if err != nil {
				return err
			}
			best, _ := java.Select(report.Installations, java.Constraint{})

			if asJSON {
				out := struct {
					Version        string             `json:"version"`
					Home           string             `json:"home"`
					Config         string             `json:"config"`
					CacheRoot      string             `json:"cache_root"`
					ManifestSource string             `json:"manifest_source"`
					Platform       string             `json:"platform"`
					Latest         string             `json:"latest_javafx,omitempty"`
					LatestError    string             `json:"latest_javafx_error,omitempty"`
					Cached         []entryView        `json:"cached"`
					Installations  []installationView `json:"installations"`
				}{
					Version:        Version,
					Home:           report.Home,
					Config:         report.ConfigPath,
					CacheRoot:      report.CacheRoot,
					ManifestSource: report.ManifestSource,
					Platform:       report.Platform.String(),
					Cached:         make([]entryView, 0, len(report.Cached)),
					Installations:  make([]installationView, 0, len(report.Installations)),
				}
				if report.LatestErr != nil {
					out.LatestError = report.LatestErr.Error()
				} else {
					out.Latest = report.Latest.JavaFXVersion
				}
				for _, e := range report.Cached {
					out.Cached = append(out.Cached, viewEntry(e))
				}
				for _, inst := range report.Installations {
					out.Installations = append(out.Installations, viewInstallation(inst, inst.Path == best.Path))
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, theme.Title.Render("fxlaunch "+Version))
			fmt.Fprintln(w)
			fmt.Fprintln(w, theme.Label("Home", theme.PathStyle.Render(report.Home)))
			fmt.Fprintln(w, theme.Label("Config", theme.PathStyle.Render(report.ConfigPath)))
			fmt.Fprintln(w, theme.Label("Cache", theme.PathStyle.Render(report.CacheRoot)))
			fmt.Fprintln(w, theme.Label("Manifest", report.ManifestSource))
			fmt.Fprintln(w, theme.Label("Platform", report.Platform.String()))
			if report.LatestErr != nil {
				fmt.Fprintln(w, theme.Label("Latest", theme.WarningStyle.Render(report.LatestErr.Error())))
			} else {
				fmt.Fprintln(w, theme.Label("Latest", fmt.Sprintf("JavaFX %s (Java %d+)", report.Latest.JavaFXVersion, report.Latest.RequiresJava)))
			}

			fmt.Fprintln(w)
			fmt.Fprintln(w, theme.Subtitle.Render("Cached SDKs"))
			printEntries(w, report.Cached)

			fmt.Fprintln(w)
			fmt.Fprintln(w, theme.Subtitle.Render("Java installations"))
			if len(report.Installations) == 0 {
				fmt.Fprintln(w, theme.WarningMessage("No Java installations found"))
				return nil
			}
			printInstallations(w, report.Installations, best.Path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print machine-readable output")
	return cmd
}
