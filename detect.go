package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"fxlaunch/internal/apperr"
	"fxlaunch/internal/java"
	"fxlaunch/internal/launcher"
	"fxlaunch/internal/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

type installationView struct {
	Path         string `json:"path"`
	Home         string `json:"home,omitempty"`
	Version      string `json:"version"`
	Major        int    `json:"major"`
	Vendor       string `json:"vendor,omitempty"`
	OS           string `json:"os,omitempty"`
	Architecture string `json:"architecture"`
	Bitness      int    `json:"bitness,omitempty"`
	Source       string `json:"source"`
	Selected     bool   `json:"selected,omitempty"`
}

func viewInstallation(inst java.Installation, selected bool) installationView {
	return installationView{
		Path:         inst.Path,
		Home:         inst.Home,
		Version:      inst.Version.String(),
		Major:        inst.Version.Major,
		Vendor:       inst.Vendor,
		OS:           inst.OS,
		Architecture: inst.Architecture,
		Bitness:      inst.Bitness,
		Source:       inst.Source.String(),
		Selected:     selected,
	}
}

func newDetectCmd(a *app) *cobra.Command {
	var (
		constraint string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "List Java installations and the one fxlaunch would use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			l := a.newLauncher(launcherOptions{spinner: !asJSON, cancel: cancel})
			res, err := l.Detect(ctx, constraint)
			if err != nil && !apperr.Is(err, apperr.NoJavaFound) {
				return err
			}

			if asJSON {
				views := make([]installationView, 0, len(res.Installations))
				for _, inst := range res.Installations {
					views = append(views, viewInstallation(inst, res.Found && inst.Path == res.Selected.Path))
				}
				out := struct {
					Constraint    string             `json:"constraint"`
					Installations []installationView `json:"installations"`
				}{res.Constraint.String(), views}
				if jsonErr := writeJSON(cmd.OutOrStdout(), out); jsonErr != nil {
					return jsonErr
				}
				return err
			}

			printDetect(cmd.OutOrStdout(), res)
			return err
		},
	}

	cmd.Flags().StringVar(&constraint, "java", "", `Java version constraint, e.g. "17" or ">= 17, < 22"`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print machine-readable output")
	return cmd
}

func printDetect(w io.Writer, res launcher.DetectResult) {
	if len(res.Installations) == 0 {
		fmt.Fprintln(w, theme.WarningMessage("No Java installations found"))
		fmt.Fprintln(w, theme.Faint.Render("  Set FXLAUNCH_JAVA or add a search path to the configuration"))
		return
	}

	fmt.Fprintln(w, theme.Title.Render("Java installations"))
	fmt.Fprintln(w)
	printInstallations(w, res.Installations, res.Selected.Path)
	fmt.Fprintln(w)

	if !res.Found {
		fmt.Fprintln(w, theme.WarningMessage("None satisfies "+res.Constraint.String()))
		return
	}
	fmt.Fprintln(w, theme.SuccessMessage(fmt.Sprintf("Using Java %s (%s)", res.Selected.Version, res.Constraint)))
}

func printInstallations(w io.Writer, installations []java.Installation, selected string) {
	for _, inst := range installations {
		marker := "  "
		version := inst.Version.String()
		if inst.Path == selected {
			marker = "→ "
			version = theme.CurrentStyle.Render(version)
		}

		// Align the version column on its visible width
		pad := 0
		if vw := lipgloss.Width(version); vw < 15 {
			pad = 15 - vw
		}
		details := fmt.Sprintf("(%s, %s, %s)", inst.Vendor, inst.Architecture, inst.Source)
		fmt.Fprintf(w, "%s%s%s %s %s\n", marker, version, strings.Repeat(" ", pad),
			theme.PathStyle.Render(inst.Path), theme.Faint.Render(details))
	}
}
