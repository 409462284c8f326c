package main

import (
	"context"
	"fmt"

	"fxlaunch/internal/installer"
	"fxlaunch/internal/theme"
	"fxlaunch/internal/updater"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

func newSelfUpdateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "self-update",
		Short: "Update fxlaunch to the latest release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()

			if !a.cfg.UpdateConfig.Enabled {
				fmt.Fprintln(w, theme.WarningMessage("Updates are disabled in configuration"))
				fmt.Fprintln(w, theme.Faint.Render("  To enable, set update_config.enabled to true in "+a.cfg.Path()))
				return nil
			}

			upd, err := updater.NewUpdater(a.cfg, Version)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), updater.UpdateTimeout)
			defer cancel()

			var release *selfupdate.Release
			check := func(ctx context.Context) error {
				var err error
				release, err = upd.CheckForUpdate(ctx)
				return err
			}
			if a.interactive {
				err = installer.WithSpinner(ctx, "Checking for updates...", check)
			} else {
				err = check(ctx)
			}
			if err != nil {
				return fmt.Errorf("update check failed: %w", err)
			}

			if release == nil {
				updater.ShowAlreadyUpToDate(upd.CurrentVersion())
				return nil
			}

			if a.interactive {
				action, err := upd.PromptForUpdate(release)
				if err != nil {
					fmt.Fprintln(w, theme.WarningMessage("Update cancelled"))
					return nil
				}
				switch action {
				case "skip":
					fmt.Fprintln(w, theme.InfoMessage("Skipped version "+release.Version()))
					return nil
				case "later":
					fmt.Fprintln(w, theme.InfoMessage("Update postponed"))
					return nil
				}
			}

			fmt.Fprintln(w, theme.InfoStyle.Render(fmt.Sprintf("Downloading fxlaunch %s...", release.Version())))
			if err := upd.PerformUpdate(ctx, release); err != nil {
				return fmt.Errorf("%w (download manually from https://github.com/%s/releases)", err, upd.Repository())
			}

			updater.ShowUpdateSuccess(release.Version())
			return nil
		},
	}
}
