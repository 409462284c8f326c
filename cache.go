package main

import (
	"errors"
	"fmt"
	"io"

	"fxlaunch/internal/cache"
	"fxlaunch/internal/theme"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the JavaFX SDK cache",
	}
	cmd.AddCommand(newCacheListCmd(a), newCacheClearCmd(a))
	return cmd
}

func newCacheListCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached JavaFX SDKs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := a.newLauncher(launcherOptions{}).Cache().List()
			if err != nil {
				return err
			}

			if asJSON {
				views := make([]entryView, 0, len(entries))
				for _, e := range entries {
					views = append(views, viewEntry(e))
				}
				return writeJSON(cmd.OutOrStdout(), views)
			}

			printEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print machine-readable output")
	return cmd
}

func newCacheClearCmd(a *app) *cobra.Command {
	var (
		keepLatest bool
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached JavaFX SDKs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := a.newLauncher(launcherOptions{}).Cache()

			if !yes {
				if !a.interactive {
					return errors.New("refusing to clear the cache without --yes")
				}
				description := "Every cached SDK under " + c.Root() + " will be deleted"
				if keepLatest {
					description = "All but the newest cached SDK under " + c.Root() + " will be deleted"
				}
				confirmed, err := confirmAction("Clear the JavaFX cache?", description)
				if err != nil || !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), theme.WarningMessage("Operation cancelled"))
					return nil
				}
			}

			removed, err := c.Prune(cache.PruneOptions{Clear: true, KeepLatest: keepLatest})
			if err != nil {
				return err
			}

			var freed int64
			for _, e := range removed {
				freed += e.DiskSize
			}
			fmt.Fprintln(cmd.OutOrStdout(), theme.SuccessMessage(
				fmt.Sprintf("Removed %d SDKs, freed %s", len(removed), humanize.Bytes(uint64(freed)))))
			return nil
		},
	}
	cmd.Flags().BoolVar(&keepLatest, "keep-latest", false, "keep the newest cached version")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func printEntries(w io.Writer, entries []cache.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, theme.InfoMessage("The cache is empty"))
		fmt.Fprintln(w, "  "+theme.Faint.Render("Run ")+theme.Code.Render("fxlaunch update")+theme.Faint.Render(" to download the JavaFX SDK"))
		return
	}

	var total int64
	for _, e := range entries {
		total += e.DiskSize
		state := theme.SuccessStyle.Render("verified")
		age := humanize.Time(e.VerifiedAt)
		if !e.Verified {
			state = theme.WarningStyle.Render("incomplete")
			age = "-"
		}
		fmt.Fprintf(w, "  %-10s %-13s %-10s %9s  %s\n",
			e.Descriptor.JavaFXVersion, e.Descriptor.Platform, state, humanize.Bytes(uint64(e.DiskSize)), theme.Faint.Render(age))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, theme.Faint.Render(fmt.Sprintf("  %d entries, %s", len(entries), humanize.Bytes(uint64(total)))))
}
