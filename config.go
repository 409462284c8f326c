package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fxlaunch/internal/config"
	"fxlaunch/internal/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the fxlaunch configuration",
	}
	cmd.AddCommand(newSearchPathCmd(a))
	return cmd
}

func newSearchPathCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search-path",
		Short: "Manage extra directories scanned for Java installations",
	}

	add := &cobra.Command{
		Use:   "add <directory>",
		Short: "Scan a directory for Java installations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, added, err := addSearchPath(a.cfg.Path(), args[0])
			if err != nil {
				return err
			}
			if !added {
				fmt.Fprintln(cmd.OutOrStdout(), theme.WarningMessage("This search path is already configured"))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), theme.SuccessMessage("Added search path ")+theme.PathStyle.Render(dir))
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove [directory]",
		Short: "Stop scanning a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dir string
			if len(args) == 1 {
				dir = args[0]
			} else {
				if !a.interactive {
					return errors.New("a directory is required when not running in a terminal")
				}
				picked, ok, err := pickSearchPath(a.cfg.Path())
				if err != nil || !ok {
					return err
				}
				dir = picked
			}

			removed, err := removeSearchPath(a.cfg.Path(), dir)
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintln(cmd.OutOrStdout(), theme.WarningMessage("Search path not configured: "+dir))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), theme.SuccessMessage("Removed search path ")+theme.PathStyle.Render(dir))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List configured search paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// a.cfg carries environment overrides, so read the file itself
			cfg, err := config.LoadFrom(a.cfg.Path())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			printSearchPaths(cmd.OutOrStdout(), cfg.SearchPaths)
			return nil
		},
	}

	cmd.AddCommand(add, remove, list)
	return cmd
}

// addSearchPath records dir in the config file at cfgPath. The directory
// must exist; it is stored as an absolute path.
func addSearchPath(cfgPath, dir string) (string, bool, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return abs, false, fmt.Errorf("invalid search path: %w", err)
	}
	if !info.IsDir() {
		return abs, false, fmt.Errorf("invalid search path %s: not a directory", abs)
	}

	cfg, err := config.LoadFrom(cfgPath)
	if err != nil {
		return abs, false, fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.AddSearchPath(abs) {
		return abs, false, nil
	}
	if err := cfg.Save(); err != nil {
		return abs, false, fmt.Errorf("failed to save config: %w", err)
	}
	return abs, true, nil
}

// removeSearchPath drops dir from the config file at cfgPath. A directory
// that no longer exists can still be removed.
func removeSearchPath(cfgPath, dir string) (bool, error) {
	cfg, err := config.LoadFrom(cfgPath)
	if err != nil {
		return false, fmt.Errorf("failed to load config: %w", err)
	}

	removed := cfg.RemoveSearchPath(dir)
	if !removed {
		if abs, err := filepath.Abs(dir); err == nil {
			removed = cfg.RemoveSearchPath(abs)
		}
	}
	if !removed {
		return false, nil
	}
	if err := cfg.Save(); err != nil {
		return false, fmt.Errorf("failed to save config: %w", err)
	}
	return true, nil
}

func pickSearchPath(cfgPath string) (string, bool, error) {
	cfg, err := config.LoadFrom(cfgPath)
	if err != nil {
		return "", false, fmt.Errorf("failed to load config: %w", err)
	}
	if len(cfg.SearchPaths) == 0 {
		fmt.Println(theme.InfoMessage("No search paths to remove"))
		return "", false, nil
	}

	options := make([]huh.Option[string], len(cfg.SearchPaths))
	for i, p := range cfg.SearchPaths {
		options[i] = huh.NewOption(theme.CurrentStyle.Render(p)+"  "+searchPathStatus(p), p)
	}

	var picked string
	err = huh.NewSelect[string]().
		Title(theme.Subtitle.Render("Select Search Path to Remove")).
		Description(theme.Faint.Render("Use arrow keys to navigate, Enter to select")).
		Options(options...).
		Value(&picked).
		Run()
	if err != nil {
		return "", false, err
	}
	return picked, true, nil
}

func printSearchPaths(w io.Writer, paths []string) {
	if len(paths) == 0 {
		fmt.Fprintln(w, theme.InfoMessage("No search paths configured"))
		fmt.Fprintln(w, "  "+theme.Faint.Render("Use ")+theme.Code.Render("fxlaunch config search-path add <directory>")+theme.Faint.Render(" to add one"))
		return
	}
	for _, p := range paths {
		fmt.Fprintf(w, "  %s  %s\n", theme.PathStyle.Render(p), searchPathStatus(p))
	}
}

func searchPathStatus(p string) string {
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		return theme.SuccessStyle.Render("exists")
	}
	return theme.Faint.Render("not found")
}
