package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"fxlaunch/internal/java"
	"fxlaunch/internal/launcher"
	"fxlaunch/internal/theme"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newLaunchCmd(a *app) *cobra.Command {
	var (
		opts    launcher.PrepareOptions
		choose  bool
		dryRun  bool
		jvmArgs []string
	)

	cmd := &cobra.Command{
		Use:   "launch <app.jar|main.Class> [-- args...]",
		Short: "Start a JavaFX application",
		Long: "launch picks a Java runtime, makes sure the matching JavaFX SDK is cached " +
			"and starts the application with the JavaFX modules on its module path.",
		Example: "  fxlaunch launch app.jar\n" +
			"  fxlaunch launch --java 21 --javafx 21.0.1 app.jar -- --fullscreen\n" +
			"  fxlaunch launch --class-path build/classes com.example.App",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Target = args[0]
			opts.ExtraArgs = args[1:]

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if choose {
				if !a.interactive {
					return errors.New("--choose needs an interactive terminal")
				}
				opts.Choose = selectJava
			}

			progress := &downloadProgress{title: "Downloading JavaFX", cancel: cancel}
			l := a.newLauncher(launcherOptions{progress: progress, cancel: cancel})

			prepared, err := l.Prepare(ctx, opts)
			progress.Finish(err)
			if err != nil {
				return err
			}

			argv := prepared.Plan.Command(jvmArgs...)
			if dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), shellJoin(argv))
				return nil
			}

			log.Info().
				Str("java", prepared.Installation.Path).
				Str("javafx", prepared.Entry.Descriptor.String()).
				Msg("launching application")
			return run(cmd.Context(), argv, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.JavaConstraint, "java", "", `Java version constraint, e.g. "17" or ">= 17, < 22"`)
	f.StringVar(&opts.JavaFXVersion, "javafx", "", "exact JavaFX version (default: configured or newest)")
	f.BoolVar(&choose, "choose", false, "pick the Java installation interactively")
	f.BoolVar(&dryRun, "dry-run", false, "print the command instead of running it")
	f.StringSliceVar(&opts.Planner.AddModules, "add-modules", nil, "JavaFX modules to resolve (default: all in the SDK)")
	f.StringSliceVar(&opts.Planner.ClassPath, "class-path", nil, "class path for a main class target")
	f.StringArrayVar(&jvmArgs, "jvm-arg", nil, "extra JVM option, repeatable")
	return cmd
}

// run starts the application and forwards its exit status
func run(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) error {
	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Stdin = stdin
	c.Stdout = stdout
	c.Stderr = stderr
	c.Env = os.Environ()

	err := c.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return childExitError{code: exitErr.ExitCode()}
	}
	if err != nil {
		return fmt.Errorf("failed to start %s: %w", argv[0], err)
	}
	return nil
}

// selectJava shows an interactive selector over the qualifying installations
func selectJava(candidates []java.Installation) (java.Installation, error) {
	options := make([]huh.Option[int], len(candidates))
	for i, inst := range candidates {
		version := theme.CurrentStyle.Render(inst.Version.String())

		pad := 0
		if w := lipgloss.Width(version); w < 15 {
			pad = 15 - w
		}
		label := fmt.Sprintf("%s%s %s %s", version, strings.Repeat(" ", pad), inst.Path,
			theme.Faint.Render("("+inst.Vendor+", "+inst.Architecture+")"))
		if i == 0 {
			label += " " + theme.Faint.Render("[default]")
		}
		options[i] = huh.NewOption(label, i)
	}

	var selected int
	err := huh.NewSelect[int]().
		Title(theme.Subtitle.Render("Select Java Runtime")).
		Description(theme.Faint.Render("Use arrow keys to navigate, Enter to select")).
		Options(options...).
		Value(&selected).
		Run()
	if err != nil {
		return java.Installation{}, err
	}
	return candidates[selected], nil
}

// shellJoin quotes arguments for display
func shellJoin(argv []string) string {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		if arg == "" || strings.ContainsAny(arg, " \t\"'\\$") {
			quoted[i] = strconv.Quote(arg)
		} else {
			quoted[i] = arg
		}
	}
	return strings.Join(quoted, " ")
}

