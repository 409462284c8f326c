package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// LogFile is the name of the rotating log kept under <home>/logs
const LogFile = "fxlaunch.log"

// Options configures Init
type Options struct {
	Home    string    // application home; the file log is skipped when empty
	Verbose bool      // debug level on the console
	Console io.Writer // defaults to stderr
}

// Init sets up the global logger: a console writer for the user and a
// rotating file that always records debug output.
func Init(opts Options) error {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	consoleLevel := zerolog.WarnLevel
	if opts.Verbose {
		consoleLevel = zerolog.DebugLevel
	}

	writers := []io.Writer{
		levelWriter{
			Writer: zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen},
			min:    consoleLevel,
		},
	}

	if opts.Home != "" {
		logDir := filepath.Join(opts.Home, "logs")
		if err := os.MkdirAll(logDir, 0o750); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(logDir, LogFile),
			MaxSize:    1,
			MaxBackups: 2,
		})
	}

	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().Timestamp().Logger()

	return nil
}

// levelWriter drops events below min so the console stays quiet while the
// file keeps everything
type levelWriter struct {
	io.Writer
	min zerolog.Level
}

func (w levelWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < w.min {
		return len(p), nil
	}
	return w.Write(p)
}
