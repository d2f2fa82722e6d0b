package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// ClaimerLogger forwards badger's log lines to the global zerolog logger.
type ClaimerLogger struct{}

func (s *ClaimerLogger) Errorf(format string, i ...any) {
	if len(i) == 0 {
		log.Error().Msg(format)
		return
	}
	log.Error().Msg(fmt.Sprintf(format, i...))
}

func (s *ClaimerLogger) Warningf(format string, i ...any) {
	if len(i) == 0 {
		log.Warn().Msg(format)
		return
	}
	log.Warn().Msg(fmt.Sprintf(format, i...))
}

func (s *ClaimerLogger) Infof(format string, i ...any) {
	if len(i) == 0 {
		log.Info().Msg(format)
		return
	}
	log.Info().Msg(fmt.Sprintf(format, i...))
}

func (s *ClaimerLogger) Debugf(format string, i ...any) {
	if len(i) == 0 {
		log.Debug().Msg(format)
		return
	}
	log.Debug().Msg(fmt.Sprintf(format, i...))
}

// ParseLevel accepts the --log-level values. Unknown values fall back to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Setup configures the global logger. Output goes to out, human readable when out is a
// terminal. A nil out silences the console. When logFile is set every line is also
// appended there as JSON.
func Setup(level string, out *os.File, logFile string) (io.Closer, error) {
	var console io.Writer = io.Discard
	switch {
	case out == nil:
	case IsTerminal(out):
		console = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	default:
		console = out
	}

	writer := console
	var closer io.Closer = io.NopCloser(nil)
	if logFile != "" {
		path := os.ExpandEnv(logFile)
		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		writer = zerolog.MultiLevelWriter(console, f)
		closer = f
	}

	log.Logger = zerolog.New(writer).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()

	return closer, nil
}
