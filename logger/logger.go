// Package logger configures the global zerolog logger for envboot commands.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TimeFormat is the console timestamp layout.
const TimeFormat = "2006-01-02 15:04:05"

// Setup installs a console writer on w (stderr when nil) and sets the global level.
func Setup(level zerolog.Level, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}

	zerolog.SetGlobalLevel(level)

	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !isTerminal(w),
		TimeFormat: TimeFormat,
	})
}

// ParseLevel accepts zerolog level names and falls back to info.
func ParseLevel(level string) zerolog.Level {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
