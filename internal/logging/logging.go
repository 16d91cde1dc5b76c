package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	LogLevelKey   = "log.level"
	LogFormatKey  = "log.format"
	LogNoColorKey = "log.no_color"
)

// InitDefault sets up a console logger before flags and config are parsed,
// so early startup errors are still readable.
func InitDefault() {
	log.Logger = consoleLogger(false).Level(zerolog.InfoLevel)
}

// Init configures the global logger from viper-backed settings
// (log.level, log.format, log.no_color).
func Init() {
	level, err := zerolog.ParseLevel(strings.ToLower(viper.GetString(LogLevelKey)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	switch viper.GetString(LogFormatKey) {
	case "json":
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	default:
		log.Logger = consoleLogger(viper.GetBool(LogNoColorKey))
	}
	log.Logger = log.Logger.Level(level)
}

func consoleLogger(noColor bool) zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	}
	return zerolog.New(out).With().Timestamp().Logger()
}
