package cli

import (
	"log/slog"
	"os"
)

// Options holds the root command's flags.
type Options struct {
	Updates     []string
	NoSync      bool
	LogLevel    string
	LogFormat   string
	LockFile    string
	MetricsFile string
}

func NewOptions() *Options {
	level := slog.LevelInfo.String()
	if os.Getenv("ZONESYNC_DEBUG") != "" {
		level = slog.LevelDebug.String()
	}
	return &Options{
		LogLevel:  level,
		LogFormat: os.Getenv("ZONESYNC_LOG_FORMAT"),
	}
}
