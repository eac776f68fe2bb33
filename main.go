package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/audiomirror/audiomirror-go/cmd"
	"github.com/audiomirror/audiomirror-go/internal/conf"
	"github.com/audiomirror/audiomirror-go/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	level := slog.LevelInfo
	if settings.Debug {
		level = slog.LevelDebug
	}
	logging.SetLevel(level)

	if settings.Main.Log.Enabled {
		closeLog, err := logging.EnableFileOutput(settings.Main.Log, level)
		if err != nil {
			return fmt.Errorf("error opening log file: %w", err)
		}
		defer closeLog() //nolint:errcheck
	}

	return cmd.RootCommand(settings).Execute()
}
