package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/classmark/classmark-go/cmd"
	"github.com/classmark/classmark-go/internal/conf"
	"github.com/classmark/classmark-go/internal/logging"
)

func main() {
	logging.Init(slog.LevelInfo)

	settings, err := conf.Load()
	if err != nil {
		fmt.Printf("error loading settings: %v\n", err)
		os.Exit(1)
	}

	if settings.Debug {
		logging.Init(slog.LevelDebug)
	}

	if settings.Main.Log.Enabled {
		fileLogger, closeLogger, err := logging.NewFileLogger(settings.Main.Log.Path, settings.Main.Name, slog.LevelInfo)
		if err != nil {
			logging.Warn("main log file disabled", "path", settings.Main.Log.Path, "error", err)
		} else {
			defer func() { _ = closeLogger() }()
			fileLogger.Info("classmark starting", "node", settings.Main.Name)
		}
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
