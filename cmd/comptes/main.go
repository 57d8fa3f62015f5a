package main

import (
	"context"
	"fmt"
	"os"

	"comptes-client/internal/client"
	"comptes-client/internal/config"
	"comptes-client/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

func main() {
	if err := config.LoadEnv(os.Getenv("COMPTES_ENV_FILE")); err != nil {
		log.Warn("could not load .env file", "err", err)
	}

	cfg, err := config.LoadClient(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatal("failed to open log file", "path", cfg.LogFile, "err", err)
	}
	defer logFile.Close()

	logger := log.NewWithOptions(logFile, log.Options{
		Level:           cfg.LogLevel,
		ReportTimestamp: true,
		Prefix:          "comptes",
	})

	gateway, err := client.NewClient(cfg.Endpoint, client.Options{
		Timeout:   cfg.Timeout,
		LogOutput: logFile,
	})
	if err != nil {
		log.Fatal("failed to create gateway client", "err", err)
	}

	logger.Info("starting", "endpoint", cfg.Endpoint, "timeout", cfg.Timeout)

	app := ui.NewApp(gateway, ui.PanelOptions{
		Context: context.Background(),
		Logger:  logger,
		Theme:   ui.DefaultTheme,
	})
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		logger.Error("ui exited with error", "err", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
