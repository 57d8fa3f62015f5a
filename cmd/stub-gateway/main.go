package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"comptes-client/internal/config"
	"comptes-client/internal/stubgateway"

	"github.com/charmbracelet/log"
)

func main() {
	if err := config.LoadEnv(os.Getenv("COMPTES_ENV_FILE")); err != nil {
		log.Warn("could not load .env file", "err", err)
	}

	cfg, err := config.LoadStub(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           cfg.LogLevel,
		ReportTimestamp: true,
		Prefix:          "stub-gateway",
	})

	router := stubgateway.NewRouter(stubgateway.NewStore(), cfg.AllowedOrigin, logger)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("graphql gateway listening", "addr", cfg.Addr, "allowed_origin", cfg.AllowedOrigin)
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
}
