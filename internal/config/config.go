package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	DefaultEndpoint      = "http://localhost:8082/graphql"
	DefaultTimeout       = 10 * time.Second
	DefaultLogFile       = "comptes.log"
	DefaultStubAddr      = ":8082"
	DefaultAllowedOrigin = "http://localhost:3000"
)

// Client configures the interactive client.
type Client struct {
	Endpoint string
	Timeout  time.Duration
	LogLevel log.Level
	LogFile  string
}

// Stub configures the development gateway.
type Stub struct {
	Addr          string
	AllowedOrigin string
	LogLevel      log.Level
}

// LoadEnv loads a .env file into the environment. A missing file is not an
// error worth stopping for; the caller decides whether to warn.
func LoadEnv(path string) error {
	if path == "" {
		return godotenv.Load()
	}
	return godotenv.Load(path)
}

// LoadClient resolves the client configuration from the environment, then
// from command-line flags, which win.
func LoadClient(args []string) (Client, error) {
	flags := pflag.NewFlagSet("comptes", pflag.ContinueOnError)
	endpoint := flags.String("endpoint", getEnv("GRAPHQL_ENDPOINT", DefaultEndpoint), "GraphQL gateway endpoint")
	timeout := flags.String("timeout", getEnv("REQUEST_TIMEOUT", DefaultTimeout.String()), "per-request timeout")
	level := flags.String("log-level", getEnv("LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	logFile := flags.String("log-file", getEnv("COMPTES_LOG_FILE", DefaultLogFile), "file the client logs to")
	if err := flags.Parse(args); err != nil {
		return Client{}, err
	}

	cfg := Client{
		Endpoint: strings.TrimSpace(*endpoint),
		LogFile:  *logFile,
	}
	if cfg.Endpoint == "" {
		return Client{}, fmt.Errorf("gateway endpoint is required")
	}

	var err error
	if cfg.Timeout, err = time.ParseDuration(*timeout); err != nil {
		return Client{}, fmt.Errorf("invalid timeout %q: %w", *timeout, err)
	}
	if cfg.LogLevel, err = log.ParseLevel(*level); err != nil {
		return Client{}, fmt.Errorf("invalid log level %q: %w", *level, err)
	}
	return cfg, nil
}

func LoadStub(args []string) (Stub, error) {
	flags := pflag.NewFlagSet("stub-gateway", pflag.ContinueOnError)
	addr := flags.String("addr", getEnv("STUB_ADDR", DefaultStubAddr), "listen address")
	origin := flags.String("allowed-origin", getEnv("STUB_ALLOWED_ORIGIN", DefaultAllowedOrigin), "browser origin allowed by CORS")
	level := flags.String("log-level", getEnv("LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	if err := flags.Parse(args); err != nil {
		return Stub{}, err
	}

	cfg := Stub{
		Addr:          *addr,
		AllowedOrigin: *origin,
	}
	var err error
	if cfg.LogLevel, err = log.ParseLevel(*level); err != nil {
		return Stub{}, fmt.Errorf("invalid log level %q: %w", *level, err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
