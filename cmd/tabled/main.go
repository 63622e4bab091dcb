package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/joho/godotenv"

	"github.com/feltcraft/tabled/internal/auth"
	"github.com/feltcraft/tabled/internal/server"
	"github.com/feltcraft/tabled/internal/store"
	"github.com/feltcraft/tabled/internal/wallet"
)

// version is set at build time via -ldflags.
var version = "dev"

var CLI struct {
	Config   string           `short:"c" long:"config" default:"tabled.hcl" help:"Path to HCL configuration file"`
	Addr     string           `short:"a" long:"addr" help:"Server address to bind to (overrides config)"`
	LogLevel string           `short:"l" long:"log-level" help:"Log level (overrides config)"`
	Monitor  bool             `short:"m" long:"monitor" help:"Print a live hand monitor to stdout"`
	Version  kong.VersionFlag `short:"V" help:"Print version and exit"`
}

func main() {
	// Local overrides for secrets like the auth admin secret.
	_ = godotenv.Load()

	kctx := kong.Parse(&CLI, kong.Vars{"version": version})

	cfg, err := server.LoadServerConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		kctx.Exit(1)
	}

	if CLI.Addr != "" {
		cfg.Server.Address = CLI.Addr
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if cfg.Server.AdminSecret == "" {
		cfg.Server.AdminSecret = os.Getenv("TABLED_ADMIN_SECRET")
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		kctx.Exit(1)
	}

	var logOut io.Writer = os.Stderr
	if cfg.Server.LogFile != "" {
		f, err := os.OpenFile(cfg.Server.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Printf("Error opening log file: %v\n", err)
			kctx.Exit(1)
		}
		defer f.Close()
		logOut = io.MultiWriter(os.Stderr, f)
	}
	logger := log.New(logOut)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	w, err := buildWallet(cfg)
	if err != nil {
		logger.Error("Failed to open wallet", "error", err)
		kctx.Exit(1)
	}
	st, err := buildStore(cfg)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		kctx.Exit(1)
	}
	defer st.Close()

	var validator auth.Validator
	if cfg.Server.AuthURL != "" {
		validator = auth.NewHTTPValidator(cfg.Server.AuthURL, cfg.Server.AdminSecret)
	} else {
		logger.Warn("Auth disabled, identities come from connection parameters")
		validator = auth.NewNoopValidator()
	}

	logger.Info("Starting tabled",
		"addr", cfg.GetServerAddress(),
		"tables", len(cfg.Tables),
		"bots", len(cfg.Bots))

	srv, err := server.NewServer(cfg, w, st, validator, quartz.NewReal(), logger)
	if err != nil {
		logger.Error("Failed to build server", "error", err)
		kctx.Exit(1)
	}
	if CLI.Monitor {
		srv.AttachMonitor(os.Stdout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		logger.Error("Server failed", "error", err)
		kctx.Exit(1)
	}
	logger.Info("Shutdown complete")
}

func buildWallet(cfg *server.ServerConfig) (wallet.Service, error) {
	switch cfg.Wallet.Driver {
	case "sqlite":
		return wallet.OpenLedger(cfg.Wallet.Path)
	default:
		return wallet.NewMemory(cfg.Wallet.Seed), nil
	}
}

func buildStore(cfg *server.ServerConfig) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.OpenSQLite(cfg.Store.Path)
	default:
		return store.NewMemory(), nil
	}
}
