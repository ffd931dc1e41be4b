package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gregmcinnes/topset/internal/config"
	"github.com/gregmcinnes/topset/internal/mcp"
	"github.com/gregmcinnes/topset/internal/progression"
	"github.com/gregmcinnes/topset/internal/schedule"
	"github.com/gregmcinnes/topset/internal/server"
	"github.com/gregmcinnes/topset/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	mcpStdio := flag.Bool("mcp", false, "serve MCP over stdio instead of HTTP")
	remoteURL := flag.String("remote", "", "with -mcp: read data from a remote Top-Set server URL instead of the local database")
	flag.Parse()

	// In stdio MCP mode stdout carries the protocol, so logs go to stderr.
	logOut := os.Stdout
	if *mcpStdio {
		logOut = os.Stderr
	}
	log := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *mcpStdio && *remoteURL != "" {
		// Remote mode needs no config or database at all.
		if err := serveMCP(mcp.NewHTTPClient(*remoteURL), nil, log); err != nil {
			log.Error("mcp server error", "error", err)
			os.Exit(1)
		}
		return
	}

	log.Info("Top-Set starting", "version", Version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var store storage.Store
	switch cfg.Database.Driver {
	case "postgres":
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn, "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")

		if *migrateOnly {
			log.Info("migrate-only: exiting")
			return
		}

		db, err := storage.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = db
		log.Info("database connected", "driver", "postgres")
	case "sqlite":
		// SQLite applies its schema on open, so -migrate-only just opens
		// the database and exits.
		db, err := storage.OpenSQLite(cfg.Database.Path)
		if err != nil {
			log.Error("failed to open sqlite database", "error", err, "path", cfg.Database.Path)
			os.Exit(1)
		}
		defer db.Close()
		store = db
		log.Info("database connected", "driver", "sqlite", "path", cfg.Database.Path)
		if *migrateOnly {
			log.Info("migrate-only: exiting")
			return
		}
	}

	engine := progression.New(progression.Config{
		RoundIncrement:   cfg.Training.RoundIncrement,
		PerRepStep:       cfg.Training.PerRepStep,
		MaxSwingFraction: cfg.Training.MaxSwingFraction,
	})
	resolver := schedule.NewResolver(schedule.Classic(), engine, store, log)

	if *mcpStdio {
		if err := serveMCP(store, resolver, log); err != nil {
			log.Error("mcp server error", "error", err)
			os.Exit(1)
		}
		return
	}

	srv := server.New(store, engine, resolver, server.Options{
		Unit:                 cfg.Training.Unit,
		RestDuration:         time.Duration(cfg.Training.RestSeconds) * time.Second,
		SupersetsEnabled:     cfg.Training.Supersets,
		LinearIncrement:      cfg.Training.LinearIncrement,
		LinearThreshold:      cfg.Training.LinearThreshold,
		LinearDeloadFraction: cfg.Training.LinearDeloadFraction,
	}, cfg.Auth.APIKey, log)

	// Start server — tsnet or plain HTTP
	var listener net.Listener

	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

// serveMCP blocks, serving the MCP protocol on stdin/stdout until EOF.
func serveMCP(ds mcp.DataSource, resolver *schedule.Resolver, log *slog.Logger) error {
	s := mcp.New(ds, resolver, Version, log)
	log.Info("mcp server starting", "transport", "stdio")
	return mcpserver.ServeStdio(s)
}
