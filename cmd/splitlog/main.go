package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/splitlog/internal/auth"
	"github.com/claude/splitlog/internal/config"
	"github.com/claude/splitlog/internal/ingest/alpha"
	"github.com/claude/splitlog/internal/logging"
	"github.com/claude/splitlog/internal/mcp"
	"github.com/claude/splitlog/internal/server"
	"github.com/claude/splitlog/internal/storage"
	"github.com/claude/splitlog/internal/workout"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	issueToken := flag.String("issue-token", "", "print a bearer token for this login and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, logCloser, err := logging.New(cfg.Log, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	log.Info("SplitLog starting", "version", Version)

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

	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	if *issueToken != "" {
		if err := printToken(ctx, db, tokens, *issueToken); err != nil {
			log.Error("issuing token failed", "login", *issueToken, "error", err)
			os.Exit(1)
		}
		return
	}

	stores := db.Stores()
	svc := workout.NewService(stores, log)
	alphaProvider := alpha.NewProvider(svc, stores.Plans, log)

	srv := server.New(db, svc, alphaProvider, server.Options{
		Tokens:  tokens,
		DevMode: cfg.Auth.DevMode,
	}, log)

	mcpServer := mcp.New(svc, Version, log)
	srv.SetMCP(mcp.HTTPHandler(mcpServer, func(r *http.Request) (int, bool) {
		return server.UserID(r.Context())
	}))

	if cfg.Auth.DevMode {
		log.Warn("dev mode: unauthenticated requests act as the local user")
	}

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

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(func(ctx context.Context, remoteAddr string) (string, string, error) {
			who, err := lc.WhoIs(ctx, remoteAddr)
			if err != nil {
				return "", "", err
			}
			if who.UserProfile == nil {
				return "", "", errors.New("peer has no user profile")
			}
			return who.UserProfile.LoginName, who.UserProfile.DisplayName, nil
		})

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
		log.Info("server starting", "addr", addr)
	}

	httpSrv := &http.Server{
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

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

// printToken resolves login to a user, creating it if needed, and writes a
// signed bearer token to stdout.
func printToken(ctx context.Context, db *storage.DB, tokens *auth.Tokens, login string) error {
	userID, err := db.GetOrCreateUser(ctx, login, login)
	if err != nil {
		return err
	}
	token, err := tokens.Issue(userID, login)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

