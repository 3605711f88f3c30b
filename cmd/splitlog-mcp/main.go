// Command splitlog-mcp exposes a remote SplitLog server to a local MCP
// client over stdio.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/claude/splitlog/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("url", os.Getenv("SPLITLOG_URL"), "SplitLog server URL")
	token := flag.String("token", os.Getenv("SPLITLOG_TOKEN"), "bearer token (see splitlog -issue-token)")
	flag.Parse()

	// stdout carries the MCP protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: splitlog-mcp -url <server URL> [-token <token>]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	client := mcp.NewHTTPClient(*serverURL, *token)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	userID, err := client.Me(ctx)
	cancel()
	if err != nil {
		log.Error("failed to identify user", "url", *serverURL, "error", err)
		os.Exit(1)
	}
	log.Info("serving MCP over stdio", "url", *serverURL, "user_id", userID, "version", Version)

	if err := mcp.ServeStdio(mcp.New(client, Version, log), userID); err != nil {
		log.Error("stdio server error", "error", err)
		os.Exit(1)
	}
}
