package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/claude/splitlog/internal/models"
	"github.com/claude/splitlog/internal/syncclient"
	"github.com/google/uuid"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "SplitLog server URL (e.g. https://splitlog.tail1234.ts.net)")
	token := flag.String("token", os.Getenv("SPLITLOG_TOKEN"), "bearer token")
	stateDir := flag.String("state-dir", "", "outbox directory (default ~/.splitlog-sync)")
	session := flag.String("session", "", `session ID to report, or "active"`)
	elapsed := flag.Int("elapsed", -1, "exercise elapsed seconds")
	rest := flag.Int("rest", -1, "rest remaining seconds")
	pause := flag.Bool("pause", false, "report the session as paused now")
	resume := flag.Bool("resume", false, "report the session as resumed")
	watch := flag.Duration("watch", 0, "keep flushing the outbox at this interval")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("splitlog-sync", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: splitlog-sync -server <URL> [-session <id|active> -elapsed N -rest N -pause|-resume] [-watch 30s]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *pause && *resume {
		fmt.Fprintf(os.Stderr, "Error: -pause and -resume are mutually exclusive\n")
		os.Exit(1)
	}

	dir := *stateDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		dir = filepath.Join(home, ".splitlog-sync")
	}

	outbox, err := syncclient.OpenOutbox(dir)
	if err != nil {
		log.Error("failed to open outbox", "error", err)
		os.Exit(1)
	}
	defer outbox.Close()

	client := syncclient.NewClient(*serverURL, *token)
	syncer := syncclient.New(client, outbox, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var stats *syncclient.Stats
	if *session != "" {
		snap, err := buildSnapshot(ctx, client, *session, *elapsed, *rest, *pause, *resume)
		if err != nil {
			log.Error("cannot build snapshot", "error", err)
			os.Exit(1)
		}
		stats, err = syncer.Push(ctx, snap)
		if err != nil {
			log.Warn("snapshot not delivered yet", "error", err)
		}
	} else {
		stats, err = syncer.Flush(ctx)
		if err != nil {
			log.Warn("flush incomplete", "error", err)
		}
	}
	printStats(ctx, outbox, stats)

	if *watch > 0 {
		log.Info("watching outbox", "interval", *watch)
		if err := syncer.Run(ctx, *watch); err != nil {
			log.Error("sync loop failed", "error", err)
			os.Exit(1)
		}
	}
}

func buildSnapshot(ctx context.Context, client *syncclient.Client, session string, elapsed, rest int, pause, resume bool) (syncclient.Snapshot, error) {
	var snap syncclient.Snapshot

	if session == "active" {
		detail, err := client.Active(ctx)
		if err != nil {
			return snap, err
		}
		if detail == nil {
			return snap, fmt.Errorf("no active session")
		}
		snap.SessionID = detail.ID
	} else {
		id, err := uuid.Parse(session)
		if err != nil {
			return snap, fmt.Errorf("invalid session ID %q: %w", session, err)
		}
		snap.SessionID = id
	}

	if elapsed >= 0 {
		snap.ExerciseElapsedSeconds = &elapsed
	}
	if rest >= 0 {
		snap.RestRemainingSeconds = &rest
	}
	switch {
	case pause:
		snap.PausedAt = models.SetTime(time.Now().UTC())
	case resume:
		snap.PausedAt = models.Null()
	}
	return snap, nil
}

func printStats(ctx context.Context, outbox *syncclient.Outbox, stats *syncclient.Stats) {
	pending, _ := outbox.Len(ctx)
	last, _ := outbox.State(ctx, syncclient.StateLastFlush)
	if last == "" {
		last = "never"
	}
	fmt.Println()
	fmt.Println("=== Sync Summary ===")
	fmt.Printf("  Sent:        %d\n", stats.Sent)
	fmt.Printf("  Dropped:     %d (rejected by server)\n", stats.Dropped)
	fmt.Printf("  Pending:     %d\n", pending)
	fmt.Printf("  Last flush:  %s\n", last)
	fmt.Println()
}
