package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/claude/splitlog/internal/config"
	"github.com/claude/splitlog/internal/ingest"
	"github.com/claude/splitlog/internal/ingest/alpha"
	"github.com/claude/splitlog/internal/logging"
	"github.com/claude/splitlog/internal/storage"
	"github.com/claude/splitlog/internal/workout"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	file := flag.String("file", "", "Alpha Progression CSV export (required)")
	login := flag.String("user", "", "login of the user to import for (required)")
	dryRun := flag.Bool("dry-run", false, "parse the export and report counts without writing")
	flag.Parse()

	if *file == "" || (*login == "" && !*dryRun) {
		fmt.Fprintf(os.Stderr, "Usage: splitlog-import -config config.yaml -file export.csv -user <login> [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

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

	f, err := os.Open(*file)
	if err != nil {
		log.Error("failed to open export", "file", *file, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	if *dryRun {
		log.Info("DRY RUN mode: nothing will be written to the database")
		sessions, err := alpha.Parse(f)
		if err != nil {
			log.Error("parse failed", "error", err)
			os.Exit(1)
		}
		printParsed(log, sessions)
		return
	}

	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	userID, err := db.GetOrCreateUser(ctx, *login, *login)
	if err != nil {
		log.Error("failed to resolve user", "login", *login, "error", err)
		os.Exit(1)
	}

	stores := db.Stores()
	provider := alpha.NewProvider(workout.NewService(stores, log), stores.Plans, log)

	start := time.Now()
	result, err := provider.Ingest(ctx, f, userID)
	audit(ctx, db, log, userID, result, err, time.Since(start))
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}

	printStats(log, result)
	log.Info("import complete")
}

// audit records the run in import_logs so it shows up next to uploads made
// through the API.
func audit(ctx context.Context, db *storage.DB, log *slog.Logger, userID int, result *ingest.Result, importErr error, elapsed time.Duration) {
	if result == nil {
		result = &ingest.Result{}
	}
	ms := int(elapsed.Milliseconds())
	entry := storage.ImportLog{
		UserID:         userID,
		Source:         "alpha-cli",
		Status:         "success",
		LogsReceived:   result.LogsReceived,
		LogsInserted:   result.LogsInserted,
		SetsInserted:   result.SetsInserted,
		RecordsUpdated: result.RecordsUpdated,
		DurationMs:     &ms,
	}
	if importErr != nil {
		msg := importErr.Error()
		entry.Status = "error"
		entry.ErrorMessage = &msg
	}
	if _, err := db.InsertImportLog(ctx, entry); err != nil {
		log.Warn("failed to record import", "error", err)
	}
}

func printParsed(log *slog.Logger, sessions []alpha.Session) {
	var exercises, working, warmups int
	for _, s := range sessions {
		exercises += len(s.Exercises)
		for _, ex := range s.Exercises {
			for _, set := range ex.Sets {
				if set.Warmup {
					warmups++
				} else {
					working++
				}
			}
		}
	}
	log.Info("parsed export",
		"sessions", len(sessions),
		"exercises", exercises,
		"working_sets", working,
		"warmup_sets", warmups,
	)
}

func printStats(log *slog.Logger, r *ingest.Result) {
	log.Info("import stats",
		"logs_received", r.LogsReceived,
		"logs_inserted", r.LogsInserted,
		"logs_skipped", r.LogsSkipped,
		"sets_received", r.SetsReceived,
		"sets_inserted", r.SetsInserted,
		"warmups_skipped", r.WarmupsSkipped,
		"records_updated", r.RecordsUpdated,
	)
}
