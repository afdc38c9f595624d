// Command migrate-json-to-postgres migrates stored course data from JSON into Postgres.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"courseware/internal/storage"
)

func main() {
	jsonPath := flag.String("json", "data/store.json", "path to the JSON datastore to migrate")
	postgresDSN := flag.String("postgres-dsn", "", "Postgres connection string")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	dsn := strings.TrimSpace(*postgresDSN)
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("COURSEWARE_POSTGRES_DSN"))
	}
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		logger.Error("postgres DSN required", "hint", "set --postgres-dsn, COURSEWARE_POSTGRES_DSN, or DATABASE_URL")
		os.Exit(1)
	}

	snapshot, err := storage.LoadSnapshotFromJSON(*jsonPath)
	if err != nil {
		logger.Error("failed to load JSON snapshot", "error", err)
		os.Exit(1)
	}
	counts := snapshot.Counts()
	logger.Info("loaded JSON snapshot", "path", *jsonPath, "courses", counts.Courses, "modules", counts.Modules, "sessions", counts.Sessions)

	repo, err := storage.NewPostgresRepository(dsn)
	if err != nil {
		logger.Error("failed to open postgres repository", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closer, ok := repo.(interface{ Close(context.Context) error }); ok {
			_ = closer.Close(context.Background())
		}
	}()

	if err := storage.EnsureSchema(context.Background(), repo); err != nil {
		logger.Error("failed to prepare schema", "error", err)
		os.Exit(1)
	}

	if err := storage.ImportSnapshotToPostgres(context.Background(), repo, snapshot); err != nil {
		logger.Error("failed to import snapshot", "error", err)
		os.Exit(1)
	}

	if err := verifyCounts(context.Background(), dsn, counts); err != nil {
		logger.Error("verification failed", "error", err)
		os.Exit(1)
	}

	logger.Info("migration completed", "courses", counts.Courses, "modules", counts.Modules, "sessions", counts.Sessions)
}

func verifyCounts(ctx context.Context, dsn string, counts storage.SnapshotCounts) error {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse verification config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open verification connection: %w", err)
	}
	defer pool.Close()

	checks := []struct {
		name     string
		query    string
		expected int
	}{
		{"courses", "SELECT COUNT(*) FROM courses", counts.Courses},
		{"course_modules", "SELECT COUNT(*) FROM course_modules", counts.Modules},
		{"course_sessions", "SELECT COUNT(*) FROM course_sessions", counts.Sessions},
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, check := range checks {
		check := check
		group.Go(func() error {
			var actual int
			if err := pool.QueryRow(groupCtx, check.query).Scan(&actual); err != nil {
				return fmt.Errorf("query %s: %w", check.name, err)
			}
			if actual != check.expected {
				return fmt.Errorf("mismatch for %s: expected %d, got %d", check.name, check.expected, actual)
			}
			return nil
		})
	}
	return group.Wait()
}
