//go:build postgres

package storage_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"courseware/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// openPostgresRepository connects to the database named by
// COURSEWARE_TEST_POSTGRES_DSN, applies the schema and truncates the course
// tables so every test starts from an empty datastore. The DSN must point at
// a database dedicated to automated runs.
func openPostgresRepository(t *testing.T, opts ...storage.Option) storage.Repository {
	t.Helper()
	dsn := os.Getenv("COURSEWARE_TEST_POSTGRES_DSN")
	if strings.TrimSpace(dsn) == "" {
		t.Skip("COURSEWARE_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		t.Fatalf("parse postgres config: %v", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		t.Fatalf("open postgres pool: %v", err)
	}

	repo, err := storage.NewPostgresRepository(dsn, opts...)
	if err != nil {
		pool.Close()
		t.Fatalf("open postgres repository: %v", err)
	}
	if err := storage.EnsureSchema(ctx, repo); err != nil {
		pool.Close()
		t.Fatalf("ensure schema: %v", err)
	}
	if err := truncateCourseTables(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("truncate tables: %v", err)
	}

	t.Cleanup(func() {
		if err := truncateCourseTables(context.Background(), pool); err != nil {
			t.Fatalf("truncate tables: %v", err)
		}
	})
	t.Cleanup(func() {
		if closer, ok := repo.(interface{ Close(context.Context) error }); ok {
			if err := closer.Close(context.Background()); err != nil {
				t.Fatalf("close repository: %v", err)
			}
		}
	})
	t.Cleanup(func() { pool.Close() })

	return repo
}

func truncateCourseTables(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, "TRUNCATE TABLE course_sessions, course_modules, courses")
	return err
}

func TestPostgresRepositoryConnection(t *testing.T) {
	repo := openPostgresRepository(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestPostgresCourseLifecycle(t *testing.T) {
	repo := openPostgresRepository(t)
	ctx := context.Background()

	created, err := repo.CreateCourse(ctx, storage.CreateCourseParams{
		ID:         31,
		Code:       "HIST-201",
		Title:      "Histoire moderne",
		Instructor: "A. Moreau",
	})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	if created.ID != 31 || created.Title != "Histoire moderne" {
		t.Fatalf("unexpected course: %+v", created)
	}
	if created.Modules == nil || len(created.Modules) != 0 {
		t.Fatalf("expected empty modules slice, got %#v", created.Modules)
	}

	courses, err := repo.ListCourses(ctx)
	if err != nil {
		t.Fatalf("list courses: %v", err)
	}
	if len(courses) != 1 || courses[0].ID != 31 {
		t.Fatalf("unexpected course list: %+v", courses)
	}

	title := "Histoire contemporaine"
	updated, err := repo.UpdateCourse(ctx, 31, storage.CourseUpdate{Title: &title})
	if err != nil {
		t.Fatalf("update course: %v", err)
	}
	if updated.Title != title {
		t.Fatalf("expected updated title, got %q", updated.Title)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) && !updated.UpdatedAt.Equal(created.UpdatedAt) {
		t.Fatalf("updated_at went backwards: %v then %v", created.UpdatedAt, updated.UpdatedAt)
	}

	if err := repo.DeleteCourse(ctx, 31); err != nil {
		t.Fatalf("delete course: %v", err)
	}
	if _, err := repo.GetCourse(ctx, 31); !errors.Is(err, storage.ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
}

func TestPostgresCreateCourseDuplicateID(t *testing.T) {
	repo := openPostgresRepository(t)
	ctx := context.Background()

	params := storage.CreateCourseParams{ID: 7, Title: "Chimie organique"}
	if _, err := repo.CreateCourse(ctx, params); err != nil {
		t.Fatalf("create course: %v", err)
	}
	if _, err := repo.CreateCourse(ctx, params); !errors.Is(err, storage.ErrCourseExists) {
		t.Fatalf("expected ErrCourseExists, got %v", err)
	}
}

func TestPostgresSessionLifecycle(t *testing.T) {
	repo := openPostgresRepository(t)
	ctx := context.Background()

	course, err := repo.CreateCourse(ctx, storage.CreateCourseParams{ID: 12, Title: "Physique quantique"})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}

	starts := time.Date(2024, time.September, 2, 9, 0, 0, 0, time.UTC)
	session, err := repo.CreateSession(ctx, 12, storage.CreateSessionParams{
		ID:              1,
		Title:           "Introduction",
		StartsAt:        &starts,
		DurationMinutes: 90,
		Location:        "Amphi B",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.ID != 1 || session.Title != "Introduction" {
		t.Fatalf("unexpected session: %+v", session)
	}

	// The first session lands in an implicitly created default module.
	reloaded, err := repo.GetCourse(ctx, 12)
	if err != nil {
		t.Fatalf("get course: %v", err)
	}
	if len(reloaded.Modules) != 1 {
		t.Fatalf("expected one module, got %d", len(reloaded.Modules))
	}
	if reloaded.Modules[0].ID != storage.DefaultModuleID {
		t.Fatalf("expected module %q, got %q", storage.DefaultModuleID, reloaded.Modules[0].ID)
	}
	if reloaded.Modules[0].Title != storage.DefaultModuleTitle {
		t.Fatalf("expected module title %q, got %q", storage.DefaultModuleTitle, reloaded.Modules[0].Title)
	}
	if !reloaded.UpdatedAt.After(course.UpdatedAt) && !reloaded.UpdatedAt.Equal(course.UpdatedAt) {
		t.Fatalf("session create did not touch course updated_at")
	}

	location := "Salle 104"
	updated, err := repo.UpdateSession(ctx, 12, 1, storage.SessionUpdate{Location: &location})
	if err != nil {
		t.Fatalf("update session: %v", err)
	}
	if updated.Location != location {
		t.Fatalf("expected location %q, got %q", location, updated.Location)
	}

	sessions, err := repo.ListSessions(ctx, 12)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Location != location {
		t.Fatalf("unexpected session list: %+v", sessions)
	}

	if err := repo.DeleteSession(ctx, 12, 1); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := repo.UpdateSession(ctx, 12, 1, storage.SessionUpdate{}); !errors.Is(err, storage.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestPostgresCreateSessionDuplicateID(t *testing.T) {
	repo := openPostgresRepository(t)
	ctx := context.Background()

	if _, err := repo.CreateCourse(ctx, storage.CreateCourseParams{ID: 4, Title: "Algèbre"}); err != nil {
		t.Fatalf("create course: %v", err)
	}
	params := storage.CreateSessionParams{ID: 9, Title: "TD 1"}
	if _, err := repo.CreateSession(ctx, 4, params); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := repo.CreateSession(ctx, 4, params); !errors.Is(err, storage.ErrSessionExists) {
		t.Fatalf("expected ErrSessionExists, got %v", err)
	}
}

func TestPostgresSessionOperationsUnknownCourse(t *testing.T) {
	repo := openPostgresRepository(t)
	ctx := context.Background()

	if _, err := repo.CreateSession(ctx, 99, storage.CreateSessionParams{ID: 1, Title: "Orphan"}); !errors.Is(err, storage.ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
	if _, err := repo.ListSessions(ctx, 99); !errors.Is(err, storage.ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
}
