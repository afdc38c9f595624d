package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS courses (
		id BIGINT PRIMARY KEY,
		code TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		instructor TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS course_modules (
		course_id BIGINT NOT NULL REFERENCES courses (id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		title TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (course_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS course_sessions (
		course_id BIGINT NOT NULL,
		module_id TEXT NOT NULL,
		id BIGINT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		starts_at TIMESTAMPTZ,
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		location TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (course_id, id),
		FOREIGN KEY (course_id, module_id) REFERENCES course_modules (course_id, id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS course_sessions_module_idx ON course_sessions (course_id, module_id)`,
}

// EnsureSchema creates the catalogue tables when they do not exist yet. It is
// idempotent and safe to run at every startup.
func EnsureSchema(ctx context.Context, repo Repository) error {
	pgRepo, ok := repo.(*postgresRepository)
	if !ok {
		return fmt.Errorf("postgres repository required for schema setup")
	}
	for _, stmt := range schemaStatements {
		if _, err := pgRepo.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func (r *postgresRepository) importSnapshot(ctx context.Context, snapshot *Snapshot) error {
	courseIDs := make([]int64, 0, len(snapshot.Courses))
	for id := range snapshot.Courses {
		courseIDs = append(courseIDs, id)
	}
	sort.Slice(courseIDs, func(i, j int) bool { return courseIDs[i] < courseIDs[j] })

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, id := range courseIDs {
			course := snapshot.Courses[id]
			if _, err := tx.Exec(ctx, `
				INSERT INTO courses (id, code, title, description, instructor, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (id) DO UPDATE SET
					code = EXCLUDED.code,
					title = EXCLUDED.title,
					description = EXCLUDED.description,
					instructor = EXCLUDED.instructor,
					created_at = EXCLUDED.created_at,
					updated_at = EXCLUDED.updated_at`,
				id, course.Code, course.Title, course.Description, course.Instructor,
				course.CreatedAt, course.UpdatedAt); err != nil {
				return fmt.Errorf("import course %d: %w", id, err)
			}

			sessionPosition := 0
			for modulePosition, module := range course.Modules {
				if _, err := tx.Exec(ctx, `
					INSERT INTO course_modules (course_id, id, title, position)
					VALUES ($1, $2, $3, $4)
					ON CONFLICT (course_id, id) DO UPDATE SET
						title = EXCLUDED.title,
						position = EXCLUDED.position`,
					id, module.ID, module.Title, modulePosition); err != nil {
					return fmt.Errorf("import module %s of course %d: %w", module.ID, id, err)
				}

				for _, session := range module.Sessions {
					if _, err := tx.Exec(ctx, `
						INSERT INTO course_sessions (course_id, module_id, id, title, description, starts_at, duration_minutes, location, position)
						VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
						ON CONFLICT (course_id, id) DO UPDATE SET
							module_id = EXCLUDED.module_id,
							title = EXCLUDED.title,
							description = EXCLUDED.description,
							starts_at = EXCLUDED.starts_at,
							duration_minutes = EXCLUDED.duration_minutes,
							location = EXCLUDED.location,
							position = EXCLUDED.position`,
						id, module.ID, session.ID, session.Title, session.Description,
						session.StartsAt, session.DurationMinutes, session.Location, sessionPosition); err != nil {
						return fmt.Errorf("import session %d of course %d: %w", session.ID, id, err)
					}
					sessionPosition++
				}
			}
		}
		return nil
	})
}
