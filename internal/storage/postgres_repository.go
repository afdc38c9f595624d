package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"courseware/internal/models"
)

const pgUniqueViolation = "23505"

type postgresRepository struct {
	pool  *pgxpool.Pool
	cfg   PostgresConfig
	clock func() time.Time
}

// NewPostgresRepository opens a Postgres-backed repository. The caller must
// ensure the schema has been applied, either via EnsureSchema or an external
// migration step, before serving traffic.
func NewPostgresRepository(dsn string, opts ...Option) (Repository, error) {
	cfg := newPostgresConfig(dsn, opts...)
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres dsn required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = cfg.MaxConnections
	}
	if cfg.MinConnections >= 0 {
		poolCfg.MinConns = cfg.MinConnections
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckInterval > 0 {
		poolCfg.HealthCheckPeriod = cfg.HealthCheckInterval
	}
	if cfg.AcquireTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.AcquireTimeout
	}
	if cfg.ApplicationName != "" {
		if poolCfg.ConnConfig.RuntimeParams == nil {
			poolCfg.ConnConfig.RuntimeParams = make(map[string]string)
		}
		poolCfg.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	return &postgresRepository{pool: pool, cfg: cfg, clock: cfg.Clock}, nil
}

func (r *postgresRepository) Close(ctx context.Context) error {
	if r == nil || r.pool == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		r.pool.Close()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (r *postgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (r *postgresRepository) CreateCourse(ctx context.Context, params CreateCourseParams) (models.Course, error) {
	if err := validateCourseParams(params); err != nil {
		return models.Course{}, err
	}
	now := r.clock()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO courses (id, code, title, description, instructor, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		params.ID,
		strings.TrimSpace(params.Code),
		strings.TrimSpace(params.Title),
		strings.TrimSpace(params.Description),
		strings.TrimSpace(params.Instructor),
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Course{}, ErrCourseExists
		}
		return models.Course{}, fmt.Errorf("insert course: %w", err)
	}
	return r.GetCourse(ctx, params.ID)
}

func (r *postgresRepository) ListCourses(ctx context.Context) ([]models.Course, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, code, title, description, instructor, created_at, updated_at
		FROM courses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	courses := make([]models.Course, 0)
	for rows.Next() {
		var course models.Course
		if err := rows.Scan(&course.ID, &course.Code, &course.Title, &course.Description,
			&course.Instructor, &course.CreatedAt, &course.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		course.Modules = []models.Module{}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	for i := range courses {
		modules, err := r.loadModules(ctx, r.pool, courses[i].ID)
		if err != nil {
			return nil, err
		}
		courses[i].Modules = modules
	}
	return courses, nil
}

func (r *postgresRepository) GetCourse(ctx context.Context, id int64) (models.Course, error) {
	var course models.Course
	err := r.pool.QueryRow(ctx, `
		SELECT id, code, title, description, instructor, created_at, updated_at
		FROM courses WHERE id = $1`, id).
		Scan(&course.ID, &course.Code, &course.Title, &course.Description,
			&course.Instructor, &course.CreatedAt, &course.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, fmt.Errorf("get course: %w", err)
	}
	modules, err := r.loadModules(ctx, r.pool, id)
	if err != nil {
		return models.Course{}, err
	}
	course.Modules = modules
	return course, nil
}

// querier covers the query methods shared by the pool and transactions.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *postgresRepository) loadModules(ctx context.Context, q querier, courseID int64) ([]models.Module, error) {
	rows, err := q.Query(ctx, `
		SELECT id, title FROM course_modules
		WHERE course_id = $1 ORDER BY position`, courseID)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	defer rows.Close()

	modules := make([]models.Module, 0)
	for rows.Next() {
		var module models.Module
		if err := rows.Scan(&module.ID, &module.Title); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		module.Sessions = []models.Session{}
		modules = append(modules, module)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}

	index := make(map[string]int, len(modules))
	for i := range modules {
		index[modules[i].ID] = i
	}

	sessionRows, err := q.Query(ctx, `
		SELECT module_id, id, title, description, starts_at, duration_minutes, location
		FROM course_sessions WHERE course_id = $1 ORDER BY position`, courseID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer sessionRows.Close()

	for sessionRows.Next() {
		var (
			moduleID string
			session  models.Session
		)
		if err := sessionRows.Scan(&moduleID, &session.ID, &session.Title, &session.Description,
			&session.StartsAt, &session.DurationMinutes, &session.Location); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if i, ok := index[moduleID]; ok {
			modules[i].Sessions = append(modules[i].Sessions, session)
		}
	}
	if err := sessionRows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return modules, nil
}

func (r *postgresRepository) UpdateCourse(ctx context.Context, id int64, update CourseUpdate) (models.Course, error) {
	current, err := r.GetCourse(ctx, id)
	if err != nil {
		return models.Course{}, err
	}
	merged, err := applyCourseUpdate(current, update)
	if err != nil {
		return models.Course{}, err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE courses SET code = $2, title = $3, description = $4, instructor = $5, updated_at = $6
		WHERE id = $1`,
		id, merged.Code, merged.Title, merged.Description, merged.Instructor, r.clock())
	if err != nil {
		return models.Course{}, fmt.Errorf("update course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Course{}, ErrCourseNotFound
	}
	return r.GetCourse(ctx, id)
}

func (r *postgresRepository) DeleteCourse(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCourseNotFound
	}
	return nil
}

func (r *postgresRepository) ListSessions(ctx context.Context, courseID int64) ([]models.Session, error) {
	course, err := r.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return course.Sessions(), nil
}

func (r *postgresRepository) CreateSession(ctx context.Context, courseID int64, params CreateSessionParams) (models.Session, error) {
	if err := validateSessionParams(params); err != nil {
		return models.Session{}, err
	}

	var session models.Session
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`, courseID).Scan(&exists); err != nil {
			return fmt.Errorf("check course: %w", err)
		}
		if !exists {
			return ErrCourseNotFound
		}

		// Sessions attach to the first module; create the default module
		// for courses that have none yet.
		var moduleID string
		err := tx.QueryRow(ctx, `
			SELECT id FROM course_modules WHERE course_id = $1
			ORDER BY position LIMIT 1`, courseID).Scan(&moduleID)
		if errors.Is(err, pgx.ErrNoRows) {
			moduleID = DefaultModuleID
			if _, err := tx.Exec(ctx, `
				INSERT INTO course_modules (course_id, id, title, position)
				VALUES ($1, $2, $3, 0)`, courseID, moduleID, DefaultModuleTitle); err != nil {
				return fmt.Errorf("create default module: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("find module: %w", err)
		}

		var position int
		if err := tx.QueryRow(ctx, `
			SELECT COALESCE(MAX(position)+1, 0) FROM course_sessions
			WHERE course_id = $1`, courseID).Scan(&position); err != nil {
			return fmt.Errorf("next session position: %w", err)
		}

		session = models.Session{
			ID:              params.ID,
			Title:           strings.TrimSpace(params.Title),
			Description:     strings.TrimSpace(params.Description),
			DurationMinutes: params.DurationMinutes,
			Location:        strings.TrimSpace(params.Location),
		}
		if params.StartsAt != nil {
			startsAt := params.StartsAt.UTC()
			session.StartsAt = &startsAt
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO course_sessions (course_id, module_id, id, title, description, starts_at, duration_minutes, location, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			courseID, moduleID, session.ID, session.Title, session.Description,
			session.StartsAt, session.DurationMinutes, session.Location, position); err != nil {
			if isUniqueViolation(err) {
				return ErrSessionExists
			}
			return fmt.Errorf("insert session: %w", err)
		}

		if _, err := tx.Exec(ctx, `UPDATE courses SET updated_at = $2 WHERE id = $1`, courseID, r.clock()); err != nil {
			return fmt.Errorf("touch course: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Session{}, err
	}
	return session, nil
}

func (r *postgresRepository) UpdateSession(ctx context.Context, courseID, sessionID int64, update SessionUpdate) (models.Session, error) {
	var updated models.Session
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`, courseID).Scan(&exists); err != nil {
			return fmt.Errorf("check course: %w", err)
		}
		if !exists {
			return ErrCourseNotFound
		}

		var current models.Session
		err := tx.QueryRow(ctx, `
			SELECT id, title, description, starts_at, duration_minutes, location
			FROM course_sessions WHERE course_id = $1 AND id = $2 FOR UPDATE`,
			courseID, sessionID).
			Scan(&current.ID, &current.Title, &current.Description,
				&current.StartsAt, &current.DurationMinutes, &current.Location)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		merged, err := applySessionUpdate(current, update)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			UPDATE course_sessions SET title = $3, description = $4, starts_at = $5, duration_minutes = $6, location = $7
			WHERE course_id = $1 AND id = $2`,
			courseID, sessionID, merged.Title, merged.Description,
			merged.StartsAt, merged.DurationMinutes, merged.Location); err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE courses SET updated_at = $2 WHERE id = $1`, courseID, r.clock()); err != nil {
			return fmt.Errorf("touch course: %w", err)
		}
		updated = merged
		return nil
	})
	if err != nil {
		return models.Session{}, err
	}
	return updated, nil
}

func (r *postgresRepository) DeleteSession(ctx context.Context, courseID, sessionID int64) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`, courseID).Scan(&exists); err != nil {
			return fmt.Errorf("check course: %w", err)
		}
		if !exists {
			return ErrCourseNotFound
		}

		tag, err := tx.Exec(ctx, `DELETE FROM course_sessions WHERE course_id = $1 AND id = $2`, courseID, sessionID)
		if err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrSessionNotFound
		}
		if _, err := tx.Exec(ctx, `UPDATE courses SET updated_at = $2 WHERE id = $1`, courseID, r.clock()); err != nil {
			return fmt.Errorf("touch course: %w", err)
		}
		return nil
	})
}
