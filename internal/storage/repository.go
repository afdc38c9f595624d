package storage

import (
	"context"

	"courseware/internal/models"
)

// Repository is the persistence contract consumed by the HTTP layer. Both the
// JSON file store and the Postgres store satisfy it.
type Repository interface {
	Ping(ctx context.Context) error

	ListCourses(ctx context.Context) ([]models.Course, error)
	CreateCourse(ctx context.Context, params CreateCourseParams) (models.Course, error)
	GetCourse(ctx context.Context, id int64) (models.Course, error)
	UpdateCourse(ctx context.Context, id int64, update CourseUpdate) (models.Course, error)
	DeleteCourse(ctx context.Context, id int64) error

	ListSessions(ctx context.Context, courseID int64) ([]models.Session, error)
	CreateSession(ctx context.Context, courseID int64, params CreateSessionParams) (models.Session, error)
	UpdateSession(ctx context.Context, courseID, sessionID int64, update SessionUpdate) (models.Session, error)
	DeleteSession(ctx context.Context, courseID, sessionID int64) error
}

var _ Repository = (*Storage)(nil)
