package storage

import (
	"errors"
	"sync"
	"time"

	"courseware/internal/models"
)

const (
	// MaxCourseTitleLength bounds the title accepted for a course.
	MaxCourseTitleLength = 200
	// MaxSessionTitleLength bounds the title accepted for a session.
	MaxSessionTitleLength = 200
	// MaxDescriptionLength bounds course and session descriptions.
	MaxDescriptionLength = 2000

	// DefaultModuleID and DefaultModuleTitle identify the module created
	// implicitly when a session is added to a course that has none yet.
	DefaultModuleID    = "module_1"
	DefaultModuleTitle = "Nouveau module"
)

var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrCourseExists    = errors.New("course already exists")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
)

type dataset struct {
	Courses map[int64]models.Course `json:"courses"`
}

// Storage is the JSON-file backed datastore. All state lives in memory behind
// a RWMutex; every mutation is persisted atomically before it becomes visible.
type Storage struct {
	mu       sync.RWMutex
	filePath string
	data     dataset
	// persistOverride allows tests to intercept persist operations.
	persistOverride func(dataset) error
	clock           func() time.Time
}

// CreateCourseParams captures the attributes accepted when creating a course.
// The ID is chosen by the caller and must be unique.
type CreateCourseParams struct {
	ID          int64
	Code        string
	Title       string
	Description string
	Instructor  string
}

// CourseUpdate lists the mutable course fields; nil pointers are left as-is.
type CourseUpdate struct {
	Code        *string
	Title       *string
	Description *string
	Instructor  *string
}

// CreateSessionParams captures the attributes accepted when scheduling a
// session. The ID is chosen by the caller and must be unique in the course.
type CreateSessionParams struct {
	ID              int64
	Title           string
	Description     string
	StartsAt        *time.Time
	DurationMinutes int
	Location        string
}

// SessionUpdate lists the mutable session fields; nil pointers are left as-is.
type SessionUpdate struct {
	Title           *string
	Description     *string
	StartsAt        *time.Time
	DurationMinutes *int
	Location        *string
}
