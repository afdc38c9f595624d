package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"courseware/internal/models"
)

func newDataset() dataset {
	return dataset{Courses: make(map[int64]models.Course)}
}

func NewStorage(path string, opts ...Option) (*Storage, error) {
	store := &Storage{
		filePath: path,
		clock:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt.applyJSON(store)
		}
	}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Storage) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	file, err := os.Open(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		s.data = newDataset()
		return nil
	} else if err != nil {
		return fmt.Errorf("open store file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&s.data); err != nil {
		if errors.Is(err, io.EOF) {
			s.data = newDataset()
			return nil
		}
		return fmt.Errorf("decode store file: %w", err)
	}

	if s.data.Courses == nil {
		s.data.Courses = make(map[int64]models.Course)
	}
	return nil
}

func (s *Storage) persist() error {
	return s.persistDataset(s.data)
}

func (s *Storage) persistDataset(data dataset) error {
	if s.persistOverride != nil {
		if err := s.persistOverride(data); err != nil {
			return err
		}
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "store-*.json")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpPath := tmpFile.Name()
	success := false
	defer func() {
		if !success {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	encoder := json.NewEncoder(tmpFile)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("flush store file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp store file: %w", err)
	}

	if err := os.Rename(tmpPath, s.filePath); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	success = true
	return nil
}

func cloneDataset(src dataset) dataset {
	clone := newDataset()
	for id, course := range src.Courses {
		clone.Courses[id] = cloneCourse(course)
	}
	return clone
}

func cloneCourse(course models.Course) models.Course {
	cloned := course
	if course.Modules != nil {
		cloned.Modules = make([]models.Module, len(course.Modules))
		for i, module := range course.Modules {
			clonedModule := module
			if module.Sessions != nil {
				clonedModule.Sessions = make([]models.Session, len(module.Sessions))
				for j, session := range module.Sessions {
					clonedModule.Sessions[j] = cloneSession(session)
				}
			}
			cloned.Modules[i] = clonedModule
		}
	}
	return cloned
}

func cloneSession(session models.Session) models.Session {
	cloned := session
	if session.StartsAt != nil {
		startsAt := *session.StartsAt
		cloned.StartsAt = &startsAt
	}
	return cloned
}

// Ping reports whether the datastore is usable.
func (s *Storage) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data.Courses == nil {
		return errors.New("datastore not initialised")
	}
	return nil
}

// Course operations

func (s *Storage) CreateCourse(ctx context.Context, params CreateCourseParams) (models.Course, error) {
	if err := validateCourseParams(params); err != nil {
		return models.Course{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data.Courses[params.ID]; exists {
		return models.Course{}, ErrCourseExists
	}

	now := s.clock()
	course := models.Course{
		ID:          params.ID,
		Code:        strings.TrimSpace(params.Code),
		Title:       strings.TrimSpace(params.Title),
		Description: strings.TrimSpace(params.Description),
		Instructor:  strings.TrimSpace(params.Instructor),
		Modules:     []models.Module{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.data.Courses[course.ID] = course
	if err := s.persist(); err != nil {
		delete(s.data.Courses, course.ID)
		return models.Course{}, err
	}
	return cloneCourse(course), nil
}

func (s *Storage) ListCourses(ctx context.Context) ([]models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	courses := make([]models.Course, 0, len(s.data.Courses))
	for _, course := range s.data.Courses {
		courses = append(courses, cloneCourse(course))
	}
	sort.Slice(courses, func(i, j int) bool {
		return courses[i].ID < courses[j].ID
	})
	return courses, nil
}

func (s *Storage) GetCourse(ctx context.Context, id int64) (models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	course, ok := s.data.Courses[id]
	if !ok {
		return models.Course{}, ErrCourseNotFound
	}
	return cloneCourse(course), nil
}

func (s *Storage) UpdateCourse(ctx context.Context, id int64, update CourseUpdate) (models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updatedData := cloneDataset(s.data)

	course, ok := updatedData.Courses[id]
	if !ok {
		return models.Course{}, ErrCourseNotFound
	}

	course, err := applyCourseUpdate(course, update)
	if err != nil {
		return models.Course{}, err
	}
	course.UpdatedAt = s.clock()

	updatedData.Courses[id] = course
	if err := s.persistDataset(updatedData); err != nil {
		return models.Course{}, err
	}
	s.data = updatedData

	return cloneCourse(course), nil
}

func (s *Storage) DeleteCourse(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updatedData := cloneDataset(s.data)

	if _, ok := updatedData.Courses[id]; !ok {
		return ErrCourseNotFound
	}
	delete(updatedData.Courses, id)

	if err := s.persistDataset(updatedData); err != nil {
		return err
	}
	s.data = updatedData
	return nil
}

func applyCourseUpdate(course models.Course, update CourseUpdate) (models.Course, error) {
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return models.Course{}, errors.New("title cannot be empty")
		}
		if len(title) > MaxCourseTitleLength {
			return models.Course{}, fmt.Errorf("title exceeds %d characters", MaxCourseTitleLength)
		}
		course.Title = title
	}
	if update.Code != nil {
		course.Code = strings.TrimSpace(*update.Code)
	}
	if update.Description != nil {
		description := strings.TrimSpace(*update.Description)
		if len(description) > MaxDescriptionLength {
			return models.Course{}, fmt.Errorf("description exceeds %d characters", MaxDescriptionLength)
		}
		course.Description = description
	}
	if update.Instructor != nil {
		course.Instructor = strings.TrimSpace(*update.Instructor)
	}
	return course, nil
}

func validateCourseParams(params CreateCourseParams) error {
	if params.ID <= 0 {
		return errors.New("course id must be a positive integer")
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return errors.New("title is required")
	}
	if len(title) > MaxCourseTitleLength {
		return fmt.Errorf("title exceeds %d characters", MaxCourseTitleLength)
	}
	if len(strings.TrimSpace(params.Description)) > MaxDescriptionLength {
		return fmt.Errorf("description exceeds %d characters", MaxDescriptionLength)
	}
	return nil
}
