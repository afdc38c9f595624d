package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"courseware/internal/models"
)

// Session operations. Sessions live inside course modules; a course without
// modules receives a default module the first time a session is scheduled.

func (s *Storage) ListSessions(ctx context.Context, courseID int64) ([]models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	course, ok := s.data.Courses[courseID]
	if !ok {
		return nil, ErrCourseNotFound
	}

	sessions := make([]models.Session, 0)
	for _, module := range course.Modules {
		for _, session := range module.Sessions {
			sessions = append(sessions, cloneSession(session))
		}
	}
	return sessions, nil
}

func (s *Storage) CreateSession(ctx context.Context, courseID int64, params CreateSessionParams) (models.Session, error) {
	if err := validateSessionParams(params); err != nil {
		return models.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updatedData := cloneDataset(s.data)

	course, ok := updatedData.Courses[courseID]
	if !ok {
		return models.Session{}, ErrCourseNotFound
	}
	if course.HasSession(params.ID) {
		return models.Session{}, ErrSessionExists
	}

	if len(course.Modules) == 0 {
		course.Modules = []models.Module{{
			ID:       DefaultModuleID,
			Title:    DefaultModuleTitle,
			Sessions: []models.Session{},
		}}
	}

	session := models.Session{
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

	course.Modules[0].Sessions = append(course.Modules[0].Sessions, session)
	course.UpdatedAt = s.clock()
	updatedData.Courses[courseID] = course

	if err := s.persistDataset(updatedData); err != nil {
		return models.Session{}, err
	}
	s.data = updatedData

	return cloneSession(session), nil
}

func (s *Storage) UpdateSession(ctx context.Context, courseID, sessionID int64, update SessionUpdate) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updatedData := cloneDataset(s.data)

	course, ok := updatedData.Courses[courseID]
	if !ok {
		return models.Session{}, ErrCourseNotFound
	}

	for mi := range course.Modules {
		for si := range course.Modules[mi].Sessions {
			if course.Modules[mi].Sessions[si].ID != sessionID {
				continue
			}
			session := course.Modules[mi].Sessions[si]
			applied, err := applySessionUpdate(session, update)
			if err != nil {
				return models.Session{}, err
			}
			course.Modules[mi].Sessions[si] = applied
			course.UpdatedAt = s.clock()
			updatedData.Courses[courseID] = course

			if err := s.persistDataset(updatedData); err != nil {
				return models.Session{}, err
			}
			s.data = updatedData
			return cloneSession(applied), nil
		}
	}
	return models.Session{}, ErrSessionNotFound
}

func (s *Storage) DeleteSession(ctx context.Context, courseID, sessionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updatedData := cloneDataset(s.data)

	course, ok := updatedData.Courses[courseID]
	if !ok {
		return ErrCourseNotFound
	}

	for mi := range course.Modules {
		sessions := course.Modules[mi].Sessions
		for si := range sessions {
			if sessions[si].ID != sessionID {
				continue
			}
			course.Modules[mi].Sessions = append(sessions[:si:si], sessions[si+1:]...)
			course.UpdatedAt = s.clock()
			updatedData.Courses[courseID] = course

			if err := s.persistDataset(updatedData); err != nil {
				return err
			}
			s.data = updatedData
			return nil
		}
	}
	return ErrSessionNotFound
}

func applySessionUpdate(session models.Session, update SessionUpdate) (models.Session, error) {
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return models.Session{}, errors.New("title cannot be empty")
		}
		if len(title) > MaxSessionTitleLength {
			return models.Session{}, fmt.Errorf("title exceeds %d characters", MaxSessionTitleLength)
		}
		session.Title = title
	}
	if update.Description != nil {
		description := strings.TrimSpace(*update.Description)
		if len(description) > MaxDescriptionLength {
			return models.Session{}, fmt.Errorf("description exceeds %d characters", MaxDescriptionLength)
		}
		session.Description = description
	}
	if update.StartsAt != nil {
		startsAt := update.StartsAt.UTC()
		session.StartsAt = &startsAt
	}
	if update.DurationMinutes != nil {
		if *update.DurationMinutes < 0 {
			return models.Session{}, errors.New("durationMinutes cannot be negative")
		}
		session.DurationMinutes = *update.DurationMinutes
	}
	if update.Location != nil {
		session.Location = strings.TrimSpace(*update.Location)
	}
	return session, nil
}

func validateSessionParams(params CreateSessionParams) error {
	if params.ID <= 0 {
		return errors.New("session id must be a positive integer")
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return errors.New("title is required")
	}
	if len(title) > MaxSessionTitleLength {
		return fmt.Errorf("title exceeds %d characters", MaxSessionTitleLength)
	}
	if len(strings.TrimSpace(params.Description)) > MaxDescriptionLength {
		return fmt.Errorf("description exceeds %d characters", MaxDescriptionLength)
	}
	if params.DurationMinutes < 0 {
		return errors.New("durationMinutes cannot be negative")
	}
	return nil
}
