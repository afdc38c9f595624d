package models

import "time"

// Course is a unit of teaching content. Course IDs are assigned by the client
// when the course is created and must be unique across the datastore.
type Course struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Instructor  string    `json:"instructor,omitempty"`
	Modules     []Module  `json:"modules"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Module groups the sessions of a course. A default module is created the
// first time a session is added to a course that has none.
type Module struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Sessions []Session `json:"sessions"`
}

// Session is a scheduled meeting inside a course module. Session IDs are
// client-assigned and unique within their course.
type Session struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	StartsAt        *time.Time `json:"startsAt,omitempty"`
	DurationMinutes int        `json:"durationMinutes,omitempty"`
	Location        string     `json:"location,omitempty"`
}

// Sessions returns every session of the course in module order.
func (c Course) Sessions() []Session {
	var sessions []Session
	for _, module := range c.Modules {
		sessions = append(sessions, module.Sessions...)
	}
	return sessions
}

// HasSession reports whether any module of the course contains the session ID.
func (c Course) HasSession(id int64) bool {
	for _, module := range c.Modules {
		for _, session := range module.Sessions {
			if session.ID == id {
				return true
			}
		}
	}
	return false
}
