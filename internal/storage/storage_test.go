package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T, extra ...Option) *Storage {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")
	store, err := NewStorage(path, extra...)
	if err != nil {
		t.Fatalf("NewStorage error: %v", err)
	}
	return store
}

func mustCreateCourse(t *testing.T, store *Storage, id int64, title string) {
	t.Helper()
	if _, err := store.CreateCourse(context.Background(), CreateCourseParams{
		ID:    id,
		Code:  "GO-101",
		Title: title,
	}); err != nil {
		t.Fatalf("CreateCourse %d: %v", id, err)
	}
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func TestCreateCourseAssignsTimestampsAndPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")
	fixed := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store, err := NewStorage(path, WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("NewStorage error: %v", err)
	}

	course, err := store.CreateCourse(context.Background(), CreateCourseParams{
		ID:          1,
		Code:        "GO-101",
		Title:       "  Introduction to Go  ",
		Description: "Basics",
		Instructor:  "Ada",
	})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	if course.Title != "Introduction to Go" {
		t.Fatalf("expected trimmed title, got %q", course.Title)
	}
	if !course.CreatedAt.Equal(fixed) || !course.UpdatedAt.Equal(fixed) {
		t.Fatalf("expected timestamps %v, got created=%v updated=%v", fixed, course.CreatedAt, course.UpdatedAt)
	}
	if course.Modules == nil || len(course.Modules) != 0 {
		t.Fatalf("expected empty modules slice, got %#v", course.Modules)
	}

	reloaded, err := NewStorage(path)
	if err != nil {
		t.Fatalf("reload storage: %v", err)
	}
	if _, err := reloaded.GetCourse(context.Background(), 1); err != nil {
		t.Fatalf("GetCourse after reload: %v", err)
	}
}

func TestCreateCourseRejectsDuplicateID(t *testing.T) {
	store := newTestStore(t)
	mustCreateCourse(t, store, 7, "First")

	_, err := store.CreateCourse(context.Background(), CreateCourseParams{ID: 7, Title: "Second"})
	if !errors.Is(err, ErrCourseExists) {
		t.Fatalf("expected ErrCourseExists, got %v", err)
	}
}

func TestCreateCourseValidation(t *testing.T) {
	store := newTestStore(t)

	cases := []struct {
		name   string
		params CreateCourseParams
	}{
		{"zero id", CreateCourseParams{ID: 0, Title: "Go"}},
		{"negative id", CreateCourseParams{ID: -3, Title: "Go"}},
		{"blank title", CreateCourseParams{ID: 1, Title: "   "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := store.CreateCourse(context.Background(), tc.params); err == nil {
				t.Fatalf("expected validation error for %+v", tc.params)
			}
		})
	}
}

func TestListCoursesSortedByID(t *testing.T) {
	store := newTestStore(t)
	mustCreateCourse(t, store, 30, "Third")
	mustCreateCourse(t, store, 10, "First")
	mustCreateCourse(t, store, 20, "Second")

	courses, err := store.ListCourses(context.Background())
	if err != nil {
		t.Fatalf("ListCourses: %v", err)
	}
	if len(courses) != 3 {
		t.Fatalf("expected 3 courses, got %d", len(courses))
	}
	for i, want := range []int64{10, 20, 30} {
		if courses[i].ID != want {
			t.Fatalf("expected course %d at index %d, got %d", want, i, courses[i].ID)
		}
	}
}

func TestGetCourseNotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetCourse(context.Background(), 99); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
}

func TestUpdateCourseMergesOnlyProvidedFields(t *testing.T) {
	store := newTestStore(t)
	mustCreateCourse(t, store, 1, "Go Basics")

	updated, err := store.UpdateCourse(context.Background(), 1, CourseUpdate{
		Description: strPtr("A gentle introduction"),
	})
	if err != nil {
		t.Fatalf("UpdateCourse: %v", err)
	}
	if updated.Title != "Go Basics" {
		t.Fatalf("title should be unchanged, got %q", updated.Title)
	}
	if updated.Description != "A gentle introduction" {
		t.Fatalf("description not applied, got %q", updated.Description)
	}
}

func TestUpdateCourseRejectsEmptyTitle(t *testing.T) {
	store := newTestStore(t)
	mustCreateCourse(t, store, 1, "Go Basics")

	if _, err := store.UpdateCourse(context.Background(), 1, CourseUpdate{Title: strPtr("  ")}); err == nil {
		t.Fatal("expected error for empty title")
	}
	course, err := store.GetCourse(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetCourse: %v", err)
	}
	if course.Title != "Go Basics" {
		t.Fatalf("title should be unchanged after failed update, got %q", course.Title)
	}
}

func TestDeleteCourseRemovesCourse(t *testing.T) {
	store := newTestStore(t)
	mustCreateCourse(t, store, 1, "Go Basics")

	if err := store.DeleteCourse(context.Background(), 1); err != nil {
		t.Fatalf("DeleteCourse: %v", err)
	}
	if _, err := store.GetCourse(context.Background(), 1); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound after delete, got %v", err)
	}
	if err := store.DeleteCourse(context.Background(), 1); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound on second delete, got %v", err)
	}
}

func TestCreateCoursePersistFailureRollsBack(t *testing.T) {
	store := newTestStore(t)
	mustCreateCourse(t, store, 1, "Kept")

	persistErr := errors.New("disk full")
	store.persistOverride = func(dataset) error { return persistErr }

	if _, err := store.CreateCourse(context.Background(), CreateCourseParams{ID: 2, Title: "Lost"}); !errors.Is(err, persistErr) {
		t.Fatalf("expected persist error, got %v", err)
	}

	store.persistOverride = nil
	if _, err := store.GetCourse(context.Background(), 2); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("failed create should not be visible, got %v", err)
	}
	if _, err := store.GetCourse(context.Background(), 1); err != nil {
		t.Fatalf("existing course should survive failed persist: %v", err)
	}
}

func TestUpdateCoursePersistFailureLeavesDataUntouched(t *testing.T) {
	store := newTestStore(t)
	mustCreateCourse(t, store, 1, "Original")

	persistErr := errors.New("disk full")
	store.persistOverride = func(dataset) error { return persistErr }

	if _, err := store.UpdateCourse(context.Background(), 1, CourseUpdate{Title: strPtr("Changed")}); !errors.Is(err, persistErr) {
		t.Fatalf("expected persist error, got %v", err)
	}

	store.persistOverride = nil
	course, err := store.GetCourse(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetCourse: %v", err)
	}
	if course.Title != "Original" {
		t.Fatalf("title should be unchanged after failed persist, got %q", course.Title)
	}
}

func TestNewStorageToleratesMissingAndEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "store.json")

	store, err := NewStorage(path)
	if err != nil {
		t.Fatalf("NewStorage with missing file: %v", err)
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	emptyPath := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(emptyPath, nil, 0o644); err != nil {
		t.Fatalf("write empty file: %v", err)
	}
	if _, err := NewStorage(emptyPath); err != nil {
		t.Fatalf("NewStorage with empty file: %v", err)
	}
}

func TestGetCourseReturnsClone(t *testing.T) {
	store := newTestStore(t)
	mustCreateCourse(t, store, 1, "Go Basics")
	if _, err := store.CreateSession(context.Background(), 1, CreateSessionParams{ID: 1, Title: "Kickoff"}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	course, err := store.GetCourse(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetCourse: %v", err)
	}
	course.Modules[0].Sessions[0].Title = "Tampered"

	again, err := store.GetCourse(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetCourse: %v", err)
	}
	if again.Modules[0].Sessions[0].Title != "Kickoff" {
		t.Fatalf("stored session mutated through returned clone: %q", again.Modules[0].Sessions[0].Title)
	}
}
