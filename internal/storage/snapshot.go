package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"courseware/internal/models"
)

// Snapshot captures a complete JSON-serialisable view of the catalogue,
// keyed by course identifier, so it can be exported from one backend and
// replayed into another.
type Snapshot struct {
	Courses map[int64]models.Course `json:"courses"`
}

// SnapshotCounts summarises the size of a Snapshot so operators can see how
// much data an import will move.
type SnapshotCounts struct {
	Courses  int
	Modules  int
	Sessions int
}

// LoadSnapshotFromJSON reads a datastore file from disk. The on-disk format
// of the JSON backend is itself a valid snapshot.
func LoadSnapshotFromJSON(path string) (*Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	var snapshot Snapshot
	if err := decoder.Decode(&snapshot); err != nil {
		if err == io.EOF {
			snapshot.ensureInitialized()
			return &snapshot, nil
		}
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	snapshot.ensureInitialized()
	return &snapshot, nil
}

func (s *Snapshot) ensureInitialized() {
	if s.Courses == nil {
		s.Courses = make(map[int64]models.Course)
	}
}

// Counts walks the Snapshot and tallies each collection.
func (s *Snapshot) Counts() SnapshotCounts {
	if s == nil {
		return SnapshotCounts{}
	}
	counts := SnapshotCounts{Courses: len(s.Courses)}
	for _, course := range s.Courses {
		counts.Modules += len(course.Modules)
		for _, module := range course.Modules {
			counts.Sessions += len(module.Sessions)
		}
	}
	return counts
}

// Snapshot exports the current state of the JSON store.
func (s *Storage) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := &Snapshot{Courses: make(map[int64]models.Course, len(s.data.Courses))}
	for id, course := range s.data.Courses {
		snapshot.Courses[id] = cloneCourse(course)
	}
	return snapshot
}

// ImportSnapshotToPostgres bulk-loads a Snapshot into a Postgres-backed
// repository inside a single transaction.
func ImportSnapshotToPostgres(ctx context.Context, repo Repository, snapshot *Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot is required")
	}
	pgRepo, ok := repo.(*postgresRepository)
	if !ok {
		return fmt.Errorf("postgres repository required for snapshot import")
	}
	snapshot.ensureInitialized()
	return pgRepo.importSnapshot(ctx, snapshot)
}
