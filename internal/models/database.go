package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Database wraps the bolthold store holding the run journal
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// Run operations

// CreateRun starts a new journal entry and assigns it a run ID
func (db *Database) CreateRun(run *SyncRun) error {
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = RunStatusRunning
	}
	return db.store.Insert(bolthold.NextSequence(), run)
}

// UpdateRun updates an existing journal entry
func (db *Database) UpdateRun(run *SyncRun) error {
	return db.store.Update(run.ID, run)
}

// GetRunByRunID retrieves a run by its public run ID
func (db *Database) GetRunByRunID(runID string) (*SyncRun, error) {
	var run SyncRun
	if err := db.store.FindOne(&run, bolthold.Where("RunID").Eq(runID)); err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRecentRuns returns up to limit runs, newest first
func (db *Database) GetRecentRuns(limit int) ([]*SyncRun, error) {
	var runs []*SyncRun
	if err := db.store.Find(&runs, nil); err != nil {
		return nil, err
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Event operations

// CreateEvent appends a reconciled item to a run
func (db *Database) CreateEvent(event *SyncEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return db.store.Insert(bolthold.NextSequence(), event)
}

// GetEventsByRunID retrieves all events recorded for a run
func (db *Database) GetEventsByRunID(runID string) ([]*SyncEvent, error) {
	var events []*SyncEvent
	err := db.store.Find(&events, bolthold.Where("RunID").Eq(runID))
	return events, err
}

// DeleteRun deletes a run and its events
func (db *Database) DeleteRun(runID string) error {
	run, err := db.GetRunByRunID(runID)
	if err != nil {
		return err
	}

	if err := db.store.DeleteMatching(&SyncEvent{}, bolthold.Where("RunID").Eq(runID)); err != nil {
		return err
	}
	return db.store.Delete(run.ID, &SyncRun{})
}

// PruneRuns keeps the newest keep runs and deletes the rest
func (db *Database) PruneRuns(keep int) (int, error) {
	runs, err := db.GetRecentRuns(0)
	if err != nil {
		return 0, err
	}
	if len(runs) <= keep {
		return 0, nil
	}

	pruned := 0
	for _, run := range runs[keep:] {
		if err := db.DeleteRun(run.RunID); err != nil {
			return pruned, err
		}
		pruned++
	}
	return pruned, nil
}
