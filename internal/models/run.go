package models

import "time"

// SyncRun is the journal entry for a single invocation of the sync engine.
// The journal is write-only from the engine's point of view: sync decisions
// are always derived from the live services.
type SyncRun struct {
	ID    uint64 `boltholdKey:"ID"`
	RunID string `boltholdIndex:"RunID"`

	Mode   Mode
	Window string
	Status RunStatus
	Error  string

	Identities []string

	// Per-outcome counters
	Relayed       int
	Imported      int
	AlreadySynced int
	Unmatched     int
	Failed        int
	Skipped       int // identities declined at the confirmation gate

	StartedAt  time.Time
	FinishedAt *time.Time
}

// Record increments the counter for an outcome
func (r *SyncRun) Record(outcome Outcome) {
	switch outcome {
	case OutcomeRelayed:
		r.Relayed++
	case OutcomeImported:
		r.Imported++
	case OutcomeAlreadySynced:
		r.AlreadySynced++
	case OutcomeUnmatched:
		r.Unmatched++
	case OutcomeFailed:
		r.Failed++
	}
}

// Mutations is the number of watched flags written during the run
func (r *SyncRun) Mutations() int {
	return r.Relayed + r.Imported
}

// SyncEvent is one reconciled file location within a run
type SyncEvent struct {
	ID    uint64 `boltholdKey:"ID"`
	RunID string `boltholdIndex:"RunID"`

	Identity string
	Library  string
	Path     string
	Title    string
	Outcome  Outcome
	Error    string

	CreatedAt time.Time
}
