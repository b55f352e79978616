package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Mode is the sync direction, selected once per run
type Mode string

const (
	ModeExport Mode = "export" // Plex -> Shoko
	ModeImport Mode = "import" // Shoko -> Plex
)

// ImportToken is the CLI argument that selects import mode
const ImportToken = "import"

// Outcome is the result of reconciling a single file location
type Outcome string

const (
	OutcomeRelayed       Outcome = "relayed"        // Plex watched pushed to Shoko
	OutcomeImported      Outcome = "imported"       // Shoko watched pushed to Plex
	OutcomeAlreadySynced Outcome = "already_synced" // Shoko already has a watched state
	OutcomeUnmatched     Outcome = "unmatched"      // Shoko has no file for the key
	OutcomeFailed        Outcome = "failed"         // mutation or lookup error
)

// RunStatus is the terminal state of a sync run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusAborted   RunStatus = "aborted"
	RunStatusFailed    RunStatus = "failed"
)

// TriState is Shoko's watched flag: unknown (null), false or true
type TriState int

const (
	TriUnknown TriState = iota
	TriFalse
	TriTrue
)

func (t TriState) String() string {
	switch t {
	case TriTrue:
		return "true"
	case TriFalse:
		return "false"
	default:
		return "unknown"
	}
}

// Known reports whether the flag carries any information
func (t TriState) Known() bool {
	return t != TriUnknown
}

// UnmarshalJSON accepts null, a boolean, or a watched timestamp string
func (t *TriState) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = TriUnknown
		return nil
	}

	switch data[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("decode watched flag: %w", err)
		}
		if b {
			*t = TriTrue
		} else {
			*t = TriFalse
		}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode watched date: %w", err)
		}
		if s == "" {
			*t = TriUnknown
		} else {
			*t = TriTrue
		}
		return nil
	}

	return fmt.Errorf("unexpected watched value %s", string(data))
}
