package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Action names a session operation recorded in the history.
type Action string

const (
	ActionApplyMapping     Action = "apply_mapping"
	ActionApplySuggestions Action = "apply_suggestions"
	ActionReplaceAll       Action = "replace_all"
	ActionReplaceBulk      Action = "replace_bulk"
	ActionReplaceByHand    Action = "replace_by_hand"
	ActionNormalizeCase    Action = "normalize_case"
	ActionIgnoreRows       Action = "ignore_rows"
)

// Severity grades how much an action changes the data.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// HistoryEntry records one applied operation.
type HistoryEntry struct {
	ID           string    `json:"id" yaml:"id"`
	RunID        string    `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Action       Action    `json:"action" yaml:"action"`
	Severity     Severity  `json:"severity" yaml:"severity"`
	Column       string    `json:"column,omitempty" yaml:"column,omitempty"`
	Rows         []RowID   `json:"rows,omitempty" yaml:"rows,omitempty"`
	RowsAffected int       `json:"rows_affected" yaml:"rows_affected"`
	OldValue     string    `json:"old_value,omitempty" yaml:"old_value,omitempty"`
	NewValue     string    `json:"new_value,omitempty" yaml:"new_value,omitempty"`
	Reason       string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

// determineSeverity returns the severity for an action.
func determineSeverity(action Action) Severity {
	switch action {
	case ActionIgnoreRows:
		return SeverityCritical
	case ActionReplaceAll, ActionReplaceBulk, ActionApplyMapping:
		return SeverityHigh
	case ActionNormalizeCase:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// History is an append-only log of session operations.
type History struct {
	mu      sync.Mutex
	entries []HistoryEntry
	now     func() time.Time
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{now: time.Now}
}

// Record appends an entry, filling in ID, severity, run id and time.
func (h *History) Record(ctx context.Context, e HistoryEntry) HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	e.ID = uuid.NewString()
	e.Severity = determineSeverity(e.Action)
	if e.RunID == "" {
		e.RunID = RunIDFromContext(ctx)
	}
	e.CreatedAt = h.now().UTC()
	h.entries = append(h.entries, e)
	return e
}

// Entries returns a copy of the log in the order operations were applied.
func (h *History) Entries() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
