package core

// session.go holds the state of one cleaning run.
//
// A Session owns three tables: the initial snapshot taken at ingestion, the
// live working table every resolution edits, and the ignored table that
// receives rows removed from review. Row identities are shared by all three
// so a row can always be traced back to where it came from.
//
// A Session is not safe for concurrent use.

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Session is the working state of one cleaning run.
type Session struct {
	ID      string
	Sources []string

	initial *Table
	live    *Table
	ignored *Table
	history *History
	dirty   map[RowID]struct{}
}

// NewSession starts a session over t. t becomes the live table; a deep copy
// is kept as the initial snapshot.
func NewSession(t *Table, sources ...string) *Session {
	return &Session{
		ID:      uuid.NewString(),
		Sources: slices.Clone(sources),
		initial: t.Clone(),
		live:    t,
		ignored: NewTable(t.Columns...),
		history: NewHistory(),
		dirty:   make(map[RowID]struct{}),
	}
}

// Live returns the working table.
func (s *Session) Live() *Table { return s.live }

// Ignored returns the rows removed from review.
func (s *Session) Ignored() *Table { return s.ignored }

// Initial returns the snapshot taken when the session started.
func (s *Session) Initial() *Table { return s.initial }

// History returns the operation log.
func (s *Session) History() *History { return s.history }

// Check runs the checkers against the live table.
func (s *Session) Check(ctx context.Context, opts AggregateOptions) *IssueReport {
	return Aggregate(ctx, s.live, opts)
}

// ApplyMapping maps the columns of the live and ignored tables. On error
// neither table changes.
func (s *Session) ApplyMapping(ctx context.Context, m Mapping) error {
	live, err := ApplyMapping(s.live, m)
	if err != nil {
		return err
	}
	ignored, err := ApplyMapping(s.ignored, m)
	if err != nil {
		return err
	}
	s.live, s.ignored = live, ignored
	s.history.Record(ctx, HistoryEntry{
		Action:       ActionApplyMapping,
		RowsAffected: live.Len(),
		Reason:       fmt.Sprintf("%d renamed, %d tagged, %d deleted", len(m.Rename), len(m.Tag), len(m.Delete)),
	})
	return nil
}

// Dirty returns the rows changed since the last ClearDirty, ascending.
func (s *Session) Dirty() []RowID {
	ids := make([]RowID, 0, len(s.dirty))
	for id := range s.dirty {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// IsDirty reports whether row was changed since the last ClearDirty.
func (s *Session) IsDirty(id RowID) bool {
	_, ok := s.dirty[id]
	return ok
}

// ClearDirty forgets which rows changed.
func (s *Session) ClearDirty() {
	s.dirty = make(map[RowID]struct{})
}

func (s *Session) markDirty(id RowID) {
	s.dirty[id] = struct{}{}
}
