// Package eventlog persists the append-only log of button presses as a
// single JSON array that is rewritten in full on every append.
//
// The store does no locking of its own: Append is a read-modify-write and
// concurrent callers can lose updates. Callers that may run concurrently
// serialize through a mutex (see internal/bot).
package eventlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/uuid"

	"eventcal/internal/atomicfile"
	appLog "eventcal/internal/log"
	"eventcal/internal/model"
)

// Store is a file-backed event log.
type Store struct {
	path string
}

// NewStore returns a Store persisting to path. The file is created on the
// first Append.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the file backing the store.
func (s *Store) Path() string { return s.path }

// Load returns the persisted events in append order. A missing file is an
// empty log; anything unreadable or malformed is a *ReadError and the caller
// must stop.
func (s *Store) Load() ([]model.Event, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []model.Event{}, nil
		}
		return nil, &ReadError{Path: s.path, Err: err}
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &ReadError{Path: s.path, Err: fmt.Errorf("%w: %v", ErrCorrupt, err)}
	}

	events := make([]model.Event, 0, len(records))
	for i, r := range records {
		ev, err := r.event()
		if err != nil {
			return nil, &ReadError{Path: s.path, Err: fmt.Errorf("%w: record %d: %v", ErrCorrupt, i, err)}
		}
		events = append(events, ev)
	}
	return events, nil
}

// Append adds ev to the end of the log and rewrites the file. It returns the
// log exactly as written. An event without an id is given a fresh one.
// An event Load would reject is refused with ErrInvalidEvent and the file is
// left untouched.
func (s *Store) Append(ev model.Event) ([]model.Event, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if _, err := toRecord(ev).event(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	events, err := s.Load()
	if err != nil {
		return nil, err
	}
	events = append(events, ev)

	if err := s.write(events); err != nil {
		return nil, &WriteError{Path: s.path, Err: err}
	}

	appLog.Debug("event appended", "path", s.path, "event_id", ev.ID, "actor_id", ev.Actor.ID, "count", len(events))
	return events, nil
}

func (s *Store) write(events []model.Event) error {
	records := make([]record, 0, len(events))
	for _, ev := range events {
		records = append(records, toRecord(ev))
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	return atomicfile.Write(s.path, data, 0o644)
}
