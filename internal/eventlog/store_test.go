package eventlog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcal/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "calendar.json"))
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	events, err := newTestStore(t).Load()
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NotNil(t, events)
}

func TestAppendIsDurable(t *testing.T) {
	s := newTestStore(t)
	actor := model.Actor{ID: "42", DisplayName: "alice", Tag: "alice#0001"}

	first := model.Event{Timestamp: time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC), Actor: actor}
	second := model.Event{Timestamp: time.Date(2024, 2, 16, 11, 30, 0, 0, time.UTC), Actor: actor}

	_, err := s.Append(first)
	require.NoError(t, err)
	written, err := s.Append(second)
	require.NoError(t, err)
	require.Len(t, written, 2)

	reloaded, err := NewStore(s.Path()).Load()
	require.NoError(t, err)
	require.Len(t, reloaded, 2)

	last := reloaded[len(reloaded)-1]
	assert.True(t, last.Timestamp.Equal(second.Timestamp))
	assert.Equal(t, actor, last.Actor)
	assert.NotEmpty(t, last.ID)
	assert.Equal(t, written[1].ID, last.ID)
	assert.NotEqual(t, reloaded[0].ID, last.ID)
}

func TestAppendRejectsUnreadableEvent(t *testing.T) {
	s := newTestStore(t)
	good := model.Event{Timestamp: time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC), Actor: model.Actor{ID: "42"}}
	_, err := s.Append(good)
	require.NoError(t, err)
	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	cases := map[string]model.Event{
		"empty actor id": {Timestamp: good.Timestamp, Actor: model.Actor{DisplayName: "ghost"}},
		"year past 9999": {Timestamp: time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC), Actor: model.Actor{ID: "42"}},
	}
	for name, ev := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Append(ev)
			require.ErrorIs(t, err, ErrInvalidEvent)

			after, err := os.ReadFile(s.Path())
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}

	events, err := s.Append(good)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestAppendKeepsGivenID(t *testing.T) {
	s := newTestStore(t)
	ev := model.Event{ID: "fixed", Timestamp: time.Now(), Actor: model.Actor{ID: "1"}}

	events, err := s.Append(ev)
	require.NoError(t, err)
	assert.Equal(t, "fixed", events[0].ID)
}

func TestAppendStoresUTC(t *testing.T) {
	s := newTestStore(t)
	seoul := time.FixedZone("KST", 9*3600)
	_, err := s.Append(model.Event{Timestamp: time.Date(2024, 3, 1, 8, 0, 0, 0, seoul), Actor: model.Actor{ID: "1"}})
	require.NoError(t, err)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"timestamp": "2024-02-29T23:00:00Z"`)
	assert.Contains(t, string(data), `"displayName"`)
}

func TestLoadCorruptLog(t *testing.T) {
	cases := map[string]string{
		"not json":        "{{{",
		"object not list": `{"timestamp": "x"}`,
		"bad timestamp":   `[{"timestamp": "yesterday", "actor": {"id": "1"}}]`,
		"missing actor":   `[{"timestamp": "2024-02-15T10:00:00Z"}]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t)
			require.NoError(t, os.WriteFile(s.Path(), []byte(body), 0o644))

			_, err := s.Load()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCorrupt))

			var rerr *ReadError
			require.True(t, errors.As(err, &rerr))
			assert.Equal(t, s.Path(), rerr.Path)
		})
	}
}

func TestAppendRefusesCorruptLog(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("garbage"), 0o644))

	_, err := s.Append(model.Event{Timestamp: time.Now(), Actor: model.Actor{ID: "1"}})
	require.ErrorIs(t, err, ErrCorrupt)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "garbage", string(data), "a corrupt log must never be truncated")
}

func TestLoadUnreadableIsNotCorrupt(t *testing.T) {
	dir := t.TempDir()
	// The parent "directory" is a regular file.
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := NewStore(filepath.Join(blocker, "calendar.json")).Append(model.Event{Timestamp: time.Now(), Actor: model.Actor{ID: "1"}})

	var rerr *ReadError
	require.True(t, errors.As(err, &rerr), "got %v", err)
	assert.False(t, errors.Is(err, ErrCorrupt))
}

func TestWriteErrorUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := error(&WriteError{Path: "calendar.json", Err: cause})
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "eventlog: write calendar.json: disk full", err.Error())
}

func TestLoadLegacyRecords(t *testing.T) {
	s := newTestStore(t)
	legacy := `[
  {
    "timestamp": "2025-08-07T12:34:56.789Z",
    "user": {"id": "1001", "username": "bob", "tag": "bob#1234"}
  }
]`
	require.NoError(t, os.WriteFile(s.Path(), []byte(legacy), 0o644))

	events, err := s.Load()
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, model.Actor{ID: "1001", DisplayName: "bob", Tag: "bob#1234"}, ev.Actor)
	assert.True(t, ev.Timestamp.Equal(time.Date(2025, 8, 7, 12, 34, 56, 789000000, time.UTC)))

	again, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, ev.ID, again[0].ID, "legacy ids must be stable across loads")
}
