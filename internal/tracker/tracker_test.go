package tracker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcal/internal/model"
	"eventcal/internal/tracker/trackertest"
)

const channel = "1403043156349554732"

func newSync(t *testing.T) (*Synchronizer, *trackertest.Destination, string) {
	t.Helper()
	dest := trackertest.New()
	refPath := filepath.Join(t.TempDir(), "calendar_message.json")
	s, err := New(Config{ChannelID: channel, RefPath: refPath}, dest)
	require.NoError(t, err)
	return s, dest, refPath
}

func payload(text string) model.Payload {
	return model.Payload{Content: text, Controls: []model.Control{{CustomID: "persistent_button", Label: "Log Event"}}}
}

func storedRef(t *testing.T, path string) string {
	t.Helper()
	id, err := NewRefFile(path).Load()
	require.NoError(t, err)
	return id
}

func TestSyncSendsWhenNoReference(t *testing.T) {
	s, dest, refPath := newSync(t)

	res, err := s.Sync(context.Background(), payload("v1"))
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, res.MessageID, storedRef(t, refPath))

	m, ok := dest.Get(res.MessageID)
	require.True(t, ok)
	assert.Equal(t, channel, m.ChannelID)
	assert.Equal(t, "v1", m.Payload.Content)
}

func TestSyncIsIdempotent(t *testing.T) {
	s, dest, _ := newSync(t)
	ctx := context.Background()

	first, err := s.Sync(ctx, payload("same"))
	require.NoError(t, err)
	second, err := s.Sync(ctx, payload("same"))
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.Equal(t, first.MessageID, second.MessageID)
	assert.Equal(t, 1, dest.Count())
	assert.Equal(t, 1, dest.Sends)

	m, _ := dest.Get(first.MessageID)
	assert.Equal(t, 1, m.Edits)
	assert.Equal(t, "same", m.Payload.Content)
}

func TestSyncEditReplacesContent(t *testing.T) {
	s, dest, _ := newSync(t)
	ctx := context.Background()

	res, err := s.Sync(ctx, payload("old"))
	require.NoError(t, err)
	_, err = s.Sync(ctx, payload("new"))
	require.NoError(t, err)

	m, _ := dest.Get(res.MessageID)
	assert.Equal(t, "new", m.Payload.Content)
}

func TestSyncSelfHealsDeletedMessage(t *testing.T) {
	s, dest, refPath := newSync(t)
	ctx := context.Background()

	first, err := s.Sync(ctx, payload("v1"))
	require.NoError(t, err)
	dest.Delete(first.MessageID)

	second, err := s.Sync(ctx, payload("v2"))
	require.NoError(t, err)
	assert.True(t, second.Created)
	assert.NotEqual(t, first.MessageID, second.MessageID)
	assert.Equal(t, second.MessageID, storedRef(t, refPath))
	assert.Equal(t, 1, dest.Count())
}

func TestSyncStaleReferenceFromPreviousRun(t *testing.T) {
	s, dest, refPath := newSync(t)
	require.NoError(t, NewRefFile(refPath).Save("999"))

	res, err := s.Sync(context.Background(), payload("v"))
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, res.MessageID, storedRef(t, refPath))
	assert.Equal(t, 1, dest.Sends)
}

func TestSyncTreatsFetchFailureAsAbsent(t *testing.T) {
	s, dest, _ := newSync(t)
	ctx := context.Background()

	_, err := s.Sync(ctx, payload("v1"))
	require.NoError(t, err)

	dest.FetchErr = errors.New("missing permissions")
	res, err := s.Sync(ctx, payload("v2"))
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, 2, dest.Sends)
}

func TestSyncCorruptReferenceIsReplaced(t *testing.T) {
	s, _, refPath := newSync(t)
	require.NoError(t, os.WriteFile(refPath, []byte("not json"), 0o644))

	res, err := s.Sync(context.Background(), payload("v"))
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, res.MessageID, storedRef(t, refPath))
}

func TestSyncSendFailure(t *testing.T) {
	s, dest, refPath := newSync(t)
	cause := errors.New("channel missing")
	dest.SendErr = cause

	_, err := s.Sync(context.Background(), payload("v"))
	require.Error(t, err)

	var derr *DestinationError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "send", derr.Op)
	assert.Equal(t, channel, derr.ChannelID)
	assert.ErrorIs(t, err, cause)

	assert.Empty(t, storedRef(t, refPath))
}

func TestSyncEditFailureKeepsReference(t *testing.T) {
	s, dest, refPath := newSync(t)
	ctx := context.Background()

	first, err := s.Sync(ctx, payload("v1"))
	require.NoError(t, err)

	dest.EditErr = errors.New("rate limited")
	_, err = s.Sync(ctx, payload("v2"))

	var derr *DestinationError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "edit", derr.Op)
	assert.Equal(t, first.MessageID, derr.MessageID)
	assert.Equal(t, first.MessageID, storedRef(t, refPath))
	assert.Equal(t, 1, dest.Sends, "a failed edit is not retried as a send")
}

func TestNewValidatesConfig(t *testing.T) {
	dest := trackertest.New()
	_, err := New(Config{RefPath: "x"}, dest)
	assert.Error(t, err)
	_, err = New(Config{ChannelID: "c"}, dest)
	assert.Error(t, err)
	_, err = New(Config{ChannelID: "c", RefPath: "x"}, nil)
	assert.Error(t, err)
}

func TestRefFileRoundTrip(t *testing.T) {
	f := NewRefFile(filepath.Join(t.TempDir(), "ref.json"))

	id, err := f.Load()
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, f.Save("123"))
	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{"messageId": "123"}`, string(data))

	id, err = f.Load()
	require.NoError(t, err)
	assert.Equal(t, "123", id)
}
