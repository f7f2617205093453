package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcal/internal/model"
)

func TestExportRoundTrip(t *testing.T) {
	events := []model.Event{
		{
			ID:        "b0c7d7f4-0d0f-4d5e-9d1e-1f0c6a1e2b3c",
			Timestamp: time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC),
			Actor:     model.Actor{ID: "A", DisplayName: "alice", Tag: "alice#0001"},
		},
		{
			ID:        "2f5a9e1c-3b7d-4c8e-a6f0-9d2b1c4e5f6a",
			Timestamp: time.Date(2024, 2, 16, 8, 30, 0, 0, time.FixedZone("KST", 9*3600)),
			Actor:     model.Actor{ID: "B"},
		},
	}

	body := Export(events, "Event Calendar", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "SUMMARY:Logged by alice")
	assert.Contains(t, body, "SUMMARY:Logged by B")
	assert.Contains(t, body, "DTSTART:20240215T100000Z")

	parsed, err := Parse(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, parsed, 2)

	// 2024-02-16 08:30 KST is 2024-02-15 23:30 UTC, after the first event.
	assert.Equal(t, events[0].ID, parsed[0].ID)
	assert.Equal(t, events[0].Actor, parsed[0].Actor)
	assert.True(t, parsed[0].Timestamp.Equal(events[0].Timestamp))
	assert.Equal(t, events[1].ID, parsed[1].ID)
	assert.True(t, parsed[1].Timestamp.Equal(events[1].Timestamp))
}

func TestExportEmpty(t *testing.T) {
	body := Export(nil, "", time.Now())
	parsed, err := Parse(strings.NewReader(body))
	require.NoError(t, err)
	assert.Empty(t, parsed)
}

func TestParseSkipsForeignEvents(t *testing.T) {
	body := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//other//EN",
		"BEGIN:VEVENT",
		"UID:foreign",
		"DTSTAMP:20240101T000000Z",
		"DTSTART:20240101T090000Z",
		"SUMMARY:Standup",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	parsed, err := Parse(strings.NewReader(body))
	require.NoError(t, err)
	assert.Empty(t, parsed)
}
