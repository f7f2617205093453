package ics

import (
	"errors"
	"fmt"
	"io"
	"sort"

	ical "github.com/arran4/golang-ical"

	appLog "eventcal/internal/log"
	"eventcal/internal/model"
)

// Parse reads events back from an Export. VEVENTs without a UID, a start
// time or an actor id are skipped and logged. The result is ordered by
// timestamp.
func Parse(r io.Reader) ([]model.Event, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("ics: parse calendar: %w", err)
	}

	events := make([]model.Event, 0)
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			appLog.Warn("ics vevent skipped", "uid", ve.Id(), "err", perr)
			continue
		}
		events = append(events, ev)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (model.Event, error) {
	uid := ve.Id()
	if uid == "" {
		return model.Event{}, errors.New("missing UID")
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return model.Event{}, fmt.Errorf("DTSTART: %w", err)
	}

	actor := model.Actor{
		ID:          propValue(ve, propActorID),
		DisplayName: propValue(ve, propActorName),
		Tag:         propValue(ve, propActorTag),
	}
	if actor.ID == "" {
		return model.Event{}, errors.New("missing actor id")
	}

	return model.Event{ID: uid, Timestamp: start.UTC(), Actor: actor}, nil
}

func propValue(ve *ical.VEvent, p ical.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return prop.Value
	}
	return ""
}
