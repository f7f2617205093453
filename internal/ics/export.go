// Package ics converts the event log to and from iCalendar, so the log can
// be subscribed to from any calendar client.
package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"eventcal/internal/model"
)

const productID = "-//eventcal//event log//EN"

// Custom properties carrying the actor, so an export can be read back.
const (
	propActorID   ical.ComponentProperty = "X-EVENTCAL-ACTOR-ID"
	propActorName ical.ComponentProperty = "X-EVENTCAL-ACTOR-NAME"
	propActorTag  ical.ComponentProperty = "X-EVENTCAL-ACTOR-TAG"
)

// Export renders events as a VCALENDAR. Each event becomes a zero-length
// VEVENT at its timestamp, UID = event id. stamp is used as DTSTAMP.
func Export(events []model.Event, name string, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetName(name)
		cal.SetXWRCalName(name)
	}

	for _, ev := range events {
		ve := cal.AddEvent(ev.ID)
		ve.SetDtStampTime(stamp.UTC())
		ve.SetStartAt(ev.Timestamp.UTC())
		ve.SetEndAt(ev.Timestamp.UTC())
		ve.SetSummary("Logged by " + displayName(ev.Actor))
		ve.SetProperty(propActorID, ev.Actor.ID)
		if ev.Actor.DisplayName != "" {
			ve.SetProperty(propActorName, ev.Actor.DisplayName)
		}
		if ev.Actor.Tag != "" {
			ve.SetProperty(propActorTag, ev.Actor.Tag)
		}
	}

	return cal.Serialize()
}

func displayName(a model.Actor) string {
	switch {
	case a.DisplayName != "":
		return a.DisplayName
	case a.Tag != "":
		return a.Tag
	default:
		return a.ID
	}
}
