package calendar

import (
	"fmt"
	"strings"
	"time"

	"eventcal/internal/model"
)

const (
	// DefaultSummaryLimit is how many recent events the text listing shows.
	DefaultSummaryLimit = 10

	// EmptyText replaces the listing when the log has no events.
	EmptyText = "The calendar is empty."

	summaryHeader   = "**Event Calendar (latest %d):**"
	timestampLayout = "Jan 2, 2006 3:04 PM MST"
)

// Summary lists the last min(limit, len(events)) events, most recent first,
// ranked from the count down to 1. Times are shown in loc.
func Summary(events []model.Event, loc *time.Location, limit int) string {
	if len(events) == 0 {
		return EmptyText
	}
	if loc == nil {
		loc = time.UTC
	}
	if limit <= 0 {
		limit = DefaultSummaryLimit
	}

	recent := events[max(0, len(events)-limit):]

	var b strings.Builder
	fmt.Fprintf(&b, summaryHeader, limit)
	for i := len(recent) - 1; i >= 0; i-- {
		b.WriteString("\n")
		b.WriteString(SummaryLine(i+1, recent[i], loc))
	}
	return b.String()
}

// SummaryLine formats one ranked entry of the listing.
func SummaryLine(rank int, ev model.Event, loc *time.Location) string {
	return fmt.Sprintf("**%d.** %s - %s", rank, ev.Timestamp.In(loc).Format(timestampLayout), ev.Actor.Label())
}
