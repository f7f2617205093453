package calendar

import (
	"fmt"
	"image/color"
	"time"

	"eventcal/internal/model"
)

const (
	// ControlID is the custom id of the "log event" button. Presses of any
	// control carrying it append an event.
	ControlID = "persistent_button"

	// ImageName is the attachment name of the rendered grid.
	ImageName = "calendar.png"
)

// LogControl is the button attached to every rendered calendar.
var LogControl = model.Control{CustomID: ControlID, Label: "Log Event"}

// View is the rendered calendar for one month.
type View struct {
	Year    int
	Month   time.Month
	Grid    Grid
	Image   []byte
	Text    string
	Control model.Control
}

// Payload returns the message content representing the view.
func (v View) Payload() model.Payload {
	return model.Payload{
		Content: v.Text,
		Attachment: &model.Attachment{
			Name:        ImageName,
			ContentType: "image/png",
			Data:        v.Image,
		},
		Controls: []model.Control{v.Control},
	}
}

// Renderer turns the event log into a View. Its zero value renders in UTC
// with the default highlight colour.
type Renderer struct {
	// Location is the fixed display timezone.
	Location *time.Location
	// Highlight fills cells of days with events.
	Highlight color.Color
	// Limit caps the text listing; zero means DefaultSummaryLimit.
	Limit int
}

// NewRenderer returns a Renderer for loc.
func NewRenderer(loc *time.Location, highlight color.Color) *Renderer {
	return &Renderer{Location: loc, Highlight: highlight, Limit: DefaultSummaryLimit}
}

func (r *Renderer) location() *time.Location {
	if r == nil || r.Location == nil {
		return time.UTC
	}
	return r.Location
}

// Grid computes the month grid containing now without drawing it.
func (r *Renderer) Grid(events []model.Event, now time.Time) Grid {
	loc := r.location()
	year, month := MonthOf(now, loc)
	return Layout(year, month, EventDays(events, year, month, loc))
}

// Render produces the image and text for the month containing now.
func (r *Renderer) Render(events []model.Event, now time.Time) (View, error) {
	g := r.Grid(events, now)

	var highlight color.Color
	limit := 0
	if r != nil {
		highlight = r.Highlight
		limit = r.Limit
	}

	img, err := Draw(g, highlight)
	if err != nil {
		return View{}, fmt.Errorf("calendar: render %s %d: %w", g.Month, g.Year, err)
	}

	return View{
		Year:    g.Year,
		Month:   g.Month,
		Grid:    g,
		Image:   img,
		Text:    Summary(events, r.location(), limit),
		Control: LogControl,
	}, nil
}
