// Package bot implements the trigger handlers: the "log event" button and
// the calendar commands. Every trigger goes through the same renderer and
// synchronizer; handlers differ only in whether they append and where the
// result is delivered.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"eventcal/internal/calendar"
	"eventcal/internal/eventlog"
	appLog "eventcal/internal/log"
	"eventcal/internal/model"
	"eventcal/internal/tracker"
)

// User-visible replies.
const (
	AckLogged        = "Event logged in calendar!"
	ErrReadCalendar  = "Error reading the calendar."
	ErrLogEvent      = "Error logging the event."
	ErrCommandFailed = "There was an error while executing this command!"
	AdhocContent     = "Here is your button:"
)

// Command names.
const (
	CommandCalendar = "calendar"
	CommandButton   = "pbutton"
)

// Command describes a slash command for registration.
type Command struct {
	Name        string
	Description string
}

// Commands lists the slash commands the bot answers.
var Commands = []Command{
	{Name: CommandCalendar, Description: "Displays the event calendar."},
	{Name: CommandButton, Description: "Creates a persistent button"},
}

// AdhocControl is the button posted by the pbutton command. It shares the
// log control's id, so pressing it logs an event.
var AdhocControl = model.Control{CustomID: calendar.ControlID, Label: "Click me!"}

// EventLog is the subset of *eventlog.Store the handlers use.
type EventLog interface {
	Load() ([]model.Event, error)
	Append(ev model.Event) ([]model.Event, error)
}

// Syncer is the subset of *tracker.Synchronizer the handlers use.
type Syncer interface {
	Sync(ctx context.Context, p model.Payload) (tracker.Result, error)
}

// Service wires the log, renderer and synchronizer together.
//
// LogEvent and SyncTracked hold mu for their whole read-append-render-sync
// sequence, so concurrent presses neither lose events nor create two
// tracked messages.
type Service struct {
	mu       sync.Mutex
	log      EventLog
	renderer *calendar.Renderer
	syncer   Syncer
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService builds a Service.
func NewService(log EventLog, renderer *calendar.Renderer, syncer Syncer, opts ...Option) *Service {
	s := &Service{
		log:      log,
		renderer: renderer,
		syncer:   syncer,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LogEvent appends an event for actor and updates the tracked message.
//
// The returned error is non-nil only when the event could not be persisted.
// A failed sync after a successful append is logged; the event stays in the
// log and the next trigger syncs again.
func (s *Service) LogEvent(ctx context.Context, actor model.Actor) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev := model.Event{Timestamp: s.now().UTC(), Actor: actor}
	events, err := s.log.Append(ev)
	if err != nil {
		return model.Event{}, fmt.Errorf("bot: log event: %w", err)
	}
	ev = events[len(events)-1]

	appLog.Info("event logged", "event_id", ev.ID, "actor_id", actor.ID, "count", len(events))

	if err := s.syncLocked(ctx, events); err != nil {
		appLog.Error("tracked message sync failed after logging event", err, "event_id", ev.ID)
	}
	return ev, nil
}

// SyncTracked re-renders the current month and syncs the tracked message
// without appending. Used at startup and by the scheduler.
func (s *Service) SyncTracked(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.log.Load()
	if err != nil {
		return fmt.Errorf("bot: sync tracked message: %w", err)
	}
	return s.syncLocked(ctx, events)
}

func (s *Service) syncLocked(ctx context.Context, events []model.Event) error {
	view, err := s.renderer.Render(events, s.now())
	if err != nil {
		return err
	}
	res, err := s.syncer.Sync(ctx, view.Payload())
	if err != nil {
		return err
	}
	appLog.Debug("tracked message synced", "message_id", res.MessageID, "created", res.Created, "month", view.Month.String())
	return nil
}

// Calendar renders the current month for a one-off reply.
func (s *Service) Calendar() (calendar.View, error) {
	events, err := s.log.Load()
	if err != nil {
		return calendar.View{}, fmt.Errorf("bot: show calendar: %w", err)
	}
	return s.renderer.Render(events, s.now())
}

// Events returns the persisted log.
func (s *Service) Events() ([]model.Event, error) {
	return s.log.Load()
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time { return s.now() }

// isReadError reports whether err came from reading the event log.
func isReadError(err error) bool {
	var rerr *eventlog.ReadError
	return errors.As(err, &rerr)
}
