package eventlog

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"eventcal/internal/model"
)

// legacyNamespace seeds name-based ids for records written before events
// carried their own id.
var legacyNamespace = uuid.MustParse("6f1c2a3e-8d4b-4f5a-9c7e-2b1d0e3f4a5c")

// record is the on-disk shape of one event.
//
// Older logs store the actor under "user" with a "username" field; those are
// still accepted on load and rewritten in the current shape on the next
// append.
type record struct {
	ID        string       `json:"id,omitempty"`
	Timestamp string       `json:"timestamp"`
	Actor     *model.Actor `json:"actor,omitempty"`
	User      *legacyUser  `json:"user,omitempty"`
}

type legacyUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Tag      string `json:"tag"`
}

func toRecord(ev model.Event) record {
	actor := ev.Actor
	return record{
		ID:        ev.ID,
		Timestamp: ev.Timestamp.UTC().Format(time.RFC3339Nano),
		Actor:     &actor,
	}
}

func (r record) event() (model.Event, error) {
	ts, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		return model.Event{}, fmt.Errorf("timestamp %q: %w", r.Timestamp, err)
	}

	var actor model.Actor
	switch {
	case r.Actor != nil:
		actor = *r.Actor
	case r.User != nil:
		actor = model.Actor{ID: r.User.ID, DisplayName: r.User.Username, Tag: r.User.Tag}
	default:
		return model.Event{}, errors.New("record has no actor")
	}
	if actor.ID == "" {
		return model.Event{}, errors.New("actor id is empty")
	}

	id := r.ID
	if id == "" {
		id = uuid.NewSHA1(legacyNamespace, []byte(r.Timestamp+"|"+actor.ID)).String()
	}

	return model.Event{ID: id, Timestamp: ts, Actor: actor}, nil
}
