package model

import (
	"fmt"
	"time"
)

// Actor identifies the chat user that triggered an event.
type Actor struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Tag         string `json:"tag"`
}

// Label is how an actor appears in the rendered event list: a mention
// followed by the user's tag.
func (a Actor) Label() string {
	if a.Tag == "" {
		return fmt.Sprintf("<@%s>", a.ID)
	}
	return fmt.Sprintf("<@%s> (%s)", a.ID, a.Tag)
}

// Event is one logged button press. Events are never modified once appended.
type Event struct {
	ID string `json:"id"`

	// Timestamp is an absolute instant; it is converted to the display
	// timezone only when rendering.
	Timestamp time.Time `json:"timestamp"`

	Actor Actor `json:"actor"`
}

// Control is a single button attached to a message.
type Control struct {
	CustomID string
	Label    string
}

// Attachment is a file uploaded alongside a message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Payload is the full content of a message as sent to, or edited on, the
// chat platform. Editing a message replaces all of it.
type Payload struct {
	Content    string
	Attachment *Attachment
	Controls   []Control
}
