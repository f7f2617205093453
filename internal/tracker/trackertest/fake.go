// Package trackertest provides an in-memory tracker.Destination.
package trackertest

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"eventcal/internal/model"
)

// ErrNotFound is returned for messages that do not exist.
var ErrNotFound = errors.New("trackertest: unknown message")

// Message is a message held by Destination.
type Message struct {
	ChannelID string
	Payload   model.Payload
	Edits     int
}

// Destination records messages per id. Set the *Err fields to make the
// corresponding call fail.
type Destination struct {
	mu       sync.Mutex
	next     int
	messages map[string]*Message

	FetchErr error
	SendErr  error
	EditErr  error

	Sends int
}

// New returns an empty Destination.
func New() *Destination {
	return &Destination{messages: make(map[string]*Message)}
}

func (d *Destination) FetchMessage(_ context.Context, channelID, messageID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FetchErr != nil {
		return d.FetchErr
	}
	m, ok := d.messages[messageID]
	if !ok || m.ChannelID != channelID {
		return ErrNotFound
	}
	return nil
}

func (d *Destination) SendMessage(_ context.Context, channelID string, p model.Payload) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.SendErr != nil {
		return "", d.SendErr
	}
	d.next++
	d.Sends++
	id := strconv.Itoa(1000 + d.next)
	d.messages[id] = &Message{ChannelID: channelID, Payload: p}
	return id, nil
}

func (d *Destination) EditMessage(_ context.Context, channelID, messageID string, p model.Payload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.EditErr != nil {
		return d.EditErr
	}
	m, ok := d.messages[messageID]
	if !ok || m.ChannelID != channelID {
		return ErrNotFound
	}
	m.Payload = p
	m.Edits++
	return nil
}

// Delete removes a message, as a moderator deleting it would.
func (d *Destination) Delete(messageID string) {
	d.mu.Lock()
	delete(d.messages, messageID)
	d.mu.Unlock()
}

// Get returns a copy of the message with id.
func (d *Destination) Get(messageID string) (Message, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.messages[messageID]
	if !ok {
		return Message{}, false
	}
	return *m, true
}

// Count returns the number of live messages.
func (d *Destination) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.messages)
}
