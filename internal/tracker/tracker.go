// Package tracker keeps a single message in a destination channel in sync
// with the latest rendered calendar.
//
// Sync is a reconciliation: it edits the tracked message when it still
// exists and otherwise sends a new one and remembers its id. A tracked
// message that was deleted is replaced on the next Sync instead of failing.
package tracker

import (
	"context"
	"errors"
	"fmt"

	appLog "eventcal/internal/log"
	"eventcal/internal/model"
)

// Destination is the chat platform as seen by the synchronizer.
type Destination interface {
	// FetchMessage reports whether messageID still exists in channelID.
	FetchMessage(ctx context.Context, channelID, messageID string) error
	// SendMessage posts a new message and returns its id.
	SendMessage(ctx context.Context, channelID string, p model.Payload) (string, error)
	// EditMessage replaces the whole content of an existing message.
	EditMessage(ctx context.Context, channelID, messageID string, p model.Payload) error
}

// DestinationError reports a failed call to the destination.
type DestinationError struct {
	Op        string
	ChannelID string
	MessageID string
	Err       error
}

func (e *DestinationError) Error() string {
	if e.MessageID == "" {
		return fmt.Sprintf("tracker: %s in channel %s: %v", e.Op, e.ChannelID, e.Err)
	}
	return fmt.Sprintf("tracker: %s message %s in channel %s: %v", e.Op, e.MessageID, e.ChannelID, e.Err)
}

func (e *DestinationError) Unwrap() error { return e.Err }

// Config holds the static settings of a Synchronizer.
type Config struct {
	// ChannelID is where the tracked message lives.
	ChannelID string
	// RefPath is the file remembering the tracked message id.
	RefPath string
}

// Result describes what a Sync did.
type Result struct {
	MessageID string
	// Created is true when a new message was sent rather than edited.
	Created bool
}

// Synchronizer reconciles the tracked message. It does not serialize
// concurrent Sync calls; two overlapping calls with no live message may both
// send.
type Synchronizer struct {
	dest      Destination
	channelID string
	ref       *RefFile
}

// New builds a Synchronizer.
func New(cfg Config, dest Destination) (*Synchronizer, error) {
	if dest == nil {
		return nil, errors.New("tracker: destination is nil")
	}
	if cfg.ChannelID == "" {
		return nil, errors.New("tracker: channel id is empty")
	}
	if cfg.RefPath == "" {
		return nil, errors.New("tracker: reference path is empty")
	}
	return &Synchronizer{
		dest:      dest,
		channelID: cfg.ChannelID,
		ref:       NewRefFile(cfg.RefPath),
	}, nil
}

// Sync makes the tracked message show p.
func (s *Synchronizer) Sync(ctx context.Context, p model.Payload) (Result, error) {
	messageID := s.liveMessage(ctx)

	if messageID != "" {
		if err := s.dest.EditMessage(ctx, s.channelID, messageID, p); err != nil {
			return Result{}, &DestinationError{Op: "edit", ChannelID: s.channelID, MessageID: messageID, Err: err}
		}
		appLog.Debug("tracked message edited", "channel_id", s.channelID, "message_id", messageID)
		return Result{MessageID: messageID}, nil
	}

	newID, err := s.dest.SendMessage(ctx, s.channelID, p)
	if err != nil {
		return Result{}, &DestinationError{Op: "send", ChannelID: s.channelID, Err: err}
	}

	res := Result{MessageID: newID, Created: true}
	if err := s.ref.Save(newID); err != nil {
		// The message exists but is untracked; the next Sync sends another.
		return res, err
	}

	appLog.Info("tracked message created", "channel_id", s.channelID, "message_id", newID)
	return res, nil
}

// liveMessage returns the tracked message id if it can still be fetched.
// Unreadable references and failed fetches count as "no message".
func (s *Synchronizer) liveMessage(ctx context.Context) string {
	messageID, err := s.ref.Load()
	if err != nil {
		appLog.Error("tracked message reference unreadable; sending a new message", err, "path", s.ref.Path())
		return ""
	}
	if messageID == "" {
		return ""
	}

	if err := s.dest.FetchMessage(ctx, s.channelID, messageID); err != nil {
		appLog.Warn("tracked message not found; sending a new message",
			"channel_id", s.channelID,
			"message_id", messageID,
			"err", err,
		)
		return ""
	}
	return messageID
}
