package bot

import (
	"context"

	"eventcal/internal/calendar"
	appLog "eventcal/internal/log"
	"eventcal/internal/model"
)

// TriggerKind distinguishes button presses from slash commands.
type TriggerKind int

const (
	TriggerCommand TriggerKind = iota + 1
	TriggerControl
)

// Trigger is an inbound interaction, already stripped of platform details.
type Trigger struct {
	Kind TriggerKind
	// Name is the command name or the control's custom id.
	Name  string
	Actor model.Actor
}

// Delivery says where a Reply goes.
type Delivery int

const (
	// DeliverReply answers the interaction, visible to everyone.
	DeliverReply Delivery = iota
	// DeliverPrivate answers the interaction, visible only to the actor.
	DeliverPrivate
	// DeliverChannel posts a standalone message in the interaction's channel.
	DeliverChannel
)

// Reply is the response to a Trigger.
type Reply struct {
	Delivery Delivery
	Payload  model.Payload
}

func privateText(text string) Reply {
	return Reply{Delivery: DeliverPrivate, Payload: model.Payload{Content: text}}
}

// Handle runs the handler for t. ok is false for triggers the bot does not
// recognise; those are ignored without a reply.
func (s *Service) Handle(ctx context.Context, t Trigger) (reply Reply, ok bool) {
	switch t.Kind {
	case TriggerControl:
		if t.Name != calendar.ControlID {
			return Reply{}, false
		}
		return s.handleLogEvent(ctx, t.Actor), true

	case TriggerCommand:
		switch t.Name {
		case CommandCalendar:
			return s.handleShowCalendar(t.Actor), true
		case CommandButton:
			return Reply{
				Delivery: DeliverChannel,
				Payload: model.Payload{
					Content:  AdhocContent,
					Controls: []model.Control{AdhocControl},
				},
			}, true
		}
	}
	return Reply{}, false
}

func (s *Service) handleLogEvent(ctx context.Context, actor model.Actor) Reply {
	if _, err := s.LogEvent(ctx, actor); err != nil {
		appLog.Error("log event failed", err, "actor_id", actor.ID)
		if isReadError(err) {
			return privateText(ErrReadCalendar)
		}
		return privateText(ErrLogEvent)
	}
	return privateText(AckLogged)
}

func (s *Service) handleShowCalendar(actor model.Actor) Reply {
	view, err := s.Calendar()
	if err != nil {
		appLog.Error("show calendar failed", err, "actor_id", actor.ID)
		if isReadError(err) {
			return privateText(ErrReadCalendar)
		}
		return privateText(ErrCommandFailed)
	}
	return Reply{Delivery: DeliverReply, Payload: view.Payload()}
}
