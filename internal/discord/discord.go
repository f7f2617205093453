// Package discord connects the bot to Discord: it registers the slash
// commands, routes interactions into the trigger handlers and implements
// tracker.Destination for the tracked calendar message.
package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"eventcal/internal/bot"
	"eventcal/internal/calendar"
	"eventcal/internal/config"
	appLog "eventcal/internal/log"
	"eventcal/internal/model"
	"eventcal/internal/tracker"
)

var _ tracker.Destination = (*Client)(nil)

// AckButtonPosted answers the pbutton command once its message is posted.
const AckButtonPosted = "Button posted."

// handlerTimeout bounds one interaction's work after it has been
// acknowledged.
const handlerTimeout = 30 * time.Second

// Handler is the trigger entry point, *bot.Service in production.
type Handler interface {
	Handle(ctx context.Context, t bot.Trigger) (bot.Reply, bool)
}

// Options configures a Client.
type Options struct {
	Token         string
	ApplicationID string
	// GuildID scopes command registration to one guild when set.
	GuildID  string
	Presence config.PresenceConfig
}

// Client wraps a discordgo session.
type Client struct {
	session *discordgo.Session
	opts    Options
	handler Handler
}

// New creates a Client. The connection is opened by Open.
func New(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, errors.New("discord: bot token is empty")
	}
	s, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages
	return &Client{session: s, opts: opts}, nil
}

// Open connects, registers the slash commands and starts routing
// interactions to h.
func (c *Client) Open(ctx context.Context, h Handler) error {
	c.handler = h

	c.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		appLog.Info("logged in", "user", r.User.String())
		p := c.opts.Presence
		if err := s.UpdateStatusComplex(presence(p.Status, p.ActivityType, p.ActivityName)); err != nil {
			appLog.Error("set presence failed", err)
			return
		}
		appLog.Info("presence set", "status", p.Status, "activity_type", p.ActivityType, "activity_name", p.ActivityName)
	})
	c.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		c.onInteraction(i.Interaction)
	})

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("discord: open gateway: %w", err)
	}

	if err := c.registerCommands(ctx); err != nil {
		// Commands from a previous deploy keep working; not fatal.
		appLog.Error("error deploying commands", err)
	}
	return nil
}

// Close disconnects from the gateway.
func (c *Client) Close() error {
	return c.session.Close()
}

func (c *Client) registerCommands(ctx context.Context) error {
	appID := c.opts.ApplicationID
	if appID == "" && c.session.State != nil && c.session.State.User != nil {
		appID = c.session.State.User.ID
	}
	if appID == "" {
		return errors.New("discord: application id unknown")
	}

	cmds := applicationCommands(bot.Commands)
	appLog.Info("refreshing application commands", "count", len(cmds), "guild_id", c.opts.GuildID)

	registered, err := c.session.ApplicationCommandBulkOverwrite(appID, c.opts.GuildID, cmds, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord: register commands: %w", err)
	}
	appLog.Info("application commands reloaded", "count", len(registered))
	return nil
}

func (c *Client) onInteraction(i *discordgo.Interaction) {
	t, ok := trigger(i)
	if !ok || c.handler == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if t.Kind == bot.TriggerControl {
		c.handleControl(ctx, i, t)
		return
	}
	c.handleCommand(ctx, i, t)
}

// handleControl defers the response first: logging an event syncs the
// tracked message, which can outlast the interaction deadline.
func (c *Client) handleControl(ctx context.Context, i *discordgo.Interaction, t bot.Trigger) {
	if t.Name != calendar.ControlID {
		return
	}

	deferred := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}
	if err := c.session.InteractionRespond(i, deferred, discordgo.WithContext(ctx)); err != nil {
		appLog.Error("defer interaction failed", err, "custom_id", t.Name, "actor_id", t.Actor.ID)
	}

	reply, ok := c.handler.Handle(ctx, t)
	if !ok {
		return
	}

	content := reply.Payload.Content
	if _, err := c.session.InteractionResponseEdit(i, &discordgo.WebhookEdit{Content: &content}, discordgo.WithContext(ctx)); err != nil {
		appLog.Error("interaction reply failed", err, "custom_id", t.Name, "actor_id", t.Actor.ID)
	}
}

func (c *Client) handleCommand(ctx context.Context, i *discordgo.Interaction, t bot.Trigger) {
	reply, ok := c.handler.Handle(ctx, t)
	if !ok {
		return
	}

	var resp *discordgo.InteractionResponse
	switch reply.Delivery {
	case bot.DeliverChannel:
		if _, err := c.session.ChannelMessageSendComplex(i.ChannelID, messageSend(reply.Payload), discordgo.WithContext(ctx)); err != nil {
			appLog.Error("error executing command", err, "command", t.Name, "channel_id", i.ChannelID)
			resp = privateResponse(bot.ErrCommandFailed)
			break
		}
		resp = privateResponse(AckButtonPosted)
	case bot.DeliverPrivate:
		resp = &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: responseData(reply.Payload, true),
		}
	default:
		resp = &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: responseData(reply.Payload, false),
		}
	}

	if err := c.session.InteractionRespond(i, resp, discordgo.WithContext(ctx)); err != nil {
		appLog.Error("error executing command", err, "command", t.Name, "actor_id", t.Actor.ID)
	}
}

func privateResponse(text string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: responseData(model.Payload{Content: text}, true),
	}
}

// FetchMessage implements tracker.Destination.
func (c *Client) FetchMessage(ctx context.Context, channelID, messageID string) error {
	_, err := c.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	return err
}

// SendMessage implements tracker.Destination.
func (c *Client) SendMessage(ctx context.Context, channelID string, p model.Payload) (string, error) {
	m, err := c.session.ChannelMessageSendComplex(channelID, messageSend(p), discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

// EditMessage implements tracker.Destination.
func (c *Client) EditMessage(ctx context.Context, channelID, messageID string, p model.Payload) error {
	_, err := c.session.ChannelMessageEditComplex(messageEdit(channelID, messageID, p), discordgo.WithContext(ctx))
	return err
}
