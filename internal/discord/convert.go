package discord

import (
	"bytes"
	"strings"

	"github.com/bwmarrin/discordgo"

	"eventcal/internal/bot"
	"eventcal/internal/model"
)

// components wraps controls in a single action row.
func components(controls []model.Control) []discordgo.MessageComponent {
	if len(controls) == 0 {
		return []discordgo.MessageComponent{}
	}
	buttons := make([]discordgo.MessageComponent, 0, len(controls))
	for _, c := range controls {
		buttons = append(buttons, discordgo.Button{
			Label:    c.Label,
			Style:    discordgo.PrimaryButton,
			CustomID: c.CustomID,
		})
	}
	return []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
}

func files(a *model.Attachment) []*discordgo.File {
	if a == nil {
		return nil
	}
	return []*discordgo.File{{
		Name:        a.Name,
		ContentType: a.ContentType,
		Reader:      bytes.NewReader(a.Data),
	}}
}

func messageSend(p model.Payload) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content:    p.Content,
		Files:      files(p.Attachment),
		Components: components(p.Controls),
	}
}

// messageEdit replaces content, controls and attachments of a message.
func messageEdit(channelID, messageID string, p model.Payload) *discordgo.MessageEdit {
	content := p.Content
	comps := components(p.Controls)
	// Dropping existing attachments so the new image replaces the old one.
	attachments := []*discordgo.MessageAttachment{}
	return &discordgo.MessageEdit{
		ID:          messageID,
		Channel:     channelID,
		Content:     &content,
		Components:  &comps,
		Files:       files(p.Attachment),
		Attachments: &attachments,
	}
}

func responseData(p model.Payload, private bool) *discordgo.InteractionResponseData {
	data := &discordgo.InteractionResponseData{
		Content:    p.Content,
		Files:      files(p.Attachment),
		Components: components(p.Controls),
	}
	if private {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return data
}

// actor extracts the pressing user; guild interactions carry it on Member.
func actor(i *discordgo.Interaction) (model.Actor, bool) {
	u := i.User
	if i.Member != nil && i.Member.User != nil {
		u = i.Member.User
	}
	if u == nil {
		return model.Actor{}, false
	}
	name := u.GlobalName
	if name == "" {
		name = u.Username
	}
	return model.Actor{ID: u.ID, DisplayName: name, Tag: u.String()}, true
}

// trigger maps an interaction to a bot trigger. ok is false for interaction
// types the bot never handles.
func trigger(i *discordgo.Interaction) (bot.Trigger, bool) {
	a, ok := actor(i)
	if !ok {
		return bot.Trigger{}, false
	}
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return bot.Trigger{Kind: bot.TriggerCommand, Name: i.ApplicationCommandData().Name, Actor: a}, true
	case discordgo.InteractionMessageComponent:
		return bot.Trigger{Kind: bot.TriggerControl, Name: i.MessageComponentData().CustomID, Actor: a}, true
	default:
		return bot.Trigger{}, false
	}
}

func applicationCommands(cmds []bot.Command) []*discordgo.ApplicationCommand {
	out := make([]*discordgo.ApplicationCommand, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, &discordgo.ApplicationCommand{
			Name:        c.Name,
			Description: c.Description,
			Type:        discordgo.ChatApplicationCommand,
		})
	}
	return out
}

var activityTypes = map[string]discordgo.ActivityType{
	"PLAYING":   discordgo.ActivityTypeGame,
	"STREAMING": discordgo.ActivityTypeStreaming,
	"LISTENING": discordgo.ActivityTypeListening,
	"WATCHING":  discordgo.ActivityTypeWatching,
	"COMPETING": discordgo.ActivityTypeCompeting,
}

var statuses = map[string]discordgo.Status{
	"online":    discordgo.StatusOnline,
	"idle":      discordgo.StatusIdle,
	"dnd":       discordgo.StatusDoNotDisturb,
	"invisible": discordgo.StatusInvisible,
	"offline":   discordgo.StatusOffline,
}

// presence builds the status update; unknown values fall back to online /
// watching.
func presence(status, activityType, activityName string) discordgo.UpdateStatusData {
	st, ok := statuses[strings.ToLower(status)]
	if !ok {
		st = discordgo.StatusOnline
	}
	at, ok := activityTypes[strings.ToUpper(activityType)]
	if !ok {
		at = discordgo.ActivityTypeWatching
	}
	return discordgo.UpdateStatusData{
		Status: string(st),
		Activities: []*discordgo.Activity{{
			Name: activityName,
			Type: at,
		}},
	}
}
