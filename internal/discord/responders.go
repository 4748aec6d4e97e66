package discord

import (
	"context"
	"sync"

	"botcore/pkg/util"

	"github.com/bwmarrin/discordgo"
)

const maxMessageLength = 2000

type messageSender interface {
	ChannelMessageSendReply(channelID, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type interactionSender interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// ephemeralResponder is implemented by responders that can reply privately.
type ephemeralResponder interface {
	Ephemeral(ctx context.Context, content string) error
}

// messageResponder replies to a message. For an edited, tracked message the
// earlier reply is edited in place.
type messageResponder struct {
	s      messageSender
	msg    *discordgo.Message
	edits  *EditTracker
	edited bool
}

func (r *messageResponder) Reply(ctx context.Context, content string) error {
	content = util.Truncate(content, maxMessageLength)
	if r.edited && r.edits != nil {
		if replyID, ok := r.edits.Reply(r.msg.ID); ok {
			_, err := r.s.ChannelMessageEdit(r.msg.ChannelID, replyID, content, discordgo.WithContext(ctx))
			return err
		}
	}
	sent, err := r.s.ChannelMessageSendReply(r.msg.ChannelID, content, r.msg.Reference(), discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	if r.edits != nil && sent != nil {
		r.edits.SetReply(r.msg.ID, sent.ID)
	}
	return nil
}

// interactionResponder answers the interaction on the first reply and sends
// followups after that.
type interactionResponder struct {
	s interactionSender
	i *discordgo.Interaction

	mu        sync.Mutex
	responded bool
}

func (r *interactionResponder) Reply(ctx context.Context, content string) error {
	return r.send(ctx, content, 0)
}

func (r *interactionResponder) Ephemeral(ctx context.Context, content string) error {
	return r.send(ctx, content, discordgo.MessageFlagsEphemeral)
}

func (r *interactionResponder) send(ctx context.Context, content string, flags discordgo.MessageFlags) error {
	content = util.Truncate(content, maxMessageLength)

	r.mu.Lock()
	first := !r.responded
	r.responded = true
	r.mu.Unlock()

	if first {
		return r.s.InteractionRespond(r.i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Content: content, Flags: flags},
		}, discordgo.WithContext(ctx))
	}
	_, err := r.s.FollowupMessageCreate(r.i, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   flags,
	}, discordgo.WithContext(ctx))
	return err
}
