package prompt

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Surface is the slice of the Discord session the prompter talks to.
type Surface interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
}

// Prompter posts interactive prompts and resolves them through the broker.
type Prompter struct {
	surface Surface
	broker  *Broker
	logger  *zap.Logger
}

func New(surface Surface, broker *Broker, logger *zap.Logger) *Prompter {
	return &Prompter{surface: surface, broker: broker, logger: logger.Named("Prompt")}
}

// Broker exposes the event broker so the gateway can publish into it.
func (p *Prompter) Broker() *Broker { return p.broker }

// Confirm posts content with Yes/No buttons and waits for responderID to pick
// one. Clicks from anyone else get a private brush-off and do not consume the
// prompt. Whatever happens — answer, timeout, cancellation — the buttons are
// disabled exactly once, so the message cannot be answered again later.
func (p *Prompter) Confirm(ctx context.Context, channelID, content, responderID string, timeout time.Duration) (bool, error) {
	nonce := uuid.NewString()
	yesID := fmt.Sprintf("confirm:%s:yes", nonce)
	noID := fmt.Sprintf("confirm:%s:no", nonce)

	msg, err := p.surface.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Yes", Style: discordgo.SuccessButton, CustomID: yesID},
				discordgo.Button{Label: "No", Style: discordgo.DangerButton, CustomID: noID},
			}},
		},
	})
	if err != nil {
		return false, fmt.Errorf("send confirm prompt: %w", err)
	}
	defer p.disarm(msg.ChannelID, msg.ID)

	deadline := time.Now().Add(timeout)
	match := func(evt Event) bool {
		return evt.Kind == KindComponent && evt.MessageID == msg.ID &&
			(evt.CustomID == yesID || evt.CustomID == noID)
	}

	for {
		evt, err := p.broker.Await(ctx, match, time.Until(deadline))
		if err != nil {
			return false, err
		}
		if evt.UserID != responderID {
			p.rebuff(evt)
			continue
		}
		p.ack(evt)
		return evt.CustomID == yesID, nil
	}
}

// Quorum posts content, seeds it with emoji, and collects distinct reactions
// from users eligible admits. It resolves as soon as threshold voters have
// reacted and returns their IDs; on timeout it returns the partial roster
// alongside ErrTimeout. Repeat reactions from the same user do not count
// twice.
func (p *Prompter) Quorum(ctx context.Context, channelID, content, emoji string, threshold int, eligible func(userID string) bool, timeout time.Duration) ([]string, error) {
	msg, err := p.surface.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{Content: content})
	if err != nil {
		return nil, fmt.Errorf("send quorum prompt: %w", err)
	}
	if err := p.surface.MessageReactionAdd(msg.ChannelID, msg.ID, emoji); err != nil {
		p.logger.Warn("seed reaction failed", zap.Error(err))
	}

	deadline := time.Now().Add(timeout)
	match := func(evt Event) bool {
		return evt.Kind == KindReaction && evt.MessageID == msg.ID && evt.Emoji == emoji
	}

	voted := make(map[string]bool)
	var voters []string
	for len(voters) < threshold {
		evt, err := p.broker.Await(ctx, match, time.Until(deadline))
		if err != nil {
			return voters, err
		}
		if voted[evt.UserID] {
			continue
		}
		if eligible != nil && !eligible(evt.UserID) {
			continue
		}
		voted[evt.UserID] = true
		voters = append(voters, evt.UserID)
	}
	return voters, nil
}

// Text waits for responderID's next message in the channel, optionally
// posting content first. Empty content means the caller already asked its
// question through the interaction response.
func (p *Prompter) Text(ctx context.Context, channelID, content, responderID string, timeout time.Duration) (string, error) {
	if content != "" {
		if _, err := p.surface.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{Content: content}); err != nil {
			return "", fmt.Errorf("send text prompt: %w", err)
		}
	}

	match := func(evt Event) bool {
		return evt.Kind == KindMessage && evt.ChannelID == channelID && evt.UserID == responderID
	}
	evt, err := p.broker.Await(ctx, match, timeout)
	if err != nil {
		return "", err
	}
	return evt.Content, nil
}

// ack acknowledges a button click without changing the message; the edit that
// matters is the disarm.
func (p *Prompter) ack(evt Event) {
	if evt.Interaction == nil {
		return
	}
	err := p.surface.InteractionRespond(evt.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		p.logger.Warn("ack failed", zap.Error(err))
	}
}

// rebuff tells an uninvited clicker, privately, that the prompt isn't theirs.
func (p *Prompter) rebuff(evt Event) {
	if evt.Interaction == nil {
		return
	}
	err := p.surface.InteractionRespond(evt.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "This choice belongs to someone else.",
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		p.logger.Warn("rebuff failed", zap.Error(err))
	}
}

// disarm strips the components off a resolved prompt.
func (p *Prompter) disarm(channelID, messageID string) {
	_, err := p.surface.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID: messageID, Channel: channelID, Components: &[]discordgo.MessageComponent{},
	})
	if err != nil {
		p.logger.Warn("disarm failed", zap.String("message", messageID), zap.Error(err))
	}
}
