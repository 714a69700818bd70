package prompt

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSurface struct {
	mu        sync.Mutex
	nextID    int
	sent      []*discordgo.MessageSend
	edits     []*discordgo.MessageEdit
	responses []*discordgo.InteractionResponse
	reactions []string
}

func (f *fakeSurface) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, data)
	return &discordgo.Message{ID: fmt.Sprintf("m%d", f.nextID), ChannelID: channelID}, nil
}

func (f *fakeSurface) ChannelMessageEditComplex(m *discordgo.MessageEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, m)
	return &discordgo.Message{ID: m.ID}, nil
}

func (f *fakeSurface) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeSurface) MessageReactionAdd(_, _, emojiID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, emojiID)
	return nil
}

func (f *fakeSurface) buttonIDs(t *testing.T) (yes, no string) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	row, ok := f.sent[0].Components[0].(discordgo.ActionsRow)
	require.True(t, ok)
	yes = row.Components[0].(discordgo.Button).CustomID
	no = row.Components[1].(discordgo.Button).CustomID
	return yes, no
}

func (f *fakeSurface) editCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.edits)
}

func (f *fakeSurface) responseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.responses)
}

func newPrompter() (*Prompter, *fakeSurface, *Broker) {
	surface := &fakeSurface{}
	broker := NewBroker()
	return New(surface, broker, zap.NewNop()), surface, broker
}

func awaitWaiter(t *testing.T, b *Broker) {
	t.Helper()
	require.Eventually(t, func() bool { return b.Waiting() > 0 }, time.Second, time.Millisecond)
}

func click(interactionID, userID, messageID, customID string) Event {
	return Event{
		Kind:      KindComponent,
		UserID:    userID,
		MessageID: messageID,
		CustomID:  customID,
		Interaction: &discordgo.InteractionCreate{
			Interaction: &discordgo.Interaction{ID: interactionID},
		},
	}
}

func TestConfirmResolvesOnYes(t *testing.T) {
	p, surface, broker := newPrompter()

	type result struct {
		ok  bool
		err error
	}
	done := make(chan result, 1)
	go func() {
		ok, err := p.Confirm(context.Background(), "c1", "Delete your character?", "owner", time.Second)
		done <- result{ok, err}
	}()

	awaitWaiter(t, broker)
	yesID, _ := surface.buttonIDs(t)
	require.True(t, broker.Publish(click("i1", "owner", "m1", yesID)))

	res := <-done
	require.NoError(t, res.err)
	assert.True(t, res.ok)
	assert.Equal(t, 1, surface.editCount(), "buttons disarmed exactly once")
}

func TestConfirmResolvesOnNo(t *testing.T) {
	p, surface, broker := newPrompter()

	done := make(chan bool, 1)
	go func() {
		ok, err := p.Confirm(context.Background(), "c1", "Sure?", "owner", time.Second)
		require.NoError(t, err)
		done <- ok
	}()

	awaitWaiter(t, broker)
	_, noID := surface.buttonIDs(t)
	broker.Publish(click("i1", "owner", "m1", noID))

	assert.False(t, <-done)
}

func TestConfirmIgnoresUnauthorizedClick(t *testing.T) {
	p, surface, broker := newPrompter()

	done := make(chan bool, 1)
	go func() {
		ok, err := p.Confirm(context.Background(), "c1", "Sure?", "owner", time.Second)
		require.NoError(t, err)
		done <- ok
	}()

	awaitWaiter(t, broker)
	yesID, _ := surface.buttonIDs(t)

	// A stranger mashing Yes gets a private rebuff and the prompt stays open.
	// Publish-until-consumed rides out the window where the prompt is busy
	// re-registering its waiter.
	require.Eventually(t, func() bool {
		return broker.Publish(click("i1", "stranger", "m1", yesID))
	}, time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		return broker.Publish(click("i2", "owner", "m1", yesID))
	}, time.Second, time.Millisecond)

	assert.True(t, <-done)
	assert.GreaterOrEqual(t, surface.responseCount(), 2, "rebuff plus ack")
}

func TestConfirmTimeout(t *testing.T) {
	p, surface, _ := newPrompter()

	ok, err := p.Confirm(context.Background(), "c1", "Sure?", "owner", 20*time.Millisecond)

	require.ErrorIs(t, err, ErrTimeout)
	assert.False(t, ok)
	assert.Equal(t, 1, surface.editCount(), "timeout still disarms the buttons")
}

func TestLateResponseFindsNoWaiter(t *testing.T) {
	p, surface, broker := newPrompter()

	_, err := p.Confirm(context.Background(), "c1", "Sure?", "owner", 10*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)

	yesID, _ := surface.buttonIDs(t)
	assert.False(t, broker.Publish(click("i1", "owner", "m1", yesID)), "resolved prompt consumes nothing")
}

func TestQuorumResolvesEarlyAtThreshold(t *testing.T) {
	p, surface, broker := newPrompter()
	eligible := func(id string) bool { return id != "outsider" }

	done := make(chan []string, 1)
	go func() {
		voters, err := p.Quorum(context.Background(), "c1", "Raid the crypt?", "⚔️", 2, eligible, time.Second)
		require.NoError(t, err)
		done <- voters
	}()

	awaitWaiter(t, broker)
	react := func(userID string) {
		require.Eventually(t, func() bool {
			return broker.Publish(Event{Kind: KindReaction, UserID: userID, MessageID: "m1", Emoji: "⚔️"})
		}, time.Second, time.Millisecond)
	}
	react("u1")
	react("u1") // duplicate, does not count
	react("outsider")
	react("u2")

	assert.Equal(t, []string{"u1", "u2"}, <-done)
	assert.Equal(t, []string{"⚔️"}, surface.reactions, "prompt seeds its own reaction")
}

func TestQuorumTimeoutReturnsPartialCount(t *testing.T) {
	p, _, broker := newPrompter()

	done := make(chan []string, 1)
	go func() {
		voters, err := p.Quorum(context.Background(), "c1", "Raid?", "⚔️", 3, nil, 50*time.Millisecond)
		require.ErrorIs(t, err, ErrTimeout)
		done <- voters
	}()

	awaitWaiter(t, broker)
	broker.Publish(Event{Kind: KindReaction, UserID: "u1", MessageID: "m1", Emoji: "⚔️"})

	assert.Equal(t, []string{"u1"}, <-done)
}

func TestTextReturnsResponderMessage(t *testing.T) {
	p, _, broker := newPrompter()

	done := make(chan string, 1)
	go func() {
		s, err := p.Text(context.Background(), "c1", "Name your hero:", "owner", time.Second)
		require.NoError(t, err)
		done <- s
	}()

	awaitWaiter(t, broker)
	// Someone else's chatter is not a match.
	broker.Publish(Event{Kind: KindMessage, UserID: "bystander", ChannelID: "c1", Content: "hello"})
	broker.Publish(Event{Kind: KindMessage, UserID: "owner", ChannelID: "c1", Content: "Morgath"})

	assert.Equal(t, "Morgath", <-done)
}

func TestAwaitHonorsContextCancel(t *testing.T) {
	broker := NewBroker()
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := broker.Await(ctx, func(Event) bool { return true }, time.Minute)
		errCh <- err
	}()

	awaitWaiter(t, broker)
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
	require.Eventually(t, func() bool { return broker.Waiting() == 0 }, time.Second, time.Millisecond)
}
