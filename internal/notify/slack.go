package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// SlackPoster is the part of *slack.Client used here.
type SlackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Slack posts new inquiries and status changes to a channel. Edits and
// follow-ups that keep the status are not announced.
type Slack struct {
	client  SlackPoster
	channel string
}

func NewSlack(token, channel string) *Slack {
	return NewSlackWithClient(slack.New(token), channel)
}

func NewSlackWithClient(client SlackPoster, channel string) *Slack {
	return &Slack{client: client, channel: channel}
}

func (s *Slack) Notify(ctx context.Context, e Event) error {
	text, ok := SlackText(e)
	if !ok {
		return nil
	}
	if _, _, err := s.client.PostMessageContext(ctx, s.channel, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}

// SlackText renders the channel message; ok is false for events that are
// not announced.
func SlackText(e Event) (string, bool) {
	switch {
	case e.Name == EventCreated:
		return fmt.Sprintf("Inquiry baru dari *%s* dibuat oleh %s (status: %s)", e.NamaToko, e.Actor, e.Status), true
	case e.Name == EventDeleted:
		return fmt.Sprintf("Inquiry *%s* dihapus oleh %s", e.NamaToko, e.Actor), true
	case e.Name == EventUpdated && e.StatusChanged():
		return fmt.Sprintf("Inquiry *%s*: %s -> %s oleh %s (%s)", e.NamaToko, e.PreviousStatus, e.Status, e.Actor, e.Role), true
	}
	return "", false
}
