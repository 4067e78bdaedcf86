// Package notify delivers human-action notifications. Delivery is
// best-effort: callers log failures and move on, and a failed notification
// never changes the outcome of the operation that triggered it.
package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// Notifier sends one text message to wherever humans are watching.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// SlackWebhook posts messages to a Slack incoming webhook.
type SlackWebhook struct {
	webhookURL string
}

// NewSlackWebhook creates a webhook notifier. URL validity is the
// webhook's problem; a bad URL surfaces as a delivery error.
func NewSlackWebhook(webhookURL string) *SlackWebhook {
	return &SlackWebhook{webhookURL: webhookURL}
}

// Notify posts the message. One attempt, no retry: a dependency that needs
// attention will show up in the pending projection regardless.
func (s *SlackWebhook) Notify(ctx context.Context, message string) error {
	if s.webhookURL == "" {
		return fmt.Errorf("slack webhook url is not configured")
	}
	err := slack.PostWebhookContext(ctx, s.webhookURL, &slack.WebhookMessage{
		Text: message,
	})
	if err != nil {
		return fmt.Errorf("slack webhook delivery failed: %w", err)
	}
	return nil
}

// Noop discards messages. Used when no webhook is configured.
type Noop struct{}

// Notify does nothing and always succeeds.
func (Noop) Notify(context.Context, string) error { return nil }

// FromWebhookURL returns a Slack notifier when url is set, Noop otherwise.
func FromWebhookURL(url string) Notifier {
	if url == "" {
		return Noop{}
	}
	return NewSlackWebhook(url)
}
