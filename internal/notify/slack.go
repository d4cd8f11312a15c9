package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"
)

// SlackNotifier posts notifications to a Slack channel.
type SlackNotifier struct {
	api            *slack.Client
	defaultChannel string
	logger         *slog.Logger
}

// NewSlack creates a Slack notifier from a bot token. defaultChannel is
// used when the tool call names no recipient.
func NewSlack(botToken, defaultChannel string, logger *slog.Logger) (*SlackNotifier, error) {
	if botToken == "" {
		return nil, fmt.Errorf("slack: bot_token is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	api := slack.New(botToken)
	authResp, err := api.AuthTest()
	if err != nil {
		return nil, fmt.Errorf("slack: auth test: %w", err)
	}
	logger.Info("slack notifier authorized", "user", authResp.User, "team", authResp.Team)

	return &SlackNotifier{
		api:            api,
		defaultChannel: defaultChannel,
		logger:         logger,
	}, nil
}

func (n *SlackNotifier) Name() string { return "slack" }

func (n *SlackNotifier) Send(ctx context.Context, recipient, message, priority string) error {
	channel := recipient
	if channel == "" {
		channel = n.defaultChannel
	}
	if channel == "" {
		return fmt.Errorf("slack: no recipient and no default channel")
	}

	_, _, err := n.api.PostMessageContext(ctx, channel,
		slack.MsgOptionText(prefixFor(priority)+message, false))
	if err != nil {
		return fmt.Errorf("slack: send message: %w", err)
	}
	n.logger.Debug("notification delivered", "channel", channel, "priority", priority)
	return nil
}
