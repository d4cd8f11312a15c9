package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier delivers notifications to a Telegram chat.
type TelegramNotifier struct {
	bot           *tgbotapi.BotAPI
	defaultChatID int64
	logger        *slog.Logger
}

// NewTelegram creates a Telegram notifier from a bot token.
func NewTelegram(token string, defaultChatID int64, logger *slog.Logger) (*TelegramNotifier, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram: token is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: init bot: %w", err)
	}
	logger.Info("telegram notifier authorized", "bot", bot.Self.UserName)

	return &TelegramNotifier{
		bot:           bot,
		defaultChatID: defaultChatID,
		logger:        logger,
	}, nil
}

func (n *TelegramNotifier) Name() string { return "telegram" }

func (n *TelegramNotifier) Send(_ context.Context, recipient, message, priority string) error {
	chatID := n.defaultChatID
	if recipient != "" {
		id, err := strconv.ParseInt(recipient, 10, 64)
		if err != nil {
			return fmt.Errorf("telegram: recipient %q is not a chat id", recipient)
		}
		chatID = id
	}
	if chatID == 0 {
		return fmt.Errorf("telegram: no recipient and no default chat id")
	}

	if _, err := n.bot.Send(tgbotapi.NewMessage(chatID, prefixFor(priority)+message)); err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	n.logger.Debug("notification delivered", "chat", chatID, "priority", priority)
	return nil
}
