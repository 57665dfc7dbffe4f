package alert

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram delivers alerts to a fixed set of admin chats.
type Telegram struct {
	bot     *tgbotapi.BotAPI
	chatIDs []int64
	logger  *slog.Logger
}

// NewTelegram creates a Telegram emitter. It validates the token against the
// Bot API, so a misconfigured token fails at startup rather than at the first
// alert.
func NewTelegram(token string, chatIDs []int64, logger *slog.Logger) (*Telegram, error) {
	if logger == nil {
		logger = slog.Default()
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	logger.Info("telegram alerts enabled",
		"bot", bot.Self.UserName,
		"recipients", len(chatIDs),
	)

	return &Telegram{
		bot:     bot,
		chatIDs: chatIDs,
		logger:  logger,
	}, nil
}

// Notify sends the alert to all admin chats on a separate goroutine.
// Delivery failures are logged and otherwise ignored.
func (t *Telegram) Notify(kind, message string) {
	text := fmt.Sprintf("[%s] %s", strings.ToUpper(kind), message)

	go func() {
		for _, chatID := range t.chatIDs {
			msg := tgbotapi.NewMessage(chatID, text)
			if _, err := t.bot.Send(msg); err != nil {
				t.logger.Warn("alert delivery failed",
					"chat_id", chatID,
					"kind", kind,
					"error", err,
				)
			}
		}
	}()
}
