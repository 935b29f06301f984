package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/equilibra/equilibra/internal/domain"
)

// TelegramNotifier pushes urgent findings to a Telegram chat. One chat
// receives every owner's alerts; the message names the owner.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    zerolog.Logger
}

// NewTelegramNotifier creates a notifier from a bot token.
func NewTelegramNotifier(token string, chatID int64, log zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram notifier: create bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID, log: log}, nil
}

// NotifyUrgent sends one message summarizing the urgent findings.
func (n *TelegramNotifier) NotifyUrgent(ctx context.Context, owner string, urgent []domain.Insight) error {
	if len(urgent) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🚨 Alertas urgentes para %s:\n", owner)
	for _, in := range urgent {
		fmt.Fprintf(&b, "\n%s\n%s\n", in.Title, in.Message)
	}

	msg := tgbotapi.NewMessage(n.chatID, b.String())
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram notifier: send: %w", err)
	}

	n.log.Info().Str("owner", owner).Int("count", len(urgent)).Msg("Pushed urgent insights to Telegram")
	return nil
}
