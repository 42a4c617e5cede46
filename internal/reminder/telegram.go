package reminder

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"storehours/internal/slots"
)

// TelegramSender is the subset of the bot API the notifier needs.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier delivers opening reminders to a Telegram chat.
type TelegramNotifier struct {
	sender TelegramSender
	chatID int64
}

// NewTelegramNotifier creates a notifier from a bot token.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &TelegramNotifier{sender: bot, chatID: chatID}, nil
}

// NewTelegramNotifierWithSender wires an existing sender (tests).
func NewTelegramNotifierWithSender(sender TelegramSender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chatID: chatID}
}

// NotifyOpening sends the reminder message.
func (n *TelegramNotifier) NotifyOpening(_ context.Context, opening time.Time) error {
	text := fmt.Sprintf("The store opens at %s on %s.",
		slots.FormatSlot(opening.Format("15:04")),
		opening.Format("Monday, Jan 2"))
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.sender.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
