package alerts

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Telegram posts HTML-formatted messages to one chat, throttled to stay
// under the Bot API per-chat limits.
type Telegram struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	limiter *rate.Limiter
}

// NewTelegram authorizes the bot and binds it to a chat.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authorize telegram bot: %w", err)
	}
	log.Infof("telegram bot authorized as @%s", bot.Self.UserName)
	return &Telegram{
		bot:     bot,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Limit(1), 3),
	}, nil
}

// Send implements Sender.
func (t *Telegram) Send(ctx context.Context, text string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
