package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends alerts to a single chat. TEMP_CHANGE alerts are skipped.
type Telegram struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

func NewTelegram(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Telegram, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	return newTelegram(bot, id, maxRetries, retryDelayBase), nil
}

func newTelegram(bot sender, chatID int64, maxRetries int, retryDelayBase time.Duration) *Telegram {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Telegram{
		bot:            bot,
		chatID:         chatID,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

func (t *Telegram) Notify(ctx context.Context, a Alert) error {
	if a.Tier == TierTempChange {
		return nil
	}
	return t.sendMarkdownV2(ctx, formatAlert(a))
}

// sendMarkdownV2 retries with a linear backoff until ctx is done.
func (t *Telegram) sendMarkdownV2(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for i := 0; i < t.maxRetries; i++ {
		if _, err := t.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if i == t.maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("telegram send cancelled: %w", lastErr)
		case <-time.After(t.retryDelayBase * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("failed after %d retries: %w", t.maxRetries, lastErr)
}

func formatAlert(a Alert) string {
	icon := "🔔"
	switch a.Tier {
	case TierBreak:
		icon = "🔥"
	case TierPrediction:
		icon = "🎯"
	case TierReach:
		icon = "📈"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s* %s\n", icon, escapeMarkdownV2(string(a.Tier)), escapeMarkdownV2(a.TargetID))
	fmt.Fprintf(&b, "%s\n", escapeMarkdownV2(a.Signal))
	fmt.Fprintf(&b, "Reach %s \\| Break %s",
		escapeMarkdownV2(fmt.Sprintf("%d%%", a.Reach)),
		escapeMarkdownV2(fmt.Sprintf("%d%%", a.Break)))
	if a.Temp != nil {
		fmt.Fprintf(&b, "\nNow %s", escapeMarkdownV2(fmt.Sprintf("%.1f°%s", *a.Temp, a.Unit)))
	}
	if a.Bucket != "" {
		fmt.Fprintf(&b, "\nBucket `%s`", escapeMarkdownV2(a.Bucket))
	}
	return b.String()
}

func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
