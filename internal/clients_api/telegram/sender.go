package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	logging "usage-report-bot/internal/infra/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

var ErrNoToken = errors.New("telegram bot token is not configured")

const (
	maxCaptionLength = 1024
	maxMessageLength = 4096
)

// Photo is a local PNG with its caption.
type Photo struct {
	Path    string
	Caption string
}

type Options struct {
	Token  string
	ChatID string
	// Endpoint overrides tgbotapi.APIEndpoint, format "https://host/bot%s/%s".
	Endpoint string
	Timeout  time.Duration
}

type Sender struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func New(opts Options) (*Sender, error) {
	if opts.Token == "" {
		return nil, ErrNoToken
	}
	chatID, err := ParseChatID(opts.ChatID)
	if err != nil {
		return nil, err
	}
	if opts.Endpoint == "" {
		opts.Endpoint = tgbotapi.APIEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	bot, err := tgbotapi.NewBotAPIWithClient(opts.Token, opts.Endpoint, &http.Client{Timeout: opts.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	logging.LogInfo("Telegram bot authorized", zap.String("username", bot.Self.UserName), zap.Int64("chatID", chatID))
	return &Sender{bot: bot, chatID: chatID}, nil
}

func ParseChatID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram chat id %q: %w", s, err)
	}
	return id, nil
}

// Send posts the text and photos. When the text fits a caption it rides on the
// first photo, otherwise it goes out as its own message first. A photo that
// fails to upload is logged and skipped; Send fails only if nothing was
// delivered.
func (s *Sender) Send(ctx context.Context, text string, photos []Photo) error {
	delivered := 0
	var lastErr error

	captionOnFirst := len(photos) > 0 && len([]rune(text)) <= maxCaptionLength
	if !captionOnFirst && text != "" {
		if _, err := s.bot.Send(tgbotapi.NewMessage(s.chatID, truncate(text, maxMessageLength))); err != nil {
			logging.LogError("Failed to send telegram message", zap.Error(err))
			lastErr = err
		} else {
			delivered++
		}
	}

	for i, p := range photos {
		if err := ctx.Err(); err != nil {
			return err
		}
		photo := tgbotapi.NewPhoto(s.chatID, tgbotapi.FilePath(p.Path))
		photo.Caption = truncate(p.Caption, maxCaptionLength)
		if i == 0 && captionOnFirst {
			photo.Caption = text
		}
		if _, err := s.bot.Send(photo); err != nil {
			logging.LogError("Failed to send telegram photo", zap.String("path", p.Path), zap.Error(err))
			lastErr = err
			continue
		}
		delivered++
	}

	if delivered == 0 && lastErr != nil {
		return fmt.Errorf("telegram delivery failed: %w", lastErr)
	}
	logging.LogDebug("Telegram report sent", zap.Int64("chatID", s.chatID), zap.Int("items", delivered))
	return nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
