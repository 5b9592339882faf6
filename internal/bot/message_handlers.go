package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"mvdan.cc/xurls/v2"

	"jinasum/internal/domain"
	"jinasum/internal/pipeline"
)

const telegramMessageMaxLength = 4096

//nolint:gochecknoglobals // Compiled once, read-only.
var strictURLRe = xurls.Strict()

func (b *Bot) handleMessage(ctx context.Context, message *models.Message) error {
	text := strings.TrimSpace(messageText(message))

	if strings.HasPrefix(text, "/start") || strings.HasPrefix(text, "/help") {
		return b.sendReply(ctx, message, domain.TextReply(b.helpText))
	}

	spinnerCtx, stopSpinner := context.WithCancel(ctx)
	defer stopSpinner()

	var spinnerOnce sync.Once

	notifier := pipeline.NotifierFunc(func(ctx context.Context, reply domain.Reply) error {
		spinnerOnce.Do(func() {
			go b.spin(spinnerCtx, message.Chat.ID)
		})

		return b.sendReply(ctx, message, reply)
	})

	reply, ok := b.handler.Handle(ctx, ClassifyMessage(message), notifier)
	if !ok {
		return nil
	}

	stopSpinner()

	return b.sendReply(ctx, message, reply)
}

// ClassifyMessage maps a Telegram message to a pipeline message. A message
// that consists of a single URL is a shared link, any other text is plain
// text and messages without text are of no interest.
func ClassifyMessage(message *models.Message) domain.Message {
	text := messageText(message)

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.Message{Kind: domain.KindOther, Content: text}
	}

	if strictURLRe.FindString(trimmed) == trimmed {
		return domain.Message{Kind: domain.KindSharing, Content: text}
	}

	return domain.Message{Kind: domain.KindText, Content: text}
}

func messageText(message *models.Message) string {
	if message.Text != "" {
		return message.Text
	}

	return message.Caption
}

func (b *Bot) sendReply(ctx context.Context, message *models.Message, reply domain.Reply) error {
	normalizedText := strings.ToValidUTF8(reply.Content, "?")
	if normalizedText != reply.Content {
		b.log.WarnContext(ctx, "Message text had invalid UTF-8 and was normalized",
			"chatID", message.Chat.ID,
			"originalLen", len(reply.Content),
			"normalizedLen", len(normalizedText))
	}

	var errs []error

	for i, chunk := range splitMessage(normalizedText, telegramMessageMaxLength) {
		params := &tgbot.SendMessageParams{
			ChatID:             message.Chat.ID,
			Text:               chunk,
			LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: tgbot.True()},
		}
		if i == 0 {
			params.ReplyParameters = &models.ReplyParameters{
				MessageID:                message.ID,
				AllowSendingWithoutReply: true,
			}
		}

		if _, err := b.rateLimiter.SendMessage(ctx, params); err != nil {
			errs = append(errs, fmt.Errorf("send %s reply: %w", reply.Kind, err))
		}
	}

	return errors.Join(errs...)
}

// splitMessage cuts text into chunks of at most limit characters,
// preferring to break after a newline.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i > limit/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}

		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}

	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}

	return chunks
}
