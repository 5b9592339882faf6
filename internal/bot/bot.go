package bot

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"jinasum/internal/domain"
	"jinasum/internal/pipeline"
	"jinasum/internal/ratelimiter"
)

// Four attempts bounded by 60 seconds each, plus slack for sending.
const updateProcessingTimeout = 5 * time.Minute

// Handler turns an inbound message into at most one reply.
type Handler interface {
	Handle(ctx context.Context, msg domain.Message, notifier pipeline.Notifier) (domain.Reply, bool)
}

type Bot struct {
	api          *tgbot.Bot
	rateLimiter  *ratelimiter.RateLimiter
	handler      Handler
	allowedUsers []int64
	helpText     string
	log          *slog.Logger
}

// New connects to the Telegram Bot API. Extra options are appended after
// the defaults, so tests can point the bot at a fake server.
func New(
	token string,
	handler Handler,
	allowedUsers []int64,
	help HelpInfo,
	log *slog.Logger,
	opts ...tgbot.Option,
) (*Bot, error) {
	b := newBot(handler, allowedUsers, help, log)

	opts = append([]tgbot.Option{
		tgbot.WithDefaultHandler(b.handleUpdate),
		tgbot.WithErrorsHandler(func(err error) {
			log.Error("Telegram API error",
				"error", err)
		}),
	}, opts...)

	api, err := tgbot.New(strings.TrimSpace(token), opts...)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	b.api = api
	b.rateLimiter = ratelimiter.New(api, log)

	return b, nil
}

func newBot(
	handler Handler,
	allowedUsers []int64,
	help HelpInfo,
	log *slog.Logger,
) *Bot {
	return &Bot{
		handler:      handler,
		allowedUsers: slices.Clone(allowedUsers),
		helpText:     help.text(),
		log:          log,
	}
}

// Start polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	b.api.Start(ctx)
}

func (b *Bot) Stop() {
	if b.rateLimiter != nil {
		b.rateLimiter.Stop()
	}
}

func (b *Bot) handleUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	updateCtx, cancel := context.WithTimeout(ctx, updateProcessingTimeout)
	defer cancel()

	message := update.Message
	chatID := message.Chat.ID

	if message.From == nil {
		return
	}

	userID := message.From.ID
	if !b.userAllowed(userID) {
		b.log.DebugContext(updateCtx, "User is not allowed",
			"userID", userID,
			"chatID", chatID,
			"username", message.From.Username,
			"chatType", message.Chat.Type)

		return
	}

	if err := b.handleMessage(updateCtx, message); err != nil {
		b.log.ErrorContext(updateCtx, "Failed to handle message",
			"error", err,
			"chatID", chatID,
			"userID", userID,
			"chatType", message.Chat.Type,
			"messageID", message.ID)
	}
}

func (b *Bot) userAllowed(userID int64) bool {
	return len(b.allowedUsers) == 0 || slices.Contains(b.allowedUsers, userID)
}
