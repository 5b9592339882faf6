package ratelimiter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"
)

const (
	privateChatRate = time.Second
	groupChatRate   = 3 * time.Second
	queueSize       = 1000
)

// Sender is the subset of the Telegram API the limiter throttles.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

type request struct {
	ctx      context.Context
	params   *bot.SendMessageParams
	response chan response
}

type response struct {
	message *models.Message
	err     error
}

// RateLimiter serializes outgoing messages and spaces them per chat.
type RateLimiter struct {
	sender   Sender
	queue    chan request
	limiters map[int64]*rate.Limiter
	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	log      *slog.Logger
}

func New(sender Sender, log *slog.Logger) *RateLimiter {
	ctx, cancel := context.WithCancel(context.Background())

	rl := &RateLimiter{
		sender:   sender,
		queue:    make(chan request, queueSize),
		limiters: make(map[int64]*rate.Limiter),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		log:      log,
	}

	go rl.processQueue()

	return rl
}

func (rl *RateLimiter) SendMessage(
	ctx context.Context,
	params *bot.SendMessageParams,
) (*models.Message, error) {
	if err := rl.ctx.Err(); err != nil {
		return nil, err
	}

	req := request{
		ctx:      ctx,
		params:   params,
		response: make(chan response, 1),
	}

	select {
	case rl.queue <- req:
	case <-rl.ctx.Done():
		return nil, rl.ctx.Err()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case resp := <-req.response:
		return resp.message, resp.err
	case <-rl.done:
		select {
		case resp := <-req.response:
			return resp.message, resp.err
		default:
			return nil, rl.ctx.Err()
		}
	}
}

// SendChatAction is not queued: chat actions are cheap and short-lived.
func (rl *RateLimiter) SendChatAction(
	ctx context.Context,
	params *bot.SendChatActionParams,
) (bool, error) {
	return rl.sender.SendChatAction(ctx, params)
}

func (rl *RateLimiter) Stop() {
	rl.cancel()
	<-rl.done
}

func (rl *RateLimiter) processQueue() {
	defer close(rl.done)

	for {
		select {
		case req := <-rl.queue:
			rl.handleRequest(req)
		case <-rl.ctx.Done():
			for {
				select {
				case req := <-rl.queue:
					req.response <- response{
						err: rl.ctx.Err(),
					}
				default:
					return
				}
			}
		}
	}
}

func (rl *RateLimiter) handleRequest(req request) {
	chatID := getChatID(req.params.ChatID)

	reservation := rl.limiterFor(chatID).Reserve()

	if delay := reservation.Delay(); delay > 0 {
		rl.log.DebugContext(rl.ctx, "Rate limiting message",
			"chatID", chatID,
			"delay", delay,
			"queueLen", len(rl.queue))

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-rl.ctx.Done():
			reservation.Cancel()
			req.response <- response{
				err: rl.ctx.Err(),
			}

			return
		case <-req.ctx.Done():
			reservation.Cancel()
			req.response <- response{
				err: req.ctx.Err(),
			}

			return
		}
	}

	message, err := rl.sender.SendMessage(req.ctx, req.params)
	if err != nil {
		err = fmt.Errorf("send message: %w", err)
	}

	req.response <- response{
		message: message,
		err:     err,
	}
}

func (rl *RateLimiter) limiterFor(chatID int64) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.limiters[chatID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(getRate(chatID)), 1)
		rl.limiters[chatID] = limiter
	}

	return limiter
}

func getChatID(chatID any) int64 {
	switch id := chatID.(type) {
	case int64:
		return id
	case int:
		return int64(id)
	default:
		return 0
	}
}

func getRate(chatID int64) time.Duration {
	if chatID < 0 {
		return groupChatRate
	}
	return privateChatRate
}
