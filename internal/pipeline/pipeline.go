package pipeline

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"jinasum/internal/domain"
	"jinasum/internal/summarizer"
)

// MaxRetries is how many times a failed attempt is restarted before the
// error reply is produced. Retrying stops early once the context is done.
const MaxRetries = 3

type URLFilter interface {
	Accepts(text string) bool
}

type Reader interface {
	Fetch(ctx context.Context, targetURL string) (string, error)
}

// Selector exposes the backend resolved at startup.
type Selector interface {
	Selected() summarizer.Backend
	Summarizer() summarizer.Summarizer
}

// Notifier delivers the interim acknowledgment while the message is still
// being processed.
type Notifier interface {
	Notify(ctx context.Context, reply domain.Reply) error
}

type NotifierFunc func(ctx context.Context, reply domain.Reply) error

func (f NotifierFunc) Notify(ctx context.Context, reply domain.Reply) error {
	return f(ctx, reply)
}

type Texts struct {
	Ack   string
	Error string
}

// Pipeline turns a shared link into a summary reply.
type Pipeline struct {
	filter   URLFilter
	reader   Reader
	selector Selector
	texts    Texts
	log      *slog.Logger
}

func New(
	filter URLFilter,
	reader Reader,
	selector Selector,
	texts Texts,
	log *slog.Logger,
) *Pipeline {
	return &Pipeline{
		filter:   filter,
		reader:   reader,
		selector: selector,
		texts:    texts,
		log:      log,
	}
}

// Handle processes one inbound message. It returns false when the message
// is not a link the pipeline is interested in; nothing is sent then.
// Otherwise it returns exactly one reply, either the summary or the error
// text, after acknowledging the message once through notifier.
func (p *Pipeline) Handle(
	ctx context.Context,
	msg domain.Message,
	notifier Notifier,
) (domain.Reply, bool) {
	log := p.log.With("requestID", uuid.NewString())

	for retryCount := 0; ; retryCount++ {
		summary, handled, err := p.attempt(ctx, msg, notifier, retryCount, log)
		if !handled {
			return domain.Reply{}, false
		}

		if err == nil {
			log.InfoContext(ctx, "Summary is ready",
				"retryCount", retryCount,
				"summaryLen", len(summary))

			return domain.TextReply(summary), true
		}

		if retryCount < MaxRetries && ctx.Err() == nil {
			log.WarnContext(ctx, "Attempt failed, retrying",
				"error", err,
				"retryCount", retryCount+1)

			continue
		}

		log.ErrorContext(ctx, "Failed to summarize link",
			"error", err,
			"retryCount", retryCount,
			"content", msg.Content)

		return domain.ErrorReply(p.texts.Error), true
	}
}

func (p *Pipeline) attempt(
	ctx context.Context,
	msg domain.Message,
	notifier Notifier,
	retryCount int,
	log *slog.Logger,
) (string, bool, error) {
	if msg.Kind != domain.KindSharing && msg.Kind != domain.KindText {
		return "", false, nil
	}

	if !p.filter.Accepts(msg.Content) {
		log.DebugContext(ctx, "Content is not a valid URL, skip",
			"content", msg.Content,
			"kind", msg.Kind.String())

		return "", false, nil
	}

	if retryCount == 0 {
		log.DebugContext(ctx, "Link is accepted",
			"content", msg.Content,
			"kind", msg.Kind.String())

		if err := notifier.Notify(ctx, domain.TextReply(p.texts.Ack)); err != nil {
			log.WarnContext(ctx, "Failed to send acknowledgment",
				"error", err)
		}
	}

	targetURL := html.UnescapeString(strings.TrimSpace(msg.Content))

	text, err := p.reader.Fetch(ctx, targetURL)
	if err != nil {
		return "", true, fmt.Errorf("fetch page: %w", err)
	}

	backend := p.selector.Selected()

	summary, err := p.selector.Summarizer().Summarize(ctx, text)
	if err != nil {
		return "", true, fmt.Errorf("summarize with %s: %w", backend, err)
	}

	return summary, true, nil
}
