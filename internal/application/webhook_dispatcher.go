package application

import (
	"context"

	"shopify-auth-layer/internal/domain"
	"shopify-auth-layer/internal/ports"

	"github.com/rs/zerolog"
)

// WebhookHandler processes webhook events for the topics it accepts
type WebhookHandler interface {
	CanHandle(topic string) bool
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookDispatcher routes verified webhook events to registered handlers
type WebhookDispatcher struct {
	handlers []WebhookHandler
	metrics  ports.MetricsRecorder
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates a new webhook dispatcher
func NewWebhookDispatcher(metrics ports.MetricsRecorder, logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{
		metrics: metrics,
		logger:  logger,
	}
}

// RegisterHandler adds a handler. Handlers are tried in registration order.
func (d *WebhookDispatcher) RegisterHandler(handler WebhookHandler) {
	d.handlers = append(d.handlers, handler)
}

// Dispatch hands the event to the first handler accepting its topic.
// Topics nobody handles are acknowledged and ignored.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) error {
	d.metrics.RecordWebhookReceived(event.Topic)

	for _, handler := range d.handlers {
		if handler.CanHandle(event.Topic) {
			return handler.Handle(ctx, event)
		}
	}

	d.logger.Debug().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Msg("No handler registered for webhook topic")
	return nil
}
