package webhook_handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shopify-auth-layer/internal/domain"

	"github.com/rs/zerolog"
)

// ShopUserDeleter removes shop users
type ShopUserDeleter interface {
	Delete(ctx context.Context, myshopifyDomain string) error
}

// AppUninstalledHandler handles app uninstalled webhook events
type AppUninstalledHandler struct {
	logger zerolog.Logger
	users  ShopUserDeleter
}

// NewAppUninstalledHandler creates a new app uninstalled webhook handler
func NewAppUninstalledHandler(logger zerolog.Logger, users ShopUserDeleter) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		logger: logger,
		users:  users,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == "app/uninstalled"
}

// Handle deletes the shop user of the uninstalled shop. The token is revoked
// by Shopify at this point, so the record has nothing left to offer.
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	shopDomain := event.Shop
	if shopDomain == "" {
		var shopData struct {
			Domain          string `json:"domain"`
			MyshopifyDomain string `json:"myshopify_domain"`
		}
		if err := json.Unmarshal(event.Payload, &shopData); err != nil {
			return fmt.Errorf("failed to parse app uninstalled webhook payload: %w", err)
		}
		shopDomain = shopData.MyshopifyDomain
		if shopDomain == "" {
			shopDomain = shopData.Domain
		}
	}
	if shopDomain == "" {
		return &domain.ValidationError{Field: "myshopify_domain", Message: "missing required identifier"}
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", shopDomain).
		Msg("Processing app uninstalled webhook event")

	err := h.users.Delete(ctx, shopDomain)
	if errors.Is(err, domain.ErrShopUserNotFound) {
		h.logger.Info().Str("shop", shopDomain).Msg("App uninstalled for unknown shop")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete shop user: %w", err)
	}

	h.logger.Info().
		Str("shop", shopDomain).
		Msg("App uninstalled - cleanup completed")
	return nil
}
