package ports

import (
	"context"
	"net/http"
	"net/url"

	"shopify-auth-layer/internal/domain"

	goshopify "github.com/bold-commerce/go-shopify/v4"
)

// ShopifyClient defines the interface for Shopify OAuth and Admin API operations
type ShopifyClient interface {
	// Authentication
	GenerateAuthURL(shop string, scopes []string, redirectURI string, state string) (string, error)
	ExchangeToken(ctx context.Context, shop string, code string) (string, error)
	VerifyCallback(callbackURL *url.URL) (bool, error)
	VerifyWebhook(r *http.Request) bool

	// Shop API
	GetShop(ctx context.Context, session domain.Session) (*goshopify.Shop, error)
}
