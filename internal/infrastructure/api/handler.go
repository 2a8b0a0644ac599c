package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shopify-auth-layer/internal/application"
	"shopify-auth-layer/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const maxWebhookBodyBytes = 1 << 20

// Installer runs the OAuth install handshake
type Installer interface {
	BeginInstall(ctx context.Context, shop string, returnURL string) (string, error)
	CompleteInstall(ctx context.Context, callbackURL *url.URL) (*application.InstallResult, error)
}

// WebhookDispatcher routes verified webhook events
type WebhookDispatcher interface {
	Dispatch(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookVerifier checks the HMAC of a webhook request
type WebhookVerifier interface {
	VerifyWebhook(r *http.Request) bool
}

// Handler exposes the OAuth and webhook endpoints
type Handler struct {
	installer  Installer
	dispatcher WebhookDispatcher
	verifier   WebhookVerifier
	metrics    http.Handler
	logger     zerolog.Logger
}

// NewHandler creates the HTTP handler set
func NewHandler(installer Installer, dispatcher WebhookDispatcher, verifier WebhookVerifier, metrics http.Handler, logger zerolog.Logger) *Handler {
	return &Handler{
		installer:  installer,
		dispatcher: dispatcher,
		verifier:   verifier,
		metrics:    metrics,
		logger:     logger,
	}
}

// Routes registers the endpoints on r
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.health)
	r.Handle("/metrics", h.metrics)
	r.Get("/auth/shopify", h.oauthInit)
	r.Get("/auth/callback", h.oauthCallback)
	r.Post("/webhooks/shopify", h.webhook)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// oauthInit redirects the merchant to Shopify's authorization page
func (h *Handler) oauthInit(w http.ResponseWriter, r *http.Request) {
	shop := r.URL.Query().Get("shop")
	if shop == "" {
		http.Error(w, "shop parameter is required", http.StatusBadRequest)
		return
	}

	target, err := h.installer.BeginInstall(r.Context(), shop, safeReturnURL(r.URL.Query().Get("return_url")))
	if err != nil {
		h.writeError(w, err, "Failed to start OAuth install")
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// oauthCallback completes the install and redirects to the return URL
func (h *Handler) oauthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("shop") == "" || q.Get("code") == "" || q.Get("state") == "" {
		http.Error(w, "Missing required parameters", http.StatusBadRequest)
		return
	}

	result, err := h.installer.CompleteInstall(r.Context(), r.URL)
	if err != nil {
		h.writeError(w, err, "Failed to complete installation")
		return
	}

	http.Redirect(w, r, result.ReturnURL, http.StatusFound)
}

// webhook verifies and dispatches a Shopify webhook delivery
func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes+1))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	if len(body) > maxWebhookBodyBytes {
		http.Error(w, "Payload too large", http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if !h.verifier.VerifyWebhook(r) {
		h.logger.Warn().
			Str("topic", r.Header.Get("X-Shopify-Topic")).
			Str("shop", r.Header.Get("X-Shopify-Shop-Domain")).
			Msg("Rejected webhook with invalid HMAC")
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	event := &domain.WebhookEvent{
		Topic:      r.Header.Get("X-Shopify-Topic"),
		Shop:       r.Header.Get("X-Shopify-Shop-Domain"),
		WebhookID:  r.Header.Get("X-Shopify-Webhook-Id"),
		Payload:    body,
		ReceivedAt: time.Now(),
	}
	if event.Topic == "" {
		http.Error(w, "Missing topic", http.StatusBadRequest)
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), event); err != nil {
		h.logger.Error().Err(err).
			Str("topic", event.Topic).
			Str("shop", event.Shop).
			Msg("Failed to process webhook")
		http.Error(w, "Failed to process webhook", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) writeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidShopDomain):
		http.Error(w, "Invalid shop domain", http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidSignature):
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrInvalidInstallState):
		http.Error(w, "Invalid session", http.StatusUnauthorized)
	default:
		h.logger.Error().Err(err).Msg(msg)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// safeReturnURL only accepts same-origin relative paths
func safeReturnURL(raw string) string {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return ""
	}
	return raw
}
