package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"shopify-auth-layer/internal/domain"
	"shopify-auth-layer/internal/ports"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

var shopDomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9\-]*\.myshopify\.com$`)

// TokenValidator checks whether a session's token is still accepted by Shopify
type TokenValidator interface {
	ValidateToken(ctx context.Context, client ports.ShopifyClient, session domain.Session) (bool, error)
}

// InstallConfig holds the OAuth settings of the app
type InstallConfig struct {
	Scopes           []string
	RedirectURI      string
	DefaultReturnURL string
}

// InstallResult is the outcome of a completed OAuth install
type InstallResult struct {
	User      *domain.ShopUser
	ReturnURL string
	Created   bool
}

// InstallService drives the OAuth install handshake. It provisions shop users
// through the ShopUserManager and stores the exchanged token on them.
type InstallService struct {
	users      *ShopUserManager
	states     ports.InstallStateRepository
	client     ports.ShopifyClient
	validator  TokenValidator
	sessionCfg domain.SessionConfig
	cfg        InstallConfig
	clock      clockwork.Clock
	metrics    ports.MetricsRecorder
	logger     zerolog.Logger
}

// NewInstallService creates a new install service
func NewInstallService(
	users *ShopUserManager,
	states ports.InstallStateRepository,
	client ports.ShopifyClient,
	validator TokenValidator,
	sessionCfg domain.SessionConfig,
	cfg InstallConfig,
	clock clockwork.Clock,
	metrics ports.MetricsRecorder,
	logger zerolog.Logger,
) *InstallService {
	return &InstallService{
		users:      users,
		states:     states,
		client:     client,
		validator:  validator,
		sessionCfg: sessionCfg,
		cfg:        cfg,
		clock:      clock,
		metrics:    metrics,
		logger:     logger,
	}
}

// NormalizeShopDomain lowercases and validates a *.myshopify.com domain
func NormalizeShopDomain(shop string) (string, error) {
	shop = strings.ToLower(strings.TrimSpace(shop))
	shop = strings.TrimPrefix(shop, "https://")
	shop = strings.TrimSuffix(shop, "/")
	if !shopDomainPattern.MatchString(shop) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidShopDomain, shop)
	}
	return shop, nil
}

// BeginInstall starts the OAuth handshake and returns the URL to redirect the
// merchant to. Shops that are already authorized with a valid token are sent
// straight to the return URL.
func (s *InstallService) BeginInstall(ctx context.Context, shop string, returnURL string) (string, error) {
	shop, err := NormalizeShopDomain(shop)
	if err != nil {
		return "", err
	}
	if returnURL == "" {
		returnURL = s.cfg.DefaultReturnURL
	}

	if s.alreadyAuthorized(ctx, shop) {
		s.logger.Info().Str("shop", shop).Msg("Shop already authorized, skipping OAuth")
		return returnURL, nil
	}

	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	now := s.clock.Now()
	installState := &domain.InstallState{
		Shop:      shop,
		State:     state,
		Scopes:    s.cfg.Scopes,
		ReturnURL: returnURL,
		ExpiresAt: now.Add(domain.InstallStateTTL),
		CreatedAt: now,
	}
	if err := s.states.Save(ctx, installState); err != nil {
		return "", err
	}

	return s.client.GenerateAuthURL(shop, s.cfg.Scopes, s.cfg.RedirectURI, state)
}

func (s *InstallService) alreadyAuthorized(ctx context.Context, shop string) bool {
	user, err := s.users.GetByDomain(ctx, shop)
	if err != nil || !user.IsAuthorized() {
		return false
	}

	ok, err := s.validator.ValidateToken(ctx, s.client, user.Session(s.sessionCfg))
	if err != nil {
		s.logger.Warn().Err(err).Str("shop", shop).Msg("Token validation failed, restarting OAuth")
		return false
	}
	return ok
}

// CompleteInstall finishes the handshake from the callback URL Shopify
// redirected to. The state is consumed whether or not the rest succeeds.
func (s *InstallService) CompleteInstall(ctx context.Context, callbackURL *url.URL) (*InstallResult, error) {
	result, err := s.completeInstall(ctx, callbackURL)
	if err != nil {
		s.metrics.RecordInstallFailed(failureReason(err))
		return nil, err
	}
	s.metrics.RecordInstallCompleted()
	return result, nil
}

func (s *InstallService) completeInstall(ctx context.Context, callbackURL *url.URL) (*InstallResult, error) {
	q := callbackURL.Query()
	code := q.Get("code")
	state := q.Get("state")
	shop, err := NormalizeShopDomain(q.Get("shop"))
	if err != nil {
		return nil, err
	}
	if code == "" || state == "" {
		return nil, domain.ErrInvalidInstallState
	}

	ok, err := s.client.VerifyCallback(callbackURL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidSignature
	}

	installState, err := s.states.Consume(ctx, state)
	if err != nil {
		return nil, err
	}
	if installState == nil || installState.Shop != shop || installState.Expired(s.clock.Now()) {
		return nil, domain.ErrInvalidInstallState
	}

	token, err := s.client.ExchangeToken(ctx, shop, code)
	if err != nil {
		return nil, err
	}

	created := false
	_, err = s.users.GetByDomain(ctx, shop)
	if errors.Is(err, domain.ErrShopUserNotFound) {
		if _, err = s.users.CreateUser(ctx, shop, nil, nil); err != nil {
			return nil, err
		}
		created = true
	} else if err != nil {
		return nil, err
	}

	user, err := s.users.UpdateToken(ctx, shop, token)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("shop", shop).
		Bool("created", created).
		Msg("OAuth install completed")

	return &InstallResult{User: user, ReturnURL: installState.ReturnURL, Created: created}, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidShopDomain):
		return "invalid_shop"
	case errors.Is(err, domain.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, domain.ErrInvalidInstallState):
		return "invalid_state"
	default:
		return "internal"
	}
}

func generateState() (string, error) {
	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(stateBytes), nil
}
