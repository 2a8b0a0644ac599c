package application

import (
	"context"
	"errors"
	"fmt"

	"shopify-auth-layer/internal/domain"
	"shopify-auth-layer/internal/ports"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// ShopUserManager is the only construction path for shop users.
// It depends on ports (interfaces) not concrete implementations.
type ShopUserManager struct {
	repository ports.ShopUserRepository
	hasher     domain.PasswordHasher
	clock      clockwork.Clock
	metrics    ports.MetricsRecorder
	logger     zerolog.Logger
}

// NewShopUserManager creates a new shop user manager
func NewShopUserManager(
	repository ports.ShopUserRepository,
	hasher domain.PasswordHasher,
	clock clockwork.Clock,
	metrics ports.MetricsRecorder,
	logger zerolog.Logger,
) *ShopUserManager {
	return &ShopUserManager{
		repository: repository,
		hasher:     hasher,
		clock:      clock,
		metrics:    metrics,
		logger:     logger,
	}
}

// CreateUser creates and saves a shop user with the given domain.
// Without a password the account gets an unusable credential, since
// authentication is handled by Shopify OAuth. Duplicate domains are left to
// the repository's unique constraint.
func (m *ShopUserManager) CreateUser(ctx context.Context, myshopifyDomain string, password *string, email *string) (*domain.ShopUser, error) {
	user, err := domain.NewShopUser(myshopifyDomain, m.clock.Now())
	if err != nil {
		return nil, err
	}

	if password == nil {
		err = user.SetUnusablePassword()
	} else {
		err = user.SetPassword(m.hasher, *password)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set password: %w", err)
	}

	if email != nil {
		user.Email = *email
	}

	if err := m.repository.Create(ctx, user); err != nil {
		return nil, err
	}

	m.metrics.RecordShopUserCreated()
	m.logger.Info().
		Str("shop", user.MyshopifyDomain).
		Bool("usablePassword", user.HasUsablePassword()).
		Msg("Shop user created")

	return user, nil
}

// CreateSuperuser creates a shop user with a required password.
// No extra privilege flags are set.
func (m *ShopUserManager) CreateSuperuser(ctx context.Context, myshopifyDomain string, password string, email *string) (*domain.ShopUser, error) {
	return m.CreateUser(ctx, myshopifyDomain, &password, email)
}

// GetByDomain retrieves a shop user or returns domain.ErrShopUserNotFound
func (m *ShopUserManager) GetByDomain(ctx context.Context, myshopifyDomain string) (*domain.ShopUser, error) {
	user, err := m.repository.GetByDomain(ctx, myshopifyDomain)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrShopUserNotFound
	}
	return user, nil
}

// Authenticate checks a local password. Accounts provisioned through OAuth
// have an unusable credential and always fail here.
func (m *ShopUserManager) Authenticate(ctx context.Context, myshopifyDomain string, password string) (*domain.ShopUser, error) {
	user, err := m.GetByDomain(ctx, myshopifyDomain)
	if errors.Is(err, domain.ErrShopUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !user.IsActive || !user.CheckPassword(m.hasher, password) {
		m.logger.Warn().
			Str("shop", myshopifyDomain).
			Msg("Password authentication failed")
		return nil, domain.ErrInvalidCredentials
	}

	now := m.clock.Now()
	user.LastLogin = &now
	if err := m.repository.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	return user, nil
}

// UpdateToken stores the access token obtained from the OAuth exchange
func (m *ShopUserManager) UpdateToken(ctx context.Context, myshopifyDomain string, token string) (*domain.ShopUser, error) {
	if token == "" {
		return nil, &domain.ValidationError{Field: "token", Message: "token cannot be empty"}
	}

	user, err := m.GetByDomain(ctx, myshopifyDomain)
	if err != nil {
		return nil, err
	}

	user.Token = token
	if err := m.repository.Update(ctx, user); err != nil {
		return nil, err
	}

	m.logger.Info().
		Str("shop", myshopifyDomain).
		Msg("Shop user token updated")
	return user, nil
}

// Delete removes a shop user
func (m *ShopUserManager) Delete(ctx context.Context, myshopifyDomain string) error {
	if err := m.repository.Delete(ctx, myshopifyDomain); err != nil {
		return err
	}
	m.logger.Info().
		Str("shop", myshopifyDomain).
		Msg("Shop user deleted")
	return nil
}
