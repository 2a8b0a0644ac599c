package shopify

import (
	"context"
	"fmt"
	"strings"

	"shopify-auth-layer/internal/domain"
	"shopify-auth-layer/internal/ports"

	"github.com/rs/zerolog"
)

// TokenManager encrypts shop tokens for storage and validates them against Shopify
type TokenManager struct {
	encryptionSvc ports.EncryptionService
	logger        zerolog.Logger
}

// NewTokenManager creates a new token manager
func NewTokenManager(encryptionSvc ports.EncryptionService, logger zerolog.Logger) *TokenManager {
	return &TokenManager{
		encryptionSvc: encryptionSvc,
		logger:        logger,
	}
}

// EncryptToken encrypts an access token before storage
func (tm *TokenManager) EncryptToken(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("token cannot be empty")
	}
	return tm.encryptionSvc.Encrypt(token)
}

// DecryptToken decrypts an access token after retrieval
func (tm *TokenManager) DecryptToken(encryptedToken string) (string, error) {
	if encryptedToken == "" {
		return "", fmt.Errorf("encrypted token cannot be empty")
	}
	return tm.encryptionSvc.Decrypt(encryptedToken)
}

// ValidateToken checks whether the session's token is still accepted by
// Shopify with a lightweight shop call. A session still carrying
// domain.DefaultToken is reported invalid without a network call.
func (tm *TokenManager) ValidateToken(ctx context.Context, client ports.ShopifyClient, session domain.Session) (bool, error) {
	if session.Shop == "" {
		return false, fmt.Errorf("shop domain is required for token validation")
	}
	if session.Token == "" || session.Token == domain.DefaultToken {
		return false, nil
	}

	_, err := client.GetShop(ctx, session)
	if err != nil {
		// go-shopify wraps HTTP errors, so the status is only in the message
		errStr := strings.ToLower(err.Error())
		if strings.Contains(errStr, "401") ||
			strings.Contains(errStr, "unauthorized") ||
			strings.Contains(errStr, "invalid api key or access token") ||
			strings.Contains(errStr, "forbidden") {
			tm.logger.Warn().
				Str("shop", session.Shop).
				Msg("Token validation failed: token is invalid or revoked")
			return false, nil
		}

		return false, fmt.Errorf("failed to validate token: %w", err)
	}

	tm.logger.Debug().
		Str("shop", session.Shop).
		Msg("Token validation successful")
	return true, nil
}
