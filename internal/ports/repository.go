package ports

import (
	"context"

	"shopify-auth-layer/internal/domain"
)

// ShopUserRepository defines the interface for shop user persistence.
// Get methods return (nil, nil) when the record does not exist.
type ShopUserRepository interface {
	// Create inserts a new shop user and fills in its ID.
	// A duplicate myshopify domain yields a *domain.ConstraintError.
	Create(ctx context.Context, user *domain.ShopUser) error
	GetByDomain(ctx context.Context, myshopifyDomain string) (*domain.ShopUser, error)
	// Update saves the mutable fields of an existing shop user
	Update(ctx context.Context, user *domain.ShopUser) error
	Delete(ctx context.Context, myshopifyDomain string) error
}

// InstallStateRepository defines the interface for pending OAuth handshakes
type InstallStateRepository interface {
	Save(ctx context.Context, state *domain.InstallState) error
	// Consume returns the state and removes it in one step, so a state can
	// only be used once. Unknown states return (nil, nil).
	Consume(ctx context.Context, state string) (*domain.InstallState, error)
}

// EncryptionService encrypts secrets before they are stored
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// MetricsRecorder records application level metrics
type MetricsRecorder interface {
	RecordShopUserCreated()
	RecordInstallCompleted()
	RecordInstallFailed(reason string)
	RecordWebhookReceived(topic string)
}
