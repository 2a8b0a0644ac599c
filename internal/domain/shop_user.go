package domain

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// DefaultToken is the token of a shop user that has not completed OAuth yet.
// Downstream code compares against this literal, keep it as is.
const DefaultToken = "00000000000000000000000000000000"

// UnusablePasswordPrefix marks a password hash that never verifies
const UnusablePasswordPrefix = "!"

const unusablePasswordSuffixLength = 40

// PasswordHasher hashes and verifies local passwords
type PasswordHasher interface {
	Hash(raw string) (string, error)
	Verify(hash, raw string) bool
}

// Account is the capability a login-able account exposes: an identity field
// and a local credential. Host applications that need extra fields embed
// ShopUser in their own type and keep satisfying Account.
type Account interface {
	Identifier() string
	GetFullName() string
	GetShortName() string
	HasUsablePassword() bool
	CheckPassword(hasher PasswordHasher, raw string) bool
}

// ShopUser represents a store operator authenticated through Shopify OAuth.
// The myshopify domain is the sole identity of the account.
type ShopUser struct {
	ID              string     `json:"id"`
	MyshopifyDomain string     `json:"myshopify_domain"`
	Token           string     `json:"-"`
	Email           string     `json:"email,omitempty"`
	FirstName       string     `json:"first_name,omitempty"`
	LastName        string     `json:"last_name,omitempty"`
	PasswordHash    string     `json:"-"`
	IsActive        bool       `json:"is_active"`
	IsStaff         bool       `json:"is_staff"`
	IsSuperuser     bool       `json:"is_superuser"`
	DateJoined      time.Time  `json:"date_joined"`
	LastLogin       *time.Time `json:"last_login,omitempty"`
}

var _ Account = (*ShopUser)(nil)

// NewShopUser returns an unsaved shop user for the given domain with the
// default token. It fails when the domain is empty.
func NewShopUser(myshopifyDomain string, now time.Time) (*ShopUser, error) {
	if myshopifyDomain == "" {
		return nil, &ValidationError{Field: "myshopify_domain", Message: "missing required identifier"}
	}
	return &ShopUser{
		MyshopifyDomain: myshopifyDomain,
		Token:           DefaultToken,
		IsActive:        true,
		DateJoined:      now,
	}, nil
}

// Session builds the API session for this shop from the current token.
// Nothing is cached, every call reflects the record as it is now.
func (u *ShopUser) Session(cfg SessionConfig) Session {
	return NewSession(u.MyshopifyDomain, cfg.Version(), u.Token)
}

// IsAuthorized reports whether the token differs from DefaultToken
func (u *ShopUser) IsAuthorized() bool {
	return u.Token != "" && u.Token != DefaultToken
}

// Identifier returns the field used for authentication lookups
func (u *ShopUser) Identifier() string {
	return u.MyshopifyDomain
}

func (u *ShopUser) GetFullName() string {
	return u.MyshopifyDomain
}

func (u *ShopUser) GetShortName() string {
	return u.MyshopifyDomain
}

func (u *ShopUser) String() string {
	return u.GetFullName()
}

// SetPassword hashes raw and stores it as the credential
func (u *ShopUser) SetPassword(hasher PasswordHasher, raw string) error {
	hash, err := hasher.Hash(raw)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// SetUnusablePassword marks the credential so that password login always fails.
func (u *ShopUser) SetUnusablePassword() error {
	suffix := make([]byte, unusablePasswordSuffixLength/2)
	if _, err := rand.Read(suffix); err != nil {
		return err
	}
	u.PasswordHash = UnusablePasswordPrefix + hex.EncodeToString(suffix)
	return nil
}

func (u *ShopUser) HasUsablePassword() bool {
	return u.PasswordHash != "" && !strings.HasPrefix(u.PasswordHash, UnusablePasswordPrefix)
}

// CheckPassword verifies raw against the stored hash. Unusable credentials
// never match.
func (u *ShopUser) CheckPassword(hasher PasswordHasher, raw string) bool {
	if !u.HasUsablePassword() {
		return false
	}
	return hasher.Verify(u.PasswordHash, raw)
}
