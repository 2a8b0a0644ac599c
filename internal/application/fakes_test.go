package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"shopify-auth-layer/internal/domain"
	"shopify-auth-layer/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
)

// memoryShopUserRepository stores copies so that unsaved mutations are not visible
type memoryShopUserRepository struct {
	mu     sync.Mutex
	users  map[string]domain.ShopUser
	nextID int
	err    error
}

func newMemoryShopUserRepository() *memoryShopUserRepository {
	return &memoryShopUserRepository{users: map[string]domain.ShopUser{}}
}

func (r *memoryShopUserRepository) Create(ctx context.Context, user *domain.ShopUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, exists := r.users[user.MyshopifyDomain]; exists {
		return &domain.ConstraintError{
			Constraint: "myshopify_domain",
			Value:      user.MyshopifyDomain,
			Err:        errors.New("duplicate key"),
		}
	}
	r.nextID++
	user.ID = fmt.Sprintf("user-%d", r.nextID)
	r.users[user.MyshopifyDomain] = *user
	return nil
}

func (r *memoryShopUserRepository) GetByDomain(ctx context.Context, myshopifyDomain string) (*domain.ShopUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	user, ok := r.users[myshopifyDomain]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (r *memoryShopUserRepository) Update(ctx context.Context, user *domain.ShopUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.MyshopifyDomain]; !ok {
		return domain.ErrShopUserNotFound
	}
	r.users[user.MyshopifyDomain] = *user
	return nil
}

func (r *memoryShopUserRepository) Delete(ctx context.Context, myshopifyDomain string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[myshopifyDomain]; !ok {
		return domain.ErrShopUserNotFound
	}
	delete(r.users, myshopifyDomain)
	return nil
}

type memoryInstallStateRepository struct {
	states map[string]domain.InstallState
}

func newMemoryInstallStateRepository() *memoryInstallStateRepository {
	return &memoryInstallStateRepository{states: map[string]domain.InstallState{}}
}

func (r *memoryInstallStateRepository) Save(ctx context.Context, state *domain.InstallState) error {
	r.states[state.State] = *state
	return nil
}

func (r *memoryInstallStateRepository) Consume(ctx context.Context, state string) (*domain.InstallState, error) {
	s, ok := r.states[state]
	if !ok {
		return nil, nil
	}
	delete(r.states, state)
	return &s, nil
}

type fakeShopifyClient struct {
	token         string
	exchangeErr   error
	callbackValid bool
	exchanged     []string
}

func (c *fakeShopifyClient) GenerateAuthURL(shop string, scopes []string, redirectURI string, state string) (string, error) {
	q := url.Values{}
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	return "https://" + shop + "/admin/oauth/authorize?" + q.Encode(), nil
}

func (c *fakeShopifyClient) ExchangeToken(ctx context.Context, shop string, code string) (string, error) {
	c.exchanged = append(c.exchanged, code)
	if c.exchangeErr != nil {
		return "", c.exchangeErr
	}
	return c.token, nil
}

func (c *fakeShopifyClient) VerifyCallback(callbackURL *url.URL) (bool, error) {
	return c.callbackValid, nil
}

func (c *fakeShopifyClient) VerifyWebhook(r *http.Request) bool {
	return true
}

func (c *fakeShopifyClient) GetShop(ctx context.Context, session domain.Session) (*goshopify.Shop, error) {
	return &goshopify.Shop{MyshopifyDomain: session.Shop}, nil
}

type fakeValidator struct {
	valid    bool
	err      error
	sessions []domain.Session
}

func (v *fakeValidator) ValidateToken(ctx context.Context, client ports.ShopifyClient, session domain.Session) (bool, error) {
	v.sessions = append(v.sessions, session)
	return v.valid, v.err
}

type countingMetrics struct {
	created   int
	completed int
	failed    map[string]int
	webhooks  map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{failed: map[string]int{}, webhooks: map[string]int{}}
}

func (m *countingMetrics) RecordShopUserCreated()             { m.created++ }
func (m *countingMetrics) RecordInstallCompleted()            { m.completed++ }
func (m *countingMetrics) RecordInstallFailed(reason string)  { m.failed[reason]++ }
func (m *countingMetrics) RecordWebhookReceived(topic string) { m.webhooks[topic]++ }
