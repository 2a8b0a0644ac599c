package repository

import (
	"context"
	"errors"
	"fmt"

	"shopify-auth-layer/internal/domain"
	"shopify-auth-layer/internal/infrastructure/repository/entity"
	"shopify-auth-layer/internal/ports"

	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	shopUsersCollection = "shop_users"
	domainIndexName     = "myshopify_domain"
)

// TokenCipher encrypts tokens before they reach the collection
type TokenCipher interface {
	EncryptToken(token string) (string, error)
	DecryptToken(encryptedToken string) (string, error)
}

// MongoShopUserRepository implements ShopUserRepository using MongoDB
type MongoShopUserRepository struct {
	collection *mongo.Collection
	tokens     TokenCipher
	clock      clockwork.Clock
}

// NewMongoShopUserRepository creates a new MongoDB shop user repository
func NewMongoShopUserRepository(db *mongo.Database, tokens TokenCipher, clock clockwork.Clock) *MongoShopUserRepository {
	return &MongoShopUserRepository{
		collection: db.Collection(shopUsersCollection),
		tokens:     tokens,
		clock:      clock,
	}
}

var _ ports.ShopUserRepository = (*MongoShopUserRepository)(nil)

// EnsureIndexes creates the unique index on the myshopify domain.
// Uniqueness of shop users relies on it.
func (r *MongoShopUserRepository) EnsureIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "myshopifyDomain", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(domainIndexName),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create shop user index: %w", err)
	}
	return nil
}

// Create inserts a new shop user
func (r *MongoShopUserRepository) Create(ctx context.Context, user *domain.ShopUser) error {
	doc, err := r.toDoc(user)
	if err != nil {
		return err
	}
	doc.UpdatedAt = r.clock.Now()

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return translateWriteError(err, user.MyshopifyDomain, "failed to create shop user")
	}

	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = id.Hex()
	}
	return nil
}

// GetByDomain retrieves a shop user by its myshopify domain
func (r *MongoShopUserRepository) GetByDomain(ctx context.Context, myshopifyDomain string) (*domain.ShopUser, error) {
	var doc entity.MongoShopUserDoc
	filter := bson.M{"myshopifyDomain": myshopifyDomain}

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop user: %w", err)
	}

	return r.fromDoc(&doc)
}

// Update saves the mutable fields of a shop user. The domain is never rewritten.
func (r *MongoShopUserRepository) Update(ctx context.Context, user *domain.ShopUser) error {
	doc, err := r.toDoc(user)
	if err != nil {
		return err
	}

	update := bson.M{
		"$set": bson.M{
			"token":       doc.Token,
			"email":       doc.Email,
			"firstName":   doc.FirstName,
			"lastName":    doc.LastName,
			"password":    doc.Password,
			"isActive":    doc.IsActive,
			"isStaff":     doc.IsStaff,
			"isSuperuser": doc.IsSuperuser,
			"lastLogin":   doc.LastLogin,
			"updatedAt":   r.clock.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"myshopifyDomain": user.MyshopifyDomain}, update)
	if err != nil {
		return fmt.Errorf("failed to update shop user: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrShopUserNotFound
	}
	return nil
}

// Delete deletes a shop user by myshopify domain
func (r *MongoShopUserRepository) Delete(ctx context.Context, myshopifyDomain string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"myshopifyDomain": myshopifyDomain})
	if err != nil {
		return fmt.Errorf("failed to delete shop user: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrShopUserNotFound
	}
	return nil
}

func (r *MongoShopUserRepository) toDoc(user *domain.ShopUser) (*entity.MongoShopUserDoc, error) {
	doc := entity.MongoShopUserDocFromDomain(user)
	token, err := r.tokens.EncryptToken(user.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt token: %w", err)
	}
	doc.Token = token
	return doc, nil
}

func (r *MongoShopUserRepository) fromDoc(doc *entity.MongoShopUserDoc) (*domain.ShopUser, error) {
	user := doc.ToDomain()
	token, err := r.tokens.DecryptToken(doc.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt token for %s: %w", doc.MyshopifyDomain, err)
	}
	user.Token = token
	return user, nil
}

// translateWriteError maps duplicate key errors onto domain.ConstraintError
func translateWriteError(err error, myshopifyDomain, msg string) error {
	if mongo.IsDuplicateKeyError(err) {
		return &domain.ConstraintError{
			Constraint: domainIndexName,
			Value:      myshopifyDomain,
			Err:        err,
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
