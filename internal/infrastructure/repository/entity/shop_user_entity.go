package entity

import (
	"time"

	"shopify-auth-layer/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoShopUserDoc represents a shop user in MongoDB.
// Token holds the encrypted access token.
type MongoShopUserDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	MyshopifyDomain string             `bson:"myshopifyDomain"`
	Token           string             `bson:"token"`
	Email           string             `bson:"email,omitempty"`
	FirstName       string             `bson:"firstName,omitempty"`
	LastName        string             `bson:"lastName,omitempty"`
	Password        string             `bson:"password"`
	IsActive        bool               `bson:"isActive"`
	IsStaff         bool               `bson:"isStaff"`
	IsSuperuser     bool               `bson:"isSuperuser"`
	DateJoined      time.Time          `bson:"dateJoined"`
	LastLogin       *time.Time         `bson:"lastLogin,omitempty"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
// The token is copied as stored; decryption happens in the repository.
func (d *MongoShopUserDoc) ToDomain() *domain.ShopUser {
	return &domain.ShopUser{
		ID:              d.ID.Hex(),
		MyshopifyDomain: d.MyshopifyDomain,
		Token:           d.Token,
		Email:           d.Email,
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		PasswordHash:    d.Password,
		IsActive:        d.IsActive,
		IsStaff:         d.IsStaff,
		IsSuperuser:     d.IsSuperuser,
		DateJoined:      d.DateJoined,
		LastLogin:       d.LastLogin,
	}
}

// MongoShopUserDocFromDomain converts a domain entity to a MongoDB document
func MongoShopUserDocFromDomain(user *domain.ShopUser) *MongoShopUserDoc {
	doc := &MongoShopUserDoc{
		MyshopifyDomain: user.MyshopifyDomain,
		Token:           user.Token,
		Email:           user.Email,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		Password:        user.PasswordHash,
		IsActive:        user.IsActive,
		IsStaff:         user.IsStaff,
		IsSuperuser:     user.IsSuperuser,
		DateJoined:      user.DateJoined,
		LastLogin:       user.LastLogin,
	}

	if user.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(user.ID); err == nil {
			doc.ID = objID
		}
	}

	return doc
}
