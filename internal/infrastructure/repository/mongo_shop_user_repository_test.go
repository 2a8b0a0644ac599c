package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"shopify-auth-layer/internal/domain"
	"shopify-auth-layer/internal/infrastructure/repository/entity"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

type prefixCipher struct{ fail bool }

func (c prefixCipher) EncryptToken(token string) (string, error) {
	if c.fail {
		return "", errors.New("boom")
	}
	return "enc:" + token, nil
}

func (c prefixCipher) DecryptToken(encrypted string) (string, error) {
	if c.fail {
		return "", errors.New("boom")
	}
	return encrypted[len("enc:"):], nil
}

func TestTranslateWriteError_DuplicateKey(t *testing.T) {
	writeErr := mongo.WriteException{
		WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}},
	}

	err := translateWriteError(writeErr, "acme.myshopify.com", "failed to create shop user")
	assert.ErrorIs(t, err, domain.ErrDuplicateDomain)

	var cErr *domain.ConstraintError
	require.True(t, errors.As(err, &cErr))
	assert.Equal(t, "acme.myshopify.com", cErr.Value)
	assert.Equal(t, domainIndexName, cErr.Constraint)
}

func TestTranslateWriteError_Other(t *testing.T) {
	err := translateWriteError(errors.New("connection reset"), "acme.myshopify.com", "failed to create shop user")
	assert.NotErrorIs(t, err, domain.ErrDuplicateDomain)
	assert.EqualError(t, err, "failed to create shop user: connection reset")
}

func TestMongoShopUserRepository_TokenEncryption(t *testing.T) {
	r := &MongoShopUserRepository{tokens: prefixCipher{}}
	user := &domain.ShopUser{MyshopifyDomain: "acme.myshopify.com", Token: domain.DefaultToken}

	doc, err := r.toDoc(user)
	require.NoError(t, err)
	assert.Equal(t, "enc:"+domain.DefaultToken, doc.Token)
	assert.Equal(t, domain.DefaultToken, user.Token)

	back, err := r.fromDoc(doc)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultToken, back.Token)
}

func TestMongoShopUserRepository_TokenEncryptionFailure(t *testing.T) {
	r := &MongoShopUserRepository{tokens: prefixCipher{fail: true}}

	_, err := r.toDoc(&domain.ShopUser{MyshopifyDomain: "acme.myshopify.com", Token: "x"})
	assert.Error(t, err)

	_, err = r.fromDoc(&entity.MongoShopUserDoc{MyshopifyDomain: "acme.myshopify.com", Token: "enc:x"})
	assert.Error(t, err)
}

func newMockRepo(mt *mtest.T) *MongoShopUserRepository {
	return NewMongoShopUserRepository(mt.DB, prefixCipher{}, clockwork.NewFakeClock())
}

func shopUsersNamespace(mt *mtest.T) string {
	return mt.DB.Name() + "." + shopUsersCollection
}

func TestMongoShopUserRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("fills the id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		user, err := domain.NewShopUser("acme.myshopify.com", time.Now())
		require.NoError(mt, err)

		require.NoError(mt, newMockRepo(mt).Create(context.Background(), user))
		_, err = primitive.ObjectIDFromHex(user.ID)
		assert.NoError(mt, err)
		assert.Equal(mt, domain.DefaultToken, user.Token)
	})

	mt.Run("duplicate domain", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: shop_users index: myshopify_domain",
		}))
		user, err := domain.NewShopUser("acme.myshopify.com", time.Now())
		require.NoError(mt, err)

		err = newMockRepo(mt).Create(context.Background(), user)
		assert.ErrorIs(mt, err, domain.ErrDuplicateDomain)
		var cErr *domain.ConstraintError
		require.True(mt, errors.As(err, &cErr))
		assert.Equal(mt, "acme.myshopify.com", cErr.Value)
		assert.True(mt, mongo.IsDuplicateKeyError(errors.Unwrap(err)))
		assert.Empty(mt, user.ID)
	})
}

func TestMongoShopUserRepository_GetByDomain(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		joined := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, shopUsersNamespace(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "myshopifyDomain", Value: "acme.myshopify.com"},
			{Key: "token", Value: "enc:shpat_abc"},
			{Key: "password", Value: "!unusable"},
			{Key: "isActive", Value: true},
			{Key: "dateJoined", Value: joined},
		}))

		user, err := newMockRepo(mt).GetByDomain(context.Background(), "acme.myshopify.com")
		require.NoError(mt, err)
		require.NotNil(mt, user)
		assert.Equal(mt, id.Hex(), user.ID)
		assert.Equal(mt, "acme.myshopify.com", user.MyshopifyDomain)
		assert.Equal(mt, "shpat_abc", user.Token)
		assert.True(mt, user.IsActive)
		assert.False(mt, user.HasUsablePassword())
		assert.True(mt, joined.Equal(user.DateJoined))
	})

	mt.Run("not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, shopUsersNamespace(mt), mtest.FirstBatch))

		user, err := newMockRepo(mt).GetByDomain(context.Background(), "missing.myshopify.com")
		assert.NoError(mt, err)
		assert.Nil(mt, user)
	})

	mt.Run("command error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad query"}))

		user, err := newMockRepo(mt).GetByDomain(context.Background(), "acme.myshopify.com")
		assert.Error(mt, err)
		assert.Nil(mt, user)
	})
}

func TestMongoShopUserRepository_Update(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	user := &domain.ShopUser{MyshopifyDomain: "acme.myshopify.com", Token: "shpat_abc", IsActive: true}

	mt.Run("matched", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		assert.NoError(mt, newMockRepo(mt).Update(context.Background(), user))
	})

	mt.Run("no match", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		err := newMockRepo(mt).Update(context.Background(), user)
		assert.ErrorIs(mt, err, domain.ErrShopUserNotFound)
	})
}

func TestMongoShopUserRepository_Delete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("deleted", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		assert.NoError(mt, newMockRepo(mt).Delete(context.Background(), "acme.myshopify.com"))
	})

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		err := newMockRepo(mt).Delete(context.Background(), "acme.myshopify.com")
		assert.ErrorIs(mt, err, domain.ErrShopUserNotFound)
	})
}

func TestMongoShopUserRepository_EnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("created", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		assert.NoError(mt, newMockRepo(mt).EnsureIndexes(context.Background()))
	})

	mt.Run("failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 85, Message: "index options conflict"}))
		assert.Error(mt, newMockRepo(mt).EnsureIndexes(context.Background()))
	})
}
