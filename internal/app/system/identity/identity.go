// internal/app/system/identity/identity.go

// Package identity manages the authentication records behind user
// accounts: phone-keyed credentials with bcrypt password hashes. It plays
// the role of the identity provider in the withdraw saga, including the
// provider's demand for a recent login before an identity may be deleted.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/moimlabs/moim/internal/app/system/normalize"
	"github.com/moimlabs/moim/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// RecentLoginWindow is how fresh the last login must be for identity
// deletion. Past it, Delete returns ErrRequiresRecentLogin and the caller
// must re-authenticate, mirroring hosted identity providers.
const RecentLoginWindow = 5 * time.Minute

var (
	ErrIdentityNotFound = errors.New("identity not found")
	ErrPhoneTaken       = errors.New("an identity already exists for this phone number")
	ErrBadCredentials   = errors.New("phone or password is incorrect")
	// ErrRequiresRecentLogin aborts identity deletion when the last login
	// is too old. It is recoverable: sign in again, then retry.
	ErrRequiresRecentLogin = errors.New("identity deletion requires a recent login")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("identities")}
}

// Register creates the credential record for a new account.
func (s *Store) Register(ctx context.Context, phone, password string, userID primitive.ObjectID) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	ident := models.Identity{
		Phone:        normalize.Phone(phone),
		UserID:       userID,
		PasswordHash: hash,
		CreatedAt:    now,
		LastLoginAt:  now,
	}
	if _, err := s.c.InsertOne(ctx, ident); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrPhoneTaken
		}
		return err
	}
	return nil
}

// Authenticate verifies phone+password and refreshes last_login_at.
// Lookup misses and password mismatches both come back as
// ErrBadCredentials so callers cannot probe which phones exist.
func (s *Store) Authenticate(ctx context.Context, phone, password string) (*models.Identity, error) {
	var ident models.Identity
	err := s.c.FindOne(ctx, bson.M{"_id": normalize.Phone(phone)}).Decode(&ident)
	if err == mongo.ErrNoDocuments {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword(ident.PasswordHash, []byte(password)) != nil {
		return nil, ErrBadCredentials
	}

	now := time.Now().UTC()
	if _, err := s.c.UpdateByID(ctx, ident.Phone, bson.M{"$set": bson.M{"last_login_at": now}}); err != nil {
		return nil, err
	}
	ident.LastLoginAt = now
	return &ident, nil
}

// GetByUser loads the identity backing a user account.
func (s *Store) GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Identity, error) {
	var ident models.Identity
	err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&ident)
	if err == mongo.ErrNoDocuments {
		return nil, ErrIdentityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ident, nil
}

// Delete removes the identity for userID, refusing with
// ErrRequiresRecentLogin when the last login is older than
// RecentLoginWindow. The withdraw saga treats that refusal as a
// documented abort: earlier steps stay committed.
func (s *Store) Delete(ctx context.Context, userID primitive.ObjectID) error {
	ident, err := s.GetByUser(ctx, userID)
	if err != nil {
		return err
	}
	if time.Since(ident.LastLoginAt) > RecentLoginWindow {
		return ErrRequiresRecentLogin
	}
	_, err = s.c.DeleteOne(ctx, bson.M{"_id": ident.Phone})
	return err
}
