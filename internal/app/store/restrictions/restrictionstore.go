// internal/app/store/restrictions/restrictionstore.go
package restrictionstore

import (
	"context"
	"time"

	"github.com/moimlabs/moim/internal/app/system/normalize"
	"github.com/moimlabs/moim/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store keeps rejoin restrictions for withdrawn identities, keyed by phone
// number. Records are written once and never updated or deleted; the
// guard expires them by comparing timestamps.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("restricted_users")}
}

// Put records that phone withdrew at withdrawnAt. If a restriction already
// exists for the phone it is left untouched: the original withdrawal time
// stands, so a failed saga retried later cannot extend the ban.
func (s *Store) Put(ctx context.Context, phone string, withdrawnAt time.Time) error {
	r := models.RejoinRestriction{
		Phone:       normalize.Phone(phone),
		WithdrawnAt: withdrawnAt.UTC(),
	}
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return nil
		}
		return err
	}
	return nil
}

// Get returns the restriction for phone, or (nil, nil) when none exists.
func (s *Store) Get(ctx context.Context, phone string) (*models.RejoinRestriction, error) {
	var r models.RejoinRestriction
	err := s.c.FindOne(ctx, bson.M{"_id": normalize.Phone(phone)}).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
