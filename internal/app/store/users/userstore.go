// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/moimlabs/moim/internal/app/system/normalize"
	"github.com/moimlabs/moim/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicatePhone is returned when a user with this phone already exists.
	ErrDuplicatePhone = errors.New("a user with this phone number already exists")
	// ErrSelfBlock is returned when a user tries to block themselves.
	ErrSelfBlock = errors.New("cannot block yourself")
)

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByPhone looks up a user by normalized phone number.
func (s *Store) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"phone": normalize.Phone(phone)}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing fields. New accounts start
// unsubscribed, uncertified, and with an empty block set.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Nickname = normalize.Name(u.Nickname)
	u.NicknameCI = text.Fold(u.Nickname)
	u.Phone = normalize.Phone(u.Phone)
	u.IsSubscribed = false
	u.IsCertified = false
	u.BlockedUserIDs = nil

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicatePhone
		}
		return models.User{}, err
	}
	return u, nil
}

// ProfileUpdate holds the member-editable profile fields.
type ProfileUpdate struct {
	Nickname  string
	Bio       string
	Location  string
	Interests []string
}

func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	set := bson.M{
		"bio":        upd.Bio,
		"updated_at": time.Now().UTC(),
	}
	if name := normalize.Name(upd.Nickname); name != "" {
		set["nickname"] = name
		set["nickname_ci"] = text.Fold(name)
	}
	if upd.Location != "" {
		set["location"] = upd.Location
	}
	if upd.Interests != nil {
		set["interests"] = upd.Interests
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetSubscribed flips the subscription flag. The payment flow itself is an
// external collaborator; this only records its confirmation.
func (s *Store) SetSubscribed(ctx context.Context, id primitive.ObjectID, subscribed bool) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"is_subscribed": subscribed,
		"updated_at":    time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetCertified records the external certification collaborator's verdict.
func (s *Store) SetCertified(ctx context.Context, id primitive.ObjectID, certified bool) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"is_certified": certified,
		"updated_at":   time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Block adds targetID to the user's block set. $addToSet makes repeat
// blocks no-ops, so the operation is idempotent. Blocking touches only
// this one field: no meeting, participation, or message is deleted, which
// is what lets Unblock restore visibility instantly.
func (s *Store) Block(ctx context.Context, userID, targetID primitive.ObjectID) error {
	if userID == targetID {
		return ErrSelfBlock
	}
	res, err := s.c.UpdateByID(ctx, userID, bson.M{
		"$addToSet": bson.M{"blocked_user_ids": targetID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Unblock removes targetID from the user's block set. Idempotent.
func (s *Store) Unblock(ctx context.Context, userID, targetID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, userID, bson.M{
		"$pull": bson.M{"blocked_user_ids": targetID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListBlockers returns the ids of every user who has targetID in their
// block set. The chat fan-out uses it to keep pushed messages consistent
// with the block-filtered history reads.
func (s *Store) ListBlockers(ctx context.Context, targetID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := s.c.Find(ctx, bson.M{"blocked_user_ids": targetID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// Delete removes the user document. Returns the number of documents
// deleted (0 or 1). Called by the withdraw saga after meeting and
// participation teardown.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// GetMany loads the users for the given ids, in no particular order.
// Used to resolve roster entries for display.
func (s *Store) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
