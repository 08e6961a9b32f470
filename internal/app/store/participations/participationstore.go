// internal/app/store/participations/participationstore.go
package participationstore

import (
	"context"
	"errors"
	"time"

	"github.com/moimlabs/moim/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store is the participation ledger: one document per (user, meeting)
// pair, the source of truth for who is in what. The unique index on
// (user_id, meeting_id) backs the at-most-one invariant; the meeting's
// current_participants counter is derived and maintained elsewhere.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("participations")}
}

var ErrAlreadyJoined = errors.New("user already participates in this meeting")

// Create inserts the join record for (userID, meetingID).
func (s *Store) Create(ctx context.Context, userID, meetingID primitive.ObjectID) (models.Participation, error) {
	p := models.Participation{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		MeetingID: meetingID,
		JoinedAt:  time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Participation{}, ErrAlreadyJoined
		}
		return models.Participation{}, err
	}
	return p, nil
}

// Exists checks whether a participation exists for the given user and meeting.
func (s *Store) Exists(ctx context.Context, userID, meetingID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"user_id": userID, "meeting_id": meetingID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeletePair removes every participation matching (userID, meetingID).
// Plural on purpose: should the unique index ever be rebuilt around
// duplicates, all rows for the pair go at once. Returns documents deleted.
func (s *Store) DeletePair(ctx context.Context, userID, meetingID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID, "meeting_id": meetingID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByMeeting removes all participations for a meeting.
// Returns the number of documents deleted.
func (s *Store) DeleteByMeeting(ctx context.Context, meetingID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"meeting_id": meetingID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByUser removes all participations held by a user.
// Returns the number of documents deleted.
func (s *Store) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByUser returns all participations a user holds. Drives the joined
// meeting list and the unread tracker's subscription set.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Participation, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var parts []models.Participation
	if err := cur.All(ctx, &parts); err != nil {
		return nil, err
	}
	return parts, nil
}

// ListByMeeting returns all participations for a meeting. Drives the
// roster display and the host's kick list.
func (s *Store) ListByMeeting(ctx context.Context, meetingID primitive.ObjectID) ([]models.Participation, error) {
	cur, err := s.c.Find(ctx, bson.M{"meeting_id": meetingID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var parts []models.Participation
	if err := cur.All(ctx, &parts); err != nil {
		return nil, err
	}
	return parts, nil
}

// CountByMeeting returns the ledger-actual participant count for a
// meeting. Quiescence checks compare this against the meeting's counter.
func (s *Store) CountByMeeting(ctx context.Context, meetingID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"meeting_id": meetingID})
}
