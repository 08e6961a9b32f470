// internal/app/store/meetings/meetingstore.go
package meetingstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/moimlabs/moim/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("meetings")}
}

var (
	ErrMeetingNotFound = errors.New("meeting not found")
	// ErrCapacityFull is returned by ReserveSeat when the conditional
	// increment matched no document because the meeting is already full.
	ErrCapacityFull = errors.New("meeting is at capacity")

	errBadCapacity = errors.New("capacity must be greater than zero")
)

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Meeting, error) {
	var m models.Meeting
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Meeting{}, ErrMeetingNotFound
		}
		return models.Meeting{}, err
	}
	return m, nil
}

func (s *Store) Create(ctx context.Context, m models.Meeting) (models.Meeting, error) {
	if m.Capacity <= 0 {
		return models.Meeting{}, errBadCapacity
	}
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.TitleCI = text.Fold(m.Title)
	m.CurrentParticipants = 0
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Meeting{}, err
	}
	return m, nil
}

// MeetingUpdate carries the host-editable fields. Zero-value strings mean
// "leave unchanged" except Description, which can be cleared.
type MeetingUpdate struct {
	Title       string
	Category    string
	Location    string
	Description string
	MoodTags    []string
	ScheduledAt time.Time
	Capacity    int
}

func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, upd MeetingUpdate) error {
	set := bson.M{
		"updated_at":  time.Now().UTC(),
		"description": upd.Description,
	}
	if strings.TrimSpace(upd.Title) != "" {
		set["title"] = upd.Title
		set["title_ci"] = text.Fold(upd.Title)
	}
	if upd.Category != "" {
		set["category"] = upd.Category
	}
	if upd.Location != "" {
		set["location"] = upd.Location
	}
	if upd.MoodTags != nil {
		set["mood_tags"] = upd.MoodTags
	}
	if !upd.ScheduledAt.IsZero() {
		set["scheduled_at"] = upd.ScheduledAt
	}
	if upd.Capacity > 0 {
		set["capacity"] = upd.Capacity
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrMeetingNotFound
	}
	return nil
}

// ReserveSeat admits one participant with a single conditional increment:
// the filter only matches while current_participants < capacity, so two
// racers cannot both take the last seat. Callers that fail a later step
// must give the seat back with ReleaseSeats(ctx, id, 1).
func (s *Store) ReserveSeat(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "$expr": bson.M{"$lt": bson.A{"$current_participants", "$capacity"}}},
		bson.M{"$inc": bson.M{"current_participants": 1}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	// Filter missed: either the meeting is gone or it is full.
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrMeetingNotFound
		}
		return err
	}
	return ErrCapacityFull
}

// ReleaseSeats decrements current_participants by n in one counter write,
// clamped at zero. A single write per batch keeps the counter-write count
// independent of how many users are removed, and the clamp keeps a drifted
// ledger from driving the counter negative.
func (s *Store) ReleaseSeats(ctx context.Context, id primitive.ObjectID, n int) error {
	if n <= 0 {
		return nil
	}
	res, err := s.c.UpdateByID(ctx, id, mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"current_participants": bson.M{
				"$max": bson.A{0, bson.M{"$subtract": bson.A{"$current_participants", n}}},
			},
		}}},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrMeetingNotFound
	}
	return nil
}

// Delete removes a meeting by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListAll returns every meeting, soonest schedule first. The service layer
// applies the viewer's block filter; the store never does.
func (s *Store) ListAll(ctx context.Context) ([]models.Meeting, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var meetings []models.Meeting
	if err := cur.All(ctx, &meetings); err != nil {
		return nil, err
	}
	return meetings, nil
}

// ListByHost returns all meetings hosted by userID. Drives withdraw's
// host-meeting teardown.
func (s *Store) ListByHost(ctx context.Context, hostID primitive.ObjectID) ([]models.Meeting, error) {
	cur, err := s.c.Find(ctx, bson.M{"host_id": hostID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var meetings []models.Meeting
	if err := cur.All(ctx, &meetings); err != nil {
		return nil, err
	}
	return meetings, nil
}

// GetMany loads the meetings for the given ids, in no particular order.
func (s *Store) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.Meeting, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var meetings []models.Meeting
	if err := cur.All(ctx, &meetings); err != nil {
		return nil, err
	}
	return meetings, nil
}
