// internal/app/store/messages/messagestore.go
package messagestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/moimlabs/moim/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store holds a meeting chat's messages. The collection is append-only:
// messages are never updated or deleted here. Visibility of a blocked
// sender's messages is a read-time concern handled by the caller.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("messages")}
}

var errEmptyText = errors.New("message text is empty")

// Append stores one chat message. Text is expected to be sanitized by the
// caller before it gets here.
func (s *Store) Append(ctx context.Context, meetingID, senderID primitive.ObjectID, senderName, text string) (models.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return models.ChatMessage{}, errEmptyText
	}
	msg := models.ChatMessage{
		ID:         primitive.NewObjectID(),
		MeetingID:  meetingID,
		SenderID:   senderID,
		SenderName: senderName,
		Text:       text,
		SentAt:     time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, msg); err != nil {
		return models.ChatMessage{}, err
	}
	return msg, nil
}

// ListByMeeting returns the newest limit messages for a meeting, in send
// order. limit <= 0 means the full history. The query walks the history
// newest-first so the limit trims the oldest messages, then the slice is
// reversed for display.
func (s *Store) ListByMeeting(ctx context.Context, meetingID primitive.ObjectID, limit int64) ([]models.ChatMessage, error) {
	// _id breaks sent_at ties; ObjectIDs carry insertion order.
	opts := options.Find().SetSort(bson.D{{Key: "sent_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{"meeting_id": meetingID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var msgs []models.ChatMessage
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Latest returns the newest message for a meeting, or mongo.ErrNoDocuments
// if the chat is empty.
func (s *Store) Latest(ctx context.Context, meetingID primitive.ObjectID) (models.ChatMessage, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "sent_at", Value: -1}})
	var msg models.ChatMessage
	if err := s.c.FindOne(ctx, bson.M{"meeting_id": meetingID}, opts).Decode(&msg); err != nil {
		return models.ChatMessage{}, err
	}
	return msg, nil
}

// DeleteByMeeting is intentionally absent: chat history is append-only and
// survives meeting deletion so the service never races message writers.
// Orphaned history is invisible because reads are keyed by joined meetings.

// Subscribe tails new messages for one meeting via a change stream,
// starting from "now" rather than replaying history. The returned channel
// closes when ctx is cancelled, when stop is called, or when the stream
// breaks; a consumer that still cares simply resubscribes.
func (s *Store) Subscribe(ctx context.Context, meetingID primitive.ObjectID) (<-chan models.ChatMessage, func(), error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"operationType":           "insert",
			"fullDocument.meeting_id": meetingID,
		}}},
	}
	stream, err := s.c.Watch(ctx, pipeline)
	if err != nil {
		return nil, nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	out := make(chan models.ChatMessage, 16)

	go func() {
		defer close(out)
		defer stream.Close(context.Background())
		for stream.Next(streamCtx) {
			var ev struct {
				FullDocument models.ChatMessage `bson:"fullDocument"`
			}
			if err := stream.Decode(&ev); err != nil {
				return
			}
			select {
			case out <- ev.FullDocument:
			case <-streamCtx.Done():
				return
			}
		}
	}()

	return out, cancel, nil
}
