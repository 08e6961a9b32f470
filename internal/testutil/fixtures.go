// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/moimlabs/moim/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a subscribed member with the given nickname.
func (f *Fixtures) CreateUser(ctx context.Context, nickname, phone string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Nickname:     nickname,
		NicknameCI:   text.Fold(nickname),
		Phone:        phone,
		IsSubscribed: true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateMeeting inserts a meeting hosted by host with the given capacity.
func (f *Fixtures) CreateMeeting(ctx context.Context, host models.User, title string, capacity int) models.Meeting {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.Meeting{
		ID:          primitive.NewObjectID(),
		Title:       title,
		TitleCI:     text.Fold(title),
		HostID:      host.ID,
		HostName:    host.Nickname,
		Capacity:    capacity,
		ScheduledAt: now.Add(24 * time.Hour),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("meetings").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test meeting: %v", err)
	}
	return m
}

// CreateParticipation inserts a ledger row for (user, meeting).
func (f *Fixtures) CreateParticipation(ctx context.Context, userID, meetingID primitive.ObjectID) models.Participation {
	f.t.Helper()

	p := models.Participation{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		MeetingID: meetingID,
		JoinedAt:  time.Now().UTC(),
	}
	if _, err := f.db.Collection("participations").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test participation: %v", err)
	}
	return p
}

// CreateMessage inserts a chat message in the meeting.
func (f *Fixtures) CreateMessage(ctx context.Context, meetingID primitive.ObjectID, sender models.User, textBody string) models.ChatMessage {
	f.t.Helper()

	msg := models.ChatMessage{
		ID:         primitive.NewObjectID(),
		MeetingID:  meetingID,
		SenderID:   sender.ID,
		SenderName: sender.Nickname,
		Text:       textBody,
		SentAt:     time.Now().UTC(),
	}
	if _, err := f.db.Collection("messages").InsertOne(ctx, msg); err != nil {
		f.t.Fatalf("failed to create test message: %v", err)
	}
	return msg
}

// CreateRestriction inserts a rejoin restriction for the phone.
func (f *Fixtures) CreateRestriction(ctx context.Context, phone string, withdrawnAt time.Time) models.RejoinRestriction {
	f.t.Helper()

	rest := models.RejoinRestriction{Phone: phone, WithdrawnAt: withdrawnAt}
	if _, err := f.db.Collection("restricted_users").InsertOne(ctx, rest); err != nil {
		f.t.Fatalf("failed to create test restriction: %v", err)
	}
	return rest
}
