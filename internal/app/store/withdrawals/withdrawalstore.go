// internal/app/store/withdrawals/withdrawalstore.go
package withdrawalstore

import (
	"context"
	"time"

	"github.com/moimlabs/moim/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store persists the withdraw saga's operation log. Each withdrawal gets a
// uuid op id and a running record of completed steps. The saga has no
// rollback, so after a partial failure the log is what tells an operator
// (or a later retry) which steps already committed.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("withdrawals")}
}

// Begin opens a new saga log entry and returns its op id.
func (s *Store) Begin(ctx context.Context, userID primitive.ObjectID, phone string) (string, error) {
	opID := uuid.NewString()
	w := models.Withdrawal{
		OpID:      opID,
		UserID:    userID,
		Phone:     phone,
		Status:    models.WithdrawalStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, w); err != nil {
		return "", err
	}
	return opID, nil
}

// MarkStep appends a completed step to the log. Best effort: the saga does
// not stop for a log write failure.
func (s *Store) MarkStep(ctx context.Context, opID, step string) error {
	_, err := s.c.UpdateByID(ctx, opID, bson.M{
		"$addToSet": bson.M{"done_steps": step},
	})
	return err
}

// Finish closes the log entry with a terminal status. failedStep and cause
// are recorded for aborted/failed sagas; pass "" and nil on completion.
func (s *Store) Finish(ctx context.Context, opID, status, failedStep string, cause error) error {
	set := bson.M{
		"status":      status,
		"finished_at": time.Now().UTC(),
	}
	if failedStep != "" {
		set["failed_step"] = failedStep
	}
	if cause != nil {
		set["error"] = cause.Error()
	}
	_, err := s.c.UpdateByID(ctx, opID, bson.M{"$set": set})
	return err
}

// Get loads one saga log entry by op id.
func (s *Store) Get(ctx context.Context, opID string) (models.Withdrawal, error) {
	var w models.Withdrawal
	if err := s.c.FindOne(ctx, bson.M{"_id": opID}).Decode(&w); err != nil {
		return models.Withdrawal{}, err
	}
	return w, nil
}
