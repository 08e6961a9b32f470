// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.

The unique index on participations (user_id, meeting_id) is load-bearing:
it is what turns the ledger's uniqueness-by-convention into a store-level
guarantee, so a racing double-join degrades into a duplicate-key error
instead of a second row.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureMeetings(ctx, db); err != nil {
		problems = append(problems, "meetings: "+err.Error())
	}
	if err := ensureParticipations(ctx, db); err != nil {
		problems = append(problems, "participations: "+err.Error())
	}
	if err := ensureMessages(ctx, db); err != nil {
		problems = append(problems, "messages: "+err.Error())
	}
	if err := ensureIdentities(ctx, db); err != nil {
		problems = append(problems, "identities: "+err.Error())
	}
	if err := ensureWithdrawals(ctx, db); err != nil {
		problems = append(problems, "withdrawals: "+err.Error())
	}
	// restricted_users is keyed by phone (_id), no extra index needed.

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	logger.Info("database indexes ensured")
	return nil
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return create(ctx, db, "users", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetName("uniq_phone").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "nickname_ci", Value: 1}},
			Options: options.Index().SetName("nickname_ci"),
		},
	})
}

func ensureMeetings(ctx context.Context, db *mongo.Database) error {
	return create(ctx, db, "meetings", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "host_id", Value: 1}},
			Options: options.Index().SetName("host_id"),
		},
		{
			Keys:    bson.D{{Key: "scheduled_at", Value: 1}},
			Options: options.Index().SetName("scheduled_at"),
		},
	})
}

func ensureParticipations(ctx context.Context, db *mongo.Database) error {
	return create(ctx, db, "participations", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "meeting_id", Value: 1}},
			Options: options.Index().SetName("uniq_user_meeting").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "meeting_id", Value: 1}},
			Options: options.Index().SetName("meeting_id"),
		},
	})
}

func ensureMessages(ctx context.Context, db *mongo.Database) error {
	return create(ctx, db, "messages", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "meeting_id", Value: 1}, {Key: "sent_at", Value: -1}},
			Options: options.Index().SetName("meeting_recency"),
		},
	})
}

func ensureIdentities(ctx context.Context, db *mongo.Database) error {
	return create(ctx, db, "identities", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("uniq_user").SetUnique(true),
		},
	})
}

func ensureWithdrawals(ctx context.Context, db *mongo.Database) error {
	return create(ctx, db, "withdrawals", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("user_id"),
		},
	})
}

func create(ctx context.Context, db *mongo.Database, coll string, models []mongo.IndexModel) error {
	_, err := db.Collection(coll).Indexes().CreateMany(ctx, models)
	if err != nil && isOptionsConflictErr(err) {
		// Same keys under a different name (or differing options) from an
		// earlier deploy; leave the existing index alone.
		return nil
	}
	return err
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}
