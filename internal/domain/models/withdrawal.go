// internal/domain/models/withdrawal.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Withdrawal saga steps, in execution order. Each step is individually
// committed; there is no rollback. The log records how far a withdrawal
// got so a partial completion is visible after the fact.
const (
	WithdrawalStepRestriction  = "rejoin_restriction"
	WithdrawalStepHostTeardown = "host_meetings"
	WithdrawalStepLeaveOthers  = "leave_joined_meetings"
	WithdrawalStepDeleteUser   = "delete_user"
	WithdrawalStepIdentity     = "delete_identity"
)

// Withdrawal statuses.
const (
	WithdrawalStatusRunning   = "running"
	WithdrawalStatusCompleted = "completed"
	// WithdrawalStatusAborted means the identity provider demanded a fresh
	// login; steps already done stay done, the user re-authenticates and
	// retries.
	WithdrawalStatusAborted = "aborted"
	WithdrawalStatusFailed  = "failed"
)

// Withdrawal is the persisted operation log for one withdraw saga.
type Withdrawal struct {
	OpID       string             `bson:"_id" json:"op_id"` // uuid
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Status     string             `bson:"status" json:"status"`
	DoneSteps  []string           `bson:"done_steps,omitempty" json:"done_steps,omitempty"`
	FailedStep string             `bson:"failed_step,omitempty" json:"failed_step,omitempty"`
	Error      string             `bson:"error,omitempty" json:"error,omitempty"`
	StartedAt  time.Time          `bson:"started_at" json:"started_at"`
	FinishedAt time.Time          `bson:"finished_at,omitempty" json:"finished_at,omitempty"`
}
