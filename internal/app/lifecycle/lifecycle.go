// internal/app/lifecycle/lifecycle.go

// Package lifecycle orchestrates membership state changes: join, leave,
// kick, meeting deletion, and withdrawal. Each operation is a sequence of
// independently committed writes against the document store; there is no
// cross-document transaction, so the sequences are ordered to keep the
// participation ledger and the meeting counters convergent under partial
// failure.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moimlabs/moim/internal/app/system/identity"
	"github.com/moimlabs/moim/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	// ErrNotSubscribed refuses join for unsubscribed users. The HTTP layer
	// turns this into an upsell redirect, not a failure page.
	ErrNotSubscribed = errors.New("subscription required to join meetings")
	// ErrCertificationRequired refuses join for certified-only meetings.
	ErrCertificationRequired = errors.New("meeting is restricted to certified members")
	// ErrNotHost refuses kick/delete by anyone but the meeting's host.
	// This is the only authorization the operation gets: there is no
	// server-side enforcement below this layer, a documented trust
	// boundary of the design.
	ErrNotHost = errors.New("only the meeting host may do this")
)

// MeetingDirectory is the slice of the meetings store the lifecycle needs.
type MeetingDirectory interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Meeting, error)
	ListByHost(ctx context.Context, hostID primitive.ObjectID) ([]models.Meeting, error)
	ReserveSeat(ctx context.Context, id primitive.ObjectID) error
	ReleaseSeats(ctx context.Context, id primitive.ObjectID, n int) error
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// Ledger is the participation ledger surface the lifecycle drives.
type Ledger interface {
	Create(ctx context.Context, userID, meetingID primitive.ObjectID) (models.Participation, error)
	Exists(ctx context.Context, userID, meetingID primitive.ObjectID) (bool, error)
	DeletePair(ctx context.Context, userID, meetingID primitive.ObjectID) (int64, error)
	DeleteByMeeting(ctx context.Context, meetingID primitive.ObjectID) (int64, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Participation, error)
}

// UserDirectory is the users store surface the lifecycle needs.
type UserDirectory interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// IdentityDeleter deletes the authentication identity behind a user.
// identity.ErrRequiresRecentLogin aborts the saga without rollback.
type IdentityDeleter interface {
	Delete(ctx context.Context, userID primitive.ObjectID) error
}

// RestrictionWriter records the rejoin restriction at withdrawal.
type RestrictionWriter interface {
	Put(ctx context.Context, phone string, withdrawnAt time.Time) error
}

// SagaLog persists withdraw progress. All writes are best effort; a log
// failure never stops the saga itself.
type SagaLog interface {
	Begin(ctx context.Context, userID primitive.ObjectID, phone string) (string, error)
	MarkStep(ctx context.Context, opID, step string) error
	Finish(ctx context.Context, opID, status, failedStep string, cause error) error
}

// Service wires the stores together. Construct with New.
type Service struct {
	meetings     MeetingDirectory
	ledger       Ledger
	users        UserDirectory
	identities   IdentityDeleter
	restrictions RestrictionWriter
	saga         SagaLog
	log          *zap.Logger
}

func New(meetings MeetingDirectory, ledger Ledger, users UserDirectory, identities IdentityDeleter, restrictions RestrictionWriter, saga SagaLog, log *zap.Logger) *Service {
	return &Service{
		meetings:     meetings,
		ledger:       ledger,
		users:        users,
		identities:   identities,
		restrictions: restrictions,
		saga:         saga,
		log:          log,
	}
}

// Join admits userID into meetingID.
//
// The seat is reserved first with the store's conditional increment, then
// the participation is inserted; if the insert fails the seat is released.
// Reserving before inserting means a crash between the two writes leaves
// the counter high and the ledger short, which self-corrects on the next
// kick/withdraw pass, and it is what makes the capacity guard race-free:
// two users cannot both take the last seat, because the guard and the
// increment are one atomic document update.
//
// Join is idempotent: if the participation already exists, no write of any
// kind is performed.
func (s *Service) Join(ctx context.Context, userID, meetingID primitive.ObjectID) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !u.IsSubscribed {
		return ErrNotSubscribed
	}

	m, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return err
	}
	if m.IsCertifiedOnly && !u.IsCertified {
		return ErrCertificationRequired
	}

	joined, err := s.ledger.Exists(ctx, userID, meetingID)
	if err != nil {
		return err
	}
	if joined {
		return nil
	}

	if err := s.meetings.ReserveSeat(ctx, meetingID); err != nil {
		return err
	}

	if _, err := s.ledger.Create(ctx, userID, meetingID); err != nil {
		// Give the seat back; the duplicate case means a concurrent join
		// by the same user won the race, which still counts as joined.
		if relErr := s.meetings.ReleaseSeats(ctx, meetingID, 1); relErr != nil {
			s.log.Warn("seat release after failed join",
				zap.String("meeting_id", meetingID.Hex()),
				zap.Error(relErr))
		}
		if isDupParticipation(err) {
			return nil
		}
		return err
	}
	return nil
}

// Leave removes the caller's own participation: structurally a kick of
// [userID] without the host check.
func (s *Service) Leave(ctx context.Context, userID, meetingID primitive.ObjectID) error {
	return s.removeMembers(ctx, meetingID, []primitive.ObjectID{userID})
}

// Kick removes userIDs from the meeting. Host-only. The counter is
// decremented in one write, once per member who actually held a
// participation, regardless of how many ledger rows that member had.
func (s *Service) Kick(ctx context.Context, hostID, meetingID primitive.ObjectID, userIDs []primitive.ObjectID) error {
	m, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return err
	}
	if m.HostID != hostID {
		return ErrNotHost
	}
	return s.removeMembers(ctx, meetingID, userIDs)
}

func (s *Service) removeMembers(ctx context.Context, meetingID primitive.ObjectID, userIDs []primitive.ObjectID) error {
	if len(userIDs) == 0 {
		return nil
	}
	// Only members who actually held a participation free a seat. A leave
	// by someone who never joined (or a double-tapped leave) must not
	// drive the counter below the ledger count.
	removed := 0
	for _, uid := range userIDs {
		n, err := s.ledger.DeletePair(ctx, uid, meetingID)
		if err != nil {
			return err
		}
		if n > 0 {
			removed++
		}
	}
	if removed == 0 {
		return nil
	}
	return s.meetings.ReleaseSeats(ctx, meetingID, removed)
}

// DeleteMeeting tears a meeting down, host-only. Participations go first:
// a failure after the meeting document is gone would orphan ledger rows
// pointing at nothing, while the reverse order merely leaves a meeting
// with an empty roster, which a retry finishes off.
func (s *Service) DeleteMeeting(ctx context.Context, hostID, meetingID primitive.ObjectID) error {
	m, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return err
	}
	if m.HostID != hostID {
		return ErrNotHost
	}
	if _, err := s.ledger.DeleteByMeeting(ctx, meetingID); err != nil {
		return err
	}
	if _, err := s.meetings.Delete(ctx, meetingID); err != nil {
		return err
	}
	return nil
}

// Withdraw runs the account-removal saga:
//
//  1. record the rejoin restriction (before anything is deleted)
//  2. tear down every meeting the user hosts, participations first
//  3. leave every meeting hosted by others, decrementing live counters
//  4. delete the user document
//  5. delete the authentication identity
//
// Steps commit independently, in order, with no compensation: a failure
// at step 3 for meeting k leaves meetings 1..k-1 torn down and the rest
// intact. If the identity provider demands a fresh login at step 5, the
// saga aborts with identity.ErrRequiresRecentLogin and everything already
// deleted stays deleted; the caller signs the user out to re-authenticate.
// Progress is journaled to the saga log so partial completions are
// visible afterwards.
func (s *Service) Withdraw(ctx context.Context, userID primitive.ObjectID) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	opID, err := s.saga.Begin(ctx, userID, u.Phone)
	if err != nil {
		return err
	}

	if err := s.restrictions.Put(ctx, u.Phone, time.Now().UTC()); err != nil {
		return s.fail(ctx, opID, models.WithdrawalStepRestriction, err)
	}
	s.markStep(ctx, opID, models.WithdrawalStepRestriction)

	hosted, err := s.meetings.ListByHost(ctx, userID)
	if err != nil {
		return s.fail(ctx, opID, models.WithdrawalStepHostTeardown, err)
	}
	for _, m := range hosted {
		if _, err := s.ledger.DeleteByMeeting(ctx, m.ID); err != nil {
			return s.fail(ctx, opID, models.WithdrawalStepHostTeardown, err)
		}
		if _, err := s.meetings.Delete(ctx, m.ID); err != nil {
			return s.fail(ctx, opID, models.WithdrawalStepHostTeardown, err)
		}
	}
	s.markStep(ctx, opID, models.WithdrawalStepHostTeardown)

	parts, err := s.ledger.ListByUser(ctx, userID)
	if err != nil {
		return s.fail(ctx, opID, models.WithdrawalStepLeaveOthers, err)
	}
	for _, p := range parts {
		// The meeting may already be gone (deleted host meeting above, or
		// deleted concurrently); only live counters get decremented.
		_, err := s.meetings.GetByID(ctx, p.MeetingID)
		switch {
		case err == nil:
			if err := s.meetings.ReleaseSeats(ctx, p.MeetingID, 1); err != nil {
				return s.fail(ctx, opID, models.WithdrawalStepLeaveOthers, err)
			}
		case isMeetingGone(err):
			// nothing to decrement
		default:
			return s.fail(ctx, opID, models.WithdrawalStepLeaveOthers, err)
		}
		if _, err := s.ledger.DeletePair(ctx, userID, p.MeetingID); err != nil {
			return s.fail(ctx, opID, models.WithdrawalStepLeaveOthers, err)
		}
	}
	s.markStep(ctx, opID, models.WithdrawalStepLeaveOthers)

	if _, err := s.users.Delete(ctx, userID); err != nil {
		return s.fail(ctx, opID, models.WithdrawalStepDeleteUser, err)
	}
	s.markStep(ctx, opID, models.WithdrawalStepDeleteUser)

	if err := s.identities.Delete(ctx, userID); err != nil {
		if errors.Is(err, identity.ErrRequiresRecentLogin) {
			if logErr := s.saga.Finish(ctx, opID, models.WithdrawalStatusAborted, models.WithdrawalStepIdentity, err); logErr != nil {
				s.log.Warn("saga log finish", zap.String("op_id", opID), zap.Error(logErr))
			}
			return err
		}
		return s.fail(ctx, opID, models.WithdrawalStepIdentity, err)
	}
	s.markStep(ctx, opID, models.WithdrawalStepIdentity)

	if err := s.saga.Finish(ctx, opID, models.WithdrawalStatusCompleted, "", nil); err != nil {
		s.log.Warn("saga log finish", zap.String("op_id", opID), zap.Error(err))
	}
	return nil
}

func (s *Service) markStep(ctx context.Context, opID, step string) {
	if err := s.saga.MarkStep(ctx, opID, step); err != nil {
		s.log.Warn("saga log step", zap.String("op_id", opID), zap.String("step", step), zap.Error(err))
	}
}

func (s *Service) fail(ctx context.Context, opID, step string, cause error) error {
	if err := s.saga.Finish(ctx, opID, models.WithdrawalStatusFailed, step, cause); err != nil {
		s.log.Warn("saga log finish", zap.String("op_id", opID), zap.Error(err))
	}
	return fmt.Errorf("withdraw %s: %w", step, cause)
}
