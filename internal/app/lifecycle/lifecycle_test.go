package lifecycle_test

import (
	"context"
	"errors"
	"testing"

	"github.com/moimlabs/moim/internal/app/lifecycle"
	meetingstore "github.com/moimlabs/moim/internal/app/store/meetings"
	"github.com/moimlabs/moim/internal/app/system/identity"
	"github.com/moimlabs/moim/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestJoin_Idempotent(t *testing.T) {
	fs := newFakeStore()
	svc := newService(fs)
	ctx := context.Background()

	host := fs.addUser(true)
	user := fs.addUser(true)
	meeting := fs.addMeeting(host, 4, 0)

	if err := svc.Join(ctx, user, meeting); err != nil {
		t.Fatalf("first join: %v", err)
	}
	if err := svc.Join(ctx, user, meeting); err != nil {
		t.Fatalf("second join: %v", err)
	}

	if n := fs.ledgerCount(meeting); n != 1 {
		t.Errorf("participations = %d, want 1", n)
	}
	if c := fs.counter(meeting); c != 1 {
		t.Errorf("counter = %d, want 1", c)
	}
}

func TestJoin_CapacityFullLeavesNoTrace(t *testing.T) {
	fs := newFakeStore()
	svc := newService(fs)
	ctx := context.Background()

	host := fs.addUser(true)
	user := fs.addUser(true)
	meeting := fs.addMeeting(host, 2, 2)

	err := svc.Join(ctx, user, meeting)
	if !errors.Is(err, meetingstore.ErrCapacityFull) {
		t.Fatalf("join = %v, want ErrCapacityFull", err)
	}
	if n := fs.ledgerCount(meeting); n != 0 {
		t.Errorf("participations = %d, want 0", n)
	}
	if c := fs.counter(meeting); c != 2 {
		t.Errorf("counter = %d, want unchanged 2", c)
	}
}

func TestJoin_RequiresSubscription(t *testing.T) {
	fs := newFakeStore()
	svc := newService(fs)
	ctx := context.Background()

	host := fs.addUser(true)
	user := fs.addUser(false)
	meeting := fs.addMeeting(host, 4, 0)

	if err := svc.Join(ctx, user, meeting); !errors.Is(err, lifecycle.ErrNotSubscribed) {
		t.Fatalf("join = %v, want ErrNotSubscribed", err)
	}
	if c := fs.counter(meeting); c != 0 {
		t.Errorf("counter = %d, want 0", c)
	}
}

func TestJoin_CertifiedOnlyGate(t *testing.T) {
	fs := newFakeStore()
	svc := newService(fs)
	ctx := context.Background()

	host := fs.addUser(true)
	user := fs.addUser(true)
	meeting := fs.addMeeting(host, 4, 0)
	fs.meetings[meeting].IsCertifiedOnly = true

	if err := svc.Join(ctx, user, meeting); !errors.Is(err, lifecycle.ErrCertificationRequired) {
		t.Fatalf("join = %v, want ErrCertificationRequired", err)
	}

	fs.users[user].IsCertified = true
	if err := svc.Join(ctx, user, meeting); err != nil {
		t.Fatalf("join after certification: %v", err)
	}
}

func TestJoin_LedgerFailureReleasesSeat(t *testing.T) {
	fs := newFakeStore()
	svc := newService(fs)
	ctx := context.Background()

	host := fs.addUser(true)
	user := fs.addUser(true)
	meeting := fs.addMeeting(host, 4, 0)

	boom := errors.New("write concern error")
	fs.createErr = boom
	if err := svc.Join(ctx, user, meeting); !errors.Is(err, boom) {
		t.Fatalf("join = %v, want injected error", err)
	}
	if c := fs.counter(meeting); c != 0 {
		t.Errorf("counter = %d, want seat released back to 0", c)
	}
	if n := fs.ledgerCount(meeting); n != 0 {
		t.Errorf("participations = %d, want 0", n)
	}
}

func TestLeave_RemovesRowAndDecrements(t *testing.T) {
	fs := newFakeStore()
	svc := newService(fs)
	ctx := context.Background()

	host := fs.addUser(true)
	user := fs.addUser(true)
	meeting := fs.addMeeting(host, 4, 0)

	if err := svc.Join(ctx, user, meeting); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := svc.Leave(ctx, user, meeting); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if n := fs.ledgerCount(meeting); n != 0 {
		t.Errorf("participations = %d, want 0", n)
	}
	if c := fs.counter(meeting); c != 0 {
		t.Errorf("counter = %d, want 0", c)
	}
}

func TestLeave_NonParticipantLeavesCounterAlone(t *testing.T) {
	fs := newFakeStore()
	svc := newService(fs)
	ctx := context.Background()

	host := fs.addUser(true)
	u1 := fs.addUser(true)
	u2 := fs.addUser(true)
	outsider := fs.addUser(true)
	meeting := fs.addMeeting(host, 4, 0)

	for _, u := range []primitive.ObjectID{u1, u2} {
		if err := svc.Join(ctx, u, meeting); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	if err := svc.Leave(ctx, outsider, meeting); err != nil {
		t.Fatalf("leave by non-participant: %v", err)
	}
	if c, n := fs.counter(meeting), fs.ledgerCount(meeting); c != 2 || n != 2 {
		t.Errorf("counter = %d, ledger = %d, want 2 and 2", c, n)
	}

	// A double-tapped leave frees the seat exactly once.
	if err := svc.Leave(ctx, u1, meeting); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if err := svc.Leave(ctx, u1, meeting); err != nil {
		t.Fatalf("repeated leave: %v", err)
	}
	if c, n := fs.counter(meeting), fs.ledgerCount(meeting); c != 1 || n != 1 {
		t.Errorf("counter = %d, ledger = %d, want 1 and 1", c, n)
	}
}

func TestKick_BatchDecrementsByBatchSize(t *testing.T) {
	fs := newFakeStore()
	svc := newService(fs)
	ctx := context.Background()

	host := fs.addUser(true)
	u1 := fs.addUser(true)
	u2 := fs.addUser(true)
	u3 := fs.addUser(true)
	meeting := fs.addMeeting(host, 5, 0)

	for _, u := range []primitive.ObjectID{u1, u2, u3} {
		if err := svc.Join(ctx, u, meeting); err != nil {
			t.Fatalf("join %s: %v", u.Hex(), err)
		}
	}

	if err := svc.Kick(ctx, host, meeting, []primitive.ObjectID{u1, u2}); err != nil {
		t.Fatalf("kick: %v", err)
	}

	if n := fs.ledgerCount(meeting); n != 1 {
		t.Errorf("participations = %d, want 1", n)
	}
	if c := fs.counter(meeting); c != 1 {
		t.Errorf("counter = %d, want 1", c)
	}
	stayed, err := fs.Exists(ctx, u3, meeting)
	if err != nil || !stayed {
		t.Errorf("u3 participation gone (exists=%v err=%v)", stayed, err)
	}
}

func TestKick_NonHostRejected(t *testing.T) {
	fs := newFakeStore()
	svc := newService(fs)
	ctx := context.Background()

	host := fs.addUser(true)
	user := fs.addUser(true)
	meeting := fs.addMeeting(host, 4, 0)

	if err := svc.Join(ctx, user, meeting); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := svc.Kick(ctx, user, meeting, []primitive.ObjectID{host}); !errors.Is(err, lifecycle.ErrNotHost) {
		t.Fatalf("kick = %v, want ErrNotHost", err)
	}
	if c := fs.counter(meeting); c != 1 {
		t.Errorf("counter = %d, want unchanged 1", c)
	}
}

func TestKick_DuplicateRowsStillDecrementOnce(t *testing.T) {
	fs := newFakeStore()
	svc := newService(fs)
	ctx := context.Background()

	host := fs.addUser(true)
	user := fs.addUser(true)
	meeting := fs.addMeeting(host, 4, 1)

	// Simulate a double ledger row left behind by an earlier unguarded
	// writer. Both rows are swept, the counter drops by one member.
	fs.addParticipation(user, meeting)
	fs.addParticipation(user, meeting)

	if err := svc.Kick(ctx, host, meeting, []primitive.ObjectID{user}); err != nil {
		t.Fatalf("kick: %v", err)
	}
	if n := fs.ledgerCount(meeting); n != 0 {
		t.Errorf("participations = %d, want 0", n)
	}
	if c := fs.counter(meeting); c != 0 {
		t.Errorf("counter = %d, want 0", c)
	}
}

func TestDeleteMeeting_HostOnlyAndClearsLedger(t *testing.T) {
	fs := newFakeStore()
	svc := newService(fs)
	ctx := context.Background()

	host := fs.addUser(true)
	user := fs.addUser(true)
	meeting := fs.addMeeting(host, 4, 0)

	if err := svc.Join(ctx, user, meeting); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := svc.DeleteMeeting(ctx, user, meeting); !errors.Is(err, lifecycle.ErrNotHost) {
		t.Fatalf("delete by member = %v, want ErrNotHost", err)
	}
	if err := svc.DeleteMeeting(ctx, host, meeting); err != nil {
		t.Fatalf("delete by host: %v", err)
	}

	if _, err := fs.GetByID(ctx, meeting); !errors.Is(err, meetingstore.ErrMeetingNotFound) {
		t.Errorf("meeting lookup = %v, want ErrMeetingNotFound", err)
	}
	if n := fs.ledgerCount(meeting); n != 0 {
		t.Errorf("participations = %d, want 0", n)
	}
}

func TestWithdraw_FullCascade(t *testing.T) {
	fs := newFakeStore()
	svc := newService(fs)
	ctx := context.Background()

	leaver := fs.addUser(true)
	other := fs.addUser(true)
	stranger := fs.addUser(true)

	hosted := fs.addMeeting(leaver, 5, 0)
	joined := fs.addMeeting(other, 5, 0)

	for _, join := range []struct {
		user, meeting primitive.ObjectID
	}{
		{stranger, hosted},
		{leaver, joined},
		{stranger, joined},
	} {
		if err := svc.Join(ctx, join.user, join.meeting); err != nil {
			t.Fatalf("join: %v", err)
		}
	}
	phone := fs.users[leaver].Phone

	if err := svc.Withdraw(ctx, leaver); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	if _, ok := fs.restrictions[phone]; !ok {
		t.Error("rejoin restriction not recorded")
	}
	if _, err := fs.GetByID(ctx, hosted); !errors.Is(err, meetingstore.ErrMeetingNotFound) {
		t.Errorf("hosted meeting lookup = %v, want ErrMeetingNotFound", err)
	}
	if n := fs.ledgerCount(hosted); n != 0 {
		t.Errorf("hosted meeting participations = %d, want 0", n)
	}
	if c := fs.counter(joined); c != 1 {
		t.Errorf("joined meeting counter = %d, want 1 (stranger only)", c)
	}
	if n := fs.ledgerCount(joined); n != 1 {
		t.Errorf("joined meeting participations = %d, want 1", n)
	}
	if _, ok := fs.users[leaver]; ok {
		t.Error("user document still present")
	}
	if fs.identities[leaver] {
		t.Error("identity still present")
	}

	rec, ok := fs.sagas["op-1"]
	if !ok {
		t.Fatal("saga record missing")
	}
	if rec.status != models.WithdrawalStatusCompleted {
		t.Errorf("saga status = %q, want completed", rec.status)
	}
	if len(rec.doneSteps) != 5 {
		t.Errorf("saga steps = %v, want all 5", rec.doneSteps)
	}
}

func TestWithdraw_RecentLoginRequiredAborts(t *testing.T) {
	fs := newFakeStore()
	svc := newService(fs)
	ctx := context.Background()

	leaver := fs.addUser(true)
	other := fs.addUser(true)
	joined := fs.addMeeting(other, 5, 0)
	if err := svc.Join(ctx, leaver, joined); err != nil {
		t.Fatalf("join: %v", err)
	}
	phone := fs.users[leaver].Phone
	fs.identityErr = identity.ErrRequiresRecentLogin

	err := svc.Withdraw(ctx, leaver)
	if !errors.Is(err, identity.ErrRequiresRecentLogin) {
		t.Fatalf("withdraw = %v, want ErrRequiresRecentLogin", err)
	}

	// Everything before the identity step stays deleted: the saga aborts
	// without compensation.
	if _, ok := fs.restrictions[phone]; !ok {
		t.Error("rejoin restriction not recorded")
	}
	if _, ok := fs.users[leaver]; ok {
		t.Error("user document still present, expected deleted")
	}
	if !fs.identities[leaver] {
		t.Error("identity deleted, expected intact")
	}
	if rec := fs.sagas["op-1"]; rec.status != models.WithdrawalStatusAborted ||
		rec.failedStep != models.WithdrawalStepIdentity {
		t.Errorf("saga = %q/%q, want aborted at identity step", rec.status, rec.failedStep)
	}
}

func TestWithdraw_SkipsCounterForDeletedMeeting(t *testing.T) {
	fs := newFakeStore()
	svc := newService(fs)
	ctx := context.Background()

	leaver := fs.addUser(true)
	other := fs.addUser(true)
	joined := fs.addMeeting(other, 5, 0)
	if err := svc.Join(ctx, leaver, joined); err != nil {
		t.Fatalf("join: %v", err)
	}

	// The meeting vanishes out from under the ledger row. Withdraw must
	// still sweep the row without failing on the dangling reference.
	fs.mu.Lock()
	delete(fs.meetings, joined)
	fs.mu.Unlock()

	if err := svc.Withdraw(ctx, leaver); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if n := fs.ledgerCount(joined); n != 0 {
		t.Errorf("dangling participations = %d, want 0", n)
	}
}

// TestMembership_CapacityTwoScenario walks one meeting with capacity 2
// through a fill, a rejected third join, a leave, and a refill, checking
// the counter against the ledger at every step.
func TestMembership_CapacityTwoScenario(t *testing.T) {
	fs := newFakeStore()
	svc := newService(fs)
	ctx := context.Background()

	host := fs.addUser(true)
	a := fs.addUser(true)
	b := fs.addUser(true)
	c := fs.addUser(true)
	meeting := fs.addMeeting(host, 2, 0)

	check := func(step string, want int) {
		t.Helper()
		if got := fs.counter(meeting); got != want {
			t.Fatalf("%s: counter = %d, want %d", step, got, want)
		}
		if got := fs.ledgerCount(meeting); got != want {
			t.Fatalf("%s: ledger = %d, want %d", step, got, want)
		}
	}

	if err := svc.Join(ctx, a, meeting); err != nil {
		t.Fatalf("a joins: %v", err)
	}
	check("after a joins", 1)

	if err := svc.Join(ctx, b, meeting); err != nil {
		t.Fatalf("b joins: %v", err)
	}
	check("after b joins", 2)

	if err := svc.Join(ctx, c, meeting); !errors.Is(err, meetingstore.ErrCapacityFull) {
		t.Fatalf("c joins full meeting = %v, want ErrCapacityFull", err)
	}
	check("after c rejected", 2)

	if err := svc.Leave(ctx, a, meeting); err != nil {
		t.Fatalf("a leaves: %v", err)
	}
	check("after a leaves", 1)

	if err := svc.Join(ctx, c, meeting); err != nil {
		t.Fatalf("c joins freed seat: %v", err)
	}
	check("after c joins", 2)
}
