package lifecycle_test

// In-memory doubles for the lifecycle's store interfaces. They return the
// same sentinel errors the Mongo stores do, so the service sees the real
// contract, and they support fault injection to exercise the partial
// failure paths a live store only hits on network loss.

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/moimlabs/moim/internal/app/lifecycle"
	meetingstore "github.com/moimlabs/moim/internal/app/store/meetings"
	participationstore "github.com/moimlabs/moim/internal/app/store/participations"
	"github.com/moimlabs/moim/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type sagaRecord struct {
	userID     primitive.ObjectID
	status     string
	doneSteps  []string
	failedStep string
}

type fakeStore struct {
	mu           sync.Mutex
	meetings     map[primitive.ObjectID]*models.Meeting
	parts        []models.Participation
	users        map[primitive.ObjectID]*models.User
	identities   map[primitive.ObjectID]bool
	restrictions map[string]time.Time
	sagas        map[string]*sagaRecord
	nextOp       int

	// fault injection
	createErr   error // next ledger Create fails with this
	identityErr error // identity Delete fails with this
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		meetings:     make(map[primitive.ObjectID]*models.Meeting),
		users:        make(map[primitive.ObjectID]*models.User),
		identities:   make(map[primitive.ObjectID]bool),
		restrictions: make(map[string]time.Time),
		sagas:        make(map[string]*sagaRecord),
	}
}

// fakeUsers and fakeIdentities adapt fakeStore to UserDirectory and
// IdentityDeleter, whose method names collide with MeetingDirectory's.
type fakeUsers struct{ fs *fakeStore }

func (a fakeUsers) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return a.fs.GetUser(ctx, id)
}

func (a fakeUsers) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	return a.fs.DeleteUser(ctx, id)
}

type fakeIdentities struct{ fs *fakeStore }

func (a fakeIdentities) Delete(ctx context.Context, userID primitive.ObjectID) error {
	return a.fs.DeleteIdentity(ctx, userID)
}

func newService(fs *fakeStore) *lifecycle.Service {
	return lifecycle.New(fs, fs, fakeUsers{fs}, fakeIdentities{fs}, fs, fs, zap.NewNop())
}

func (f *fakeStore) addUser(subscribed bool) primitive.ObjectID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := primitive.NewObjectID()
	f.users[id] = &models.User{
		ID:           id,
		Nickname:     "user-" + id.Hex()[:6],
		Phone:        "0100000" + id.Hex()[:4],
		IsSubscribed: subscribed,
	}
	f.identities[id] = true
	return id
}

func (f *fakeStore) addMeeting(hostID primitive.ObjectID, capacity, current int) primitive.ObjectID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := primitive.NewObjectID()
	f.meetings[id] = &models.Meeting{
		ID:                  id,
		HostID:              hostID,
		Title:               "meeting-" + id.Hex()[:6],
		Capacity:            capacity,
		CurrentParticipants: current,
	}
	return id
}

func (f *fakeStore) addParticipation(userID, meetingID primitive.ObjectID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parts = append(f.parts, models.Participation{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		MeetingID: meetingID,
		JoinedAt:  time.Now().UTC(),
	})
}

func (f *fakeStore) counter(meetingID primitive.ObjectID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.meetings[meetingID]; ok {
		return m.CurrentParticipants
	}
	return -1
}

func (f *fakeStore) ledgerCount(meetingID primitive.ObjectID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.parts {
		if p.MeetingID == meetingID {
			n++
		}
	}
	return n
}

/* MeetingDirectory */

func (f *fakeStore) GetByID(ctx context.Context, id primitive.ObjectID) (models.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.meetings[id]; ok {
		return *m, nil
	}
	return models.Meeting{}, meetingstore.ErrMeetingNotFound
}

func (f *fakeStore) ListByHost(ctx context.Context, hostID primitive.ObjectID) ([]models.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Meeting
	for _, m := range f.meetings {
		if m.HostID == hostID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeStore) ReserveSeat(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meetings[id]
	if !ok {
		return meetingstore.ErrMeetingNotFound
	}
	if m.CurrentParticipants >= m.Capacity {
		return meetingstore.ErrCapacityFull
	}
	m.CurrentParticipants++
	return nil
}

func (f *fakeStore) ReleaseSeats(ctx context.Context, id primitive.ObjectID, n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meetings[id]
	if !ok {
		return meetingstore.ErrMeetingNotFound
	}
	m.CurrentParticipants -= n
	if m.CurrentParticipants < 0 {
		m.CurrentParticipants = 0
	}
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.meetings[id]; !ok {
		return 0, nil
	}
	delete(f.meetings, id)
	return 1, nil
}

/* Ledger */

func (f *fakeStore) Create(ctx context.Context, userID, meetingID primitive.ObjectID) (models.Participation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return models.Participation{}, err
	}
	for _, p := range f.parts {
		if p.UserID == userID && p.MeetingID == meetingID {
			return models.Participation{}, participationstore.ErrAlreadyJoined
		}
	}
	p := models.Participation{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		MeetingID: meetingID,
		JoinedAt:  time.Now().UTC(),
	}
	f.parts = append(f.parts, p)
	return p, nil
}

func (f *fakeStore) Exists(ctx context.Context, userID, meetingID primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.parts {
		if p.UserID == userID && p.MeetingID == meetingID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) DeletePair(ctx context.Context, userID, meetingID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []models.Participation
	var deleted int64
	for _, p := range f.parts {
		if p.UserID == userID && p.MeetingID == meetingID {
			deleted++
			continue
		}
		kept = append(kept, p)
	}
	f.parts = kept
	return deleted, nil
}

func (f *fakeStore) DeleteByMeeting(ctx context.Context, meetingID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []models.Participation
	var deleted int64
	for _, p := range f.parts {
		if p.MeetingID == meetingID {
			deleted++
			continue
		}
		kept = append(kept, p)
	}
	f.parts = kept
	return deleted, nil
}

func (f *fakeStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Participation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Participation
	for _, p := range f.parts {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

/* UserDirectory */

func (f *fakeStore) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, fmt.Errorf("user %s not found", id.Hex())
}

func (f *fakeStore) DeleteUser(ctx context.Context, id primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return 0, nil
	}
	delete(f.users, id)
	return 1, nil
}

/* IdentityDeleter */

func (f *fakeStore) DeleteIdentity(ctx context.Context, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.identityErr != nil {
		return f.identityErr
	}
	delete(f.identities, userID)
	return nil
}

/* RestrictionWriter */

func (f *fakeStore) Put(ctx context.Context, phone string, withdrawnAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.restrictions[phone]; !ok {
		f.restrictions[phone] = withdrawnAt
	}
	return nil
}

/* SagaLog */

func (f *fakeStore) Begin(ctx context.Context, userID primitive.ObjectID, phone string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextOp++
	opID := fmt.Sprintf("op-%d", f.nextOp)
	f.sagas[opID] = &sagaRecord{userID: userID, status: models.WithdrawalStatusRunning}
	return opID, nil
}

func (f *fakeStore) MarkStep(ctx context.Context, opID, step string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.sagas[opID]; ok {
		rec.doneSteps = append(rec.doneSteps, step)
	}
	return nil
}

func (f *fakeStore) Finish(ctx context.Context, opID, status, failedStep string, cause error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.sagas[opID]; ok {
		rec.status = status
		rec.failedStep = failedStep
	}
	return nil
}

var (
	_ lifecycle.MeetingDirectory  = (*fakeStore)(nil)
	_ lifecycle.Ledger            = (*fakeStore)(nil)
	_ lifecycle.RestrictionWriter = (*fakeStore)(nil)
	_ lifecycle.SagaLog           = (*fakeStore)(nil)
	_ lifecycle.UserDirectory     = fakeUsers{}
	_ lifecycle.IdentityDeleter   = fakeIdentities{}
)
