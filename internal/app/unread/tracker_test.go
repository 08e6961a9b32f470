package unread_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/moimlabs/moim/internal/app/unread"
	"github.com/moimlabs/moim/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fakeSource hands out one in-memory channel per meeting and counts
// subscribe/stop calls so tests can assert reconciliation deltas.
type fakeSource struct {
	mu      sync.Mutex
	streams map[primitive.ObjectID]chan models.ChatMessage
	opened  map[primitive.ObjectID]int
	stopped map[primitive.ObjectID]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		streams: make(map[primitive.ObjectID]chan models.ChatMessage),
		opened:  make(map[primitive.ObjectID]int),
		stopped: make(map[primitive.ObjectID]int),
	}
}

func (f *fakeSource) Subscribe(ctx context.Context, meetingID primitive.ObjectID) (<-chan models.ChatMessage, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan models.ChatMessage, 8)
	f.streams[meetingID] = ch
	f.opened[meetingID]++
	var once sync.Once
	stop := func() {
		once.Do(func() {
			f.mu.Lock()
			f.stopped[meetingID]++
			f.mu.Unlock()
			close(ch)
		})
	}
	return ch, stop, nil
}

func (f *fakeSource) deliver(meetingID, senderID primitive.ObjectID) {
	f.mu.Lock()
	ch := f.streams[meetingID]
	f.mu.Unlock()
	ch <- models.ChatMessage{
		ID:        primitive.NewObjectID(),
		MeetingID: meetingID,
		SenderID:  senderID,
		Text:      "hey",
		SentAt:    time.Now().UTC(),
	}
}

func (f *fakeSource) openCount(meetingID primitive.ObjectID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened[meetingID]
}

func (f *fakeSource) stopCount(meetingID primitive.ObjectID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped[meetingID]
}

// updates collects onChange snapshots behind a channel so tests can wait
// for the tracker's stream goroutine instead of sleeping.
func trackerWithUpdates(t *testing.T, viewer primitive.ObjectID, src *fakeSource) (*unread.Tracker, chan []primitive.ObjectID) {
	t.Helper()
	ch := make(chan []primitive.ObjectID, 16)
	tr := unread.NewTracker(viewer, src, zap.NewNop(), func(snap []primitive.ObjectID) {
		ch <- snap
	})
	t.Cleanup(tr.Close)
	return tr, ch
}

func waitSnapshot(t *testing.T, ch chan []primitive.ObjectID) []primitive.ObjectID {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("no unread snapshot arrived")
		return nil
	}
}

func TestTracker_PeerMessageMarksUnseen(t *testing.T) {
	viewer := primitive.NewObjectID()
	peer := primitive.NewObjectID()
	meeting := primitive.NewObjectID()

	src := newFakeSource()
	tr, updates := trackerWithUpdates(t, viewer, src)
	tr.SetMeetings([]primitive.ObjectID{meeting})

	src.deliver(meeting, peer)
	snap := waitSnapshot(t, updates)
	if len(snap) != 1 || snap[0] != meeting {
		t.Fatalf("snapshot = %v, want [%s]", snap, meeting.Hex())
	}
}

func TestTracker_OwnMessageIgnored(t *testing.T) {
	viewer := primitive.NewObjectID()
	peer := primitive.NewObjectID()
	meeting := primitive.NewObjectID()

	src := newFakeSource()
	tr, updates := trackerWithUpdates(t, viewer, src)
	tr.SetMeetings([]primitive.ObjectID{meeting})

	src.deliver(meeting, viewer)
	// A follow-up peer message proves the own message produced no
	// snapshot of its own: the first snapshot we see is the peer's.
	src.deliver(meeting, peer)
	snap := waitSnapshot(t, updates)
	if len(snap) != 1 {
		t.Fatalf("snapshot = %v, want exactly the peer's mark", snap)
	}
	select {
	case extra := <-updates:
		t.Fatalf("unexpected extra snapshot %v", extra)
	default:
	}
}

func TestTracker_ActiveChatDoesNotMark(t *testing.T) {
	viewer := primitive.NewObjectID()
	peer := primitive.NewObjectID()
	open := primitive.NewObjectID()
	background := primitive.NewObjectID()

	src := newFakeSource()
	tr, updates := trackerWithUpdates(t, viewer, src)
	tr.SetMeetings([]primitive.ObjectID{open, background})
	tr.SetActive(open)

	src.deliver(open, peer)
	src.deliver(background, peer)

	snap := waitSnapshot(t, updates)
	if len(snap) != 1 || snap[0] != background {
		t.Fatalf("snapshot = %v, want only the background meeting", snap)
	}
}

func TestTracker_OpeningChatConsumesMark(t *testing.T) {
	viewer := primitive.NewObjectID()
	peer := primitive.NewObjectID()
	meeting := primitive.NewObjectID()

	src := newFakeSource()
	tr, updates := trackerWithUpdates(t, viewer, src)
	tr.SetMeetings([]primitive.ObjectID{meeting})

	src.deliver(meeting, peer)
	waitSnapshot(t, updates)

	tr.SetActive(meeting)
	snap := waitSnapshot(t, updates)
	if len(snap) != 0 {
		t.Fatalf("snapshot after opening chat = %v, want empty", snap)
	}
	if got := tr.Unseen(); len(got) != 0 {
		t.Fatalf("Unseen = %v, want empty", got)
	}
}

func TestTracker_ReconcileCancelsDroppedStream(t *testing.T) {
	viewer := primitive.NewObjectID()
	kept := primitive.NewObjectID()
	left := primitive.NewObjectID()

	src := newFakeSource()
	tr, _ := trackerWithUpdates(t, viewer, src)
	tr.SetMeetings([]primitive.ObjectID{kept, left})
	tr.SetMeetings([]primitive.ObjectID{kept})

	if n := src.stopCount(left); n != 1 {
		t.Errorf("left meeting stop count = %d, want 1", n)
	}
	if n := src.stopCount(kept); n != 0 {
		t.Errorf("kept meeting stop count = %d, want 0", n)
	}
	if n := src.openCount(kept); n != 1 {
		t.Errorf("kept meeting resubscribed %d times, want 1", n)
	}
}

func TestTracker_LeavingClearsPendingMark(t *testing.T) {
	viewer := primitive.NewObjectID()
	peer := primitive.NewObjectID()
	meeting := primitive.NewObjectID()

	src := newFakeSource()
	tr, updates := trackerWithUpdates(t, viewer, src)
	tr.SetMeetings([]primitive.ObjectID{meeting})

	src.deliver(meeting, peer)
	waitSnapshot(t, updates)

	tr.SetMeetings(nil)
	snap := waitSnapshot(t, updates)
	if len(snap) != 0 {
		t.Fatalf("snapshot after leaving = %v, want empty", snap)
	}
}

func TestTracker_CloseStopsEverySubscription(t *testing.T) {
	viewer := primitive.NewObjectID()
	m1 := primitive.NewObjectID()
	m2 := primitive.NewObjectID()

	src := newFakeSource()
	tr := unread.NewTracker(viewer, src, zap.NewNop(), nil)
	tr.SetMeetings([]primitive.ObjectID{m1, m2})
	tr.Close()

	if src.stopCount(m1) != 1 || src.stopCount(m2) != 1 {
		t.Errorf("stop counts = %d/%d, want 1/1", src.stopCount(m1), src.stopCount(m2))
	}
	// Close is idempotent.
	tr.Close()
}
