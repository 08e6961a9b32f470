// internal/app/unread/tracker.go

// Package unread derives, per signed-in user, the set of meetings with
// chat activity the user has not yet seen. One Tracker per connected
// user; it holds one message subscription per joined meeting and diffs
// the subscription set against the user's participations whenever they
// change, rather than tearing everything down and rebuilding.
package unread

import (
	"context"
	"sync"

	"github.com/moimlabs/moim/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MessageSource tails new messages for one meeting, starting from "now".
// The channel closes when the stream ends; stop releases it early.
// *messagestore.Store satisfies this.
type MessageSource interface {
	Subscribe(ctx context.Context, meetingID primitive.ObjectID) (<-chan models.ChatMessage, func(), error)
}

type subscription struct {
	stop func()
	done chan struct{}
}

// Tracker is the per-user SEEN/UNSEEN state machine. A meeting flips to
// unseen when a message from someone else arrives while the user is not
// looking at that meeting's chat; opening the chat consumes the mark.
type Tracker struct {
	viewer   primitive.ObjectID
	source   MessageSource
	log      *zap.Logger
	onChange func([]primitive.ObjectID)

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	subs   map[primitive.ObjectID]*subscription
	unseen map[primitive.ObjectID]struct{}
	active primitive.ObjectID
	closed bool
}

// NewTracker builds a tracker for viewer. onChange, if non-nil, is called
// with the fresh unseen set after every transition; it runs on the stream
// goroutine and must not block for long.
func NewTracker(viewer primitive.ObjectID, source MessageSource, log *zap.Logger, onChange func([]primitive.ObjectID)) *Tracker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		viewer:   viewer,
		source:   source,
		log:      log,
		onChange: onChange,
		ctx:      ctx,
		cancel:   cancel,
		subs:     make(map[primitive.ObjectID]*subscription),
		unseen:   make(map[primitive.ObjectID]struct{}),
	}
}

// SetMeetings reconciles the subscription set against the user's current
// joined meetings. Meetings already subscribed keep their live stream;
// dropped meetings have theirs cancelled before their unseen mark is
// cleared, so a stale stream can never re-mark a meeting the user left.
func (t *Tracker) SetMeetings(meetingIDs []primitive.ObjectID) {
	desired := make(map[primitive.ObjectID]struct{}, len(meetingIDs))
	for _, id := range meetingIDs {
		desired[id] = struct{}{}
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}

	var dropped []*subscription
	changed := false
	for id, sub := range t.subs {
		if _, keep := desired[id]; keep {
			continue
		}
		dropped = append(dropped, sub)
		delete(t.subs, id)
		if _, was := t.unseen[id]; was {
			delete(t.unseen, id)
			changed = true
		}
	}

	var added []primitive.ObjectID
	for id := range desired {
		if _, have := t.subs[id]; !have {
			added = append(added, id)
		}
	}
	t.mu.Unlock()

	for _, sub := range dropped {
		sub.stop()
	}
	for _, id := range added {
		t.subscribe(id)
	}
	if changed {
		t.notify()
	}
}

func (t *Tracker) subscribe(meetingID primitive.ObjectID) {
	ch, stop, err := t.source.Subscribe(t.ctx, meetingID)
	if err != nil {
		t.log.Warn("unread subscription",
			zap.String("meeting_id", meetingID.Hex()),
			zap.Error(err))
		return
	}

	sub := &subscription{stop: stop, done: make(chan struct{})}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		stop()
		return
	}
	t.subs[meetingID] = sub
	t.mu.Unlock()

	go func() {
		defer close(sub.done)
		for msg := range ch {
			t.observe(msg)
		}
	}()
}

func (t *Tracker) observe(msg models.ChatMessage) {
	t.mu.Lock()
	if t.closed || msg.SenderID == t.viewer || msg.MeetingID == t.active {
		t.mu.Unlock()
		return
	}
	if _, have := t.subs[msg.MeetingID]; !have {
		// Last gasp of a cancelled stream.
		t.mu.Unlock()
		return
	}
	if _, already := t.unseen[msg.MeetingID]; already {
		t.mu.Unlock()
		return
	}
	t.unseen[msg.MeetingID] = struct{}{}
	t.mu.Unlock()

	t.notify()
}

// SetActive records that the user is viewing meetingID's chat, consuming
// any pending unseen mark. Messages arriving for the active meeting do
// not re-mark it.
func (t *Tracker) SetActive(meetingID primitive.ObjectID) {
	t.mu.Lock()
	t.active = meetingID
	_, had := t.unseen[meetingID]
	delete(t.unseen, meetingID)
	t.mu.Unlock()

	if had {
		t.notify()
	}
}

// ClearActive records that no chat is open.
func (t *Tracker) ClearActive() {
	t.mu.Lock()
	t.active = primitive.NilObjectID
	t.mu.Unlock()
}

// Unseen returns the meetings currently carrying an unseen mark.
func (t *Tracker) Unseen() []primitive.ObjectID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.unseenLocked()
}

func (t *Tracker) unseenLocked() []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(t.unseen))
	for id := range t.unseen {
		out = append(out, id)
	}
	return out
}

func (t *Tracker) notify() {
	if t.onChange == nil {
		return
	}
	t.mu.Lock()
	snap := t.unseenLocked()
	t.mu.Unlock()
	t.onChange(snap)
}

// Close cancels every subscription and waits for their stream goroutines
// to drain. The tracker is unusable afterwards.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	subs := make([]*subscription, 0, len(t.subs))
	for _, sub := range t.subs {
		subs = append(subs, sub)
	}
	t.subs = make(map[primitive.ObjectID]*subscription)
	t.mu.Unlock()

	t.cancel()
	for _, sub := range subs {
		sub.stop()
		<-sub.done
	}
}
