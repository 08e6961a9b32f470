// internal/app/policy/blockpolicy/blockpolicy.go

// Package blockpolicy is the single place block relations turn into
// visibility. Blocking is one-directional and read-time only: the blocked
// user's meetings, roster entries, and messages are filtered out of the
// blocker's views, but nothing is ever deleted. Every read boundary that
// lists meetings, rosters, or messages applies these filters with the
// viewer's blocklist; nothing else may interpret blocked_user_ids.
package blockpolicy

import (
	"github.com/moimlabs/moim/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Blocklist is a viewer's set of blocked user ids.
type Blocklist map[primitive.ObjectID]struct{}

// For builds the Blocklist for a viewer. A nil viewer (signed-out browse)
// blocks nobody.
func For(viewer *models.User) Blocklist {
	if viewer == nil || len(viewer.BlockedUserIDs) == 0 {
		return nil
	}
	bl := make(Blocklist, len(viewer.BlockedUserIDs))
	for _, id := range viewer.BlockedUserIDs {
		bl[id] = struct{}{}
	}
	return bl
}

// Blocked reports whether id is in the viewer's block set.
func (bl Blocklist) Blocked(id primitive.ObjectID) bool {
	_, ok := bl[id]
	return ok
}

// Meetings returns the meetings whose host the viewer has not blocked.
func (bl Blocklist) Meetings(in []models.Meeting) []models.Meeting {
	if len(bl) == 0 {
		return in
	}
	out := in[:0:0]
	for _, m := range in {
		if !bl.Blocked(m.HostID) {
			out = append(out, m)
		}
	}
	return out
}

// Messages returns the messages whose sender the viewer has not blocked.
func (bl Blocklist) Messages(in []models.ChatMessage) []models.ChatMessage {
	if len(bl) == 0 {
		return in
	}
	out := in[:0:0]
	for _, msg := range in {
		if !bl.Blocked(msg.SenderID) {
			out = append(out, msg)
		}
	}
	return out
}

// Roster returns the users the viewer has not blocked.
func (bl Blocklist) Roster(in []models.User) []models.User {
	if len(bl) == 0 {
		return in
	}
	out := in[:0:0]
	for _, u := range in {
		if !bl.Blocked(u.ID) {
			out = append(out, u)
		}
	}
	return out
}
