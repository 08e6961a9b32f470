// internal/app/features/meetings/detail.go
package meetings

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/moimlabs/moim/internal/app/features/shared"
	"github.com/moimlabs/moim/internal/app/policy/blockpolicy"
	meetingstore "github.com/moimlabs/moim/internal/app/store/meetings"
	participationstore "github.com/moimlabs/moim/internal/app/store/participations"
	userstore "github.com/moimlabs/moim/internal/app/store/users"
	"github.com/moimlabs/moim/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type rosterEntry struct {
	ID          string    `json:"id"`
	Nickname    string    `json:"nickname"`
	IsCertified bool      `json:"is_certified"`
	JoinedAt    time.Time `json:"joined_at"`
}

type detailResponse struct {
	Meeting meetingView   `json:"meeting"`
	Roster  []rosterEntry `json:"roster"`
	Joined  bool          `json:"joined"`
}

// HandleDetail serves one meeting with its roster. A meeting whose host
// the viewer blocked is reported as not found, and blocked members are
// dropped from the roster.
func (h *Handler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := shared.UserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	meetingID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "bad meeting id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	viewer, err := userstore.New(h.DB).GetByID(ctx, viewerID)
	if err != nil {
		h.Log.Warn("load viewer", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not load meeting")
		return
	}
	bl := blockpolicy.For(viewer)

	m, err := meetingstore.New(h.DB).GetByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, meetingstore.ErrMeetingNotFound) {
			shared.Error(w, http.StatusNotFound, "meeting not found")
			return
		}
		h.Log.Warn("load meeting", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not load meeting")
		return
	}
	if bl.Blocked(m.HostID) {
		shared.Error(w, http.StatusNotFound, "meeting not found")
		return
	}

	parts := participationstore.New(h.DB)
	rows, err := parts.ListByMeeting(ctx, meetingID)
	if err != nil {
		h.Log.Warn("list roster", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not load meeting")
		return
	}

	joinedAt := make(map[primitive.ObjectID]time.Time, len(rows))
	ids := make([]primitive.ObjectID, 0, len(rows))
	joined := false
	for _, p := range rows {
		joinedAt[p.UserID] = p.JoinedAt
		ids = append(ids, p.UserID)
		if p.UserID == viewerID {
			joined = true
		}
	}

	members, err := userstore.New(h.DB).GetMany(ctx, ids)
	if err != nil {
		h.Log.Warn("load roster users", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not load meeting")
		return
	}

	roster := make([]rosterEntry, 0, len(members))
	for _, u := range bl.Roster(members) {
		roster = append(roster, rosterEntry{
			ID:          u.ID.Hex(),
			Nickname:    u.Nickname,
			IsCertified: u.IsCertified,
			JoinedAt:    joinedAt[u.ID],
		})
	}

	shared.JSON(w, http.StatusOK, detailResponse{
		Meeting: viewOf(m),
		Roster:  roster,
		Joined:  joined,
	})
}
