// internal/app/features/meetings/edit.go
package meetings

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/moimlabs/moim/internal/app/features/shared"
	meetingstore "github.com/moimlabs/moim/internal/app/store/meetings"
	"github.com/moimlabs/moim/internal/app/system/sanitize"
	"github.com/moimlabs/moim/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type editRequest struct {
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	MoodTags    []string  `json:"mood_tags"`
	Capacity    int       `json:"capacity"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// HandleEdit updates host-editable meeting fields. Capacity edits do not
// touch current_participants; a capacity lowered below the live count
// simply stops further joins.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	hostID, ok := shared.UserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	meetingID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "bad meeting id")
		return
	}

	var req editRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	store := meetingstore.New(h.DB)
	m, err := store.GetByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, meetingstore.ErrMeetingNotFound) {
			shared.Error(w, http.StatusNotFound, "meeting not found")
			return
		}
		h.Log.Warn("load meeting for edit", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not update meeting")
		return
	}
	if m.HostID != hostID {
		shared.Error(w, http.StatusForbidden, "only the meeting host may do this")
		return
	}

	if err := store.UpdateInfo(ctx, meetingID, meetingstore.MeetingUpdate{
		Title:       sanitize.Text(req.Title),
		Category:    req.Category,
		Location:    req.Location,
		Description: sanitize.Text(req.Description),
		MoodTags:    req.MoodTags,
		ScheduledAt: req.ScheduledAt,
		Capacity:    req.Capacity,
	}); err != nil {
		h.Log.Warn("update meeting", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not update meeting")
		return
	}

	updated, err := store.GetByID(ctx, meetingID)
	if err != nil {
		h.Log.Warn("reload meeting after edit", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not update meeting")
		return
	}
	shared.JSON(w, http.StatusOK, viewOf(updated))
}
