// internal/app/features/meetings/create.go
package meetings

import (
	"context"
	"net/http"
	"time"

	"github.com/moimlabs/moim/internal/app/features/shared"
	meetingstore "github.com/moimlabs/moim/internal/app/store/meetings"
	userstore "github.com/moimlabs/moim/internal/app/store/users"
	"github.com/moimlabs/moim/internal/app/system/sanitize"
	"github.com/moimlabs/moim/internal/app/system/timeouts"
	"github.com/moimlabs/moim/internal/domain/models"
	"go.uber.org/zap"
)

type createRequest struct {
	Title           string    `json:"title"`
	Category        string    `json:"category"`
	Location        string    `json:"location"`
	Description     string    `json:"description"`
	MoodTags        []string  `json:"mood_tags"`
	Capacity        int       `json:"capacity"`
	IsCertifiedOnly bool      `json:"is_certified_only"`
	ScheduledAt     time.Time `json:"scheduled_at"`
}

// HandleCreate opens a new meeting, with the caller as host. Hosting
// needs a subscription, same as joining; the host is admitted to their
// own meeting immediately, so a fresh meeting starts with one
// participant.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	hostID, ok := shared.UserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req createRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	title := sanitize.Text(req.Title)
	switch {
	case title == "":
		shared.Error(w, http.StatusBadRequest, "title is required")
		return
	case req.Capacity < 2:
		shared.Error(w, http.StatusBadRequest, "capacity must be at least 2")
		return
	case req.ScheduledAt.IsZero():
		shared.Error(w, http.StatusBadRequest, "scheduled_at is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	host, err := userstore.New(h.DB).GetByID(ctx, hostID)
	if err != nil {
		h.Log.Warn("load host", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not create meeting")
		return
	}
	if !host.IsSubscribed {
		shared.Error(w, http.StatusForbidden, "subscription required to host meetings")
		return
	}
	if req.IsCertifiedOnly && !host.IsCertified {
		shared.Error(w, http.StatusForbidden, "certification required to host a certified-only meeting")
		return
	}

	m, err := meetingstore.New(h.DB).Create(ctx, models.Meeting{
		Title:           title,
		Category:        req.Category,
		Location:        req.Location,
		Description:     sanitize.Text(req.Description),
		MoodTags:        req.MoodTags,
		HostID:          hostID,
		HostName:        host.Nickname,
		Capacity:        req.Capacity,
		IsCertifiedOnly: req.IsCertifiedOnly,
		ScheduledAt:     req.ScheduledAt,
	})
	if err != nil {
		h.Log.Warn("create meeting", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not create meeting")
		return
	}

	if err := h.Lifecycle.Join(ctx, hostID, m.ID); err != nil {
		h.Log.Warn("host auto-join",
			zap.String("meeting_id", m.ID.Hex()),
			zap.Error(err))
	} else {
		m.CurrentParticipants = 1
	}

	shared.JSON(w, http.StatusCreated, viewOf(m))
}
