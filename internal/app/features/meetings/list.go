// internal/app/features/meetings/list.go
package meetings

import (
	"context"
	"net/http"

	"github.com/moimlabs/moim/internal/app/features/shared"
	"github.com/moimlabs/moim/internal/app/policy/blockpolicy"
	meetingstore "github.com/moimlabs/moim/internal/app/store/meetings"
	userstore "github.com/moimlabs/moim/internal/app/store/users"
	"github.com/moimlabs/moim/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleList serves the meeting feed, sorted by schedule. Meetings hosted
// by someone the viewer blocked never appear; the documents themselves
// are untouched.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := shared.UserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	viewer, err := userstore.New(h.DB).GetByID(ctx, viewerID)
	if err != nil {
		h.Log.Warn("load viewer", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not load meetings")
		return
	}

	all, err := meetingstore.New(h.DB).ListAll(ctx)
	if err != nil {
		h.Log.Warn("list meetings", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not load meetings")
		return
	}

	visible := blockpolicy.For(viewer).Meetings(all)
	out := make([]meetingView, 0, len(visible))
	for _, m := range visible {
		out = append(out, viewOf(m))
	}
	shared.JSON(w, http.StatusOK, map[string]any{"meetings": out})
}
