// internal/app/features/meetings/handler.go
package meetings

import (
	"time"

	"github.com/moimlabs/moim/internal/app/lifecycle"
	"github.com/moimlabs/moim/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the meetings feature.
// Membership changes never touch the stores directly; they go through
// the lifecycle service so counter and ledger stay convergent.
type Handler struct {
	DB        *mongo.Database
	Log       *zap.Logger
	Lifecycle *lifecycle.Service
}

func NewHandler(db *mongo.Database, logger *zap.Logger, lc *lifecycle.Service) *Handler {
	return &Handler{DB: db, Log: logger, Lifecycle: lc}
}

// meetingView is the meeting shape every endpoint returns.
type meetingView struct {
	ID                  string    `json:"id"`
	HostID              string    `json:"host_id"`
	HostName            string    `json:"host_name"`
	Title               string    `json:"title"`
	Category            string    `json:"category,omitempty"`
	Location            string    `json:"location,omitempty"`
	Description         string    `json:"description,omitempty"`
	MoodTags            []string  `json:"mood_tags,omitempty"`
	Capacity            int       `json:"capacity"`
	CurrentParticipants int       `json:"current_participants"`
	IsCertifiedOnly     bool      `json:"is_certified_only"`
	ScheduledAt         time.Time `json:"scheduled_at"`
}

func viewOf(m models.Meeting) meetingView {
	return meetingView{
		ID:                  m.ID.Hex(),
		HostID:              m.HostID.Hex(),
		HostName:            m.HostName,
		Title:               m.Title,
		Category:            m.Category,
		Location:            m.Location,
		Description:         m.Description,
		MoodTags:            m.MoodTags,
		Capacity:            m.Capacity,
		CurrentParticipants: m.CurrentParticipants,
		IsCertifiedOnly:     m.IsCertifiedOnly,
		ScheduledAt:         m.ScheduledAt,
	}
}
