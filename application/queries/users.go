package queries

import (
	"time"

	"github.com/isaac-evs/neurotype-prod-backend/domain/core/entities"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
)

// GetCurrentUserQuery loads the authenticated user's profile
type GetCurrentUserQuery struct {
	UserID string
}

func (q GetCurrentUserQuery) Validate() error {
	if q.UserID == "" {
		return pkgerrors.NewValidationError("user ID is required")
	}
	return nil
}

// GetDashboardQuery builds the weekly dashboard for a user
type GetDashboardQuery struct {
	UserID string
}

func (q GetDashboardQuery) Validate() error {
	if q.UserID == "" {
		return pkgerrors.NewValidationError("user ID is required")
	}
	return nil
}

// GetRecommendationsQuery suggests activities for the week's mood
type GetRecommendationsQuery struct {
	UserID string
}

func (q GetRecommendationsQuery) Validate() error {
	if q.UserID == "" {
		return pkgerrors.NewValidationError("user ID is required")
	}
	return nil
}

// UserView is the API representation of an account. It never carries the
// password hash.
type UserView struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            *string   `json:"name"`
	Plan            string    `json:"plan"`
	ProfilePhotoURL *string   `json:"profile_photo_url"`
	CreatedAt       time.Time `json:"created_at"`
}

func NewUserView(u *entities.User) UserView {
	return UserView{
		ID:              u.ID().String(),
		Email:           u.Email().String(),
		Name:            optional(u.Name()),
		Plan:            u.Plan().String(),
		ProfilePhotoURL: optional(u.ProfilePhotoURL()),
		CreatedAt:       u.CreatedAt(),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type DailyEmotionDataView struct {
	Date     string           `json:"date"`
	Emotions map[string]int64 `json:"emotions"`
}

type DashboardView struct {
	Name                  string                 `json:"name"`
	ProfilePhotoURL       *string                `json:"profile_photo_url"`
	TotalNotes            int64                  `json:"total_notes"`
	EmotionCounts         map[string]int64       `json:"emotion_counts"`
	WeeklyEmotionData     []DailyEmotionDataView `json:"weekly_emotion_data"`
	PrevalentEmotionToday *string                `json:"prevalent_emotion_today"`
	Plan                  string                 `json:"plan"`
}

// Recommendation is a single suggestion shown to the user
type Recommendation struct {
	Title       string `json:"title" jsonschema:"required,description=Short imperative title"`
	Description string `json:"description" jsonschema:"required,description=One or two sentences explaining the activity"`
}

type RecommendationsView struct {
	PrevalentEmotion string           `json:"prevalent_emotion"`
	Source           string           `json:"source"`
	Recommendations  []Recommendation `json:"recommendations"`
}
