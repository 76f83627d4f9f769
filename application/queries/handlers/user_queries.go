package handlers

import (
	"context"

	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
	"github.com/isaac-evs/neurotype-prod-backend/application/queries"
	"github.com/isaac-evs/neurotype-prod-backend/application/services"
	"github.com/isaac-evs/neurotype-prod-backend/domain/analytics"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/entities"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/valueobjects"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
)

func findUser(ctx context.Context, repo ports.UserRepository, rawID string) (*entities.User, error) {
	userID, err := valueobjects.NewUserIDFromString(rawID)
	if err != nil {
		return nil, pkgerrors.NewNotFoundError("user")
	}
	return repo.GetByID(ctx, userID)
}

// GetCurrentUserHandler returns the caller's profile
type GetCurrentUserHandler struct {
	userRepo ports.UserRepository
}

func NewGetCurrentUserHandler(userRepo ports.UserRepository) *GetCurrentUserHandler {
	return &GetCurrentUserHandler{userRepo: userRepo}
}

func (h *GetCurrentUserHandler) Handle(ctx context.Context, query queries.GetCurrentUserQuery) (result *queries.UserView, err error) {
	ctx, span := startSpan(ctx, "query.GetCurrentUser", query.UserID)
	defer func() { endSpan(span, err) }()

	user, err := findUser(ctx, h.userRepo, query.UserID)
	if err != nil {
		return nil, err
	}
	view := queries.NewUserView(user)
	return &view, nil
}

// DashboardHandler assembles the weekly dashboard
type DashboardHandler struct {
	userRepo   ports.UserRepository
	noteRepo   ports.NoteRepository
	aggregator *analytics.Aggregator
	clock      ports.Clock
}

func NewDashboardHandler(
	userRepo ports.UserRepository,
	noteRepo ports.NoteRepository,
	aggregator *analytics.Aggregator,
	clock ports.Clock,
) *DashboardHandler {
	return &DashboardHandler{
		userRepo:   userRepo,
		noteRepo:   noteRepo,
		aggregator: aggregator,
		clock:      clock,
	}
}

// Handle executes the dashboard query
func (h *DashboardHandler) Handle(ctx context.Context, query queries.GetDashboardQuery) (result *queries.DashboardView, err error) {
	ctx, span := startSpan(ctx, "query.GetDashboard", query.UserID)
	defer func() { endSpan(span, err) }()

	user, err := findUser(ctx, h.userRepo, query.UserID)
	if err != nil {
		return nil, err
	}

	total, err := h.noteRepo.CountByUser(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	week, err := h.aggregator.AggregateWeek(ctx, query.UserID, h.clock.Now())
	if err != nil {
		return nil, err
	}

	daily := make([]queries.DailyEmotionDataView, 0, len(week.Days))
	for _, d := range week.Days {
		daily = append(daily, queries.DailyEmotionDataView{
			Date:     d.Date.String(),
			Emotions: d.Emotions.Map(),
		})
	}

	var prevalentToday *string
	if week.PrevalentToday != nil {
		label := week.PrevalentToday.String()
		prevalentToday = &label
	}

	userView := queries.NewUserView(user)
	return &queries.DashboardView{
		Name:                  user.Name(),
		ProfilePhotoURL:       userView.ProfilePhotoURL,
		TotalNotes:            total,
		EmotionCounts:         week.Totals.Map(),
		WeeklyEmotionData:     daily,
		PrevalentEmotionToday: prevalentToday,
		Plan:                  user.Plan().String(),
	}, nil
}

// RecommendationsHandler returns activity suggestions for the caller
type RecommendationsHandler struct {
	userRepo        ports.UserRepository
	recommendations *services.RecommendationService
}

func NewRecommendationsHandler(userRepo ports.UserRepository, recommendations *services.RecommendationService) *RecommendationsHandler {
	return &RecommendationsHandler{userRepo: userRepo, recommendations: recommendations}
}

func (h *RecommendationsHandler) Handle(ctx context.Context, query queries.GetRecommendationsQuery) (result *queries.RecommendationsView, err error) {
	ctx, span := startSpan(ctx, "query.GetRecommendations", query.UserID)
	defer func() { endSpan(span, err) }()

	user, err := findUser(ctx, h.userRepo, query.UserID)
	if err != nil {
		return nil, err
	}
	return h.recommendations.Recommend(ctx, user)
}
