package handlers

import (
	"net/http"

	"github.com/isaac-evs/neurotype-prod-backend/application/queries"
	querybus "github.com/isaac-evs/neurotype-prod-backend/application/queries/bus"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"go.uber.org/zap"
)

// DashboardHandler serves the read-only views built from a user's week
type DashboardHandler struct {
	queryBus *querybus.QueryBus
	errs     *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

func NewDashboardHandler(queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{queryBus: queryBus, errs: errs, logger: logger}
}

// GetDashboard handles GET /dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, func(userID string) querybus.Query { return queries.GetDashboardQuery{UserID: userID} })
}

// GetRecommendations handles GET /recommendations
func (h *DashboardHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, func(userID string) querybus.Query { return queries.GetRecommendationsQuery{UserID: userID} })
}

func (h *DashboardHandler) ask(w http.ResponseWriter, r *http.Request, build func(userID string) querybus.Query) {
	userID, ok := callerID(w, r, h.errs)
	if !ok {
		return
	}
	result, err := h.queryBus.Ask(r.Context(), build(userID))
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}
