package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/isaac-evs/neurotype-prod-backend/application/queries"
	querybus "github.com/isaac-evs/neurotype-prod-backend/application/queries/bus"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"go.uber.org/zap"
)

// ExportHandler streams a user's notes as CSV
type ExportHandler struct {
	queryBus *querybus.QueryBus
	errs     *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

func NewExportHandler(queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{queryBus: queryBus, errs: errs, logger: logger}
}

// Export handles GET /data/export
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r, h.errs)
	if !ok {
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ExportNotesQuery{UserID: userID})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	notes, ok := result.([]queries.NoteView)
	if !ok {
		h.errs.Handle(w, r, pkgerrors.NewInternalError(fmt.Sprintf("unexpected export result %T", result)))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=notes.csv")
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "text", "created_at"})
	for _, n := range notes {
		_ = cw.Write([]string{n.ID, n.Text, n.CreatedAt.UTC().Format(time.RFC3339)})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Error("Failed to write export", zap.String("userID", userID), zap.Error(err))
		return
	}
	h.logger.Info("Notes exported", zap.String("userID", userID), zap.Int("count", len(notes)))
}
