package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/isaac-evs/neurotype-prod-backend/application/commands"
	"github.com/isaac-evs/neurotype-prod-backend/application/commands/bus"
	"github.com/isaac-evs/neurotype-prod-backend/application/queries"
	querybus "github.com/isaac-evs/neurotype-prod-backend/application/queries/bus"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"github.com/isaac-evs/neurotype-prod-backend/pkg/utils"
	"go.uber.org/zap"
)

// NoteHandler handles note-related HTTP requests
type NoteHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	location   *time.Location
	errs       *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewNoteHandler creates a new note handler. Plain dates in query
// parameters are read in location.
func NewNoteHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	location *time.Location,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *NoteHandler {
	if location == nil {
		location = time.UTC
	}
	return &NoteHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		location:   location,
		errs:       errs,
		logger:     logger,
	}
}

// NoteRequest is the body of create and update
type NoteRequest struct {
	Text string `json:"text" validate:"required"`
}

// CreateNote handles POST /notes
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r, h.errs)
	if !ok {
		return
	}

	var req NoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	noteID := uuid.New().String()
	cmd := commands.CreateNoteCommand{
		NoteID: noteID,
		UserID: userID,
		Text:   req.Text,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Error("Failed to create note", zap.String("userID", userID), zap.Error(err))
		h.errs.Handle(w, r, err)
		return
	}

	h.respondNote(w, r, userID, noteID, http.StatusCreated)
}

// ListNotes handles GET /notes?start_date=&end_date=
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r, h.errs)
	if !ok {
		return
	}

	q := r.URL.Query()
	start, err := utils.ParseTimeParam("start_date", q.Get("start_date"), h.location, false)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	end, err := utils.ParseTimeParam("end_date", q.Get("end_date"), h.location, true)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListNotesQuery{
		UserID:    userID,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

// GetNote handles GET /notes/{noteID}
func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r, h.errs)
	if !ok {
		return
	}
	h.respondNote(w, r, userID, chi.URLParam(r, "noteID"), http.StatusOK)
}

// UpdateNote handles PUT /notes/{noteID}
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r, h.errs)
	if !ok {
		return
	}
	noteID := chi.URLParam(r, "noteID")

	var req NoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	cmd := commands.UpdateNoteCommand{
		NoteID: noteID,
		UserID: userID,
		Text:   req.Text,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	h.respondNote(w, r, userID, noteID, http.StatusOK)
}

// DeleteNote handles DELETE /notes/{noteID} and returns the removed note
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r, h.errs)
	if !ok {
		return
	}
	noteID := chi.URLParam(r, "noteID")

	note, err := h.queryBus.Ask(r.Context(), queries.GetNoteQuery{UserID: userID, NoteID: noteID})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	if err := h.commandBus.Send(r.Context(), commands.DeleteNoteCommand{NoteID: noteID, UserID: userID}); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, note)
}

// DailyAnalysis handles GET /notes/daily-analysis?analysis_date=YYYY-MM-DD
func (h *NoteHandler) DailyAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r, h.errs)
	if !ok {
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetDailyAnalysisQuery{
		UserID: userID,
		Date:   r.URL.Query().Get("analysis_date"),
	})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

// EmotionsSummary handles GET /notes/emotions-summary?start_date=&end_date=
func (h *NoteHandler) EmotionsSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r, h.errs)
	if !ok {
		return
	}

	q := r.URL.Query()
	result, err := h.queryBus.Ask(r.Context(), queries.GetEmotionsSummaryQuery{
		UserID:    userID,
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

func (h *NoteHandler) respondNote(w http.ResponseWriter, r *http.Request, userID, noteID string, status int) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetNoteQuery{UserID: userID, NoteID: noteID})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, status, result)
}
