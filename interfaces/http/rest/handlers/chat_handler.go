package handlers

import (
	"net/http"

	"github.com/isaac-evs/neurotype-prod-backend/application/services"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"github.com/isaac-evs/neurotype-prod-backend/pkg/utils"
	"go.uber.org/zap"
)

// ChatRecorder counts chat exchanges by outcome
type ChatRecorder interface {
	RecordChat(err error)
}

// ChatHandler answers single chat messages over plain HTTP
type ChatHandler struct {
	chat     *services.ChatService
	recorder ChatRecorder
	errs     *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

// NewChatHandler creates a chat handler; recorder may be nil
func NewChatHandler(chat *services.ChatService, recorder ChatRecorder, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, recorder: recorder, errs: errs, logger: logger}
}

type ChatRequest struct {
	Message string `json:"message" validate:"required"`
}

type ChatResponse struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Chat handles POST /chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r, h.errs)
	if !ok {
		return
	}

	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	reply, err := h.chat.Reply(r.Context(), userID, req.Message)
	if h.recorder != nil {
		h.recorder.RecordChat(err)
	}
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, ChatResponse{Type: "response", Content: reply})
}
