package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/isaac-evs/neurotype-prod-backend/application/commands"
	"github.com/isaac-evs/neurotype-prod-backend/application/commands/bus"
	"github.com/isaac-evs/neurotype-prod-backend/application/queries"
	querybus "github.com/isaac-evs/neurotype-prod-backend/application/queries/bus"
	"github.com/isaac-evs/neurotype-prod-backend/application/services"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"github.com/isaac-evs/neurotype-prod-backend/pkg/utils"
	"go.uber.org/zap"
)

// UserHandler handles account HTTP requests
type UserHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	auth       *services.AuthService
	errs       *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	authService *services.AuthService,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *UserHandler {
	return &UserHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		auth:       authService,
		errs:       errs,
		logger:     logger,
	}
}

// RegisterRequest represents the request body for creating an account
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest carries credentials. OAuth2 clients send the email as username.
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Password string `json:"password" validate:"required"`
}

// Register handles POST /register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	cmd := commands.RegisterUserCommand{
		UserID:   uuid.New().String(),
		Email:    req.Email,
		Password: req.Password,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	h.logger.Info("User registered", zap.String("userID", cmd.UserID))
	h.respondUser(w, r, cmd.UserID, http.StatusCreated)
}

// Login handles POST /login with a JSON body or an OAuth2 password form
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			h.errs.Handle(w, r, pkgerrors.NewValidationError("Invalid form body"))
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	} else if err := decodeJSON(w, r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if req.Email == "" {
		req.Email = req.Username
	}
	if req.Email == "" {
		h.errs.Handle(w, r, pkgerrors.NewValidationError("email is required"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, token)
}

// SelectPlan handles PUT /select-plan. The body is either a bare JSON
// string ("lite") or an object ({"plan": "lite"}).
func (h *UserHandler) SelectPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r, h.errs)
	if !ok {
		return
	}

	var raw json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	var plan string
	if err := json.Unmarshal(raw, &plan); err != nil {
		var body struct {
			Plan string `json:"plan"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			h.errs.Handle(w, r, pkgerrors.NewValidationError("Invalid plan type"))
			return
		}
		plan = body.Plan
	}

	if err := h.commandBus.Send(r.Context(), commands.SelectPlanCommand{UserID: userID, Plan: plan}); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	h.respondUser(w, r, userID, http.StatusOK)
}

// UpdateProfile handles PUT /profile (multipart: name, file)
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r, h.errs)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, commands.MaxPhotoSize+(1<<20))
	if err := r.ParseMultipartForm(commands.MaxPhotoSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errs.Handle(w, r, pkgerrors.NewValidationError("profile photo must be at most 5MB"))
			return
		}
		h.errs.Handle(w, r, pkgerrors.NewValidationError("Invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	cmd := commands.UpdateProfileCommand{UserID: userID}
	if name := strings.TrimSpace(r.FormValue("name")); name != "" {
		cmd.Name = &name
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		cmd.Photo = photoUpload(file, header)
	case errors.Is(err, http.ErrMissingFile):
	default:
		h.errs.Handle(w, r, pkgerrors.NewValidationError("Invalid file upload"))
		return
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	h.respondUser(w, r, userID, http.StatusOK)
}

func photoUpload(file multipart.File, header *multipart.FileHeader) *commands.PhotoUpload {
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		sniff := make([]byte, 512)
		n, _ := file.Read(sniff)
		contentType = http.DetectContentType(sniff[:n])
		_, _ = file.Seek(0, 0)
	}
	return &commands.PhotoUpload{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	}
}

// Me handles GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r, h.errs)
	if !ok {
		return
	}
	h.respondUser(w, r, userID, http.StatusOK)
}

// DeleteAccount handles DELETE /users/me
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r, h.errs)
	if !ok {
		return
	}

	if err := h.commandBus.Send(r.Context(), commands.DeleteUserCommand{UserID: userID}); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) respondUser(w http.ResponseWriter, r *http.Request, userID string, status int) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetCurrentUserQuery{UserID: userID})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, status, result)
}
