package handlers

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/isaac-evs/neurotype-prod-backend/application/commands"
	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/entities"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/valueobjects"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"go.uber.org/zap"
)

// RegisterUserHandler creates accounts
type RegisterUserHandler struct {
	userRepo  ports.UserRepository
	hasher    ports.PasswordHasher
	publisher ports.EventPublisher
	clock     ports.Clock
	logger    *zap.Logger
}

func NewRegisterUserHandler(
	userRepo ports.UserRepository,
	hasher ports.PasswordHasher,
	publisher ports.EventPublisher,
	clock ports.Clock,
	logger *zap.Logger,
) *RegisterUserHandler {
	return &RegisterUserHandler{
		userRepo:  userRepo,
		hasher:    hasher,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// Handle executes the register user command. A taken email is a conflict.
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd commands.RegisterUserCommand) error {
	userID, err := valueobjects.NewUserIDFromString(cmd.UserID)
	if err != nil {
		return err
	}
	email, err := valueobjects.NewEmail(cmd.Email)
	if err != nil {
		return err
	}

	existing, err := h.userRepo.GetByEmail(ctx, email)
	if err != nil && !pkgerrors.IsNotFound(err) {
		return err
	}
	if existing != nil {
		return pkgerrors.NewConflictError("Email already registered")
	}

	hash, err := h.hasher.Hash(cmd.Password)
	if err != nil {
		return pkgerrors.NewInternalError("failed to hash password").WithCause(err)
	}

	user, err := entities.NewUser(userID, email, hash, h.clock.Now())
	if err != nil {
		return err
	}

	// Create enforces uniqueness again for concurrent registrations
	if err := h.userRepo.Create(ctx, user); err != nil {
		return err
	}

	h.logger.Info("User registered", zap.String("userID", userID.String()))
	publishEvents(ctx, h.publisher, h.logger, user.GetUncommittedEvents())
	user.MarkEventsAsCommitted()
	return nil
}

// SelectPlanHandler switches subscription tiers
type SelectPlanHandler struct {
	userRepo  ports.UserRepository
	publisher ports.EventPublisher
	clock     ports.Clock
	logger    *zap.Logger
}

func NewSelectPlanHandler(
	userRepo ports.UserRepository,
	publisher ports.EventPublisher,
	clock ports.Clock,
	logger *zap.Logger,
) *SelectPlanHandler {
	return &SelectPlanHandler{
		userRepo:  userRepo,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// Handle executes the select plan command
func (h *SelectPlanHandler) Handle(ctx context.Context, cmd commands.SelectPlanCommand) error {
	plan, err := valueobjects.ParsePlan(cmd.Plan)
	if err != nil {
		return err
	}

	user, err := loadUser(ctx, h.userRepo, cmd.UserID)
	if err != nil {
		return err
	}

	user.SelectPlan(plan, h.clock.Now())
	if len(user.GetUncommittedEvents()) == 0 {
		return nil
	}

	if err := h.userRepo.Update(ctx, user); err != nil {
		return err
	}

	publishEvents(ctx, h.publisher, h.logger, user.GetUncommittedEvents())
	user.MarkEventsAsCommitted()
	return nil
}

// UpdateProfileHandler stores a new display name and/or profile photo
type UpdateProfileHandler struct {
	userRepo ports.UserRepository
	blobs    ports.BlobStore
	clock    ports.Clock
	logger   *zap.Logger
}

func NewUpdateProfileHandler(
	userRepo ports.UserRepository,
	blobs ports.BlobStore,
	clock ports.Clock,
	logger *zap.Logger,
) *UpdateProfileHandler {
	return &UpdateProfileHandler{
		userRepo: userRepo,
		blobs:    blobs,
		clock:    clock,
		logger:   logger,
	}
}

// Handle executes the update profile command
func (h *UpdateProfileHandler) Handle(ctx context.Context, cmd commands.UpdateProfileCommand) error {
	user, err := loadUser(ctx, h.userRepo, cmd.UserID)
	if err != nil {
		return err
	}

	var photoURL *string
	if cmd.Photo != nil {
		key := photoKey(cmd.UserID, cmd.Photo.Filename)
		url, err := h.blobs.Put(ctx, key, cmd.Photo.ContentType, cmd.Photo.Body, cmd.Photo.Size)
		if err != nil {
			return pkgerrors.NewExternalError("blob storage", err)
		}
		h.logger.Info("Profile photo uploaded", zap.String("userID", cmd.UserID), zap.String("key", key))
		photoURL = &url
	}

	if err := user.UpdateProfile(cmd.Name, photoURL, h.clock.Now()); err != nil {
		return err
	}
	return h.userRepo.Update(ctx, user)
}

func photoKey(userID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("profile-photos/%s/%s%s", userID, uuid.NewString(), ext)
}

// DeleteUserHandler removes an account together with its notes
type DeleteUserHandler struct {
	userRepo  ports.UserRepository
	noteRepo  ports.NoteRepository
	publisher ports.EventPublisher
	clock     ports.Clock
	logger    *zap.Logger
}

func NewDeleteUserHandler(
	userRepo ports.UserRepository,
	noteRepo ports.NoteRepository,
	publisher ports.EventPublisher,
	clock ports.Clock,
	logger *zap.Logger,
) *DeleteUserHandler {
	return &DeleteUserHandler{
		userRepo:  userRepo,
		noteRepo:  noteRepo,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// Handle executes the delete user command. Notes go first so a failure
// leaves the account in place and the request can be retried.
func (h *DeleteUserHandler) Handle(ctx context.Context, cmd commands.DeleteUserCommand) error {
	user, err := loadUser(ctx, h.userRepo, cmd.UserID)
	if err != nil {
		return err
	}

	deleted, err := h.noteRepo.DeleteAllByUser(ctx, cmd.UserID)
	if err != nil {
		return err
	}

	if err := h.userRepo.Delete(ctx, user); err != nil {
		return err
	}

	h.logger.Info("User deleted", zap.String("userID", cmd.UserID), zap.Int("notesDeleted", deleted))
	user.MarkDeleted(h.clock.Now())
	publishEvents(ctx, h.publisher, h.logger, user.GetUncommittedEvents())
	user.MarkEventsAsCommitted()
	return nil
}

func loadUser(ctx context.Context, repo ports.UserRepository, rawID string) (*entities.User, error) {
	userID, err := valueobjects.NewUserIDFromString(rawID)
	if err != nil {
		return nil, pkgerrors.NewNotFoundError("user")
	}
	return repo.GetByID(ctx, userID)
}
