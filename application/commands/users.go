package commands

import (
	"io"
	"strings"

	"github.com/isaac-evs/neurotype-prod-backend/domain/core/valueobjects"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt ignores anything longer
	MaxPhotoSize      = 5 << 20
)

// RegisterUserCommand creates an account
type RegisterUserCommand struct {
	UserID   string
	Email    string
	Password string
}

func (c RegisterUserCommand) Validate() error {
	if c.UserID == "" {
		return pkgerrors.NewValidationError("user ID is required")
	}
	if _, err := valueobjects.NewEmail(c.Email); err != nil {
		return err
	}
	if len(c.Password) < MinPasswordLength {
		return pkgerrors.NewValidationError("password must be at least 8 characters")
	}
	if len(c.Password) > MaxPasswordLength {
		return pkgerrors.NewValidationError("password must be at most 72 bytes")
	}
	return nil
}

// SelectPlanCommand switches a user between lite and plus
type SelectPlanCommand struct {
	UserID string
	Plan   string
}

func (c SelectPlanCommand) Validate() error {
	if c.UserID == "" {
		return pkgerrors.NewValidationError("user ID is required")
	}
	_, err := valueobjects.ParsePlan(c.Plan)
	return err
}

// PhotoUpload is an image received from a multipart form
type PhotoUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UpdateProfileCommand sets the display name and/or the profile photo
type UpdateProfileCommand struct {
	UserID string
	Name   *string
	Photo  *PhotoUpload
}

func (c UpdateProfileCommand) Validate() error {
	if c.UserID == "" {
		return pkgerrors.NewValidationError("user ID is required")
	}
	if c.Name == nil && c.Photo == nil {
		return pkgerrors.NewValidationError("no profile data provided")
	}
	if c.Photo != nil {
		if !strings.HasPrefix(c.Photo.ContentType, "image/") {
			return pkgerrors.NewValidationError("profile photo must be an image")
		}
		if c.Photo.Size > MaxPhotoSize {
			return pkgerrors.NewValidationError("profile photo must be at most 5MB")
		}
	}
	return nil
}

// DeleteUserCommand removes an account and everything it owns
type DeleteUserCommand struct {
	UserID string
}

func (c DeleteUserCommand) Validate() error {
	if c.UserID == "" {
		return pkgerrors.NewValidationError("user ID is required")
	}
	return nil
}
