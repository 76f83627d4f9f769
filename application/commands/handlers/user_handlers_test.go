package handlers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/isaac-evs/neurotype-prod-backend/application/commands"
	"github.com/isaac-evs/neurotype-prod-backend/application/ports/mocks"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/entities"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/fixtures"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/valueobjects"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegisterUserHandler_Handle_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUserRepo := new(mocks.MockUserRepository)
	mockPublisher := new(mocks.MockEventPublisher)
	userID := valueobjects.NewUserID()
	email, _ := valueobjects.NewEmail("new@example.com")

	var created *entities.User
	mockUserRepo.On("GetByEmail", ctx, email).Return(nil, pkgerrors.NewNotFoundError("user"))
	mockUserRepo.On("Create", ctx, mock.AnythingOfType("*entities.User")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*entities.User) }).
		Return(nil)
	mockPublisher.On("PublishBatch", ctx, mock.Anything).Return(nil)

	handler := NewRegisterUserHandler(mockUserRepo, mocks.PlainHasher{}, mockPublisher, mocks.FixedClock{At: testNow}, zap.NewNop())

	// Act
	err := handler.Handle(ctx, commands.RegisterUserCommand{
		UserID:   userID.String(),
		Email:    "  New@Example.com ",
		Password: "correct horse",
	})

	// Assert
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "new@example.com", created.Email().String())
	assert.Equal(t, "hashed:correct horse", created.PasswordHash())
	assert.Equal(t, valueobjects.PlanLite, created.Plan())
	mockUserRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestRegisterUserHandler_Handle_DuplicateEmail(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUserRepo := new(mocks.MockUserRepository)
	existing := fixtures.NewUserBuilder().WithEmail("taken@example.com").MustBuild()
	mockUserRepo.On("GetByEmail", ctx, existing.Email()).Return(existing, nil)

	handler := NewRegisterUserHandler(mockUserRepo, mocks.PlainHasher{}, nil, mocks.FixedClock{At: testNow}, zap.NewNop())

	// Act
	err := handler.Handle(ctx, commands.RegisterUserCommand{
		UserID:   valueobjects.NewUserID().String(),
		Email:    "taken@example.com",
		Password: "password123",
	})

	// Assert
	assert.True(t, pkgerrors.IsConflict(err))
	mockUserRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegisterUserCommand_Validate(t *testing.T) {
	id := valueobjects.NewUserID().String()
	tests := []struct {
		name    string
		cmd     commands.RegisterUserCommand
		wantErr bool
	}{
		{"valid", commands.RegisterUserCommand{UserID: id, Email: "a@b.co", Password: "12345678"}, false},
		{"bad email", commands.RegisterUserCommand{UserID: id, Email: "not-an-email", Password: "12345678"}, true},
		{"short password", commands.RegisterUserCommand{UserID: id, Email: "a@b.co", Password: "1234"}, true},
		{"long password", commands.RegisterUserCommand{UserID: id, Email: "a@b.co", Password: strings.Repeat("x", 73)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.wantErr {
				assert.True(t, pkgerrors.IsValidation(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSelectPlanHandler_Handle(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUserRepo := new(mocks.MockUserRepository)
	mockPublisher := new(mocks.MockEventPublisher)
	user := fixtures.NewUserBuilder().MustBuild()

	mockUserRepo.On("GetByID", ctx, user.ID()).Return(user, nil)
	mockUserRepo.On("Update", ctx, user).Return(nil).Once()
	mockPublisher.On("PublishBatch", ctx, mock.Anything).Return(nil).Once()

	handler := NewSelectPlanHandler(mockUserRepo, mockPublisher, mocks.FixedClock{At: testNow}, zap.NewNop())

	// Act
	err := handler.Handle(ctx, commands.SelectPlanCommand{UserID: user.ID().String(), Plan: "PLUS"})
	require.NoError(t, err)
	// selecting the current plan again is a no-op
	err = handler.Handle(ctx, commands.SelectPlanCommand{UserID: user.ID().String(), Plan: "plus"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, valueobjects.PlanPlus, user.Plan())
	mockUserRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestUpdateProfileHandler_Handle_UploadsPhoto(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUserRepo := new(mocks.MockUserRepository)
	mockBlobs := new(mocks.MockBlobStore)
	user := fixtures.NewUserBuilder().MustBuild()
	name := "  Ada  "
	body := strings.NewReader("png-bytes")

	mockUserRepo.On("GetByID", ctx, user.ID()).Return(user, nil)
	mockBlobs.On("Put", ctx,
		mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "profile-photos/"+user.ID().String()+"/") && strings.HasSuffix(key, ".png")
		}),
		"image/png", body, int64(9)).
		Return("https://photos.example.com/p.png", nil)
	mockUserRepo.On("Update", ctx, user).Return(nil)

	handler := NewUpdateProfileHandler(mockUserRepo, mockBlobs, mocks.FixedClock{At: testNow}, zap.NewNop())

	// Act
	err := handler.Handle(ctx, commands.UpdateProfileCommand{
		UserID: user.ID().String(),
		Name:   &name,
		Photo:  &commands.PhotoUpload{Filename: "Me.PNG", ContentType: "image/png", Size: 9, Body: body},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name())
	assert.Equal(t, "https://photos.example.com/p.png", user.ProfilePhotoURL())
	mockUserRepo.AssertExpectations(t)
	mockBlobs.AssertExpectations(t)
}

func TestUpdateProfileHandler_Handle_UploadFailure(t *testing.T) {
	ctx := context.Background()
	mockUserRepo := new(mocks.MockUserRepository)
	mockBlobs := new(mocks.MockBlobStore)
	user := fixtures.NewUserBuilder().MustBuild()

	mockUserRepo.On("GetByID", ctx, user.ID()).Return(user, nil)
	mockBlobs.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("access denied"))

	handler := NewUpdateProfileHandler(mockUserRepo, mockBlobs, mocks.FixedClock{At: testNow}, zap.NewNop())

	err := handler.Handle(ctx, commands.UpdateProfileCommand{
		UserID: user.ID().String(),
		Photo:  &commands.PhotoUpload{Filename: "a.jpg", ContentType: "image/jpeg", Size: 1, Body: strings.NewReader("x")},
	})

	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeExternal))
	mockUserRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateProfileCommand_Validate(t *testing.T) {
	assert.True(t, pkgerrors.IsValidation(commands.UpdateProfileCommand{UserID: "u"}.Validate()))

	err := commands.UpdateProfileCommand{
		UserID: "u",
		Photo:  &commands.PhotoUpload{ContentType: "application/pdf", Size: 10},
	}.Validate()
	assert.True(t, pkgerrors.IsValidation(err))

	err = commands.UpdateProfileCommand{
		UserID: "u",
		Photo:  &commands.PhotoUpload{ContentType: "image/png", Size: commands.MaxPhotoSize + 1},
	}.Validate()
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestDeleteUserHandler_Handle_CascadesNotes(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUserRepo := new(mocks.MockUserRepository)
	mockNoteRepo := new(mocks.MockNoteRepository)
	mockPublisher := new(mocks.MockEventPublisher)
	user := fixtures.NewUserBuilder().MustBuild()

	mockUserRepo.On("GetByID", ctx, user.ID()).Return(user, nil)
	mockNoteRepo.On("DeleteAllByUser", ctx, user.ID().String()).Return(3, nil)
	mockUserRepo.On("Delete", ctx, user).Return(nil)
	mockPublisher.On("PublishBatch", ctx, mock.Anything).Return(nil)

	handler := NewDeleteUserHandler(mockUserRepo, mockNoteRepo, mockPublisher, mocks.FixedClock{At: testNow}, zap.NewNop())

	// Act
	err := handler.Handle(ctx, commands.DeleteUserCommand{UserID: user.ID().String()})

	// Assert
	require.NoError(t, err)
	mockUserRepo.AssertExpectations(t)
	mockNoteRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestDeleteUserHandler_Handle_NoteDeletionFails(t *testing.T) {
	ctx := context.Background()
	mockUserRepo := new(mocks.MockUserRepository)
	mockNoteRepo := new(mocks.MockNoteRepository)
	user := fixtures.NewUserBuilder().MustBuild()
	dbErr := errors.New("batch write failed")

	mockUserRepo.On("GetByID", ctx, user.ID()).Return(user, nil)
	mockNoteRepo.On("DeleteAllByUser", ctx, user.ID().String()).Return(1, dbErr)

	handler := NewDeleteUserHandler(mockUserRepo, mockNoteRepo, nil, mocks.FixedClock{At: testNow}, zap.NewNop())

	err := handler.Handle(ctx, commands.DeleteUserCommand{UserID: user.ID().String()})

	assert.ErrorIs(t, err, dbErr)
	mockUserRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
