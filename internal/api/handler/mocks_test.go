package handler_test

import (
	"context"

	"meetroom/backend/internal/identity"
	"meetroom/backend/internal/models"
	"meetroom/backend/internal/room"

	"github.com/stretchr/testify/mock"
)

// MockRooms is a testify double for handler.Rooms.
type MockRooms struct {
	mock.Mock
}

func (m *MockRooms) EnterRoom(ctx context.Context, roomID string, user models.User) error {
	return m.Called(ctx, roomID, user).Error(0)
}

func (m *MockRooms) LeaveRoom(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRooms) SendChat(ctx context.Context, text string, mode models.AIMode) (models.ChatMessage, error) {
	args := m.Called(ctx, text, mode)
	return args.Get(0).(models.ChatMessage), args.Error(1)
}

func (m *MockRooms) SetMode(mode models.AIMode) error {
	return m.Called(mode).Error(0)
}

func (m *MockRooms) ToggleMic() (models.MediaState, error) {
	args := m.Called()
	return args.Get(0).(models.MediaState), args.Error(1)
}

func (m *MockRooms) ToggleCamera() (models.MediaState, error) {
	args := m.Called()
	return args.Get(0).(models.MediaState), args.Error(1)
}

func (m *MockRooms) StartShare(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRooms) StopShare() error {
	return m.Called().Error(0)
}

func (m *MockRooms) Messages() ([]models.ChatMessage, error) {
	args := m.Called()
	msgs, _ := args.Get(0).([]models.ChatMessage)
	return msgs, args.Error(1)
}

func (m *MockRooms) State() room.State {
	return m.Called().Get(0).(room.State)
}

func (m *MockRooms) ShareLink(baseURL string) (string, error) {
	args := m.Called(baseURL)
	return args.String(0), args.Error(1)
}

// MockIdentity is a testify double for handler.Identity.
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) Login(ctx context.Context, p identity.Profile) (*models.User, error) {
	args := m.Called(ctx, p)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockIdentity) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockIdentity) Restore(ctx context.Context) (*models.User, error) {
	args := m.Called(ctx)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockIdentity) Current() *models.User {
	u, _ := m.Called().Get(0).(*models.User)
	return u
}
