package presence_test

import (
	"context"

	"meetroom/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockRoster is a testify double for storage.Roster.
type MockRoster struct {
	mock.Mock
}

func (m *MockRoster) AddParticipant(ctx context.Context, roomID, userID string, rec models.ParticipantRecord) error {
	args := m.Called(ctx, roomID, userID, rec)
	return args.Error(0)
}

func (m *MockRoster) RemoveParticipant(ctx context.Context, roomID, userID string) error {
	args := m.Called(ctx, roomID, userID)
	return args.Error(0)
}

func (m *MockRoster) ParticipantCount(ctx context.Context, roomID string) (int, error) {
	args := m.Called(ctx, roomID)
	return args.Int(0), args.Error(1)
}

func (m *MockRoster) SubscribeParticipants(ctx context.Context, roomID string, onCount func(int)) (func(), error) {
	args := m.Called(ctx, roomID, onCount)
	unsubscribe, _ := args.Get(0).(func())
	return unsubscribe, args.Error(1)
}
