package room_test

import (
	"context"

	"meetroom/backend/internal/assistant"

	"github.com/stretchr/testify/mock"
)

// MockCollaborator is a testify double for assistant.Collaborator.
type MockCollaborator struct {
	mock.Mock
}

func (m *MockCollaborator) Generate(ctx context.Context, req *assistant.Request) (*assistant.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*assistant.Response)
	return resp, args.Error(1)
}
