package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockTransport is a mock implementation of publisher.Transport.
type MockTransport struct {
	mock.Mock
}

//nolint:revive
func (m *MockTransport) Publish(ctx context.Context, channel, message string) error {
	args := m.Called(ctx, channel, message)
	return args.Error(0)
}

//nolint:revive
func (m *MockTransport) Close() error {
	args := m.Called()
	return args.Error(0)
}
