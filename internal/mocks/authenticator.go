package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/electrobill-session/internal/model"
)

// Authenticator is a testify mock of model.Authenticator.
type Authenticator struct {
	mock.Mock
}

var _ model.Authenticator = (*Authenticator)(nil)

func (m *Authenticator) Authenticate(ctx context.Context, creds model.Credentials) (model.AuthResult, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(model.AuthResult), args.Error(1)
}
