package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/electrobill-session/internal/model"
)

// Store is a testify mock of model.Store.
type Store struct {
	mock.Mock
}

var _ model.Store = (*Store)(nil)

func (m *Store) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *Store) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *Store) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
