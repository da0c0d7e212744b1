package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/electrobill-session/internal/mocks"
	"github.com/dtroode/electrobill-session/internal/model"
	"github.com/dtroode/electrobill-session/internal/store/memory"
)

func TestDecide(t *testing.T) {
	user := &model.User{ID: "u1"}

	tests := []struct {
		name string
		snap model.Snapshot
		want Decision
	}{
		{name: "uninitialized", snap: model.Snapshot{Status: model.StatusUninitialized}, want: DecisionLoading},
		{name: "resolving", snap: model.Snapshot{Status: model.StatusResolving}, want: DecisionLoading},
		{name: "unauthenticated", snap: model.Snapshot{Status: model.StatusUnauthenticated}, want: DecisionRedirectLogin},
		{name: "authenticated", snap: model.Snapshot{Status: model.StatusAuthenticated, User: user, Token: "tok1"}, want: DecisionRender},
		{name: "authenticated without token", snap: model.Snapshot{Status: model.StatusAuthenticated, User: user}, want: DecisionRedirectLogin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.snap))
		})
	}
}

func TestDecide_FollowsAuthority(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedStore(t, store, "tok1", adminUser)
	a := newAuthority(t, store, &mocks.Authenticator{})

	assert.Equal(t, DecisionLoading, Decide(a.Snapshot()))

	a.Initialize(ctx)
	assert.Equal(t, DecisionRender, Decide(a.Snapshot()))

	a.Logout(ctx)
	assert.Equal(t, DecisionRedirectLogin, Decide(a.Snapshot()))
}

func TestAuthority_Allows(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	a := newAuthority(t, store, &mocks.Authenticator{})
	a.Initialize(ctx)

	assert.False(t, a.Allows())
	assert.False(t, a.Allows("USERS_READ"))

	seedStore(t, store, "tok1", adminUser)
	a.Initialize(ctx)
	require.True(t, a.IsAuthenticated())

	assert.True(t, a.Allows())
	assert.True(t, a.Allows("USERS_READ"))
	assert.True(t, a.Allows("USERS_DELETE", "USERS_READ"))
	assert.False(t, a.Allows("USERS_DELETE"))
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "loading", DecisionLoading.String())
	assert.Equal(t, "redirect-login", DecisionRedirectLogin.String())
	assert.Equal(t, "render", DecisionRender.String())
	assert.Equal(t, "unknown", Decision(42).String())
}
