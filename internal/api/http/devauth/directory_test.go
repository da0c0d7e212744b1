package devauth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/electrobill-session/internal/model"
)

func newTestDirectory(t *testing.T, seeds ...Seed) *Directory {
	t.Helper()
	dir, err := NewDirectory(bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, dir.Populate(seeds))
	return dir
}

func TestDirectory_AddAndVerify(t *testing.T) {
	dir := newTestDirectory(t)

	added, err := dir.Add(Seed{
		ID:          "u1",
		Email:       "A@B.com",
		Password:    "correct-pw",
		Role:        "ADMIN",
		Permissions: []string{"USERS_READ"},
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", added.ID)

	user, err := dir.Verify("a@b.com", "correct-pw")
	require.NoError(t, err)
	assert.Equal(t, model.User{ID: "u1", Email: "A@B.com", Role: "ADMIN", Permissions: []string{"USERS_READ"}}, user)

	_, err = dir.Verify("a@b.com", "wrong-pw")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = dir.Verify("nobody@b.com", "correct-pw")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestDirectory_Add_GeneratesID(t *testing.T) {
	dir := newTestDirectory(t)

	user, err := dir.Add(Seed{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	_, err = uuid.Parse(user.ID)
	assert.NoError(t, err)
}

func TestDirectory_Add_Rejects(t *testing.T) {
	dir := newTestDirectory(t, Seed{ID: "u1", Email: "a@b.com", Password: "pw"})

	_, err := dir.Add(Seed{Email: "", Password: "pw"})
	assert.Error(t, err)

	_, err = dir.Add(Seed{Email: "x@b.com", Password: ""})
	assert.Error(t, err)

	_, err = dir.Add(Seed{Email: " A@B.COM ", Password: "other"})
	assert.Error(t, err)

	_, err = dir.Add(Seed{ID: "u1", Email: "c@d.com", Password: "pw"})
	assert.Error(t, err)

	assert.Equal(t, 1, dir.Len())
}

func TestDirectory_VerifyReturnsCopy(t *testing.T) {
	dir := newTestDirectory(t, Seed{Email: "a@b.com", Password: "pw", Permissions: []string{"USERS_READ"}})

	user, err := dir.Verify("a@b.com", "pw")
	require.NoError(t, err)
	user.Permissions[0] = "USERS_DELETE"

	again, err := dir.Verify("a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, []string{"USERS_READ"}, again.Permissions)
}

func TestDirectory_Lookup(t *testing.T) {
	dir := newTestDirectory(t, Seed{ID: "u1", Email: "a@b.com", Password: "pw", Permissions: []string{"USERS_READ"}})

	user, ok := dir.Lookup("u1")
	require.True(t, ok)
	assert.Equal(t, "a@b.com", user.Email)
	user.Permissions[0] = "USERS_DELETE"

	again, ok := dir.Lookup("u1")
	require.True(t, ok)
	assert.Equal(t, []string{"USERS_READ"}, again.Permissions)

	_, ok = dir.Lookup("missing")
	assert.False(t, ok)
}

func TestLoadSeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"email": "clerk@shop.test", "password": "pw", "role": "CASHIER", "permissions": ["INVOICES_READ"]}
	]`), 0o600))

	seeds, err := LoadSeeds(path)
	require.NoError(t, err)
	require.Len(t, seeds, 1)
	assert.Equal(t, "clerk@shop.test", seeds[0].Email)
	assert.Equal(t, []string{"INVOICES_READ"}, seeds[0].Permissions)
}

func TestLoadSeeds_Errors(t *testing.T) {
	_, err := LoadSeeds(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read users file")

	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"email": 1}`), 0o600))
	_, err = LoadSeeds(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode users file")
}

func TestDefaultSeeds_Populate(t *testing.T) {
	dir := newTestDirectory(t, DefaultSeeds...)
	assert.Equal(t, len(DefaultSeeds), dir.Len())

	admin, err := dir.Verify("admin@electrobill.local", "admin")
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", admin.Role)
	assert.Contains(t, admin.Permissions, "USERS_READ")
}
