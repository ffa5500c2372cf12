package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/moviedeck/internal/identity"
	"github.com/vmunix/moviedeck/internal/storage"
)

func newTestService(t *testing.T) (*Service, *identity.Store) {
	t.Helper()
	kv := storage.NewMemory()
	t.Cleanup(func() { _ = kv.Close() })
	id := identity.New(context.Background(), kv)
	return New(kv, id, nil), id
}

func TestService_RegisterValidation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		confirm  string
		terms    bool
		want     string
	}{
		{"missing email", "", "pw", "pw", true, MsgEmailRequired},
		{"blank email", "   ", "pw", "pw", true, MsgEmailRequired},
		{"blank password", "a@b.co", "   ", "   ", true, MsgPasswordRequired},
		{"blank confirm", "a@b.co", "pw", " \t", true, MsgConfirmRequired},
		{"missing password", "a@b.co", "", "pw", true, MsgPasswordRequired},
		{"missing confirm", "a@b.co", "pw", "", true, MsgConfirmRequired},
		{"terms not accepted", "a@b.co", "pw", "pw", false, MsgTermsRequired},
		{"no at sign", "ab.co", "pw", "pw", true, MsgInvalidEmail},
		{"no dot in domain", "a@bco", "pw", "pw", true, MsgInvalidEmail},
		{"whitespace", "a b@c.co", "pw", "pw", true, MsgInvalidEmail},
		{"mismatch", "a@b.co", "pw", "pw2", true, MsgPasswordMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			res := svc.Register(context.Background(), tt.email, tt.password, tt.confirm, tt.terms)
			assert.False(t, res.Success)
			assert.Equal(t, tt.want, res.Message)
		})
	}
}

func TestService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)

	res := svc.Register(ctx, "neo@matrix.io", "redpill", "redpill", true)
	require.True(t, res.Success, res.Message)
	assert.False(t, id.IsAuthenticated(), "register does not log in")

	res = svc.Register(ctx, "neo@matrix.io", "other", "other", true)
	assert.False(t, res.Success)
	assert.Equal(t, MsgEmailTaken, res.Message)

	users, err := svc.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, []User{{Email: "neo@matrix.io", Password: "redpill"}}, users)

	res = svc.Login(ctx, "trinity@matrix.io", "redpill")
	assert.Equal(t, MsgEmailUnknown, res.Message)

	res = svc.Login(ctx, "neo@matrix.io", "bluepill")
	assert.Equal(t, MsgWrongPassword, res.Message)
	assert.False(t, id.IsAuthenticated())

	res = svc.Login(ctx, "neo@matrix.io", "redpill")
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "welcome, neo", res.Message)
	assert.Equal(t, "email_neo@matrix.io", id.PartitionKey())

	require.NoError(t, svc.Logout(ctx))
	assert.False(t, id.IsAuthenticated())
}

func TestService_LoginValidation(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)
	require.True(t, svc.Register(ctx, "a@b.co", "pw", "pw", true).Success)

	tests := []struct {
		name     string
		email    string
		password string
		want     string
	}{
		{"missing email", "", "pw", MsgEmailRequired},
		{"blank email", "  ", "pw", MsgEmailRequired},
		{"missing password", "a@b.co", "", MsgPasswordRequired},
		{"blank password", "a@b.co", "   ", MsgPasswordRequired},
		{"malformed email", "notanemail", "pw", MsgInvalidEmail},
		{"no dot in domain", "a@bco", "pw", MsgInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := svc.Login(ctx, tt.email, tt.password)
			assert.False(t, res.Success)
			assert.Equal(t, tt.want, res.Message)
			assert.False(t, id.IsAuthenticated())
		})
	}
}

func TestService_CorruptUsers(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	defer kv.Close()
	require.NoError(t, kv.Set(ctx, KeyUsers, []byte("not json")))

	svc := New(kv, identity.New(ctx, kv), nil)
	res := svc.Register(ctx, "a@b.co", "pw", "pw", true)
	assert.False(t, res.Success)
	assert.Equal(t, MsgStorageFailed, res.Message)
}
