package kakao

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmunix/moviedeck/internal/identity"
)

func TestClient_StatusInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/user/access_token_info", r.URL.Path)
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			_, _ = w.Write([]byte(`{"id":77,"expires_in":7199,"app_id":1}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"msg":"this access token does not exist","code":-401}`))
		}
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))

	status, err := c.StatusInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusNotConnected, status, "no token is not connected")

	c.SetAccessToken("good")
	status, err = c.StatusInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, identity.StatusConnected, status)

	c.SetAccessToken("revoked")
	status, err = c.StatusInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusNotConnected, status)
}

func TestClient_StatusInfo_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	c.SetAccessToken("good")

	_, err := c.StatusInfo(context.Background())
	assert.Error(t, err)
}

func TestClient_Logout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/user/logout", r.URL.Path)
		assert.Equal(t, "Bearer good", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":77}`))
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	assert.ErrorIs(t, c.Logout(context.Background()), ErrNoToken)

	c.SetAccessToken("good")
	require.NoError(t, c.Logout(context.Background()))
	assert.Empty(t, c.AccessToken(), "logout forgets the token")
}

func TestClient_Me(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/user/me", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":77,"kakao_account":{"profile":{"nickname":"Morpheus"}}}`))
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	c.SetAccessToken("good")

	p, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(77), p.ID)
	assert.Equal(t, "Morpheus", p.Nickname())
}
