package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	var got AuthorizeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/authorize", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(AuthorizeResponse{Authorized: got.SerialNumber == "SN1"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "secret")

	ok, err := c.Authorize(context.Background(), "SN1", "a@b.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, AuthorizeRequest{SerialNumber: "SN1", EmailAddress: "a@b.com"}, got)

	ok, err = c.Authorize(context.Background(), "SN2", "a@b.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidatePassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req PasswordRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(PasswordResponse{Valid: req.Password == "letmein"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	ok, err := c.ValidatePassword(context.Background(), "letmein")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.ValidatePassword(context.Background(), "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetUIConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Empty(t, r.Header.Get("Authorization"))
		io.WriteString(w, `{"cafeName":"MPG Cafe","stationId":"station-01","countdownSeconds":100}`)
	}))
	defer srv.Close()

	cfg, err := NewHTTPClient(srv.URL, "").GetUIConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "MPG Cafe", cfg.CafeName)
	assert.Equal(t, "station-01", cfg.StationID)
	assert.Equal(t, 100, cfg.CountdownSeconds)
}

func TestHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, "bad").Authorize(context.Background(), "a", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POST /api/v1/authorize: 401")
}

func TestHTTPContextCancel(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHTTPClient(srv.URL, "").ValidatePassword(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
