package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tripwiser/internal/auth"
	"github.com/mmynk/tripwiser/internal/models"
	"github.com/mmynk/tripwiser/internal/rpc"
)

const testService = "test.v1.WhoAmIService"

type whoAmIRequest struct{}

type whoAmIResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

func whoAmI(ctx context.Context, _ *connect.Request[whoAmIRequest]) (*connect.Response[whoAmIResponse], error) {
	return connect.NewResponse(&whoAmIResponse{UserID: GetUserID(ctx), Username: GetUsername(ctx)}), nil
}

func newServer(t *testing.T, interceptors ...connect.Interceptor) *connect.Client[whoAmIRequest, whoAmIResponse] {
	t.Helper()
	m := rpc.NewServiceMux(testService, connect.WithInterceptors(interceptors...))
	rpc.Handle(m, "WhoAmI", whoAmI)

	mux := http.NewServeMux()
	mux.Handle(m.Handler())
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return rpc.NewClient[whoAmIRequest, whoAmIResponse](srv.Client(), srv.URL, testService, "WhoAmI")
}

func call(client *connect.Client[whoAmIRequest, whoAmIResponse], token string) (*whoAmIResponse, error) {
	req := connect.NewRequest(&whoAmIRequest{})
	if token != "" {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	res, err := client.CallUnary(context.Background(), req)
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func TestRequireAuth(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour)
	client := newServer(t, LoggingInterceptor(), MetricsInterceptor(), RequireAuth(manager))

	token, err := manager.Generate(&models.User{ID: "u-1", Username: "alice"})
	require.NoError(t, err)

	t.Run("valid token populates context", func(t *testing.T) {
		res, err := call(client, token)
		require.NoError(t, err)
		assert.Equal(t, "u-1", res.UserID)
		assert.Equal(t, "alice", res.Username)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := call(client, "")
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})

	t.Run("forged token", func(t *testing.T) {
		forged, _ := auth.NewJWTManager("other", time.Hour).Generate(&models.User{ID: "u-1"})
		_, err := call(client, forged)
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})
}

func TestRequireAuth_PublicProcedure(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour)
	client := newServer(t, RequireAuth(manager, rpc.Procedure(testService, "WhoAmI")))

	res, err := call(client, "")
	require.NoError(t, err)
	assert.Empty(t, res.UserID)
}

func TestRateLimiter(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour)
	limiter := NewRateLimiter(1, 2)
	client := newServer(t, RequireAuth(manager), limiter.Interceptor())

	alice, _ := manager.Generate(&models.User{ID: "alice"})
	bob, _ := manager.Generate(&models.User{ID: "bob"})

	for i := 0; i < 2; i++ {
		_, err := call(client, alice)
		require.NoError(t, err, "request %d within burst", i)
	}
	_, err := call(client, alice)
	assert.Equal(t, connect.CodeResourceExhausted, connect.CodeOf(err))

	// Buckets are per user.
	_, err = call(client, bob)
	assert.NoError(t, err)
}

func TestRateLimiter_OnlyListedProcedures(t *testing.T) {
	limiter := NewRateLimiter(1, 1, "/other.v1.Service/Method")
	client := newServer(t, limiter.Interceptor())

	for i := 0; i < 3; i++ {
		_, err := call(client, "")
		require.NoError(t, err)
	}
}

func TestRateLimiter_AnonymousCallersKeyedByHost(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	m := rpc.NewServiceMux(testService, connect.WithInterceptors(limiter.Interceptor()))
	rpc.Handle(m, "WhoAmI", whoAmI)
	mux := http.NewServeMux()
	mux.Handle(m.Handler())
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	// A new connection per request gives each call a different client port.
	httpClient := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	client := rpc.NewClient[whoAmIRequest, whoAmIResponse](httpClient, srv.URL, testService, "WhoAmI")

	_, err := call(client, "")
	require.NoError(t, err)
	_, err = call(client, "")
	assert.Equal(t, connect.CodeResourceExhausted, connect.CodeOf(err))
}

func TestPeerHost(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"10.0.0.1:5555", "10.0.0.1"},
		{"[::1]:8080", "::1"},
		{"unix-socket", "unix-socket"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, peerHost(tt.addr), "peerHost(%q)", tt.addr)
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	limiter := NewRateLimiter(60, 1)
	limiter.getLimiter("a")
	limiter.getLimiter("b")

	limiter.Cleanup(5)
	assert.Len(t, limiter.limiters, 2)
	limiter.Cleanup(1)
	assert.Empty(t, limiter.limiters)
}
