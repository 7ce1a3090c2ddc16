package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/tripwiser/internal/auth"
	"github.com/mmynk/tripwiser/internal/chatbot"
	"github.com/mmynk/tripwiser/internal/middleware"
	"github.com/mmynk/tripwiser/internal/rpc"
	"github.com/mmynk/tripwiser/pkg/api"
)

// setupTestServer serves the trip and chatbot services over HTTP behind the
// same interceptors the server uses.
func setupTestServer(t *testing.T, env *testEnv) (string, *auth.JWTManager) {
	t.Helper()

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	limiter := middleware.NewRateLimiter(60, 2, ChatbotAskProcedure)
	interceptors := connect.WithInterceptors(
		middleware.MetricsInterceptor(),
		middleware.RequireAuth(jwtManager, ChatbotHealthProcedure),
		middleware.LoggingInterceptor(),
		limiter.Interceptor(),
	)

	chat := NewChatbotService(chatbot.NewBot("", &stubGenerator{configured: true, answer: "ok"},
		chatbot.NewIndex([]chatbot.FAQ{{Question: "Q", Answer: "A"}})))

	mux := http.NewServeMux()
	mux.Handle(env.trips.Handler(interceptors))
	mux.Handle(chat.Handler(interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server.URL, jwtManager
}

func withToken[T any](t *testing.T, jwtManager *auth.JWTManager, env *testEnv, name string, msg *T) *connect.Request[T] {
	t.Helper()
	token, err := jwtManager.Generate(env.users[name])
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func TestTransport_Auth(t *testing.T) {
	env := setupTestEnv(t)
	url, jwtManager := setupTestServer(t, env)

	create := rpc.NewClient[api.CreateTripRequest, api.CreateTripResponse](
		http.DefaultClient, url, api.TripServiceName, "CreateTrip")
	msg := &api.CreateTripRequest{Title: "Hampi", Destination: "Hampi", StartDate: "2027-01-05", EndDate: "2027-01-07"}

	_, err := create.CallUnary(t.Context(), connect.NewRequest(msg))
	expectCode(t, err, connect.CodeUnauthenticated)

	bad := connect.NewRequest(msg)
	bad.Header().Set("Authorization", "Bearer not-a-token")
	_, err = create.CallUnary(t.Context(), bad)
	expectCode(t, err, connect.CodeUnauthenticated)

	resp, err := create.CallUnary(t.Context(), withToken(t, jwtManager, env, "alice", msg))
	if err != nil {
		t.Fatalf("CreateTrip over HTTP failed: %v", err)
	}
	if resp.Msg.Trip.UserID != env.id("alice") {
		t.Errorf("user_id: expected alice, got %s", resp.Msg.Trip.UserID)
	}

	get := rpc.NewClient[api.GetTripRequest, api.GetTripResponse](
		http.DefaultClient, url, api.TripServiceName, "GetTrip")
	_, err = get.CallUnary(t.Context(), withToken(t, jwtManager, env, "bob", &api.GetTripRequest{TripID: resp.Msg.Trip.ID}))
	expectCode(t, err, connect.CodePermissionDenied)
}

func TestTransport_PublicHealthAndRateLimit(t *testing.T) {
	env := setupTestEnv(t)
	url, jwtManager := setupTestServer(t, env)

	health := rpc.NewClient[api.HealthRequest, api.HealthResponse](
		http.DefaultClient, url, api.ChatbotServiceName, "Health")
	resp, err := health.CallUnary(t.Context(), connect.NewRequest(&api.HealthRequest{}))
	if err != nil {
		t.Fatalf("Health without a token failed: %v", err)
	}
	if resp.Msg.Status != "operational" {
		t.Errorf("status: expected operational, got %q", resp.Msg.Status)
	}

	ask := rpc.NewClient[api.AskRequest, api.AskResponse](
		http.DefaultClient, url, api.ChatbotServiceName, "Ask")
	for i := range 2 {
		if _, err := ask.CallUnary(t.Context(), withToken(t, jwtManager, env, "alice", &api.AskRequest{Question: "hi"})); err != nil {
			t.Fatalf("Ask %d failed: %v", i, err)
		}
	}
	_, err = ask.CallUnary(t.Context(), withToken(t, jwtManager, env, "alice", &api.AskRequest{Question: "hi"}))
	expectCode(t, err, connect.CodeResourceExhausted)

	// Limits are per user.
	if _, err := ask.CallUnary(t.Context(), withToken(t, jwtManager, env, "bob", &api.AskRequest{Question: "hi"})); err != nil {
		t.Errorf("Ask as another user failed: %v", err)
	}
}
