package rpc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoRequest struct {
	Text  string `json:"text"`
	Times int    `json:"times,omitempty"`
}

type echoResponse struct {
	Parts []string `json:"parts"`
}

func echo(_ context.Context, req *connect.Request[echoRequest]) (*connect.Response[echoResponse], error) {
	if req.Msg.Text == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("text is required"))
	}
	res := &echoResponse{}
	for i := 0; i < req.Msg.Times; i++ {
		res.Parts = append(res.Parts, req.Msg.Text)
	}
	return connect.NewResponse(res), nil
}

func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	m := NewServiceMux("test.v1.EchoService")
	Handle(m, "Echo", echo)

	mux := http.NewServeMux()
	mux.Handle(m.Handler())
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestProcedure(t *testing.T) {
	assert.Equal(t, "/tripwiser.v1.TripService/CreateTrip", Procedure("tripwiser.v1.TripService", "CreateTrip"))
}

func TestRoundTrip(t *testing.T) {
	srv := newEchoServer(t)
	client := NewClient[echoRequest, echoResponse](srv.Client(), srv.URL, "test.v1.EchoService", "Echo")

	res, err := client.CallUnary(context.Background(), connect.NewRequest(&echoRequest{Text: "hi", Times: 2}))
	require.NoError(t, err)
	assert.Equal(t, []string{"hi", "hi"}, res.Msg.Parts)
}

func TestErrorCodeSurvives(t *testing.T) {
	srv := newEchoServer(t)
	client := NewClient[echoRequest, echoResponse](srv.Client(), srv.URL, "test.v1.EchoService", "Echo")

	_, err := client.CallUnary(context.Background(), connect.NewRequest(&echoRequest{}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestUnknownMethodIsUnimplemented(t *testing.T) {
	srv := newEchoServer(t)
	client := NewClient[echoRequest, echoResponse](srv.Client(), srv.URL, "test.v1.EchoService", "Missing")

	_, err := client.CallUnary(context.Background(), connect.NewRequest(&echoRequest{Text: "x"}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeUnimplemented, connect.CodeOf(err))
}

func TestCodecIgnoresEmptyBody(t *testing.T) {
	var req echoRequest
	require.NoError(t, Codec.Unmarshal(nil, &req))
	assert.Equal(t, echoRequest{}, req)
	assert.Equal(t, "json", Codec.Name())
}
