package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// Procedure returns the Connect procedure path of a method, e.g.
// "/tripwiser.v1.TripService/CreateTrip".
func Procedure(service, method string) string {
	return "/" + service + "/" + method
}

// ServiceMux collects the unary procedures of one service.
type ServiceMux struct {
	service string
	mux     *http.ServeMux
	opts    []connect.HandlerOption
}

// NewServiceMux creates a mux for service. The JSON codec is always registered;
// opts typically carry interceptors.
func NewServiceMux(service string, opts ...connect.HandlerOption) *ServiceMux {
	return &ServiceMux{
		service: service,
		mux:     http.NewServeMux(),
		opts:    append([]connect.HandlerOption{connect.WithCodec(Codec)}, opts...),
	}
}

// Handle registers a unary method. It is a function rather than a method
// because Go methods cannot take type parameters.
func Handle[Req, Res any](
	m *ServiceMux,
	method string,
	fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error),
	opts ...connect.HandlerOption,
) {
	procedure := Procedure(m.service, method)
	handlerOpts := append(append([]connect.HandlerOption{}, m.opts...), opts...)
	m.mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, handlerOpts...))
}

// Handler returns the path prefix and handler to mount on the server mux, in
// the same shape as generated Connect service handlers.
func (m *ServiceMux) Handler() (string, http.Handler) {
	return "/" + m.service + "/", m.mux
}

// NewClient creates a unary client for one method of a service.
func NewClient[Req, Res any](
	httpClient connect.HTTPClient,
	baseURL, service, method string,
	opts ...connect.ClientOption,
) *connect.Client[Req, Res] {
	clientOpts := append([]connect.ClientOption{connect.WithCodec(Codec)}, opts...)
	return connect.NewClient[Req, Res](httpClient, baseURL+Procedure(service, method), clientOpts...)
}
