package pool

import "context"

// Handle is the backend-owned connection object. The pool never inspects
// it; it only threads it through the adapter calls and guarantees that a
// nil handle is never passed to Disconnect, Ping or Execute.
type Handle = any

// Backend is the pluggable driver boundary. The pool depends on exactly
// these four capabilities and attaches no meaning to "execute" beyond
// forwarding it. A failed Connect is treated as transient, never as a
// fatal pool error.
type Backend interface {
	Connect(ctx context.Context, connString string) (Handle, error)
	Disconnect(ctx context.Context, h Handle) error
	Ping(ctx context.Context, h Handle) error
	Execute(ctx context.Context, h Handle, query string) error
}

// BackendFuncs adapts plain callback functions to the Backend interface,
// for callers that do not want to define a type. Nil Disconnect, Ping and
// Execute callbacks are treated as no-ops; a nil Connect callback fails.
type BackendFuncs struct {
	ConnectFunc    func(ctx context.Context, connString string) (Handle, error)
	DisconnectFunc func(ctx context.Context, h Handle) error
	PingFunc       func(ctx context.Context, h Handle) error
	ExecuteFunc    func(ctx context.Context, h Handle, query string) error
}

// Connect implements Backend
func (b BackendFuncs) Connect(ctx context.Context, connString string) (Handle, error) {
	if b.ConnectFunc == nil {
		return nil, newPoolError(codeBackendConnect, "connect callback not provided")
	}
	return b.ConnectFunc(ctx, connString)
}

// Disconnect implements Backend
func (b BackendFuncs) Disconnect(ctx context.Context, h Handle) error {
	if b.DisconnectFunc == nil {
		return nil
	}
	return b.DisconnectFunc(ctx, h)
}

// Ping implements Backend
func (b BackendFuncs) Ping(ctx context.Context, h Handle) error {
	if b.PingFunc == nil {
		return nil
	}
	return b.PingFunc(ctx, h)
}

// Execute implements Backend
func (b BackendFuncs) Execute(ctx context.Context, h Handle, query string) error {
	if b.ExecuteFunc == nil {
		return nil
	}
	return b.ExecuteFunc(ctx, h, query)
}
