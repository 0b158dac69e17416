// internal/mongodb/mongodb.go
package mongodb

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connection policy defaults. Selection fails fast instead of waiting out the
// driver's 30s default.
const (
	DefaultServerSelectionTimeout = 5 * time.Second
	DefaultConnectTimeout         = 5 * time.Second
	DefaultSocketTimeout          = 45 * time.Second
)

// ConnectOptions holds the connection policy applied on top of the URI.
// Use DefaultConnectOptions() for the standard policy.
type ConnectOptions struct {
	// URI is the connection string. Required.
	URI string

	// ServerSelectionTimeout bounds how long Connect waits for a usable server.
	// It also bounds Connect as a whole. Values outside (0, 5s] use 5s.
	ServerSelectionTimeout time.Duration

	// ConnectTimeout bounds each TCP/TLS handshake.
	ConnectTimeout time.Duration

	// SocketTimeout closes sockets that sit idle on a read or write for longer.
	SocketTimeout time.Duration

	// PreferIPv4 forces tcp4 dials, skipping slow dual-stack resolution.
	PreferIPv4 bool

	// AppName is reported to the server in the handshake. Optional.
	AppName string
}

// DefaultConnectOptions returns the standard policy for uri:
// 5s server selection, 5s connect, 45s socket, IPv4 only.
func DefaultConnectOptions(uri string) ConnectOptions {
	return ConnectOptions{
		URI:                    uri,
		ServerSelectionTimeout: DefaultServerSelectionTimeout,
		ConnectTimeout:         DefaultConnectTimeout,
		SocketTimeout:          DefaultSocketTimeout,
		PreferIPv4:             true,
	}
}

// selectionTimeout is ServerSelectionTimeout capped at the default.
func (o ConnectOptions) selectionTimeout() time.Duration {
	if o.ServerSelectionTimeout <= 0 || o.ServerSelectionTimeout > DefaultServerSelectionTimeout {
		return DefaultServerSelectionTimeout
	}
	return o.ServerSelectionTimeout
}

func (o ConnectOptions) clientOptions() *options.ClientOptions {
	clientOpts := options.Client().ApplyURI(strings.TrimSpace(o.URI))

	clientOpts.SetServerSelectionTimeout(o.selectionTimeout())
	if o.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(o.ConnectTimeout)
	}
	if o.SocketTimeout > 0 {
		clientOpts.SetSocketTimeout(o.SocketTimeout)
	}
	if o.PreferIPv4 {
		clientOpts.SetDialer(ipv4Dialer{d: &net.Dialer{Timeout: o.ConnectTimeout}})
	}
	if o.AppName != "" {
		clientOpts.SetAppName(o.AppName)
	}
	return clientOpts
}

// ipv4Dialer rewrites dual-stack TCP dials to tcp4. Unix sockets pass through.
type ipv4Dialer struct {
	d *net.Dialer
}

func (i ipv4Dialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	switch network {
	case "tcp", "tcp6":
		network = "tcp4"
	}
	return i.d.DialContext(ctx, network, address)
}

// Handle owns a connected client. Callers must Close it on every exit path.
type Handle struct {
	client *mongo.Client
	host   string

	closeOnce sync.Once
	closeErr  error
}

// Connect opens a connection with the given policy and pings the primary
// before returning. It never retries; every failure is a *ConnectError.
func Connect(ctx context.Context, opts ConnectOptions) (*Handle, error) {
	if err := ValidateURI(opts.URI); err != nil {
		return nil, &ConnectError{Kind: KindConfig, Err: err}
	}

	// mongodb+srv URIs resolve their seed list in ApplyURI, so DNS failures
	// surface from Validate.
	clientOpts := opts.clientOptions()
	if err := clientOpts.Validate(); err != nil {
		return nil, &ConnectError{Kind: setupKind(err), Err: err}
	}

	var host string
	if len(clientOpts.Hosts) > 0 {
		host = clientOpts.Hosts[0]
	}

	ctx, cancel := context.WithTimeout(ctx, opts.selectionTimeout())
	defer cancel()

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, &ConnectError{Kind: setupKind(err), Host: host, Err: err}
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &ConnectError{Kind: KindConnectivity, Host: host, Err: err}
	}

	return &Handle{client: client, host: host}, nil
}

// setupKind classifies a failure before the ping: unresolvable or
// unreachable hosts are connectivity, anything else is a bad configuration.
func setupKind(err error) Kind {
	if isNetFailure(err) {
		return KindConnectivity
	}
	return KindConfig
}

// Host identifies the server the connection was established against.
func (h *Handle) Host() string { return h.host }

// Client exposes the underlying driver client.
func (h *Handle) Client() *mongo.Client { return h.client }

// Database returns a handle to the named database.
func (h *Handle) Database(name string) *mongo.Database {
	return h.client.Database(name)
}

// Close disconnects the client. Safe to call more than once.
func (h *Handle) Close(ctx context.Context) error {
	h.closeOnce.Do(func() {
		if err := h.client.Disconnect(ctx); err != nil {
			h.closeErr = fmt.Errorf("mongodb disconnect: %w", err)
		}
	})
	return h.closeErr
}
