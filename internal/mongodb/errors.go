// internal/mongodb/errors.go
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// Kind classifies a failure for operators reading the logs.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConfig is a missing or malformed connection string.
	KindConfig
	// KindConnectivity is an unreachable host, auth failure or timeout.
	KindConnectivity
	// KindData is a hashing or write failure, e.g. a duplicate key.
	KindData
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindConnectivity:
		return "connectivity"
	case KindData:
		return "data"
	default:
		return "unknown"
	}
}

// ConnectError is returned by Connect. Host is empty when the URI could not
// be parsed far enough to name one.
type ConnectError struct {
	Kind Kind
	Host string
	Err  error
}

func (e *ConnectError) Error() string {
	if e.Host != "" {
		return fmt.Sprintf("mongodb connect (%s) %s: %v", e.Kind, e.Host, e.Err)
	}
	return fmt.Sprintf("mongodb connect (%s): %v", e.Kind, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// KindOf walks err's chain and reports its failure class. Errors that carry
// their own classification (ErrorKind() Kind) take precedence over driver
// error inspection.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var kinded interface{ ErrorKind() Kind }
	if errors.As(err, &kinded) {
		if k := kinded.ErrorKind(); k != KindUnknown {
			return k
		}
	}

	var ce *ConnectError
	if errors.As(err, &ce) {
		return ce.Kind
	}

	switch {
	case errors.Is(err, ErrEmptyURI), errors.Is(err, ErrBadScheme), errors.Is(err, ErrMissingHost):
		return KindConfig
	case IsDup(err):
		return KindData
	case mongo.IsTimeout(err), mongo.IsNetworkError(err), isNetFailure(err),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, mongo.ErrClientDisconnected):
		return KindConnectivity
	}

	var we mongo.WriteException
	if errors.As(err, &we) {
		return KindData
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		return KindData
	}
	return KindUnknown
}

// isNetFailure reports a DNS or socket error anywhere in err's chain,
// including SRV seed-list lookups done while parsing a mongodb+srv URI.
func isNetFailure(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// IsDup reports whether err is a Mongo duplicate-key error (E11000).
func IsDup(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}

	// Some hosts only surface "E11000" as text.
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "e11000") || strings.Contains(s, "duplicate key")
}
