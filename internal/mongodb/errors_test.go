package mongodb

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsDup(t *testing.T) {
	dupWrite := mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error collection: chat_db.users"}},
	}
	otherWrite := mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 121, Message: "Document failed validation"}},
	}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"write exception", dupWrite, true},
		{"wrapped write exception", fmt.Errorf("create user: %w", dupWrite), true},
		{"command error", mongo.CommandError{Code: 11000, Message: "dup"}, true},
		{"text only", errors.New("E11000 duplicate key error"), true},
		{"other write error", otherWrite, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDup(tt.err); got != tt.want {
				t.Errorf("IsDup(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

type kindedErr struct{ k Kind }

func (e kindedErr) Error() string   { return "kinded" }
func (e kindedErr) ErrorKind() Kind { return e.k }

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"connect config", &ConnectError{Kind: KindConfig, Err: ErrEmptyURI}, KindConfig},
		{"connect connectivity", &ConnectError{Kind: KindConnectivity, Host: "h:1", Err: errors.New("x")}, KindConnectivity},
		{"bare sentinel", fmt.Errorf("load: %w", ErrBadScheme), KindConfig},
		{"deadline", fmt.Errorf("insert: %w", context.DeadlineExceeded), KindConnectivity},
		{"srv lookup", fmt.Errorf("error parsing uri: %w", &net.DNSError{Err: "no such host", Name: "_mongodb._tcp.x.invalid", IsNotFound: true}), KindConnectivity},
		{"dial", &net.OpError{Op: "dial", Net: "tcp4", Err: errors.New("connection refused")}, KindConnectivity},
		{"duplicate", mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}, KindData},
		{"validation write", mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 121}}}, KindData},
		{"self classified", fmt.Errorf("step: %w", kindedErr{k: KindData}), KindData},
		{"unknown", errors.New("boom"), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestConnectError_Unwrap(t *testing.T) {
	err := &ConnectError{Kind: KindConfig, Err: ErrEmptyURI}
	if !errors.Is(err, ErrEmptyURI) {
		t.Errorf("errors.Is(%v, ErrEmptyURI) = false", err)
	}
	if got, want := err.Error(), "mongodb connect (config): "+ErrEmptyURI.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
