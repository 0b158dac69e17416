// internal/mongodb/validate.go
package mongodb

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// URI validation errors.
var (
	ErrEmptyURI    = errors.New("mongodb: connection string is empty")
	ErrBadScheme   = errors.New(`mongodb: scheme must be "mongodb" or "mongodb+srv"`)
	ErrMissingHost = errors.New("mongodb: connection string has no host")
)

// ValidateURI does a lightweight shape check of a Mongo connection string
// without touching the network. It accepts mongodb:// and mongodb+srv://
// schemes, requires a non-empty host, and rejects CR/LF characters.
func ValidateURI(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrEmptyURI
	}
	if strings.ContainsAny(raw, "\r\n") {
		return fmt.Errorf("mongodb: connection string contains CR/LF")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("mongodb: parse connection string: %w", redact(err))
	}

	switch u.Scheme {
	case "mongodb", "mongodb+srv":
	default:
		return fmt.Errorf("%w (got %q)", ErrBadScheme, u.Scheme)
	}

	if u.Host == "" {
		return ErrMissingHost
	}
	return nil
}

// DatabaseFromURI returns the default database named in the URI path, or "".
func DatabaseFromURI(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.Trim(u.Path, "/")
}

// RedactURI replaces any password in a connection string so it can be logged.
func RedactURI(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

// redact strips the URL from a *url.Error, which would otherwise echo credentials.
func redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
