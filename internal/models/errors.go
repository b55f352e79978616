package models

import (
	"errors"
	"fmt"
)

// Service names used in error messages
const (
	ServicePlex  = "plex"
	ServiceShoko = "shoko"
)

var (
	// ErrUnmatched means the metadata service has no file ending with the match key
	ErrUnmatched = errors.New("file is not matched by the metadata service")
	// ErrAlreadySynced means the metadata service already holds a watched state for the file
	ErrAlreadySynced = errors.New("watched state already known")
)

// ConfigError is a pre-flight configuration failure. It is always fatal.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid configuration %s=%q: %s", e.Field, e.Value, e.Reason)
}

// AuthError reports rejected credentials for one of the services
type AuthError struct {
	Service string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s credentials invalid", e.Service)
	}
	return fmt.Sprintf("%s credentials invalid: %v", e.Service, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ConnectError reports an unreachable service or a missing server/library
type ConnectError struct {
	Service string
	Target  string
	Err     error
}

func (e *ConnectError) Error() string {
	msg := fmt.Sprintf("unable to connect to %s", e.Service)
	if e.Target != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Target)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ItemSyncError wraps a failure applying a single watched-state mutation
type ItemSyncError struct {
	Path  string
	Title string
	Err   error
}

func (e *ItemSyncError) Error() string {
	return fmt.Sprintf("sync %q (%s): %v", e.Path, e.Title, e.Err)
}

func (e *ItemSyncError) Unwrap() error { return e.Err }
