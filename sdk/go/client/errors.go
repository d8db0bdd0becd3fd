package client

import "errors"

// Client-specific errors
var (
	ErrClientClosed  = errors.New("client is closed")
	ErrInvalidConfig = errors.New("invalid client configuration")
	ErrNotFound      = errors.New("not found")
	ErrRequest       = errors.New("request rejected")
	ErrWatchClosed   = errors.New("watch is closed")
)
