package server

import "errors"

// Server-specific errors
var (
	ErrServerClosed         = errors.New("server is closed")
	ErrServerNotRunning     = errors.New("server is not running")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrInvalidPath          = errors.New("invalid store path")
	ErrReservedPath         = errors.New("reserved store path")
	ErrRemoteNotFound       = errors.New("no remote resource at path")
	ErrPathOccupied         = errors.New("path already holds data")
	ErrInvalidBody          = errors.New("invalid request body")
	ErrInvalidConfig        = errors.New("invalid server configuration")
	ErrPagerNotFound        = errors.New("pager not found")
	ErrUnknownAction        = errors.New("unknown action")
)
