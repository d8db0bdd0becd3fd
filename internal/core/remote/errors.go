package remote

import "errors"

// Remote errors
var (
	ErrNoURL       = errors.New("remote request has no url")
	ErrNotLoaded   = errors.New("remote resource is not loaded")
	ErrNoSnapshot  = errors.New("remote resource has no initial snapshot")
	ErrTransport   = errors.New("transport failed")
	ErrHTTPStatus  = errors.New("unexpected http status")
	ErrParseFailed = errors.New("response could not be parsed")
)
