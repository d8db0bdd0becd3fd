package remote

import (
	json "github.com/goccy/go-json"
)

// SuccessFunc receives the loaded payload and the transport status token.
type SuccessFunc func(data any, status string)

// ErrorFunc receives the transport failure and the status token.
type ErrorFunc func(err error, status string)

// RequestOptions customize a Remote.
type RequestOptions struct {
	// Serialize encodes data for PUT and POST bodies and for the initial
	// snapshot. Defaults to JSON.
	Serialize func(data any) ([]byte, error)
	// OnBeforeRequest may rewrite a request before it is dispatched.
	OnBeforeRequest func(req *Request) *Request
	// OnAfterLoad may rewrite the snapshot about to be installed.
	OnAfterLoad func(snap Snapshot, method string) Snapshot

	Transport Transport
	Success   SuccessFunc
	Error     ErrorFunc
}

func (o RequestOptions) withDefaults() RequestOptions {
	if o.Serialize == nil {
		o.Serialize = json.Marshal
	}
	if o.Transport == nil {
		o.Transport = NewHTTPTransport(nil)
	}
	if o.Success == nil {
		o.Success = func(any, string) {}
	}
	if o.Error == nil {
		o.Error = func(error, string) {}
	}
	return o
}

// LoadOptions describe a single fetch.
type LoadOptions struct {
	URL      string
	Method   string
	DataType string
	Body     []byte
	Success  SuccessFunc
	Error    ErrorFunc
}

// merge overlays the set fields of o onto base.
func (base LoadOptions) merge(o LoadOptions) LoadOptions {
	if o.URL != "" {
		base.URL = o.URL
	}
	if o.Method != "" {
		base.Method = o.Method
	}
	if o.DataType != "" {
		base.DataType = o.DataType
	}
	if o.Body != nil {
		base.Body = o.Body
	}
	if o.Success != nil {
		base.Success = o.Success
	}
	if o.Error != nil {
		base.Error = o.Error
	}
	return base
}

// parseArgs reads loosely typed load arguments: a string is the URL, a
// function is the success callback and LoadOptions are merged in.
func parseArgs(args []any) LoadOptions {
	var o LoadOptions
	for _, a := range args {
		switch v := a.(type) {
		case string:
			o.URL = v
		case SuccessFunc:
			o.Success = v
		case func(any, string):
			o.Success = v
		case ErrorFunc:
			o.Error = v
		case func(error, string):
			o.Error = v
		case LoadOptions:
			o = o.merge(v)
		case *LoadOptions:
			if v != nil {
				o = o.merge(*v)
			}
		}
	}
	return o
}
