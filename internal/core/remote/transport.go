package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
)

// Data types understood by HTTPTransport.
const (
	DataTypeJSON = "json"
	DataTypeText = "text"
)

// Transport status tokens used when no HTTP status is available.
const (
	StatusTokenError = "error"
	StatusTokenParse = "parsererror"
)

// Request is an outgoing fetch. OnBeforeRequest may rewrite any field.
type Request struct {
	Method   string
	URL      string
	DataType string
	Body     []byte
	Header   http.Header
}

// Response carries the transport status token and the decoded payload.
type Response struct {
	Status string
	Data   any
}

// Transport performs a request. A failed request still returns a Response
// when a status token is known.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// HTTPTransport is the default Transport.
type HTTPTransport struct {
	Client *http.Client
}

func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{Client: client}
}

func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return &Response{Status: StatusTokenError}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.DataType == DataTypeJSON {
		httpReq.Header.Set("Accept", "application/json")
		if body != nil && httpReq.Header.Get("Content-Type") == "" {
			httpReq.Header.Set("Content-Type", "application/json")
		}
	}

	resp, err := t.Client.Do(httpReq)
	if err != nil {
		return &Response{Status: StatusTokenError}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Response{Status: StatusTokenError}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Response{Status: resp.Status}, fmt.Errorf("%w: %s", ErrHTTPStatus, resp.Status)
	}

	data, err := decode(req.DataType, resp.Header.Get("Content-Type"), raw)
	if err != nil {
		return &Response{Status: StatusTokenParse}, err
	}
	return &Response{Status: resp.Status, Data: data}, nil
}

func decode(dataType, contentType string, raw []byte) (any, error) {
	if dataType == "" && strings.HasPrefix(contentType, "application/json") {
		dataType = DataTypeJSON
	}
	if dataType != DataTypeJSON {
		return string(raw), nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	return data, nil
}
