package httpclient

import (
	"context"
	"net/http"
)

// Request is a single outgoing HTTP call. A nil Body sends no body.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
//
// Implementations report 4xx and 5xx responses as a *BadResponseError carrying
// the response. Any other failure is a transport error.
type Client interface {
	Send(ctx context.Context, req Request) (Response, error)
}
