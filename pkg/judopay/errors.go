package judopay

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/judopay/judopay-go/pkg/httpclient"
)

// Sentinel errors matched by *APIError through errors.Is.
var (
	ErrUnauthorized = errors.New("judopay: unauthorized")
	ErrForbidden    = errors.New("judopay: forbidden")
	ErrNotFound     = errors.New("judopay: not found")
	ErrValidation   = errors.New("judopay: validation failed")
	ErrRateLimited  = errors.New("judopay: rate limited")
	ErrServer       = errors.New("judopay: server error")
)

// Kind classifies a bad response.
type Kind string

const (
	KindBadRequest   Kind = "bad_request"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindValidation   Kind = "validation"
	KindRateLimited  Kind = "rate_limited"
	KindClient       Kind = "client_error"
	KindServer       Kind = "server_error"
)

// Category is the gateway's own error grouping.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryRequest
	CategoryModel
	CategoryConfig
	CategoryProcessing
	CategoryException
)

func (c Category) String() string {
	switch c {
	case CategoryRequest:
		return "request"
	case CategoryModel:
		return "model"
	case CategoryConfig:
		return "config"
	case CategoryProcessing:
		return "processing"
	case CategoryException:
		return "exception"
	default:
		return "unknown"
	}
}

// ErrorDetail is a single field-level problem reported by the gateway.
type ErrorDetail struct {
	Code      int    `json:"code"`
	FieldName string `json:"fieldName"`
	Message   string `json:"message"`
	Detail    string `json:"detail"`
}

// APIError represents a 4xx or 5xx response from the gateway.
type APIError struct {
	StatusCode int
	Kind       Kind
	Message    string
	Code       int
	Category   Category
	Details    []ErrorDetail
	Body       []byte
}

type errorPayload struct {
	Message  string        `json:"message"`
	Code     int           `json:"code"`
	Category Category      `json:"category"`
	Details  []ErrorDetail `json:"details"`
}

const maxMessageSnippet = 512

// NewAPIError builds an APIError from a bad response, selecting its Kind from
// the status code and the shape of the body.
func NewAPIError(resp httpclient.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	body := resp.Body()
	apiErr.Body = body

	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = payload.Message
		apiErr.Code = payload.Code
		apiErr.Category = payload.Category
		apiErr.Details = payload.Details
	} else {
		apiErr.Message = bodySnippet(body)
	}

	apiErr.Kind = kindFor(apiErr.StatusCode, len(apiErr.Details) > 0)
	return apiErr
}

func kindFor(status int, hasDetails bool) Kind {
	switch {
	case status == 401:
		return KindUnauthorized
	case status == 403:
		return KindForbidden
	case status == 404:
		return KindNotFound
	case status == 409:
		return KindConflict
	case status == 429:
		return KindRateLimited
	case status == 422:
		return KindValidation
	case status >= 500:
		return KindServer
	case hasDetails:
		return KindValidation
	case status == 400:
		return KindBadRequest
	default:
		return KindClient
	}
}

// bodySnippet returns at most maxMessageSnippet bytes of body, cut on a
// rune boundary.
func bodySnippet(body []byte) string {
	if len(body) > maxMessageSnippet {
		cut := maxMessageSnippet
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}
	return strings.TrimSpace(strings.ToValidUTF8(string(body), ""))
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "judopay: api error %d (%s)", e.StatusCode, e.Kind)
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if len(e.Details) > 0 {
		parts := make([]string, 0, len(e.Details))
		for _, d := range e.Details {
			parts = append(parts, fmt.Sprintf("%s: %s", d.FieldName, d.Message))
		}
		fmt.Fprintf(&b, " [%s]", strings.Join(parts, "; "))
	}
	return b.String()
}

// Is implements errors.Is for sentinel error matching.
func (e *APIError) Is(target error) bool {
	switch e.Kind {
	case KindUnauthorized:
		return target == ErrUnauthorized
	case KindForbidden:
		return target == ErrForbidden
	case KindNotFound:
		return target == ErrNotFound
	case KindValidation:
		return target == ErrValidation
	case KindRateLimited:
		return target == ErrRateLimited
	case KindServer:
		return target == ErrServer
	}
	return false
}
