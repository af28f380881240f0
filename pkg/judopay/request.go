package judopay

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/judopay/judopay-go/pkg/httpclient"
)

// ErrNoClient is returned when a request is sent before a client is set.
var ErrNoClient = errors.New("judopay: no http client configured")

const (
	headerAPIVersion    = "api-version"
	headerAccept        = "Accept"
	headerContentType   = "Content-Type"
	headerUserAgent     = "User-Agent"
	headerAuthorization = "Authorization"

	acceptJSON      = "application/json; charset=utf-8"
	contentTypeJSON = "application/json"
)

// RequestBuilder builds authenticated JSON requests against the configured
// endpoint and dispatches them through the injected client. It holds no
// mutable state between calls.
type RequestBuilder struct {
	configuration *Configuration
	client        httpclient.Client
}

// NewRequestBuilder returns a builder for cfg that sends through client.
func NewRequestBuilder(cfg *Configuration, client httpclient.Client) *RequestBuilder {
	return &RequestBuilder{configuration: cfg, client: client}
}

// SetClient replaces the HTTP client used for dispatch.
func (r *RequestBuilder) SetClient(client httpclient.Client) {
	r.client = client
}

// Configuration returns the configuration the builder reads from.
func (r *RequestBuilder) Configuration() *Configuration {
	return r.configuration
}

// Get issues GET {endpointUrl}/{resourcePath} with no body.
func (r *RequestBuilder) Get(ctx context.Context, resourcePath string) (httpclient.Response, error) {
	return r.send(ctx, http.MethodGet, r.resourceURL(resourcePath), nil)
}

// Post issues POST {endpointUrl}/{resourcePath} with data encoded as JSON.
// A nil data is sent as the JSON literal null.
func (r *RequestBuilder) Post(ctx context.Context, resourcePath string, data any) (httpclient.Response, error) {
	return r.send(ctx, http.MethodPost, r.resourceURL(resourcePath), &payload{value: data})
}

// GetAsync runs Get on its own goroutine.
func (r *RequestBuilder) GetAsync(ctx context.Context, resourcePath string) *Future {
	return runAsync(func() (httpclient.Response, error) {
		return r.Get(ctx, resourcePath)
	})
}

// PostAsync runs Post on its own goroutine.
func (r *RequestBuilder) PostAsync(ctx context.Context, resourcePath string, data any) *Future {
	return runAsync(func() (httpclient.Response, error) {
		return r.Post(ctx, resourcePath, data)
	})
}

// RequestHeaders returns the fixed headers sent with every request.
func (r *RequestBuilder) RequestHeaders() map[string]string {
	var apiVersion, userAgent string
	if r.configuration != nil {
		apiVersion = r.configuration.APIVersion
		userAgent = r.configuration.UserAgent
	}
	return map[string]string{
		headerAPIVersion:  apiVersion,
		headerAccept:      acceptJSON,
		headerContentType: contentTypeJSON,
		headerUserAgent:   userAgent,
	}
}

// RequestAuthentication validates the configuration and returns the
// Authorization header. An OAuth access token takes priority over basic
// credentials.
func (r *RequestBuilder) RequestAuthentication() (map[string]string, error) {
	if err := r.configuration.Validate(); err != nil {
		return nil, err
	}

	if token := r.configuration.OAuthAccessToken; token != "" {
		return map[string]string{headerAuthorization: "Bearer " + token}, nil
	}

	basic := r.configuration.APIToken + ":" + r.configuration.APISecret
	return map[string]string{
		headerAuthorization: "Basic " + base64.StdEncoding.EncodeToString([]byte(basic)),
	}, nil
}

func (r *RequestBuilder) resourceURL(resourcePath string) string {
	var endpoint string
	if r.configuration != nil {
		endpoint = r.configuration.EndpointURL
	}
	return endpoint + "/" + resourcePath
}

// payload distinguishes "no body" (nil *payload) from a body that encodes to null.
type payload struct {
	value any
}

func (r *RequestBuilder) send(ctx context.Context, method, uri string, data *payload) (httpclient.Response, error) {
	auth, err := r.RequestAuthentication()
	if err != nil {
		return nil, err
	}

	var body []byte
	if data != nil {
		body, err = json.Marshal(data.value)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	if r.client == nil {
		return nil, ErrNoClient
	}

	resp, err := r.client.Send(ctx, httpclient.Request{
		Method:  method,
		URL:     uri,
		Headers: mergeHeaders(r.RequestHeaders(), auth),
		Body:    body,
	})
	if err != nil {
		var bad *httpclient.BadResponseError
		if errors.As(err, &bad) && bad.Response != nil {
			return nil, NewAPIError(bad.Response)
		}
		return nil, err
	}
	if resp != nil && httpclient.IsBadStatus(resp.StatusCode()) {
		return nil, NewAPIError(resp)
	}
	return resp, nil
}

// mergeHeaders returns base ∪ overrides; overrides win on key collision.
func mergeHeaders(base, overrides map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
