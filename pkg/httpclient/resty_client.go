package httpclient

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const redacted = "[redacted]"

// Logger is the logging surface the resty transport uses.
type Logger interface {
	Errorf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Debugf(format string, v ...interface{})
}

// Options tunes the resty transport.
type Options struct {
	Timeout time.Duration
	Logger  Logger
	Debug   bool
}

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
	log    Logger
}

// NewRestyClient creates a new RestyClient with the specified options.
func NewRestyClient(opts Options) *RestyClient {
	return &RestyClient{
		client: newRestyBaseClient(opts),
		log:    opts.Logger,
	}
}

// newRestyBaseClient creates a new resty.Client from the given options.
func newRestyBaseClient(opts Options) *resty.Client {
	c := resty.New()
	if opts.Timeout > 0 {
		c.SetTimeout(opts.Timeout)
	}
	if opts.Logger != nil {
		c.SetLogger(opts.Logger)
	}
	c.SetDebug(opts.Debug)
	return c
}

// Send dispatches req and returns the response. Bad statuses come back as
// *BadResponseError; transport failures are returned as resty reports them.
func (r *RestyClient) Send(ctx context.Context, req Request) (Response, error) {
	rr := r.client.R().SetContext(ctx)
	if len(req.Headers) > 0 {
		rr.SetHeaders(req.Headers)
	}
	if req.Body != nil {
		rr.SetBody(req.Body)
	}

	if r.log != nil {
		r.log.Debugf("dispatching %s %s headers=%v", req.Method, req.URL, redactHeaders(req.Headers))
	}

	resp, err := rr.Execute(req.Method, req.URL)
	if err != nil {
		return nil, err
	}

	adapted := &restyResponseAdapter{resp: resp}
	if IsBadStatus(resp.StatusCode()) {
		return nil, &BadResponseError{Method: req.Method, URL: req.URL, Response: adapted}
	}
	return adapted, nil
}

func redactHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if http.CanonicalHeaderKey(k) == "Authorization" {
			v = redacted
		}
		out[k] = v
	}
	return out
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte        { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int     { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Header() http.Header { return r.resp.Header() }
