package publishers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/judopay/judopay-go/pkg/httpclient"
)

// Headers added to every webhook delivery.
const (
	HeaderReceiptID      = "X-Judo-Receipt-Id"
	HeaderEventType      = "X-Judo-Event-Type"
	HeaderIdempotencyKey = "Idempotency-Key"
)

const webhookSnippetLimit = 512

// webhookPublisher posts receipt events as JSON over the shared HTTP transport.
type webhookPublisher struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  httpclient.Client
	log     Logger
}

func newWebhookPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	log = ensureLogger(log)

	return &webhookPublisher{
		id:      cfg.ID,
		method:  cfg.HTTP.Method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client: httpclient.NewRestyClient(httpclient.Options{
			Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		}),
		log: log,
	}, nil
}

func (w *webhookPublisher) ID() string   { return w.id }
func (w *webhookPublisher) Type() string { return TypeHTTP }

func (w *webhookPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	headers := make(map[string]string, len(w.headers)+4)
	for k, v := range w.headers {
		headers[k] = v
	}
	headers["Content-Type"] = "application/json"
	headers[HeaderReceiptID] = evt.ReceiptID
	headers[HeaderEventType] = evt.Type
	headers[HeaderIdempotencyKey] = evt.ReceiptID

	resp, err := w.client.Send(ctx, httpclient.Request{
		Method:  w.method,
		URL:     w.url,
		Headers: headers,
		Body:    body,
	})
	var bad *httpclient.BadResponseError
	if errors.As(err, &bad) {
		return fmt.Errorf("webhook responded %d: %s", bad.Response.StatusCode(), snippet(bad.Response.Body()))
	}
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}

	w.log.DebugObj("webhook delivered receipt", "publisher_http_delivery", map[string]any{
		"publisher_id": w.id,
		"receipt_id":   evt.ReceiptID,
		"status":       resp.StatusCode(),
	})
	return nil
}

func snippet(body []byte) string {
	if len(body) > webhookSnippetLimit {
		cut := webhookSnippetLimit
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}
	return strings.TrimSpace(strings.ToValidUTF8(string(body), ""))
}
