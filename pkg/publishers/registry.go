package publishers

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Registry maps publisher types to builders. Register everything before the
// registry is shared; lookups do not lock.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// DefaultRegistry knows the webhook, SQS, SNS and Pub/Sub publishers.
func DefaultRegistry() *Registry {
	return NewRegistry().
		Register(TypeHTTP, newWebhookPublisher).
		Register(TypeSQS, newSQSPublisher).
		Register(TypeSNS, newSNSPublisher).
		Register(TypePubSub, newPubSubPublisher)
}

// Register binds typ to builder and returns the registry for chaining.
// Blank types and nil builders are ignored.
func (r *Registry) Register(typ string, builder Builder) *Registry {
	typ = strings.ToLower(strings.TrimSpace(typ))
	if typ != "" && builder != nil {
		r.builders[typ] = builder
	}
	return r
}

// Types lists the registered publisher types in order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.builders))
	for typ := range r.builders {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}

// Build creates the publisher for a single config entry.
func (r *Registry) Build(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	builder, ok := r.builders[strings.ToLower(cfg.Type)]
	if !ok {
		return nil, fmt.Errorf("publisher %q: unsupported type %q (known: %s)", cfg.ID, cfg.Type, strings.Join(r.Types(), ", "))
	}
	pub, err := builder(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	return pub, nil
}

// BuildFanout builds every config entry into one Fanout. If any entry fails,
// the publishers built so far are closed.
func (r *Registry) BuildFanout(ctx context.Context, cfgs []PublisherConfig, log Logger) (*Fanout, error) {
	pubs := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := r.Build(ctx, cfg, log)
		if err != nil {
			for _, built := range pubs {
				if c, ok := built.(io.Closer); ok {
					_ = c.Close()
				}
			}
			return nil, err
		}
		pubs = append(pubs, pub)
	}
	return NewFanout(pubs), nil
}
