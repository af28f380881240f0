package reconciler

import (
	"context"

	"github.com/judopay/judopay-go/pkg/judopay"
	"github.com/judopay/judopay-go/pkg/publishers"
)

// ReceiptLister fetches a page of receipts from the gateway.
type ReceiptLister interface {
	Receipts(ctx context.Context, opts judopay.ListOptions) (*judopay.ReceiptList, error)
}

// EventPublisher publishes receipt events downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper records receipts that were already published.
type Deduper interface {
	SeenReceipt(id string) (bool, error)
	MarkReceipt(id string) error
}
