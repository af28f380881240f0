// Package storage keeps a local ledger of receipts that have already been
// published downstream.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store tracks published receipt IDs.
type Store interface {
	SeenReceipt(id string) (bool, error)
	MarkReceipt(id string) error
	Len() (int, error)
	Close() error
}

// Options selects and tunes a ledger backend.
type Options struct {
	Type            string
	Path            string
	ReceiptTTL      time.Duration
	CleanupInterval time.Duration
}

const (
	TypeNone  = "none"
	TypeBBolt = "bbolt"

	defaultReceiptTTL      = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// Open returns the ledger described by opts. An empty type disables the
// ledger and every receipt is treated as new.
func Open(opts Options) (Store, error) {
	opts = opts.withDefaults()

	switch opts.Type {
	case "", TypeNone:
		return nopStore{}, nil
	case TypeBBolt:
		if opts.Path == "" {
			return nil, fmt.Errorf("bbolt ledger requires a path")
		}
		return openBolt(opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", opts.Type)
	}
}

func (o Options) withDefaults() Options {
	o.Type = strings.ToLower(strings.TrimSpace(o.Type))
	o.Path = strings.TrimSpace(o.Path)
	if o.ReceiptTTL <= 0 {
		o.ReceiptTTL = defaultReceiptTTL
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = defaultCleanupInterval
	}
	return o
}

type nopStore struct{}

func (nopStore) SeenReceipt(string) (bool, error) { return false, nil }
func (nopStore) MarkReceipt(string) error         { return nil }
func (nopStore) Len() (int, error)                { return 0, nil }
func (nopStore) Close() error                     { return nil }
