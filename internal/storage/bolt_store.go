package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	bolt "go.etcd.io/bbolt"
)

var receiptsBucket = []byte("receipts")

var errNoBucket = errors.New("receipts bucket missing")

// ledgerEntry is the value stored under each receipt ID.
type ledgerEntry struct {
	MarkedAt  time.Time `json:"marked_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (e ledgerEntry) live(now time.Time) bool {
	return e.ExpiresAt.After(now)
}

// boltStore is a Store backed by a single bbolt bucket. Expired entries are
// ignored on lookup and removed by a background sweeper.
type boltStore struct {
	db   *bolt.DB
	ttl  time.Duration
	now  func() time.Time
	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func openBolt(opts Options) (*boltStore, error) {
	if dir := filepath.Dir(opts.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}

	db, err := bolt.Open(opts.Path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(receiptsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create receipts bucket: %w", err)
	}

	s := &boltStore{
		db:   db,
		ttl:  opts.ReceiptTTL,
		now:  time.Now,
		stop: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.sweepLoop(opts.CleanupInterval)
	return s, nil
}

func (s *boltStore) SeenReceipt(id string) (bool, error) {
	var seen bool
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(receiptsBucket)
		if b == nil {
			return errNoBucket
		}
		raw := b.Get([]byte(id))
		if raw == nil {
			return nil
		}
		var entry ledgerEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			// unreadable entries count as unseen and get overwritten on mark
			return nil
		}
		seen = entry.live(s.now())
		return nil
	})
	return seen, err
}

func (s *boltStore) MarkReceipt(id string) error {
	now := s.now()
	raw, err := json.Marshal(ledgerEntry{MarkedAt: now.UTC(), ExpiresAt: now.Add(s.ttl).UTC()})
	if err != nil {
		return fmt.Errorf("encode ledger entry: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(receiptsBucket)
		if b == nil {
			return errNoBucket
		}
		return b.Put([]byte(id), raw)
	})
}

// Len reports the number of entries, including expired ones not yet swept.
func (s *boltStore) Len() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(receiptsBucket)
		if b == nil {
			return errNoBucket
		}
		n = b.Stats().KeyN
		return nil
	})
	return n, err
}

func (s *boltStore) Close() error {
	var err error
	s.once.Do(func() {
		close(s.stop)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *boltStore) sweepLoop(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			_, _ = s.sweep()
		}
	}
}

// sweep deletes expired or unreadable entries and returns how many it removed.
func (s *boltStore) sweep() (int, error) {
	now := s.now()
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(receiptsBucket)
		if b == nil {
			return errNoBucket
		}
		var expired [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var entry ledgerEntry
			if json.Unmarshal(v, &entry) != nil || !entry.live(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(expired)
		return nil
	})
	return removed, err
}
