package reconciler

import (
	"context"
	"errors"
	"fmt"

	"github.com/judopay/judopay-go/internal/logger"
	"github.com/judopay/judopay-go/pkg/judopay"
	"github.com/judopay/judopay-go/pkg/publishers"
)

// Result summarises one sync pass.
type Result struct {
	Pages     int
	Fetched   int
	Published int
	Skipped   int
}

// Service syncs the latest receipts from the gateway to the publishers,
// skipping receipts already recorded by the deduper.
type Service struct {
	lister    ReceiptLister
	publisher EventPublisher
	deduper   Deduper
	log       logger.Logger
	pageSize  int
}

// NewService wires a reconciler. A nil deduper publishes every receipt.
func NewService(lister ReceiptLister, pub EventPublisher, log logger.Logger, deduper Deduper, pageSize int) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Service{
		lister:    lister,
		publisher: pub,
		deduper:   deduper,
		log:       log,
		pageSize:  pageSize,
	}
}

// maxPagesPerRun bounds one pass; receipts beyond it are picked up by the
// next pass since they stay unmarked.
const maxPagesPerRun = 50

// Run executes a single sync pass. It walks pages newest first and stops at
// a short page, at a page holding no unseen receipts, or after
// maxPagesPerRun pages. Without a deduper only the first page is read.
func (s *Service) Run(ctx context.Context) (Result, error) {
	if s == nil || s.lister == nil {
		return Result{}, fmt.Errorf("reconciler service is not initialized")
	}

	var (
		res  Result
		errs []error
	)
	for offset := 0; res.Pages < maxPagesPerRun; offset += s.pageSize {
		if ctx.Err() != nil {
			break
		}

		list, err := s.lister.Receipts(ctx, judopay.ListOptions{
			PageSize: s.pageSize,
			Offset:   offset,
			Sort:     judopay.SortTimeDescending,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("list receipts at offset %d: %w", offset, err))
			break
		}
		res.Pages++

		page := list.Results
		res.Fetched += len(page)
		fresh := s.filterNewReceipts(page)
		res.Skipped += len(page) - len(fresh)

		for _, receipt := range fresh {
			if ctx.Err() != nil {
				break
			}
			if err := s.publish(ctx, receipt); err != nil {
				errs = append(errs, err)
				continue
			}
			res.Published++
		}

		if s.deduper == nil || s.pageSize <= 0 || len(page) < s.pageSize || len(fresh) == 0 {
			break
		}
		if res.Pages == maxPagesPerRun {
			s.log.WarnObj("receipt sync page limit reached", "sync_backlog", map[string]any{
				"pages":     res.Pages,
				"page_size": s.pageSize,
			})
		}
	}

	s.log.InfoObj("receipt sync completed", "sync_result", map[string]any{
		"pages":     res.Pages,
		"fetched":   res.Fetched,
		"published": res.Published,
		"skipped":   res.Skipped,
		"failed":    len(errs),
	})
	return res, errors.Join(errs...)
}

func (s *Service) publish(ctx context.Context, receipt judopay.Receipt) error {
	if s.publisher == nil {
		return fmt.Errorf("receipt %s: no publisher configured", receipt.ReceiptID)
	}

	delivered, err := s.publisher.Publish(ctx, publishers.NewEvent(receipt))
	if err != nil {
		s.log.ErrorObj("receipt publish failed", "receipt_error", map[string]any{
			"receipt_id": receipt.ReceiptID,
			"delivered":  delivered,
			"error":      err.Error(),
		})
	}
	if delivered == 0 {
		if err == nil {
			err = errors.New("no publisher accepted the event")
		}
		return fmt.Errorf("receipt %s: %w", receipt.ReceiptID, err)
	}

	if s.deduper != nil {
		if markErr := s.deduper.MarkReceipt(receipt.ReceiptID); markErr != nil {
			s.log.WarnObj("receipt mark failed", "receipt_error", map[string]any{
				"receipt_id": receipt.ReceiptID,
				"error":      markErr.Error(),
			})
		}
	}
	return nil
}

// filterNewReceipts drops receipts already seen. Lookup errors fail open.
func (s *Service) filterNewReceipts(receipts []judopay.Receipt) []judopay.Receipt {
	out := make([]judopay.Receipt, 0, len(receipts))
	for _, r := range receipts {
		if r.ReceiptID == "" {
			continue
		}
		if s.deduper == nil {
			out = append(out, r)
			continue
		}
		seen, err := s.deduper.SeenReceipt(r.ReceiptID)
		if err != nil {
			s.log.WarnObj("receipt lookup failed", "receipt_error", map[string]any{
				"receipt_id": r.ReceiptID,
				"error":      err.Error(),
			})
			out = append(out, r)
			continue
		}
		if !seen {
			out = append(out, r)
		}
	}
	return out
}
