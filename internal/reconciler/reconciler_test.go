package reconciler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/judopay/judopay-go/pkg/judopay"
	"github.com/judopay/judopay-go/pkg/publishers"
)

// fakeLister returns preset receipts or an error.
type fakeLister struct {
	receipts []judopay.Receipt
	err      error
	opts     judopay.ListOptions
}

func (f *fakeLister) Receipts(_ context.Context, opts judopay.ListOptions) (*judopay.ReceiptList, error) {
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &judopay.ReceiptList{ResultCount: len(f.receipts), Results: f.receipts}, nil
}

// fakePublisher records published events and can inject errors.
type fakePublisher struct {
	mu      sync.Mutex
	events  []publishers.Event
	errOnID string
}

func (f *fakePublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	if evt.ReceiptID == f.errOnID {
		return 0, errors.New("boom")
	}
	return 1, nil
}

// fakeDeduper tracks seen IDs.
type fakeDeduper struct {
	mu      sync.Mutex
	seen    map[string]bool
	failID  string
	failErr error
}

func (f *fakeDeduper) SeenReceipt(id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == f.failID && f.failErr != nil {
		return false, f.failErr
	}
	return f.seen[id], nil
}

func (f *fakeDeduper) MarkReceipt(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	f.seen[id] = true
	return nil
}

func TestRunPublishesFreshReceiptsOnly(t *testing.T) {
	lister := &fakeLister{receipts: []judopay.Receipt{
		{ReceiptID: "r1", Result: "Success"},
		{ReceiptID: "r2", Result: "Declined"},
		{ReceiptID: ""},
	}}
	deduper := &fakeDeduper{seen: map[string]bool{"r1": true}}
	pub := &fakePublisher{}

	svc := NewService(lister, pub, nil, deduper, 25)
	res, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if lister.opts.PageSize != 25 || lister.opts.Sort != judopay.SortTimeDescending {
		t.Fatalf("unexpected list options %+v", lister.opts)
	}
	if res.Fetched != 3 || res.Published != 1 || res.Skipped != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(pub.events) != 1 || pub.events[0].ReceiptID != "r2" || pub.events[0].Result != "Declined" {
		t.Fatalf("unexpected events %+v", pub.events)
	}
	if !deduper.seen["r2"] {
		t.Fatalf("MarkReceipt not called for new receipt")
	}
}

func TestRunAggregatesPublishErrors(t *testing.T) {
	lister := &fakeLister{receipts: []judopay.Receipt{{ReceiptID: "bad"}, {ReceiptID: "good"}}}
	deduper := &fakeDeduper{}
	svc := NewService(lister, &fakePublisher{errOnID: "bad"}, nil, deduper, 10)

	res, err := svc.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "bad") {
		t.Fatalf("expected error mentioning bad receipt, got %v", err)
	}
	if res.Published != 1 {
		t.Fatalf("expected good receipt to publish, got %+v", res)
	}
	if deduper.seen["bad"] {
		t.Fatalf("failed receipt must not be marked")
	}
}

func TestRunWrapsListError(t *testing.T) {
	apiErr := &judopay.APIError{StatusCode: 401, Kind: judopay.KindUnauthorized}
	svc := NewService(&fakeLister{err: apiErr}, &fakePublisher{}, nil, nil, 10)

	_, err := svc.Run(context.Background())
	if !errors.Is(err, judopay.ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestFilterNewReceiptsFailsOpen(t *testing.T) {
	deduper := &fakeDeduper{
		seen:    map[string]bool{"skip": true},
		failID:  "error",
		failErr: errors.New("lookup failed"),
	}
	svc := NewService(&fakeLister{}, nil, nil, deduper, 10)

	filtered := svc.filterNewReceipts([]judopay.Receipt{{ReceiptID: "keep"}, {ReceiptID: "skip"}, {ReceiptID: "error"}})
	if len(filtered) != 2 {
		t.Fatalf("expected 2 receipts after filter, got %d", len(filtered))
	}
	if filtered[0].ReceiptID != "keep" || filtered[1].ReceiptID != "error" {
		t.Fatalf("unexpected filter result %#v", filtered)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pub := &fakePublisher{}
	svc := NewService(&fakeLister{receipts: []judopay.Receipt{{ReceiptID: "r1"}}}, pub, nil, nil, 10)
	if _, err := svc.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("expected no publishes after cancel, got %d", len(pub.events))
	}
}

func TestRunRequiresLister(t *testing.T) {
	if _, err := NewService(nil, nil, nil, nil, 10).Run(context.Background()); err == nil {
		t.Fatalf("expected error for uninitialized service")
	}
}

// pagingLister serves receipts newest first, honouring offset and page size.
type pagingLister struct {
	receipts []judopay.Receipt
	offsets  []int
}

func (p *pagingLister) Receipts(_ context.Context, opts judopay.ListOptions) (*judopay.ReceiptList, error) {
	p.offsets = append(p.offsets, opts.Offset)
	start := min(opts.Offset, len(p.receipts))
	end := min(start+opts.PageSize, len(p.receipts))
	return &judopay.ReceiptList{
		ResultCount: len(p.receipts),
		PageSize:    opts.PageSize,
		Offset:      opts.Offset,
		Results:     p.receipts[start:end],
	}, nil
}

func receiptsNewestFirst(ids ...string) []judopay.Receipt {
	out := make([]judopay.Receipt, 0, len(ids))
	for _, id := range ids {
		out = append(out, judopay.Receipt{ReceiptID: id})
	}
	return out
}

func TestRunPagesThroughBacklogLargerThanPage(t *testing.T) {
	lister := &pagingLister{receipts: receiptsNewestFirst("r3", "r2", "r1")}
	deduper := &fakeDeduper{}
	pub := &fakePublisher{}
	svc := NewService(lister, pub, nil, deduper, 2)

	for pass := 0; pass < 3; pass++ {
		if _, err := svc.Run(context.Background()); err != nil {
			t.Fatalf("Run pass %d: %v", pass, err)
		}
	}

	for _, id := range []string{"r1", "r2", "r3"} {
		if !deduper.seen[id] {
			t.Fatalf("receipt %s never published", id)
		}
	}
	if len(pub.events) != 3 {
		t.Fatalf("each receipt must be published once, got %d events", len(pub.events))
	}
}

func TestRunStopsAtPageOfSeenReceipts(t *testing.T) {
	lister := &pagingLister{receipts: receiptsNewestFirst("r6", "r5", "r4", "r3", "r2", "r1")}
	deduper := &fakeDeduper{seen: map[string]bool{"r4": true, "r3": true, "r2": true, "r1": true}}
	pub := &fakePublisher{}
	svc := NewService(lister, pub, nil, deduper, 2)

	res, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Pages != 2 || res.Published != 2 || res.Skipped != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(lister.offsets) != 2 || lister.offsets[0] != 0 || lister.offsets[1] != 2 {
		t.Fatalf("unexpected offsets %v", lister.offsets)
	}
}

func TestRunWithoutDeduperReadsOnePage(t *testing.T) {
	lister := &pagingLister{receipts: receiptsNewestFirst("r3", "r2", "r1")}
	svc := NewService(lister, &fakePublisher{}, nil, nil, 2)

	res, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Pages != 1 || len(lister.offsets) != 1 {
		t.Fatalf("expected a single page, got %+v offsets %v", res, lister.offsets)
	}
}
