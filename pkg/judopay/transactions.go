package judopay

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/judopay/judopay-go/pkg/httpclient"
)

const (
	pathTransactions = "transactions"
	pathPayments     = "transactions/payments"
	pathPreAuths     = "transactions/preauths"
	pathRegisterCard = "transactions/registercard"
	pathCheckCard    = "transactions/checkcard"
	pathCollections  = "transactions/collections"
	pathRefunds      = "transactions/refunds"
	pathVoids        = "transactions/voids"

	SortTimeDescending = "time-descending"
	SortTimeAscending  = "time-ascending"
)

// ErrMissingReceiptID is returned before any request when a receipt id is blank.
var ErrMissingReceiptID = errors.New("judopay: receipt id is required")

// ListOptions pages through receipts.
type ListOptions struct {
	PageSize int
	Offset   int
	Sort     string
}

func (o ListOptions) query() string {
	q := url.Values{}
	if o.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(o.PageSize))
	}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}
	return q.Encode()
}

// Transactions exposes the transaction endpoints of the gateway.
type Transactions struct {
	requests *RequestBuilder
}

// NewTransactions wraps a RequestBuilder.
func NewTransactions(requests *RequestBuilder) *Transactions {
	return &Transactions{requests: requests}
}

func (t *Transactions) Payment(ctx context.Context, p CardPayment) (*Receipt, error) {
	return t.postReceipt(ctx, pathPayments, t.withJudoID(p))
}

func (t *Transactions) PreAuth(ctx context.Context, p CardPayment) (*Receipt, error) {
	return t.postReceipt(ctx, pathPreAuths, t.withJudoID(p))
}

// RegisterCard stores a card and returns a receipt carrying its token.
func (t *Transactions) RegisterCard(ctx context.Context, p CardPayment) (*Receipt, error) {
	return t.postReceipt(ctx, pathRegisterCard, t.withJudoID(p))
}

func (t *Transactions) CheckCard(ctx context.Context, p CardPayment) (*Receipt, error) {
	return t.postReceipt(ctx, pathCheckCard, t.withJudoID(p))
}

// Collect captures funds held by a pre-auth.
func (t *Transactions) Collect(ctx context.Context, a Adjustment) (*Receipt, error) {
	if strings.TrimSpace(a.ReceiptID) == "" {
		return nil, ErrMissingReceiptID
	}
	return t.postReceipt(ctx, pathCollections, a)
}

func (t *Transactions) Refund(ctx context.Context, a Adjustment) (*Receipt, error) {
	if strings.TrimSpace(a.ReceiptID) == "" {
		return nil, ErrMissingReceiptID
	}
	return t.postReceipt(ctx, pathRefunds, a)
}

func (t *Transactions) Void(ctx context.Context, v Void) (*Receipt, error) {
	if strings.TrimSpace(v.ReceiptID) == "" {
		return nil, ErrMissingReceiptID
	}
	return t.postReceipt(ctx, pathVoids, v)
}

// Receipt fetches a single receipt by id.
func (t *Transactions) Receipt(ctx context.Context, receiptID string) (*Receipt, error) {
	receiptID = strings.TrimSpace(receiptID)
	if receiptID == "" {
		return nil, ErrMissingReceiptID
	}
	resp, err := t.requests.Get(ctx, pathTransactions+"/"+url.PathEscape(receiptID))
	if err != nil {
		return nil, err
	}
	return decodeReceipt(resp)
}

// Receipts lists receipts for the account.
func (t *Transactions) Receipts(ctx context.Context, opts ListOptions) (*ReceiptList, error) {
	path := pathTransactions
	if q := opts.query(); q != "" {
		path += "?" + q
	}
	resp, err := t.requests.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	var list ReceiptList
	if err := json.Unmarshal(resp.Body(), &list); err != nil {
		return nil, fmt.Errorf("decode receipt list: %w", err)
	}
	return &list, nil
}

func (t *Transactions) withJudoID(p CardPayment) CardPayment {
	if p.JudoID == "" {
		if cfg := t.requests.Configuration(); cfg != nil {
			p.JudoID = cfg.JudoID
		}
	}
	return p
}

func (t *Transactions) postReceipt(ctx context.Context, path string, body any) (*Receipt, error) {
	resp, err := t.requests.Post(ctx, path, body)
	if err != nil {
		return nil, err
	}
	return decodeReceipt(resp)
}

func decodeReceipt(resp httpclient.Response) (*Receipt, error) {
	var receipt Receipt
	if err := json.Unmarshal(resp.Body(), &receipt); err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	return &receipt, nil
}
