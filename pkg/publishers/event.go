package publishers

import (
	"time"

	"github.com/judopay/judopay-go/pkg/judopay"
)

// Event represents a receipt published downstream.
type Event struct {
	JudoID    string      `json:"judo_id,omitempty"`
	ReceiptID string      `json:"receipt_id"`
	Type      string      `json:"type"`
	Result    string      `json:"result"`
	Receipt   ReceiptView `json:"receipt"`
	SyncedAt  time.Time   `json:"synced_at"`
}

// ReceiptView is the part of a receipt safe to hand to other systems. Card
// and consumer tokens are reusable payment credentials and never leave the
// gateway client.
type ReceiptView struct {
	ReceiptID             string         `json:"receiptId"`
	OriginalReceiptID     string         `json:"originalReceiptId,omitempty"`
	YourPaymentReference  string         `json:"yourPaymentReference"`
	YourConsumerReference string         `json:"yourConsumerReference,omitempty"`
	Type                  string         `json:"type"`
	CreatedAt             string         `json:"createdAt"`
	Result                string         `json:"result"`
	Message               string         `json:"message"`
	JudoID                string         `json:"judoId,omitempty"`
	MerchantName          string         `json:"merchantName"`
	AppearsOnStatementAs  string         `json:"appearsOnStatementAs"`
	OriginalAmount        judopay.Amount `json:"originalAmount"`
	NetAmount             judopay.Amount `json:"netAmount"`
	Amount                judopay.Amount `json:"amount"`
	Currency              string         `json:"currency"`
	Card                  CardView       `json:"cardDetails"`
}

// CardView identifies a card without its token.
type CardView struct {
	CardLastFour string `json:"cardLastfour"`
	EndDate      string `json:"endDate"`
	CardType     int    `json:"cardType"`
	CardScheme   string `json:"cardScheme"`
}

// NewReceiptView copies the shareable fields of r.
func NewReceiptView(r judopay.Receipt) ReceiptView {
	return ReceiptView{
		ReceiptID:             r.ReceiptID,
		OriginalReceiptID:     r.OriginalReceiptID,
		YourPaymentReference:  r.YourPaymentReference,
		YourConsumerReference: r.Consumer.YourConsumerReference,
		Type:                  r.Type,
		CreatedAt:             r.CreatedAt,
		Result:                r.Result,
		Message:               r.Message,
		JudoID:                r.JudoID.String(),
		MerchantName:          r.MerchantName,
		AppearsOnStatementAs:  r.AppearsOnStatementAs,
		OriginalAmount:        r.OriginalAmount,
		NetAmount:             r.NetAmount,
		Amount:                r.Amount,
		Currency:              r.Currency,
		Card: CardView{
			CardLastFour: r.CardDetails.CardLastFour,
			EndDate:      r.CardDetails.EndDate,
			CardType:     r.CardDetails.CardType,
			CardScheme:   r.CardDetails.CardScheme,
		},
	}
}

// NewEvent constructs an Event for the given receipt.
func NewEvent(receipt judopay.Receipt) Event {
	return Event{
		JudoID:    receipt.JudoID.String(),
		ReceiptID: receipt.ReceiptID,
		Type:      receipt.Type,
		Result:    receipt.Result,
		Receipt:   NewReceiptView(receipt),
		SyncedAt:  time.Now().UTC(),
	}
}

// attributes are attached to queue and topic messages for filtering.
func (e Event) attributes() map[string]string {
	attrs := map[string]string{
		"receipt_id": e.ReceiptID,
	}
	if e.JudoID != "" {
		attrs["judo_id"] = e.JudoID
	}
	if e.Type != "" {
		attrs["type"] = e.Type
	}
	if e.Result != "" {
		attrs["result"] = e.Result
	}
	return attrs
}

// messageGroup orders FIFO deliveries per merchant.
func (e Event) messageGroup() string {
	if e.JudoID != "" {
		return e.JudoID
	}
	return "receipts"
}

func (e Event) subject() string {
	if e.Type == "" {
		return "Receipt " + e.ReceiptID
	}
	return e.Type + " receipt " + e.ReceiptID
}
