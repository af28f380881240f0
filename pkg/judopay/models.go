package judopay

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Amount is a decimal monetary value kept as its exact text, so "10.50"
// stays "10.50" and never passes through a float. The gateway sends amounts
// either as JSON numbers or as decimal strings; both decode. It encodes as a
// JSON number and the zero value encodes as 0.
type Amount string

// ErrInvalidAmount is returned when an amount is not a plain decimal.
var ErrInvalidAmount = errors.New("judopay: invalid amount")

// String returns the decimal text, "0" for the zero value.
func (a Amount) String() string {
	if a == "" {
		return "0"
	}
	return string(a)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !isDecimal(a.String()) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, string(a))
	}
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			*a = ""
			return nil
		}
	}
	if !isDecimal(text) {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	*a = Amount(text)
	return nil
}

// isDecimal accepts an optional minus sign, digits and an optional
// fractional part.
func isDecimal(s string) bool {
	s = strings.TrimPrefix(s, "-")
	intPart, frac, hasDot := strings.Cut(s, ".")
	if intPart == "" || !allDigits(intPart) {
		return false
	}
	if hasDot && (frac == "" || !allDigits(frac)) {
		return false
	}
	return true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// CardAddress is the billing address attached to a card payment.
type CardAddress struct {
	Line1       string `json:"line1,omitempty"`
	Line2       string `json:"line2,omitempty"`
	Line3       string `json:"line3,omitempty"`
	Town        string `json:"town,omitempty"`
	PostCode    string `json:"postCode,omitempty"`
	CountryCode int    `json:"countryCode,omitempty"`
}

// CardPayment is the body for payments, pre-auths, card registration and
// card checks. Either card details or a card token must be set.
type CardPayment struct {
	JudoID                string            `json:"judoId"`
	YourConsumerReference string            `json:"yourConsumerReference"`
	YourPaymentReference  string            `json:"yourPaymentReference"`
	YourPaymentMetaData   map[string]string `json:"yourPaymentMetaData,omitempty"`
	Amount                Amount            `json:"amount"`
	Currency              string            `json:"currency"`
	CardNumber            string            `json:"cardNumber,omitempty"`
	ExpiryDate            string            `json:"expiryDate,omitempty"`
	StartDate             string            `json:"startDate,omitempty"`
	IssueNumber           string            `json:"issueNumber,omitempty"`
	CV2                   string            `json:"cv2,omitempty"`
	CardToken             string            `json:"cardToken,omitempty"`
	ConsumerToken         string            `json:"consumerToken,omitempty"`
	CardAddress           *CardAddress      `json:"cardAddress,omitempty"`
	EmailAddress          string            `json:"emailAddress,omitempty"`
	MobileNumber          string            `json:"mobileNumber,omitempty"`
}

// Adjustment is the body for collections and refunds against an existing receipt.
type Adjustment struct {
	ReceiptID            string `json:"receiptId"`
	Amount               Amount `json:"amount"`
	YourPaymentReference string `json:"yourPaymentReference"`
}

// Void cancels an uncollected pre-auth.
type Void struct {
	ReceiptID            string `json:"receiptId"`
	Amount               Amount `json:"amount"`
	Currency             string `json:"currency"`
	YourPaymentReference string `json:"yourPaymentReference"`
}

type CardDetails struct {
	CardLastFour string `json:"cardLastfour"`
	EndDate      string `json:"endDate"`
	CardToken    string `json:"cardToken"`
	CardType     int    `json:"cardType"`
	CardScheme   string `json:"cardScheme"`
}

type Consumer struct {
	ConsumerToken         string `json:"consumerToken"`
	YourConsumerReference string `json:"yourConsumerReference"`
}

// Receipt is the gateway's record of a transaction.
type Receipt struct {
	ReceiptID            string      `json:"receiptId"`
	OriginalReceiptID    string      `json:"originalReceiptId,omitempty"`
	YourPaymentReference string      `json:"yourPaymentReference"`
	Type                 string      `json:"type"`
	CreatedAt            string      `json:"createdAt"`
	Result               string      `json:"result"`
	Message              string      `json:"message"`
	JudoID               json.Number `json:"judoId,omitempty"`
	MerchantName         string      `json:"merchantName"`
	AppearsOnStatementAs string      `json:"appearsOnStatementAs"`
	OriginalAmount       Amount      `json:"originalAmount"`
	NetAmount            Amount      `json:"netAmount"`
	Amount               Amount      `json:"amount"`
	Currency             string      `json:"currency"`
	CardDetails          CardDetails `json:"cardDetails"`
	Consumer             Consumer    `json:"consumer"`
}

const resultSuccess = "Success"

// Succeeded reports whether the gateway accepted the transaction.
func (r Receipt) Succeeded() bool {
	return r.Result == resultSuccess
}

// ReceiptList is one page of receipts.
type ReceiptList struct {
	ResultCount int       `json:"resultCount"`
	PageSize    int       `json:"pageSize"`
	Offset      int       `json:"offset"`
	Sort        string    `json:"sort"`
	Results     []Receipt `json:"results"`
}
