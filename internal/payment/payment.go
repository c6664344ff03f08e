// Package payment wraps the Midtrans Snap checkout and Core API status
// endpoints and interprets their notifications.
package payment

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

type Outcome string

const (
	OutcomePending Outcome = "PENDING"
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
	OutcomeExpired Outcome = "EXPIRED"
)

type Item struct {
	ID       string
	Name     string
	Price    int64
	Quantity int32
}

type Customer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// TransactionRequest creates a checkout session. GrossAmount must equal the
// sum of Price*Quantity over Items.
type TransactionRequest struct {
	OrderID     string
	GrossAmount int64
	Items       []Item
	Customer    Customer
	ExpiryHours int64
}

type Transaction struct {
	Token       string
	RedirectURL string
}

// Notification is the body the gateway posts to the webhook. The same shape
// is returned by a status lookup.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
	TransactionID     string `json:"transaction_id"`
	TransactionTime   string `json:"transaction_time"`
}

type Gateway interface {
	CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error)
	TransactionStatus(ctx context.Context, orderID string) (*Notification, error)
}

// Signature computes sha512(order_id + status_code + gross_amount + server_key).
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func VerifySignature(n Notification, serverKey string) bool {
	if n.SignatureKey == "" || serverKey == "" {
		return false
	}
	want := Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	got := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

// ResolveOutcome maps a transaction and fraud status pair to a booking
// outcome. A payment succeeds only when the transaction is captured or
// settled and the fraud check accepted it. The bool is false for statuses
// that carry no booking change (refunds, authorize).
func ResolveOutcome(transactionStatus, fraudStatus string) (Outcome, bool) {
	tx := strings.ToLower(strings.TrimSpace(transactionStatus))
	fraud := strings.ToLower(strings.TrimSpace(fraudStatus))

	switch tx {
	case "capture":
		switch fraud {
		case "accept":
			return OutcomeSuccess, true
		case "challenge":
			return OutcomePending, true
		default:
			return OutcomeFailure, true
		}
	case "settlement":
		if fraud == "" || fraud == "accept" {
			return OutcomeSuccess, true
		}
		return OutcomeFailure, true
	case "pending":
		return OutcomePending, true
	case "deny", "cancel", "failure":
		return OutcomeFailure, true
	case "expire":
		return OutcomeExpired, true
	}
	return "", false
}
