package midtrans

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

const (
	TransactionCapture    = "capture"
	TransactionSettlement = "settlement"
	TransactionPending    = "pending"
	TransactionDeny       = "deny"
	TransactionCancel     = "cancel"
	TransactionExpire     = "expire"
)

// Notification adalah body HTTP notification dari Midtrans. gross_amount
// dan status_code tetap string karena ikut dihitung di signature apa adanya.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	TransactionID     string `json:"transaction_id,omitempty"`
	TransactionTime   string `json:"transaction_time,omitempty"`
	PaymentType       string `json:"payment_type,omitempty"`
	FraudStatus       string `json:"fraud_status,omitempty"`
	StatusMessage     string `json:"status_message,omitempty"`
}

// Captured: status yang berarti dana sudah masuk.
func (n Notification) Captured() bool {
	return n.TransactionStatus == TransactionCapture || n.TransactionStatus == TransactionSettlement
}

// Signature = hex(SHA-512(order_id + status_code + gross_amount + server_key)).
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// Verify membandingkan signature_key dengan hasil hitung ulang secara
// constant-time.
func (n Notification) Verify(serverKey string) bool {
	want := Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(want), []byte(n.SignatureKey)) == 1
}

// Sign mengisi SignatureKey; dipakai tool CLI dan test.
func (n *Notification) Sign(serverKey string) {
	n.SignatureKey = Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
}
