// Package midtrans is a minimal client for the Midtrans Core API: QRIS
// charges and HTTP notification verification.
package midtrans

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	SandboxBaseURL    = "https://api.sandbox.midtrans.com"
	ProductionBaseURL = "https://api.midtrans.com"

	// status_code sukses untuk charge.
	chargeCreated = "201"
)

var ErrChargeRejected = errors.New("midtrans: charge rejected")

type Client struct {
	BaseURL   string
	ServerKey string
	Acquirer  string
	HTTP      *http.Client
}

func NewClient(serverKey string, production bool, timeout time.Duration) *Client {
	base := SandboxBaseURL
	if production {
		base = ProductionBaseURL
	}
	return &Client{
		BaseURL:   base,
		ServerKey: serverKey,
		Acquirer:  "gopay",
		HTTP:      &http.Client{Timeout: timeout},
	}
}

type QRISCharge struct {
	OrderID      string
	GrossAmount  int64
	CustomerName string
}

type chargeRequest struct {
	PaymentType        string             `json:"payment_type"`
	TransactionDetails transactionDetails `json:"transaction_details"`
	CustomerDetails    customerDetails    `json:"customer_details"`
	QRIS               qrisOptions        `json:"qris"`
}

type transactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type customerDetails struct {
	FirstName string `json:"first_name"`
}

type qrisOptions struct {
	Acquirer string `json:"acquirer"`
}

type Action struct {
	Name   string `json:"name"`
	Method string `json:"method"`
	URL    string `json:"url"`
}

type ChargeResponse struct {
	StatusCode        string   `json:"status_code"`
	StatusMessage     string   `json:"status_message"`
	TransactionID     string   `json:"transaction_id"`
	OrderID           string   `json:"order_id"`
	GrossAmount       string   `json:"gross_amount"`
	PaymentType       string   `json:"payment_type"`
	TransactionStatus string   `json:"transaction_status"`
	TransactionTime   string   `json:"transaction_time"`
	ExpiryTime        string   `json:"expiry_time"`
	Actions           []Action `json:"actions"`
}

// QRCodeURL: url gambar QR. Pakai action generate-qr-code, kalau tidak ada
// ambil action pertama.
func (r *ChargeResponse) QRCodeURL() string {
	for _, a := range r.Actions {
		if a.Name == "generate-qr-code" {
			return a.URL
		}
	}
	if len(r.Actions) > 0 {
		return r.Actions[0].URL
	}
	return ""
}

// ChargeQRIS meminta transaksi QRIS baru. Error dikembalikan untuk network
// error, HTTP non-2xx, body rusak, atau status_code selain 201.
func (c *Client) ChargeQRIS(ctx context.Context, ch QRISCharge) (*ChargeResponse, error) {
	body, err := json.Marshal(chargeRequest{
		PaymentType: "qris",
		TransactionDetails: transactionDetails{
			OrderID:     ch.OrderID,
			GrossAmount: ch.GrossAmount,
		},
		CustomerDetails: customerDetails{FirstName: ch.CustomerName},
		QRIS:            qrisOptions{Acquirer: c.Acquirer},
	})
	if err != nil {
		return nil, fmt.Errorf("encode charge: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.BaseURL, "/")+"/v2/charge", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+BasicAuth(c.ServerKey))

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("midtrans charge: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read charge response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: http %d", ErrChargeRejected, resp.StatusCode)
	}

	var out ChargeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode charge response: %w", err)
	}
	if out.StatusCode != chargeCreated {
		return nil, fmt.Errorf("%w: status_code=%s %s", ErrChargeRejected, out.StatusCode, out.StatusMessage)
	}
	return &out, nil
}

// BasicAuth: server key sebagai username, password kosong.
func BasicAuth(serverKey string) string {
	return base64.StdEncoding.EncodeToString([]byte(serverKey + ":"))
}
