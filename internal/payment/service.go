// Package payment applies gateway payment notifications to orders and
// triggers fulfillment.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ariefcatur/go-qris-orderbot/internal/metrics"
	"github.com/ariefcatur/go-qris-orderbot/internal/midtrans"
	"github.com/ariefcatur/go-qris-orderbot/internal/orders"
	"github.com/ariefcatur/go-qris-orderbot/internal/redisx"
)

var ErrInvalidSignature = errors.New("invalid signature")

const provider = "midtrans"

type Outcome string

const (
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeIgnored   Outcome = "ignored"   // status bukan capture/settlement
	OutcomeNoop      Outcome = "noop"      // order tidak ada atau sudah paid
	OutcomeDuplicate Outcome = "duplicate" // sudah pernah diproses (dedup cache)
)

// Confirmer: orders.Service.
type Confirmer interface {
	ConfirmPayment(ctx context.Context, orderID string) (orders.Order, bool, error)
}

// Deliverer mengirim fulfillment ke pembeli (bot telegram).
type Deliverer interface {
	DeliverProduct(ctx context.Context, userID int64, orderID string, p orders.Product) error
}

// Deduper: fast path untuk notifikasi yang sudah selesai diproses.
type Deduper interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string, ttl time.Duration) error
}

type Service struct {
	ServerKey string
	Orders    Confirmer
	Products  orders.ProductStore
	Deliverer Deliverer
	Dedup     Deduper // boleh nil
	Log       *zap.Logger
}

// HandleNotification memverifikasi signature lalu menerapkan notifikasi.
// Error selain ErrInvalidSignature berarti kegagalan internal.
func (s *Service) HandleNotification(ctx context.Context, n midtrans.Notification) (Outcome, error) {
	log := s.log().With(
		zap.String("order_id", n.OrderID),
		zap.String("transaction_status", n.TransactionStatus),
	)

	if !n.Verify(s.ServerKey) {
		metrics.RecordNotification("invalid_signature")
		log.Warn("notification rejected: bad signature")
		return "", ErrInvalidSignature
	}

	if !n.Captured() {
		metrics.RecordNotification(string(OutcomeIgnored))
		log.Info("notification ignored")
		return OutcomeIgnored, nil
	}

	dedupKey := redisx.DedupKey(provider, n.OrderID, n.TransactionStatus)
	if s.Dedup != nil {
		if seen, err := s.Dedup.Seen(ctx, dedupKey); err == nil && seen {
			metrics.RecordNotification(string(OutcomeDuplicate))
			log.Info("notification already processed")
			return OutcomeDuplicate, nil
		} else if err != nil {
			log.Warn("dedup lookup failed", zap.Error(err))
		}
	}

	o, confirmed, err := s.Orders.ConfirmPayment(ctx, n.OrderID)
	if err != nil {
		metrics.RecordNotification("error")
		return "", err
	}
	if !confirmed {
		metrics.RecordNotification(string(OutcomeNoop))
		log.Info("order missing or already paid")
		s.markDone(ctx, dedupKey, log)
		return OutcomeNoop, nil
	}
	if !amountMatches(n.GrossAmount, o.Amount) {
		log.Warn("gross amount differs from order amount",
			zap.String("gross_amount", n.GrossAmount),
			zap.Int64("order_amount", o.Amount))
	}

	// payload dibaca ulang saat konfirmasi, bukan snapshot saat order dibuat
	p, err := s.Products.GetProduct(ctx, o.ProductID)
	if err != nil {
		metrics.RecordNotification("error")
		return "", fmt.Errorf("load product %d for order %s: %w", o.ProductID, o.ID, err)
	}
	if err := s.Deliverer.DeliverProduct(ctx, o.UserID, o.ID, p); err != nil {
		metrics.RecordDelivery("failed")
		metrics.RecordNotification("error")
		// order sudah paid; kirim ulang manual lewat /resend
		return "", fmt.Errorf("deliver order %s: %w", o.ID, err)
	}
	metrics.RecordDelivery("ok")
	metrics.RecordNotification(string(OutcomeConfirmed))
	log.Info("payment confirmed and product delivered", zap.Int64("user_id", o.UserID))

	s.markDone(ctx, dedupKey, log)
	return OutcomeConfirmed, nil
}

func (s *Service) markDone(ctx context.Context, key string, log *zap.Logger) {
	if s.Dedup == nil {
		return
	}
	if err := s.Dedup.Mark(ctx, key, redisx.TTLDedup); err != nil {
		log.Warn("dedup mark failed", zap.Error(err))
	}
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// amountMatches: Midtrans mengirim "50000.00", order menyimpan 50000.
func amountMatches(gross string, amount int64) bool {
	whole, frac, _ := strings.Cut(gross, ".")
	if strings.Trim(frac, "0") != "" {
		return false
	}
	v, err := strconv.ParseInt(whole, 10, 64)
	return err == nil && v == amount
}
