package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ariefcatur/go-qris-orderbot/internal/metrics"
	"github.com/ariefcatur/go-qris-orderbot/internal/midtrans"
)

// Charger: gateway yang membuat kode bayar QRIS (midtrans.Client).
type Charger interface {
	ChargeQRIS(ctx context.Context, ch midtrans.QRISCharge) (*midtrans.ChargeResponse, error)
}

// Service memegang lifecycle order: create -> attach ref -> confirm.
type Service struct {
	Orders   OrderStore
	Products ProductStore
	Gateway  Charger
	Events   Publisher // boleh nil
	Log      *zap.Logger
	Producer string
	Now      func() time.Time
}

type Checkout struct {
	Order      Order
	Product    Product
	PaymentURL string
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// CreateOrder membuat order pending. amount harus sama dengan harga produk
// saat ini; stok tidak dikurangi.
func (s *Service) CreateOrder(ctx context.Context, req Requester, p Product, amount int64) (Order, error) {
	if amount != p.Price {
		return Order{}, fmt.Errorf("%w: amount=%d price=%d", ErrAmountMismatch, amount, p.Price)
	}
	now := s.now()
	o := Order{
		ID:        NewOrderID(req.UserID, now),
		UserID:    req.UserID,
		Username:  req.Name,
		ProductID: p.ID,
		Amount:    amount,
		Status:    StatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(OrderTTL),
	}
	if err := s.Orders.CreateOrder(ctx, o); err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	metrics.RecordOrderCreated()
	s.log().Info("order created",
		zap.String("order_id", o.ID),
		zap.Int64("user_id", o.UserID),
		zap.Int64("product_id", o.ProductID),
		zap.Int64("amount", o.Amount))

	s.emit(TopicOrderCreated, EventOrderCreated, o.ID, OrderCreatedPayload{
		OrderID:   o.ID,
		UserID:    o.UserID,
		ProductID: o.ProductID,
		Amount:    o.Amount,
		ExpiresAt: o.ExpiresAt,
	})
	return o, nil
}

func (s *Service) AttachPaymentReference(ctx context.Context, orderID, ref string) error {
	if err := s.Orders.AttachPaymentRef(ctx, orderID, ref); err != nil {
		return fmt.Errorf("attach payment ref: %w", err)
	}
	return nil
}

// ConfirmPayment: pending -> paid. confirmed=false berarti order tidak ada
// atau sudah paid sebelumnya; pemanggil tidak boleh mengirim produk lagi.
func (s *Service) ConfirmPayment(ctx context.Context, orderID string) (Order, bool, error) {
	o, ok, err := s.Orders.MarkPaid(ctx, orderID, s.now())
	if err != nil {
		return Order{}, false, fmt.Errorf("confirm payment: %w", err)
	}
	if !ok {
		return Order{}, false, nil
	}
	paidAt := s.now()
	if o.PaidAt != nil {
		paidAt = *o.PaidAt
	}
	s.emit(TopicOrderPaid, EventOrderPaid, o.ID, OrderPaidPayload{
		OrderID:   o.ID,
		UserID:    o.UserID,
		ProductID: o.ProductID,
		Amount:    o.Amount,
		PaidAt:    paidAt,
	})
	return o, true, nil
}

// Checkout: alur tombol "Beli". Kalau gateway gagal, order tetap pending
// tanpa payment ref dan error dibungkus ErrPaymentCreation.
func (s *Service) Checkout(ctx context.Context, req Requester, productID int64) (Checkout, error) {
	p, err := s.Products.GetProduct(ctx, productID)
	if err != nil {
		return Checkout{}, err
	}
	if !p.Active {
		return Checkout{}, fmt.Errorf("product %d: %w", p.ID, ErrProductInactive)
	}
	if p.SoldOut() {
		return Checkout{}, fmt.Errorf("product %d: %w", p.ID, ErrOutOfStock)
	}

	o, err := s.CreateOrder(ctx, req, p, p.Price)
	if err != nil {
		return Checkout{}, err
	}

	resp, err := s.Gateway.ChargeQRIS(ctx, midtrans.QRISCharge{
		OrderID:      o.ID,
		GrossAmount:  o.Amount,
		CustomerName: req.Name,
	})
	if err != nil {
		metrics.RecordCharge("failed")
		s.log().Error("qris charge failed", zap.String("order_id", o.ID), zap.Error(err))
		return Checkout{Order: o, Product: p}, fmt.Errorf("%w: %v", ErrPaymentCreation, err)
	}
	metrics.RecordCharge("ok")

	ref := resp.QRCodeURL()
	if err := s.AttachPaymentReference(ctx, o.ID, ref); err != nil {
		return Checkout{Order: o, Product: p}, err
	}
	o.PaymentRef = ref
	return Checkout{Order: o, Product: p, PaymentURL: ref}, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (Order, error) {
	return s.Orders.GetOrder(ctx, orderID)
}

func (s *Service) RecentOrders(ctx context.Context, userID int64, limit int) ([]Order, error) {
	return s.Orders.ListOrdersByUser(ctx, userID, limit)
}

// emit: event bersifat best effort, gagal publish cukup di-log.
func (s *Service) emit(topic, eventType, orderID string, payload any) {
	if s.Events == nil {
		return
	}
	env, err := newEnvelope(s.Producer, eventType, orderID, payload, s.now())
	if err == nil {
		err = publish(s.Events, topic, env)
	}
	if err != nil {
		s.log().Warn("publish event failed",
			zap.String("event_type", eventType),
			zap.String("order_id", orderID),
			zap.Error(err))
	}
}

// IsUserError: error yang boleh dijelaskan ke user apa adanya.
func IsUserError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrProductInactive) ||
		errors.Is(err, ErrOutOfStock) ||
		errors.Is(err, ErrPaymentCreation)
}
