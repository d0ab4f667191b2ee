package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/ariefcatur/go-qris-orderbot/internal/midtrans"
	"github.com/ariefcatur/go-qris-orderbot/internal/orders"
)

const serverKey = "SB-Mid-server-test"

type delivery struct {
	userID  int64
	orderID string
	data    string
}

type fakeDeliverer struct {
	mu   sync.Mutex
	sent []delivery
	err  error
}

func (f *fakeDeliverer) DeliverProduct(_ context.Context, userID int64, orderID string, p orders.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, delivery{userID: userID, orderID: orderID, data: p.Data})
	return nil
}

type fakeDedup struct {
	keys map[string]bool
}

func (f *fakeDedup) Seen(_ context.Context, key string) (bool, error) { return f.keys[key], nil }

func (f *fakeDedup) Mark(_ context.Context, key string, _ time.Duration) error {
	f.keys[key] = true
	return nil
}

type fixture struct {
	svc     *Service
	store   *orders.MemStore
	orders  *orders.Service
	deliver *fakeDeliverer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := orders.NewMemStore()
	store.PutProduct(orders.Product{ID: 1, Name: "Netflix Premium", Price: 50000, Stock: orders.StockUnlimited, Data: "email:pass", Active: true})
	osvc := &orders.Service{Orders: store, Products: store, Log: zaptest.NewLogger(t)}
	d := &fakeDeliverer{}
	return &fixture{
		svc: &Service{
			ServerKey: serverKey,
			Orders:    osvc,
			Products:  store,
			Deliverer: d,
			Log:       zaptest.NewLogger(t),
		},
		store:   store,
		orders:  osvc,
		deliver: d,
	}
}

func (f *fixture) createOrder(t *testing.T, userID int64) orders.Order {
	t.Helper()
	p, _ := f.store.GetProduct(context.Background(), 1)
	o, err := f.orders.CreateOrder(context.Background(), orders.Requester{UserID: userID, Name: "u"}, p, p.Price)
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func signed(orderID, status, gross, txStatus string) midtrans.Notification {
	n := midtrans.Notification{
		OrderID:           orderID,
		StatusCode:        status,
		GrossAmount:       gross,
		TransactionStatus: txStatus,
	}
	n.Sign(serverKey)
	return n
}

func TestSettlementConfirmsAndDeliversOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, 1001)
	if o.Status != orders.StatusPending || o.Amount != 50000 {
		t.Fatalf("order = %+v", o)
	}

	n := signed(o.ID, "200", "50000", midtrans.TransactionSettlement)
	out, err := f.svc.HandleNotification(ctx, n)
	if err != nil || out != OutcomeConfirmed {
		t.Fatalf("first notification: %v, %v", out, err)
	}
	got, _ := f.store.GetOrder(ctx, o.ID)
	if got.Status != orders.StatusPaid || got.PaidAt == nil {
		t.Fatalf("order after webhook = %+v", got)
	}
	if len(f.deliver.sent) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(f.deliver.sent))
	}
	d := f.deliver.sent[0]
	if d.userID != 1001 || d.orderID != o.ID || d.data != "email:pass" {
		t.Errorf("delivery = %+v", d)
	}

	out, err = f.svc.HandleNotification(ctx, n)
	if err != nil || out != OutcomeNoop {
		t.Fatalf("repeat notification: %v, %v", out, err)
	}
	if len(f.deliver.sent) != 1 {
		t.Fatalf("repeat must not deliver again, deliveries = %d", len(f.deliver.sent))
	}
}

func TestCaptureConfirms(t *testing.T) {
	f := newFixture(t)
	o := f.createOrder(t, 5)
	out, err := f.svc.HandleNotification(context.Background(), signed(o.ID, "200", "50000.00", midtrans.TransactionCapture))
	if err != nil || out != OutcomeConfirmed {
		t.Fatalf("capture: %v, %v", out, err)
	}
}

func TestNonSuccessStatusNeverTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, 7)

	for _, st := range []string{
		midtrans.TransactionPending, midtrans.TransactionDeny, midtrans.TransactionCancel,
		midtrans.TransactionExpire, "refund", "",
	} {
		out, err := f.svc.HandleNotification(ctx, signed(o.ID, "201", "50000", st))
		if err != nil || out != OutcomeIgnored {
			t.Errorf("status %q: %v, %v", st, out, err)
		}
	}
	got, _ := f.store.GetOrder(ctx, o.ID)
	if got.Status != orders.StatusPending {
		t.Fatalf("status = %s, want pending", got.Status)
	}
	if len(f.deliver.sent) != 0 {
		t.Fatal("nothing must be delivered")
	}
}

func TestUnknownOrderAcknowledged(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.HandleNotification(context.Background(), signed("ORDER-404-1", "200", "50000", midtrans.TransactionSettlement))
	if err != nil || out != OutcomeNoop {
		t.Fatalf("unknown order: %v, %v", out, err)
	}
	if len(f.deliver.sent) != 0 {
		t.Fatal("nothing must be delivered")
	}
}

func TestInvalidSignatureRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, 9)

	n := signed(o.ID, "200", "50000", midtrans.TransactionSettlement)
	n.GrossAmount = "5000"
	if _, err := f.svc.HandleNotification(ctx, n); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}
	got, _ := f.store.GetOrder(ctx, o.ID)
	if got.Status != orders.StatusPending {
		t.Fatal("bad signature must not change state")
	}
}

func TestDeliveryFailureIsInternalError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, 11)
	f.deliver.err = errors.New("telegram: chat not found")

	_, err := f.svc.HandleNotification(ctx, signed(o.ID, "200", "50000", midtrans.TransactionSettlement))
	if err == nil || errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("err = %v, want internal error", err)
	}
	got, _ := f.store.GetOrder(ctx, o.ID)
	if got.Status != orders.StatusPaid {
		t.Fatal("order stays paid after failed delivery")
	}
}

func TestDedupShortCircuit(t *testing.T) {
	f := newFixture(t)
	dd := &fakeDedup{keys: map[string]bool{}}
	f.svc.Dedup = dd
	ctx := context.Background()
	o := f.createOrder(t, 12)
	n := signed(o.ID, "200", "50000", midtrans.TransactionSettlement)

	if out, err := f.svc.HandleNotification(ctx, n); err != nil || out != OutcomeConfirmed {
		t.Fatalf("first: %v, %v", out, err)
	}
	if out, err := f.svc.HandleNotification(ctx, n); err != nil || out != OutcomeDuplicate {
		t.Fatalf("second: %v, %v", out, err)
	}
	if len(f.deliver.sent) != 1 {
		t.Fatalf("deliveries = %d", len(f.deliver.sent))
	}
}

func TestConcurrentDuplicateNotifications(t *testing.T) {
	f := newFixture(t)
	o := f.createOrder(t, 13)
	n := signed(o.ID, "200", "50000", midtrans.TransactionSettlement)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.HandleNotification(context.Background(), n); err != nil {
				t.Errorf("HandleNotification: %v", err)
			}
		}()
	}
	wg.Wait()
	if len(f.deliver.sent) != 1 {
		t.Fatalf("deliveries = %d, want exactly 1", len(f.deliver.sent))
	}
}

func TestAmountMatches(t *testing.T) {
	cases := []struct {
		gross string
		amt   int64
		want  bool
	}{
		{"50000", 50000, true},
		{"50000.00", 50000, true},
		{"50000.50", 50000, false},
		{"49999.00", 50000, false},
		{"abc", 50000, false},
	}
	for _, tc := range cases {
		if got := amountMatches(tc.gross, tc.amt); got != tc.want {
			t.Errorf("amountMatches(%q, %d) = %v", tc.gross, tc.amt, got)
		}
	}
}
