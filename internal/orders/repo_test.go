package orders

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap/zaptest"

	"github.com/ariefcatur/go-qris-orderbot/internal/postgres"
)

// Butuh postgres sungguhan: TEST_POSTGRES_DSN=postgres://... go test ./...
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	if err := postgres.Migrate(dsn, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool, err := postgres.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if _, err := pool.Exec(ctx, `TRUNCATE orders, products RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}

func TestPostgresRepos(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	products := &ProductRepo{DB: pool}
	orders := &OrderRepo{DB: pool}

	p, err := products.CreateProduct(ctx, NewProduct{Name: "Netflix", Description: "1 bulan", Price: 50000, Stock: StockUnlimited, Data: "email:pass"})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if !p.Active || p.Stock != StockUnlimited {
		t.Fatalf("product = %+v", p)
	}

	now := time.Now().UTC().Truncate(time.Second)
	o := Order{
		ID: NewOrderID(42, now), UserID: 42, Username: "budi", ProductID: p.ID,
		Amount: p.Price, Status: StatusPending, CreatedAt: now, ExpiresAt: now.Add(OrderTTL),
	}
	if err := orders.CreateOrder(ctx, o); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if err := orders.CreateOrder(ctx, o); !errors.Is(err, ErrDuplicateOrder) {
		t.Fatalf("duplicate err = %v", err)
	}

	if err := orders.AttachPaymentRef(ctx, o.ID, "https://qr/1"); err != nil {
		t.Fatal(err)
	}
	if err := orders.AttachPaymentRef(ctx, o.ID, "https://qr/1"); err != nil {
		t.Fatalf("attach must be idempotent: %v", err)
	}
	if err := orders.AttachPaymentRef(ctx, "nope", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("attach unknown err = %v", err)
	}

	got, err := orders.GetOrder(ctx, o.ID)
	if err != nil || got.PaymentRef != "https://qr/1" || got.Status != StatusPending || got.PaidAt != nil {
		t.Fatalf("GetOrder = %+v, %v", got, err)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := orders.MarkPaid(ctx, o.ID, time.Now())
			if err != nil {
				t.Errorf("MarkPaid: %v", err)
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("MarkPaid won %d times", wins)
	}

	if _, ok, err := orders.MarkPaid(ctx, "ORDER-none", time.Now()); ok || err != nil {
		t.Fatalf("MarkPaid unknown = %v, %v", ok, err)
	}

	list, err := orders.ListOrdersByUser(ctx, 42, 10)
	if err != nil || len(list) != 1 || list[0].Status != StatusPaid || list[0].PaidAt == nil {
		t.Fatalf("ListOrdersByUser = %+v, %v", list, err)
	}

	if err := products.DeactivateProduct(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	active, err := products.ListActiveProducts(ctx)
	if err != nil || len(active) != 0 {
		t.Fatalf("ListActiveProducts = %+v, %v", active, err)
	}
	if _, err := products.GetProduct(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetProduct missing err = %v", err)
	}
}
