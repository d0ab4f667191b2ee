package orders

import (
	"context"
	"time"
)

// ProductStore: katalog. Tidak ada update/delete, hanya nonaktif.
type ProductStore interface {
	CreateProduct(ctx context.Context, p NewProduct) (Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	ListActiveProducts(ctx context.Context) ([]Product, error)
	DeactivateProduct(ctx context.Context, id int64) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, o Order) error
	GetOrder(ctx context.Context, orderID string) (Order, error)
	AttachPaymentRef(ctx context.Context, orderID, ref string) error
	// MarkPaid adalah update kondisional pending -> paid. ok=false kalau
	// order tidak ada atau sudah paid.
	MarkPaid(ctx context.Context, orderID string, paidAt time.Time) (o Order, ok bool, err error)
	ListOrdersByUser(ctx context.Context, userID int64, limit int) ([]Order, error)
}
