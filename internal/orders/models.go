package orders

import (
	"fmt"
	"time"
)

// StockUnlimited: nilai stock untuk produk tanpa batas.
const StockUnlimited = -1

// OrderTTL: batas bayar yang ditampilkan ke user. Hanya informasi, tidak
// ada proses yang meng-expire order.
const OrderTTL = 15 * time.Minute

type Product struct {
	ID          int64
	Name        string
	Description string
	Price       int64
	Stock       int
	Data        string `json:"-"` // payload untuk pembeli, tidak ikut ke cache
	Active      bool
	CreatedAt   time.Time
}

func (p Product) Unlimited() bool { return p.Stock < 0 }

func (p Product) SoldOut() bool { return p.Stock == 0 }

type NewProduct struct {
	Name        string
	Description string
	Price       int64
	Stock       int
	Data        string
}

type Requester struct {
	UserID int64
	Name   string
}

type Order struct {
	ID         string
	UserID     int64
	Username   string
	ProductID  int64
	Amount     int64
	Status     Status
	PaymentRef string
	CreatedAt  time.Time
	PaidAt     *time.Time
	ExpiresAt  time.Time
}

// NewOrderID: ORDER-{user}-{unix}. Mudah dibaca, bukan token acak; dua
// order user yang sama di detik yang sama akan bentrok di unique index.
func NewOrderID(userID int64, at time.Time) string {
	return fmt.Sprintf("ORDER-%d-%d", userID, at.Unix())
}

func (np NewProduct) Validate() error {
	switch {
	case np.Name == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidProduct)
	case np.Price <= 0:
		return fmt.Errorf("%w: price must be positive", ErrInvalidProduct)
	case np.Stock < StockUnlimited:
		return fmt.Errorf("%w: stock must be >= -1", ErrInvalidProduct)
	}
	return nil
}
