package orders

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemStore adalah ProductStore + OrderStore di memori. Semantik sama
// dengan repo postgres, termasuk MarkPaid yang atomik.
type MemStore struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]Product
	orders   map[string]Order
}

var (
	_ ProductStore = (*MemStore)(nil)
	_ OrderStore   = (*MemStore)(nil)
)

func NewMemStore() *MemStore {
	return &MemStore{
		products: map[int64]Product{},
		orders:   map[string]Order{},
	}
}

func (m *MemStore) CreateProduct(_ context.Context, np NewProduct) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p := Product{
		ID:          m.nextID,
		Name:        np.Name,
		Description: np.Description,
		Price:       np.Price,
		Stock:       np.Stock,
		Data:        np.Data,
		Active:      true,
		CreatedAt:   time.Now(),
	}
	m.products[p.ID] = p
	return p, nil
}

// PutProduct menyimpan produk dengan id tertentu (seed data / test).
func (m *MemStore) PutProduct(p Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID > m.nextID {
		m.nextID = p.ID
	}
	m.products[p.ID] = p
}

func (m *MemStore) GetProduct(_ context.Context, id int64) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return Product{}, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return p, nil
}

func (m *MemStore) ListActiveProducts(_ context.Context) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Product
	for _, p := range m.products {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) DeactivateProduct(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	p.Active = false
	m.products[id] = p
	return nil
}

func (m *MemStore) CreateOrder(_ context.Context, o Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.orders[o.ID]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateOrder, o.ID)
	}
	m.orders[o.ID] = o
	return nil
}

func (m *MemStore) GetOrder(_ context.Context, orderID string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return Order{}, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	return o, nil
}

func (m *MemStore) AttachPaymentRef(_ context.Context, orderID, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	o.PaymentRef = ref
	m.orders[orderID] = o
	return nil
}

func (m *MemStore) MarkPaid(_ context.Context, orderID string, paidAt time.Time) (Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || !CanTransition(o.Status, StatusPaid) {
		return Order{}, false, nil
	}
	o.Status = StatusPaid
	o.PaidAt = &paidAt
	m.orders[orderID] = o
	return o, true, nil
}

func (m *MemStore) ListOrdersByUser(_ context.Context, userID int64, limit int) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
