package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/ariefcatur/go-qris-orderbot/internal/redisx"
)

type memCache struct {
	data map[string][]byte
	gets int
	dels int
}

func (c *memCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	c.gets++
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (c *memCache) SetJSON(_ context.Context, key string, v any, _ time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	c.dels++
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func TestCatalogCacheAside(t *testing.T) {
	store := NewMemStore()
	cache := &memCache{data: map[string][]byte{}}
	c := &Catalog{Store: store, Cache: cache, Log: zaptest.NewLogger(t)}
	ctx := context.Background()

	p, err := c.AddProduct(ctx, NewProduct{Name: "Netflix", Description: "1 bulan", Price: 50000, Stock: StockUnlimited, Data: "email:pass"})
	if err != nil {
		t.Fatalf("AddProduct: %v", err)
	}
	if !p.Active || p.ID == 0 {
		t.Fatalf("product = %+v", p)
	}

	ps, err := c.ActiveProducts(ctx)
	if err != nil || len(ps) != 1 {
		t.Fatalf("ActiveProducts = %v, %v", ps, err)
	}
	raw, ok := cache.data[redisx.KeyCatalogActive]
	if !ok {
		t.Fatal("catalog not cached")
	}
	if bytes.Contains(raw, []byte("email:pass")) {
		t.Fatalf("cached catalog leaks product data: %s", raw)
	}

	// store berubah di belakang cache: yang dibaca tetap versi cache
	store.PutProduct(Product{ID: 50, Name: "hidden", Price: 1, Active: true})
	ps, _ = c.ActiveProducts(ctx)
	if len(ps) != 1 {
		t.Fatalf("expected cached list, got %d items", len(ps))
	}

	if err := c.Deactivate(ctx, p.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	ps, _ = c.ActiveProducts(ctx)
	if len(ps) != 1 || ps[0].ID != 50 {
		t.Fatalf("after deactivate = %+v", ps)
	}
}

func TestCatalogWithoutCache(t *testing.T) {
	c := &Catalog{Store: NewMemStore()}
	ctx := context.Background()
	if _, err := c.AddProduct(ctx, NewProduct{Name: "A", Price: 1, Stock: 1}); err != nil {
		t.Fatal(err)
	}
	ps, err := c.ActiveProducts(ctx)
	if err != nil || len(ps) != 1 {
		t.Fatalf("ActiveProducts = %v, %v", ps, err)
	}
	if err := c.Deactivate(ctx, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestNewProductValidate(t *testing.T) {
	cases := []struct {
		np NewProduct
		ok bool
	}{
		{NewProduct{Name: "A", Price: 1, Stock: -1}, true},
		{NewProduct{Name: "A", Price: 1, Stock: 0}, true},
		{NewProduct{Name: "", Price: 1, Stock: 1}, false},
		{NewProduct{Name: "A", Price: 0, Stock: 1}, false},
		{NewProduct{Name: "A", Price: 1, Stock: -2}, false},
	}
	for _, tc := range cases {
		err := tc.np.Validate()
		if (err == nil) != tc.ok {
			t.Errorf("Validate(%+v) = %v", tc.np, err)
		}
		if err != nil && !errors.Is(err, ErrInvalidProduct) {
			t.Errorf("err %v is not ErrInvalidProduct", err)
		}
	}
}

func TestNewOrderID(t *testing.T) {
	at := time.Unix(1700000000, 0)
	if got := NewOrderID(123456789, at); got != "ORDER-123456789-1700000000" {
		t.Fatalf("NewOrderID = %q", got)
	}
}
