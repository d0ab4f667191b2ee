package orders

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ariefcatur/go-qris-orderbot/internal/redisx"
)

// Cache: subset redisx.Store yang dipakai katalog.
type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Catalog membungkus ProductStore dengan cache daftar produk aktif.
// Cache hanya shortcut, DB tetap jadi kebenaran.
type Catalog struct {
	Store ProductStore
	Cache Cache // boleh nil
	Log   *zap.Logger
}

func (c *Catalog) ActiveProducts(ctx context.Context) ([]Product, error) {
	if c.Cache != nil {
		var cached []Product
		if ok, err := c.Cache.GetJSON(ctx, redisx.KeyCatalogActive, &cached); err == nil && ok {
			return cached, nil
		} else if err != nil {
			c.log().Warn("catalog cache read failed", zap.Error(err))
		}
	}

	ps, err := c.Store.ListActiveProducts(ctx)
	if err != nil {
		return nil, err
	}
	if c.Cache != nil {
		if err := c.Cache.SetJSON(ctx, redisx.KeyCatalogActive, ps, redisx.TTLCatalog); err != nil {
			c.log().Warn("catalog cache write failed", zap.Error(err))
		}
	}
	return ps, nil
}

func (c *Catalog) Product(ctx context.Context, id int64) (Product, error) {
	return c.Store.GetProduct(ctx, id)
}

func (c *Catalog) AddProduct(ctx context.Context, np NewProduct) (Product, error) {
	if err := np.Validate(); err != nil {
		return Product{}, err
	}
	p, err := c.Store.CreateProduct(ctx, np)
	if err != nil {
		return Product{}, err
	}
	c.invalidate(ctx)
	c.log().Info("product added", zap.Int64("product_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

func (c *Catalog) Deactivate(ctx context.Context, id int64) error {
	if err := c.Store.DeactivateProduct(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	c.log().Info("product deactivated", zap.Int64("product_id", id))
	return nil
}

func (c *Catalog) invalidate(ctx context.Context) {
	if c.Cache == nil {
		return
	}
	if err := c.Cache.Del(ctx, redisx.KeyCatalogActive); err != nil {
		c.log().Warn("catalog cache invalidate failed", zap.Error(err))
	}
}

func (c *Catalog) log() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}
