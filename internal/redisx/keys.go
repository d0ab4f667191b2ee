package redisx

import (
	"fmt"
	"time"
)

const (
	// Cache daftar produk aktif: catalog:active -> JSON []Product
	KeyCatalogActive = "catalog:active"

	// Dedup notifikasi: dedup:{provider}:{order_id}:{transaction_status}
	KeyDedup = "dedup:%s:%s:%s"
)

var (
	TTLCatalog = time.Minute
	TTLDedup   = 48 * time.Hour
)

func DedupKey(provider, orderID, status string) string {
	return fmt.Sprintf(KeyDedup, provider, orderID, status)
}
