package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ariefcatur/go-qris-orderbot/internal/orders"
)

var ErrBadFormat = errors.New("format salah")

// ParseAddProduct membaca argumen "Nama|Deskripsi|Harga|Stok|Data".
// Data boleh mengandung '|'; sisa field digabung ke Data.
func ParseAddProduct(args string) (orders.NewProduct, error) {
	parts := strings.SplitN(args, "|", 5)
	if len(parts) != 5 {
		return orders.NewProduct{}, fmt.Errorf("%w: butuh 5 field, dapat %d", ErrBadFormat, len(parts))
	}
	price, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
	if err != nil {
		return orders.NewProduct{}, fmt.Errorf("%w: harga %q bukan angka", ErrBadFormat, strings.TrimSpace(parts[2]))
	}
	stock, err := strconv.Atoi(strings.TrimSpace(parts[3]))
	if err != nil {
		return orders.NewProduct{}, fmt.Errorf("%w: stok %q bukan angka", ErrBadFormat, strings.TrimSpace(parts[3]))
	}
	np := orders.NewProduct{
		Name:        strings.TrimSpace(parts[0]),
		Description: strings.TrimSpace(parts[1]),
		Price:       price,
		Stock:       stock,
		Data:        strings.TrimSpace(parts[4]),
	}
	return np, np.Validate()
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", ErrBadFormat, s)
	}
	return id, nil
}
