package orders

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrProductInactive = errors.New("product inactive")
	ErrOutOfStock      = errors.New("product out of stock")
	ErrAmountMismatch  = errors.New("amount does not match product price")
	ErrDuplicateOrder  = errors.New("order id already exists")
	ErrPaymentCreation = errors.New("payment creation failed")
	ErrInvalidProduct  = errors.New("invalid product")
)
