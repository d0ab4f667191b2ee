package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepo struct{ DB *pgxpool.Pool }

var _ OrderStore = (*OrderRepo)(nil)

const orderColumns = `order_id, user_id, username, product_id, amount, status,
	COALESCE(qris_url, ''), created_at, paid_at, expires_at`

func (r *OrderRepo) CreateOrder(ctx context.Context, o Order) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO orders(order_id, user_id, username, product_id, amount, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, o.ID, o.UserID, o.Username, o.ProductID, o.Amount, string(o.Status), o.CreatedAt, o.ExpiresAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateOrder, o.ID)
	}
	return err
}

func (r *OrderRepo) GetOrder(ctx context.Context, orderID string) (Order, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id=$1`, orderID)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	return o, err
}

// AttachPaymentRef idempotent: set ulang ref yang sama tidak mengubah apa-apa.
func (r *OrderRepo) AttachPaymentRef(ctx context.Context, orderID, ref string) error {
	ct, err := r.DB.Exec(ctx, `UPDATE orders SET qris_url=$2 WHERE order_id=$1`, orderID, ref)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	return nil
}

// MarkPaid: cek status & update dalam satu statement, jadi dua notifikasi
// yang datang bersamaan tidak bisa sama-sama menang.
func (r *OrderRepo) MarkPaid(ctx context.Context, orderID string, paidAt time.Time) (Order, bool, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE orders SET status='paid', paid_at=$2
		WHERE order_id=$1 AND status='pending'
		RETURNING `+orderColumns, orderID, paidAt)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, false, nil
	}
	if err != nil {
		return Order{}, false, err
	}
	return o, true, nil
}

func (r *OrderRepo) ListOrdersByUser(ctx context.Context, userID int64, limit int) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o      Order
		status string
	)
	err := row.Scan(&o.ID, &o.UserID, &o.Username, &o.ProductID, &o.Amount, &status,
		&o.PaymentRef, &o.CreatedAt, &o.PaidAt, &o.ExpiresAt)
	o.Status = Status(status)
	return o, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
