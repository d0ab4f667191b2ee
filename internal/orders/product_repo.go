package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductRepo struct{ DB *pgxpool.Pool }

var _ ProductStore = (*ProductRepo)(nil)

const productColumns = `id, name, description, price, stock, product_data, active, created_at`

func (r *ProductRepo) CreateProduct(ctx context.Context, np NewProduct) (Product, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO products(name, description, price, stock, product_data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+productColumns,
		np.Name, np.Description, np.Price, np.Stock, np.Data)
	return scanProduct(row)
}

func (r *ProductRepo) GetProduct(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return p, err
}

func (r *ProductRepo) ListActiveProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products WHERE active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProductRepo) DeactivateProduct(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `UPDATE products SET active=FALSE WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Data, &p.Active, &p.CreatedAt)
	return p, err
}
