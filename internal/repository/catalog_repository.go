package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"fashionstore/internal/model"
)

const productsSchema = `
CREATE TABLE IF NOT EXISTS products (
	id           INTEGER PRIMARY KEY,
	name         VARCHAR NOT NULL,
	price        VARCHAR NOT NULL,
	actual_price DOUBLE PRECISION NOT NULL,
	img          VARCHAR NOT NULL,
	category     VARCHAR NOT NULL,
	sizes        VARCHAR[] NOT NULL,
	rating       DOUBLE PRECISION NOT NULL DEFAULT 0,
	reviews      JSONB NOT NULL DEFAULT '[]',
	description  TEXT
);
CREATE INDEX IF NOT EXISTS ix_products_name ON products (name);
CREATE INDEX IF NOT EXISTS ix_products_category ON products (category);
`

// CatalogRepository is the store writer's side of the products table.
type CatalogRepository struct {
	DB *sql.DB
}

// EnsureSchema creates the products table when it does not exist yet.
func (r *CatalogRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, productsSchema); err != nil {
		return fmt.Errorf("create products table: %w", err)
	}
	return nil
}

func (r *CatalogRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ReplaceAll deletes every product and inserts the new catalog in a single
// transaction. On any error nothing is committed.
func (r *CatalogRepository) ReplaceAll(ctx context.Context, products []model.Product) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM products"); err != nil {
		return fmt.Errorf("delete products: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products
		(id, name, price, actual_price, img, category, sizes, rating, reviews, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range products {
		sizes := p.Sizes
		if sizes == nil {
			sizes = []string{}
		}
		_, err = stmt.ExecContext(ctx,
			p.ID, p.Name, p.Price, p.ActualPrice, p.ImageURL, p.Category,
			pq.Array(sizes), p.Rating, p.Reviews, p.Description,
		)
		if err != nil {
			return fmt.Errorf("insert product %d: %w", p.ID, err)
		}
	}

	return tx.Commit()
}
