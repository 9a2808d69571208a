package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fashionstore/internal/model"
)

// ErrNotFound is returned when no product has the requested id.
var ErrNotFound = errors.New("product not found")

// AllCategories disables the category filter, as does an empty string.
const AllCategories = "All"

const defaultLimit = 100

const productColumns = `id, name, price, actual_price, img, category, sizes, rating, reviews, description`

// Filter narrows List.
type Filter struct {
	Category string
	Skip     int
	Limit    int
}

// ProductRepository reads and annotates stored products.
type ProductRepository struct {
	DB *pgxpool.Pool
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return defaultLimit
	}
	return f.Limit
}

func (f Filter) skip() int {
	if f.Skip < 0 {
		return 0
	}
	return f.Skip
}

// listQuery builds the SELECT for List with positional parameters.
func listQuery(f Filter) (string, []interface{}) {
	var (
		where  []string
		params []interface{}
	)
	if f.Category != "" && f.Category != AllCategories {
		params = append(params, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(params)))
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	params = append(params, f.skip(), f.limit())
	query += fmt.Sprintf(" ORDER BY id OFFSET $%d LIMIT $%d", len(params)-1, len(params))
	return query, params
}

// searchPattern turns free text into an ILIKE pattern matching it anywhere.
func searchPattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(q)) + "%"
}

func (r *ProductRepository) List(ctx context.Context, f Filter) ([]model.Product, error) {
	query, params := listQuery(f)
	rows, err := r.DB.Query(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (r *ProductRepository) Get(ctx context.Context, id int) (model.Product, error) {
	rows, err := r.DB.Query(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	if err != nil {
		return model.Product{}, err
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return p, err
}

// Search matches name case-insensitively.
func (r *ProductRepository) Search(ctx context.Context, q string, skip, limit int) ([]model.Product, error) {
	f := Filter{Skip: skip, Limit: limit}
	rows, err := r.DB.Query(ctx,
		"SELECT "+productColumns+" FROM products WHERE name ILIKE $1 ORDER BY id OFFSET $2 LIMIT $3",
		searchPattern(q), f.skip(), f.limit(),
	)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

// AddReview appends one review to the product's JSONB list.
func (r *ProductRepository) AddReview(ctx context.Context, id int, review model.Review) (model.Product, error) {
	if review.Author == "" || review.Body == "" {
		return model.Product{}, errors.New("review needs both user and text")
	}
	rows, err := r.DB.Query(ctx, `
		UPDATE products
		SET reviews = COALESCE(reviews, '[]'::jsonb) || jsonb_build_array(jsonb_build_object('user', $2::text, 'review', $3::text))
		WHERE id = $1
		RETURNING `+productColumns,
		id, review.Author, review.Body,
	)
	if err != nil {
		return model.Product{}, err
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return p, err
}

// Delete removes one product.
func (r *ProductRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.DB.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

func collectProducts(rows pgx.Rows) ([]model.Product, error) {
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

func scanProduct(row pgx.CollectableRow) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.ActualPrice, &p.ImageURL, &p.Category,
		&p.Sizes, &p.Rating, &p.Reviews, &p.Description)
	if p.Sizes == nil {
		p.Sizes = []string{}
	}
	if p.Reviews == nil {
		p.Reviews = model.Reviews{}
	}
	return p, err
}
