package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Product mirrors the 'products' table. Each product sits on exactly one
// map segment.
type Product struct {
	ID           uint64  `json:"id"`
	Name         string  `json:"name"`
	Brand        string  `json:"brand"`
	Description  *string `json:"description"`
	Price        int     `json:"price"`
	MapSegmentID uint64  `json:"map_segment_id"`
}

var ErrProductNotFound = errors.New("product not found")

type ProductRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

func scanProduct(scan func(dest ...interface{}) error) (Product, error) {
	var (
		p    Product
		desc sql.NullString
	)
	if err := scan(&p.ID, &p.Name, &p.Brand, &desc, &p.Price, &p.MapSegmentID); err != nil {
		return p, err
	}
	if desc.Valid {
		p.Description = &desc.String
	}
	return p, nil
}

const productCols = "id, name, brand, description, price, map_segment_id"

// ListByMap returns every product on a map, across all its segments.
func (r *ProductRepo) ListByMap(ctx context.Context, mapID uint64) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.brand, p.description, p.price, p.map_segment_id
		 FROM products p
		 JOIN map_segments s ON s.id = p.map_segment_id
		 WHERE s.map_id=? ORDER BY p.id`, mapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// GetByID fetches a product by id.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		"SELECT "+productCols+" FROM products WHERE id=? LIMIT 1", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrProductNotFound
	}
	return p, err
}

// Create inserts a product and returns its id in p.
func (r *ProductRepo) Create(ctx context.Context, p *Product) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO products (name, brand, description, price, map_segment_id) VALUES (?,?,?,?,?)",
		p.Name, p.Brand, nullableStr(p.Description), p.Price, p.MapSegmentID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// Update rewrites a product's fields, keeping its segment.
func (r *ProductRepo) Update(ctx context.Context, p *Product) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE products SET name=?, brand=?, description=?, price=? WHERE id=?",
		p.Name, p.Brand, nullableStr(p.Description), p.Price, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// UpdateSegment moves a product onto another segment. Moving a product onto
// the segment it already occupies is a harmless no-op; the handler verified
// the product exists, so there is no RowsAffected check.
func (r *ProductRepo) UpdateSegment(ctx context.Context, productID, segmentID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE products SET map_segment_id=? WHERE id=?", segmentID, productID)
	return err
}

// Delete removes a product.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// OwnerID resolves a product to the user owning its store, walking
// product -> segment -> map -> store -> user.
func (r *ProductRepo) OwnerID(ctx context.Context, productID uint64) (uint64, error) {
	var ownerID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT st.user_id
		 FROM products p
		 JOIN map_segments s ON s.id = p.map_segment_id
		 JOIN maps m ON m.id = s.map_id
		 JOIN stores st ON st.id = m.store_id
		 WHERE p.id=? LIMIT 1`, productID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrProductNotFound
	}
	return ownerID, err
}
