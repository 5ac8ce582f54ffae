package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Grocery mirrors the 'groceries' table. Quantity and Unit are a linked
// optional pair: both set or both null, enforced before writes.
type Grocery struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Quantity    *int      `json:"quantity"`
	Unit        *string   `json:"unit"`
	Description *string   `json:"description"`
	HouseholdID uint64    `json:"household_id"`
	UserID      uint64    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var ErrGroceryNotFound = errors.New("grocery not found")

type GroceryRepo struct {
	db *sql.DB
}

func NewGroceryRepo(db *sql.DB) *GroceryRepo { return &GroceryRepo{db: db} }

const groceryCols = "id, name, quantity, unit, description, household_id, user_id, created_at, updated_at"

func scanGrocery(scan func(dest ...interface{}) error) (Grocery, error) {
	var (
		g    Grocery
		qty  sql.NullInt64
		unit sql.NullString
		desc sql.NullString
	)
	if err := scan(&g.ID, &g.Name, &qty, &unit, &desc, &g.HouseholdID, &g.UserID, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return g, err
	}
	if qty.Valid {
		n := int(qty.Int64)
		g.Quantity = &n
	}
	if unit.Valid {
		g.Unit = &unit.String
	}
	if desc.Valid {
		g.Description = &desc.String
	}
	return g, nil
}

// ListByHousehold returns the groceries of a household.
func (r *GroceryRepo) ListByHousehold(ctx context.Context, householdID uint64) ([]Grocery, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+groceryCols+" FROM groceries WHERE household_id=? ORDER BY id", householdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Grocery
	for rows.Next() {
		g, err := scanGrocery(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

// GetByID fetches a grocery by id.
func (r *GroceryRepo) GetByID(ctx context.Context, id uint64) (Grocery, error) {
	g, err := scanGrocery(r.db.QueryRowContext(ctx,
		"SELECT "+groceryCols+" FROM groceries WHERE id=? LIMIT 1", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return g, ErrGroceryNotFound
	}
	return g, err
}

// Create inserts a grocery and returns its id.
func (r *GroceryRepo) Create(ctx context.Context, g *Grocery) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO groceries (name, quantity, unit, description, household_id, user_id) VALUES (?,?,?,?,?,?)",
		g.Name, nullableInt(g.Quantity), nullableStr(g.Unit), nullableStr(g.Description), g.HouseholdID, g.UserID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	return nil
}

// Update writes the full grocery row (the handler merges present fields into
// the loaded record first).
func (r *GroceryRepo) Update(ctx context.Context, g *Grocery) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE groceries SET name=?, quantity=?, unit=?, description=?, updated_at=NOW() WHERE id=?",
		g.Name, nullableInt(g.Quantity), nullableStr(g.Unit), nullableStr(g.Description), g.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGroceryNotFound
	}
	return nil
}

// Delete removes a grocery and its comments.
func (r *GroceryRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM comments WHERE grocery_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM groceries WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGroceryNotFound
	}
	return tx.Commit()
}

func nullableInt(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func nullableStr(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
