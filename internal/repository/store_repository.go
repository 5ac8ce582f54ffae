package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Store mirrors the 'stores' table. Each user owns at most one store; the
// published flag gates public visibility.
type Store struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Published bool      `json:"published"`
	UserID    uint64    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Location *Location `json:"location,omitempty"`
}

var (
	ErrStoreNotFound = errors.New("store not found")
	ErrStoreExists   = errors.New("store already exists")
)

type StoreRepo struct {
	db *sql.DB
}

func NewStoreRepo(db *sql.DB) *StoreRepo { return &StoreRepo{db: db} }

const storeCols = "id, name, published, user_id, created_at, updated_at"

// GetByID fetches a store by id.
func (r *StoreRepo) GetByID(ctx context.Context, id uint64) (Store, error) {
	var s Store
	err := r.db.QueryRowContext(ctx,
		"SELECT "+storeCols+" FROM stores WHERE id=? LIMIT 1", id).
		Scan(&s.ID, &s.Name, &s.Published, &s.UserID, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrStoreNotFound
	}
	return s, err
}

// GetByUser fetches the store owned by a user, if any.
func (r *StoreRepo) GetByUser(ctx context.Context, userID uint64) (Store, error) {
	var s Store
	err := r.db.QueryRowContext(ctx,
		"SELECT "+storeCols+" FROM stores WHERE user_id=? LIMIT 1", userID).
		Scan(&s.ID, &s.Name, &s.Published, &s.UserID, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrStoreNotFound
	}
	return s, err
}

// Create inserts a store for a user, rejecting a second one.
func (r *StoreRepo) Create(ctx context.Context, name string, userID uint64) (Store, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM stores WHERE user_id=? LIMIT 1", userID).Scan(&one)
	if err == nil {
		return Store{}, ErrStoreExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Store{}, err
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO stores (name, published, user_id) VALUES (?,false,?)", name, userID)
	if err != nil {
		if isDuplicateKey(err) {
			return Store{}, ErrStoreExists
		}
		return Store{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Store{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// Update renames a store and sets its published flag.
func (r *StoreRepo) Update(ctx context.Context, id uint64, name string, published bool) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE stores SET name=?, published=?, updated_at=NOW() WHERE id=?", name, published, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStoreNotFound
	}
	return nil
}

// Delete removes a store with its location, map, sections, segments and
// products, all in one transaction.
func (r *StoreRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE p FROM products p
		 JOIN map_segments s ON s.id = p.map_segment_id
		 JOIN maps m ON m.id = s.map_id
		 WHERE m.store_id=?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE s FROM map_segments s JOIN maps m ON m.id = s.map_id WHERE m.store_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE sec FROM sections sec JOIN maps m ON m.id = sec.map_id WHERE m.store_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM maps WHERE store_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM locations WHERE store_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM stores WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStoreNotFound
	}
	return tx.Commit()
}

// SearchPublished returns a page of published stores that are browsable:
// they must have a location and a map with at least one segment. The search
// term matches the store name or any address field.
func (r *StoreRepo) SearchPublished(ctx context.Context, search string, page, perPage int) ([]Store, int, error) {
	base := ` FROM stores st
		 JOIN locations l ON l.store_id = st.id
		 JOIN maps m ON m.store_id = st.id
		 WHERE st.published = true
		   AND EXISTS (SELECT 1 FROM map_segments seg WHERE seg.map_id = m.id)`
	args := []interface{}{}
	if s := strings.TrimSpace(search); s != "" {
		base += ` AND (st.name LIKE ? OR l.country LIKE ? OR l.city LIKE ?
		   OR l.zip_code LIKE ? OR l.street LIKE ? OR l.detail LIKE ?)`
		like := "%" + s + "%"
		args = append(args, like, like, like, like, like, like)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, perPage, (page-1)*perPage)
	rows, err := r.db.QueryContext(ctx,
		`SELECT st.id, st.name, st.published, st.user_id, st.created_at, st.updated_at,
		        l.id, l.country, l.zip_code, l.city, l.street, l.detail, l.store_id`+
			base+" ORDER BY st.id LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Store
	for rows.Next() {
		var (
			s      Store
			l      Location
			detail sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Published, &s.UserID, &s.CreatedAt, &s.UpdatedAt,
			&l.ID, &l.Country, &l.ZipCode, &l.City, &l.Street, &detail, &l.StoreID); err != nil {
			return nil, 0, err
		}
		if detail.Valid {
			l.Detail = &detail.String
		}
		s.Location = &l
		result = append(result, s)
	}
	return result, total, rows.Err()
}

// OwnerID resolves a store to its owning user.
func (r *StoreRepo) OwnerID(ctx context.Context, storeID uint64) (uint64, error) {
	var ownerID uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id FROM stores WHERE id=? LIMIT 1", storeID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrStoreNotFound
	}
	return ownerID, err
}
