package repository

import (
	"context"
	"database/sql"
	"errors"
)

// StoreMap mirrors the 'maps' table: the bounded grid of a store. Segment
// coordinates must satisfy 0 <= x < XSize and 0 <= y < YSize.
type StoreMap struct {
	ID      uint64 `json:"id"`
	XSize   int    `json:"x_size"`
	YSize   int    `json:"y_size"`
	StoreID uint64 `json:"store_id"`
}

var (
	ErrMapNotFound = errors.New("map not found")
	ErrMapExists   = errors.New("map already exists")
)

type MapRepo struct {
	db *sql.DB
}

func NewMapRepo(db *sql.DB) *MapRepo { return &MapRepo{db: db} }

// GetByStore fetches the map of a store, if any.
func (r *MapRepo) GetByStore(ctx context.Context, storeID uint64) (StoreMap, error) {
	var m StoreMap
	err := r.db.QueryRowContext(ctx,
		"SELECT id, x_size, y_size, store_id FROM maps WHERE store_id=? LIMIT 1", storeID).
		Scan(&m.ID, &m.XSize, &m.YSize, &m.StoreID)
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrMapNotFound
	}
	return m, err
}

// GetByID fetches a map by id.
func (r *MapRepo) GetByID(ctx context.Context, id uint64) (StoreMap, error) {
	var m StoreMap
	err := r.db.QueryRowContext(ctx,
		"SELECT id, x_size, y_size, store_id FROM maps WHERE id=? LIMIT 1", id).
		Scan(&m.ID, &m.XSize, &m.YSize, &m.StoreID)
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrMapNotFound
	}
	return m, err
}

// Create inserts the map of a store, rejecting a second one.
func (r *MapRepo) Create(ctx context.Context, storeID uint64, xSize, ySize int) (StoreMap, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM maps WHERE store_id=? LIMIT 1", storeID).Scan(&one)
	if err == nil {
		return StoreMap{}, ErrMapExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return StoreMap{}, err
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO maps (x_size, y_size, store_id) VALUES (?,?,?)", xSize, ySize, storeID)
	if err != nil {
		if isDuplicateKey(err) {
			return StoreMap{}, ErrMapExists
		}
		return StoreMap{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return StoreMap{}, err
	}
	return StoreMap{ID: uint64(id), XSize: xSize, YSize: ySize, StoreID: storeID}, nil
}

// Resize persists the new grid size and cascades: every segment with
// x >= xSize or y >= ySize is deleted, together with its products. Segments
// inside the new bounds are preserved unchanged. All of it runs in one
// transaction so a failed cascade rolls the size change back.
func (r *MapRepo) Resize(ctx context.Context, mapID uint64, xSize, ySize int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"UPDATE maps SET x_size=?, y_size=? WHERE id=?", xSize, ySize, mapID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMapNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE p FROM products p
		 JOIN map_segments s ON s.id = p.map_segment_id
		 WHERE s.map_id=? AND (s.x >= ? OR s.y >= ?)`, mapID, xSize, ySize); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM map_segments WHERE map_id=? AND (x >= ? OR y >= ?)", mapID, xSize, ySize); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a map with its sections, segments and products.
func (r *MapRepo) Delete(ctx context.Context, mapID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE p FROM products p JOIN map_segments s ON s.id = p.map_segment_id WHERE s.map_id=?", mapID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM map_segments WHERE map_id=?", mapID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sections WHERE map_id=?", mapID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM maps WHERE id=?", mapID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMapNotFound
	}
	return tx.Commit()
}

// OwnerID resolves a map to the user owning its store (map -> store -> user).
func (r *MapRepo) OwnerID(ctx context.Context, mapID uint64) (uint64, error) {
	var ownerID uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT st.user_id FROM maps m JOIN stores st ON st.id = m.store_id WHERE m.id=? LIMIT 1",
		mapID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrMapNotFound
	}
	return ownerID, err
}
