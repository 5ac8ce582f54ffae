package repository

import (
	"context"
	"database/sql"
	"errors"
)

// MapSegment mirrors the 'map_segments' table: one grid cell of a store
// map, typed, optionally grouped into a section. Coordinate uniqueness
// within a map is not enforced; see the schema notes.
type MapSegment struct {
	ID        uint64    `json:"id"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Type      string    `json:"type"`
	SectionID *uint64   `json:"section_id"`
	MapID     uint64    `json:"map_id"`
	Products  []Product `json:"products,omitempty"`
}

var ErrSegmentNotFound = errors.New("segment not found")

type SegmentRepo struct {
	db *sql.DB
}

func NewSegmentRepo(db *sql.DB) *SegmentRepo { return &SegmentRepo{db: db} }

func scanSegment(scan func(dest ...interface{}) error) (MapSegment, error) {
	var (
		s       MapSegment
		section sql.NullInt64
	)
	if err := scan(&s.ID, &s.X, &s.Y, &s.Type, &section, &s.MapID); err != nil {
		return s, err
	}
	if section.Valid {
		id := uint64(section.Int64)
		s.SectionID = &id
	}
	return s, nil
}

// ListByMap returns the segments of a map with their products attached.
func (r *SegmentRepo) ListByMap(ctx context.Context, mapID uint64) ([]MapSegment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, x, y, type, section_id, map_id FROM map_segments WHERE map_id=? ORDER BY id", mapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		result []MapSegment
		index  = map[uint64]int{}
	)
	for rows.Next() {
		s, err := scanSegment(rows.Scan)
		if err != nil {
			return nil, err
		}
		s.Products = []Product{}
		index[s.ID] = len(result)
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.brand, p.description, p.price, p.map_segment_id
		 FROM products p
		 JOIN map_segments s ON s.id = p.map_segment_id
		 WHERE s.map_id=? ORDER BY p.id`, mapID)
	if err != nil {
		return nil, err
	}
	defer prows.Close()

	for prows.Next() {
		p, err := scanProduct(prows.Scan)
		if err != nil {
			return nil, err
		}
		if i, ok := index[p.MapSegmentID]; ok {
			result[i].Products = append(result[i].Products, p)
		}
	}
	return result, prows.Err()
}

// GetByID fetches a segment by id.
func (r *SegmentRepo) GetByID(ctx context.Context, id uint64) (MapSegment, error) {
	s, err := scanSegment(r.db.QueryRowContext(ctx,
		"SELECT id, x, y, type, section_id, map_id FROM map_segments WHERE id=? LIMIT 1", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrSegmentNotFound
	}
	return s, err
}

// Create inserts a segment. Bounds and type are validated by the caller
// against the owning map.
func (r *SegmentRepo) Create(ctx context.Context, s *MapSegment) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO map_segments (x, y, type, section_id, map_id) VALUES (?,?,?,?,?)",
		s.X, s.Y, s.Type, nullableID(s.SectionID), s.MapID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// Update rewrites a segment's coordinates, type and section.
func (r *SegmentRepo) Update(ctx context.Context, s *MapSegment) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE map_segments SET x=?, y=?, type=?, section_id=? WHERE id=?",
		s.X, s.Y, s.Type, nullableID(s.SectionID), s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSegmentNotFound
	}
	return nil
}

// Delete removes a segment and its products in one transaction.
func (r *SegmentRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM products WHERE map_segment_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM map_segments WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSegmentNotFound
	}
	return tx.Commit()
}

// OwnerID resolves a segment to the user owning its store, walking
// segment -> map -> store -> user.
func (r *SegmentRepo) OwnerID(ctx context.Context, segmentID uint64) (uint64, error) {
	var ownerID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT st.user_id
		 FROM map_segments s
		 JOIN maps m ON m.id = s.map_id
		 JOIN stores st ON st.id = m.store_id
		 WHERE s.id=? LIMIT 1`, segmentID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrSegmentNotFound
	}
	return ownerID, err
}

func nullableID(p *uint64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
