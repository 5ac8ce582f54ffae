package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Section mirrors the 'sections' table: a named subdivision of a map. The
// name is unique within its map.
type Section struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	MapID uint64 `json:"map_id"`
}

var (
	ErrSectionNotFound = errors.New("section not found")
	ErrSectionExists   = errors.New("section name already exists")
)

type SectionRepo struct {
	db *sql.DB
}

func NewSectionRepo(db *sql.DB) *SectionRepo { return &SectionRepo{db: db} }

// ListByMap returns the sections of a map.
func (r *SectionRepo) ListByMap(ctx context.Context, mapID uint64) ([]Section, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, map_id FROM sections WHERE map_id=? ORDER BY id", mapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Section
	for rows.Next() {
		var s Section
		if err := rows.Scan(&s.ID, &s.Name, &s.MapID); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// GetByID fetches a section by id.
func (r *SectionRepo) GetByID(ctx context.Context, id uint64) (Section, error) {
	var s Section
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, map_id FROM sections WHERE id=? LIMIT 1", id).
		Scan(&s.ID, &s.Name, &s.MapID)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrSectionNotFound
	}
	return s, err
}

// NameExists reports whether a section name is taken within a map.
// excludeID skips the section being updated.
func (r *SectionRepo) NameExists(ctx context.Context, mapID uint64, name string, excludeID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM sections WHERE map_id=? AND name=? AND id<>? LIMIT 1",
		mapID, name, excludeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Create inserts a section and returns it.
func (r *SectionRepo) Create(ctx context.Context, mapID uint64, name string) (Section, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO sections (name, map_id) VALUES (?,?)", name, mapID)
	if err != nil {
		if isDuplicateKey(err) {
			return Section{}, ErrSectionExists
		}
		return Section{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Section{}, err
	}
	return Section{ID: uint64(id), Name: name, MapID: mapID}, nil
}

// Update renames a section.
func (r *SectionRepo) Update(ctx context.Context, id uint64, name string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE sections SET name=? WHERE id=?", name, id)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrSectionExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSectionNotFound
	}
	return nil
}

// Delete removes a section together with its segments and their products,
// matching the relational cascade of the schema.
func (r *SectionRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE p FROM products p JOIN map_segments s ON s.id = p.map_segment_id WHERE s.section_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM map_segments WHERE section_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM sections WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSectionNotFound
	}
	return tx.Commit()
}
