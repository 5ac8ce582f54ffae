package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Location mirrors the 'locations' table: the structured address of a store,
// one-to-one.
type Location struct {
	ID      uint64  `json:"id"`
	Country string  `json:"country"`
	ZipCode string  `json:"zip_code"`
	City    string  `json:"city"`
	Street  string  `json:"street"`
	Detail  *string `json:"detail"`
	StoreID uint64  `json:"store_id"`
}

var (
	ErrLocationNotFound = errors.New("location not found")
	ErrLocationExists   = errors.New("location already exists")
)

type LocationRepo struct {
	db *sql.DB
}

func NewLocationRepo(db *sql.DB) *LocationRepo { return &LocationRepo{db: db} }

func scanLocation(row *sql.Row) (Location, error) {
	var (
		l      Location
		detail sql.NullString
	)
	err := row.Scan(&l.ID, &l.Country, &l.ZipCode, &l.City, &l.Street, &detail, &l.StoreID)
	if errors.Is(err, sql.ErrNoRows) {
		return l, ErrLocationNotFound
	}
	if detail.Valid {
		l.Detail = &detail.String
	}
	return l, err
}

// GetByStore fetches the location of a store, if any.
func (r *LocationRepo) GetByStore(ctx context.Context, storeID uint64) (Location, error) {
	return scanLocation(r.db.QueryRowContext(ctx,
		"SELECT id, country, zip_code, city, street, detail, store_id FROM locations WHERE store_id=? LIMIT 1",
		storeID))
}

// Create inserts the location of a store, rejecting a second one.
func (r *LocationRepo) Create(ctx context.Context, l *Location) error {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM locations WHERE store_id=? LIMIT 1", l.StoreID).Scan(&one)
	if err == nil {
		return ErrLocationExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO locations (country, zip_code, city, street, detail, store_id) VALUES (?,?,?,?,?,?)",
		l.Country, l.ZipCode, l.City, l.Street, nullableStr(l.Detail), l.StoreID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrLocationExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return nil
}

// Update rewrites the address fields of a store's location.
func (r *LocationRepo) Update(ctx context.Context, l *Location) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE locations SET country=?, zip_code=?, city=?, street=?, detail=? WHERE store_id=?",
		l.Country, l.ZipCode, l.City, l.Street, nullableStr(l.Detail), l.StoreID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLocationNotFound
	}
	return nil
}

// Delete removes a store's location.
func (r *LocationRepo) Delete(ctx context.Context, storeID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM locations WHERE store_id=?", storeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLocationNotFound
	}
	return nil
}

// DistinctCountries lists the distinct countries across all locations.
func (r *LocationRepo) DistinctCountries(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "SELECT DISTINCT country FROM locations ORDER BY country")
}

// DistinctCities lists the distinct cities within a country.
func (r *LocationRepo) DistinctCities(ctx context.Context, country string) ([]string, error) {
	return r.distinct(ctx,
		"SELECT DISTINCT city FROM locations WHERE country=? ORDER BY city", country)
}

// DistinctStreets lists the distinct streets within a city.
func (r *LocationRepo) DistinctStreets(ctx context.Context, country, city string) ([]string, error) {
	return r.distinct(ctx,
		"SELECT DISTINCT street FROM locations WHERE country=? AND city=? ORDER BY street",
		country, city)
}

// DistinctDetails lists the distinct details within a street.
func (r *LocationRepo) DistinctDetails(ctx context.Context, country, city, street string) ([]string, error) {
	return r.distinct(ctx,
		"SELECT DISTINCT detail FROM locations WHERE country=? AND city=? AND street=? AND detail IS NOT NULL ORDER BY detail",
		country, city, street)
}

func (r *LocationRepo) distinct(ctx context.Context, q string, args ...interface{}) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}
