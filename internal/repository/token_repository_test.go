package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// Revoked and expired tokens are filtered inside the query, so validation
// either yields the owning user or misses entirely.
func TestValidateRefreshFiltersInSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	repo := NewTokenRepo(db)

	q := regexp.QuoteMeta("SELECT user_id FROM refresh_tokens") +
		".*revoked_at IS NULL AND expires_at > UTC_TIMESTAMP"

	mock.ExpectQuery(q).WithArgs("hash-live").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(uint64(4)))
	if userID, err := repo.ValidateRefresh(context.Background(), "hash-live"); err != nil || userID != 4 {
		t.Fatalf("live token: got (%d, %v), want (4, nil)", userID, err)
	}

	mock.ExpectQuery(q).WithArgs("hash-stale").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
	if _, err := repo.ValidateRefresh(context.Background(), "hash-stale"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("stale token: got %v, want sql.ErrNoRows", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
