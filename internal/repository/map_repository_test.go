package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestResizeDeletesSegmentsOutsideNewBounds(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	repo := NewMapRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE maps SET x_size=?, y_size=? WHERE id=?")).
		WithArgs(3, 5, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Products of out-of-bounds segments go first, then the segments.
	mock.ExpectExec("DELETE p FROM products p").
		WithArgs(uint64(7), 3, 5).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM map_segments WHERE map_id=? AND (x >= ? OR y >= ?)")).
		WithArgs(uint64(7), 3, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Resize(context.Background(), 7, 3, 5); err != nil {
		t.Fatalf("resize: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

// Resizing a map to its current dimensions is a valid no-op. The connection
// runs with clientFoundRows, so the UPDATE reports the matched row even when
// nothing changed and the request commits instead of rolling back.
func TestResizeSameSizeCommits(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	repo := NewMapRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE maps SET x_size=?, y_size=? WHERE id=?")).
		WithArgs(5, 5, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE p FROM products p").
		WithArgs(uint64(7), 5, 5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM map_segments WHERE map_id=? AND (x >= ? OR y >= ?)")).
		WithArgs(uint64(7), 5, 5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.Resize(context.Background(), 7, 5, 5); err != nil {
		t.Fatalf("same-size resize: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestResizeUnknownMap(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	repo := NewMapRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE maps SET x_size=?, y_size=? WHERE id=?")).
		WithArgs(3, 5, uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := repo.Resize(context.Background(), 99, 3, 5); !errors.Is(err, ErrMapNotFound) {
		t.Fatalf("resize unknown map: got %v, want ErrMapNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestResizeRollsBackOnCascadeFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	repo := NewMapRepo(db)

	boom := errors.New("deadlock")
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE maps SET x_size=?, y_size=? WHERE id=?")).
		WithArgs(3, 5, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE p FROM products p").
		WithArgs(uint64(7), 3, 5).
		WillReturnError(boom)
	mock.ExpectRollback()

	if err := repo.Resize(context.Background(), 7, 3, 5); !errors.Is(err, boom) {
		t.Fatalf("resize: got %v, want the cascade error", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
