package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestApplicationCreateChecksPairInvariants(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	repo := NewApplicationRepo(db)

	// The application-exists check runs before the member check, so a
	// duplicate apply reports ErrApplicationExists even if the data is in
	// a weird state.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM household_applications WHERE user_id=? AND household_id=? LIMIT 1")).
		WithArgs(uint64(2), uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	if err := repo.Create(context.Background(), 2, 10); !errors.Is(err, ErrApplicationExists) {
		t.Fatalf("create: got %v, want ErrApplicationExists", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestApplicationCreateRejectsExistingMember(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	repo := NewApplicationRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM household_applications WHERE user_id=? AND household_id=? LIMIT 1")).
		WithArgs(uint64(2), uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM user_households WHERE user_id=? AND household_id=? LIMIT 1")).
		WithArgs(uint64(2), uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	if err := repo.Create(context.Background(), 2, 10); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("create: got %v, want ErrAlreadyMember", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestApplicationCreateInserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	repo := NewApplicationRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM household_applications WHERE user_id=? AND household_id=? LIMIT 1")).
		WithArgs(uint64(2), uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM user_households WHERE user_id=? AND household_id=? LIMIT 1")).
		WithArgs(uint64(2), uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO household_applications (user_id, household_id) VALUES (?,?)")).
		WithArgs(uint64(2), uint64(10)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), 2, 10); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAcceptMovesApplicationToMembership(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	repo := NewApplicationRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id, household_id FROM household_applications WHERE id=? LIMIT 1")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "household_id"}).AddRow(uint64(2), uint64(10)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_households (user_id, household_id) VALUES (?,?)")).
		WithArgs(uint64(2), uint64(10)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM household_applications WHERE id=?")).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Accept(context.Background(), 7); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

// A failed membership insert must leave the application row in place.
func TestAcceptRollsBackWhenInsertFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	repo := NewApplicationRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id, household_id FROM household_applications WHERE id=? LIMIT 1")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "household_id"}).AddRow(uint64(2), uint64(10)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_households (user_id, household_id) VALUES (?,?)")).
		WithArgs(uint64(2), uint64(10)).
		WillReturnError(errors.New("Error 1062: Duplicate entry '2-10' for key 'user_households.pair'"))
	mock.ExpectRollback()

	if err := repo.Accept(context.Background(), 7); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("accept: got %v, want ErrAlreadyMember", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
