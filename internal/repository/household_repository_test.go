package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestCreateWithOwnerIsAtomic(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	repo := NewHouseholdRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO households (name, identifier, user_id) VALUES (?,?,?)")).
		WithArgs("Smith family", "smith-home", uint64(1)).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_households (user_id, household_id) VALUES (?,?)")).
		WithArgs(uint64(1), uint64(42)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	id, err := repo.CreateWithOwner(context.Background(), "Smith family", "smith-home", 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != 42 {
		t.Fatalf("id = %d, want 42", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateWithOwnerRollsBackWhenMembershipFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	repo := NewHouseholdRepo(db)

	boom := errors.New("connection reset")
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO households (name, identifier, user_id) VALUES (?,?,?)")).
		WithArgs("Smith family", "smith-home", uint64(1)).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_households (user_id, household_id) VALUES (?,?)")).
		WithArgs(uint64(1), uint64(42)).
		WillReturnError(boom)
	mock.ExpectRollback()

	if _, err := repo.CreateWithOwner(context.Background(), "Smith family", "smith-home", 1); !errors.Is(err, boom) {
		t.Fatalf("create: got %v, want the membership error", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateWithOwnerDuplicateIdentifier(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	repo := NewHouseholdRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO households (name, identifier, user_id) VALUES (?,?,?)")).
		WithArgs("Smith family", "smith-home", uint64(1)).
		WillReturnError(errors.New("Error 1062: Duplicate entry 'smith-home' for key 'households.identifier'"))
	mock.ExpectRollback()

	if _, err := repo.CreateWithOwner(context.Background(), "Smith family", "smith-home", 1); !errors.Is(err, ErrIdentifierExists) {
		t.Fatalf("create: got %v, want ErrIdentifierExists", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRemoveMemberPlainMember(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	repo := NewHouseholdRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM households WHERE id=? LIMIT 1")).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(uint64(1)))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user_households WHERE household_id=? AND user_id=?")).
		WithArgs(uint64(10), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	outcome, newOwner, err := repo.RemoveMember(context.Background(), 10, 2)
	if err != nil {
		t.Fatalf("remove member: %v", err)
	}
	if outcome != MemberRemoved || newOwner != 0 {
		t.Fatalf("outcome = %v newOwner = %d, want MemberRemoved/0", outcome, newOwner)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRemoveMemberOwnerTransfersToOldestMember(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	repo := NewHouseholdRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM households WHERE id=? LIMIT 1")).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(uint64(1)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM user_households WHERE household_id=? AND user_id<>? ORDER BY id LIMIT 1")).
		WithArgs(uint64(10), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(uint64(5)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE households SET user_id=?, updated_at=NOW() WHERE id=?")).
		WithArgs(uint64(5), uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user_households WHERE household_id=? AND user_id=?")).
		WithArgs(uint64(10), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	outcome, newOwner, err := repo.RemoveMember(context.Background(), 10, 1)
	if err != nil {
		t.Fatalf("remove member: %v", err)
	}
	if outcome != OwnershipTransferred {
		t.Fatalf("outcome = %v, want OwnershipTransferred", outcome)
	}
	if newOwner != 5 {
		t.Fatalf("newOwner = %d, want 5", newOwner)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRemoveMemberLastOwnerDeletesHousehold(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	repo := NewHouseholdRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM households WHERE id=? LIMIT 1")).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(uint64(1)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM user_households WHERE household_id=? AND user_id<>? ORDER BY id LIMIT 1")).
		WithArgs(uint64(10), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
	// Full cascade: comments, groceries, applications, memberships, household.
	mock.ExpectExec("DELETE c FROM comments c").WithArgs(uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM groceries WHERE household_id=?")).WithArgs(uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM household_applications WHERE household_id=?")).WithArgs(uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user_households WHERE household_id=?")).WithArgs(uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM households WHERE id=?")).WithArgs(uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	outcome, newOwner, err := repo.RemoveMember(context.Background(), 10, 1)
	if err != nil {
		t.Fatalf("remove member: %v", err)
	}
	if outcome != HouseholdDeleted || newOwner != 0 {
		t.Fatalf("outcome = %v newOwner = %d, want HouseholdDeleted/0", outcome, newOwner)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
