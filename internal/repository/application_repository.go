package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Application mirrors the 'household_applications' table: a pending
// (user, household) request awaiting owner approval.
type Application struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"user_id"`
	HouseholdID uint64    `json:"household_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrApplicationExists   = errors.New("application already exists")
	ErrAlreadyMember       = errors.New("user already in household")
)

type ApplicationRepo struct {
	db *sql.DB
}

func NewApplicationRepo(db *sql.DB) *ApplicationRepo { return &ApplicationRepo{db: db} }

// Create inserts an application after checking the pair invariants: a user
// cannot apply twice, and cannot apply while already being a member.
func (r *ApplicationRepo) Create(ctx context.Context, userID, householdID uint64) error {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM household_applications WHERE user_id=? AND household_id=? LIMIT 1",
		userID, householdID).Scan(&one)
	if err == nil {
		return ErrApplicationExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	err = r.db.QueryRowContext(ctx,
		"SELECT 1 FROM user_households WHERE user_id=? AND household_id=? LIMIT 1",
		userID, householdID).Scan(&one)
	if err == nil {
		return ErrAlreadyMember
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO household_applications (user_id, household_id) VALUES (?,?)",
		userID, householdID)
	if isDuplicateKey(err) {
		return ErrApplicationExists
	}
	return err
}

// GetByID fetches an application together with the owner of the household it
// targets, so the handler can authorize in one round trip.
func (r *ApplicationRepo) GetByID(ctx context.Context, id uint64) (Application, uint64, error) {
	var (
		a       Application
		ownerID uint64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT a.id, a.user_id, a.household_id, a.created_at, a.updated_at, h.user_id
		 FROM household_applications a
		 JOIN households h ON h.id = a.household_id
		 WHERE a.id=? LIMIT 1`, id).
		Scan(&a.ID, &a.UserID, &a.HouseholdID, &a.CreatedAt, &a.UpdatedAt, &ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return a, 0, ErrApplicationNotFound
	}
	return a, ownerID, err
}

// Find returns the application of a user for a household, if any.
func (r *ApplicationRepo) Find(ctx context.Context, userID, householdID uint64) (Application, error) {
	var a Application
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, household_id, created_at, updated_at
		 FROM household_applications WHERE user_id=? AND household_id=? LIMIT 1`,
		userID, householdID).
		Scan(&a.ID, &a.UserID, &a.HouseholdID, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrApplicationNotFound
	}
	return a, err
}

// HasApplied reports whether the user has a pending application.
func (r *ApplicationRepo) HasApplied(ctx context.Context, userID, householdID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM household_applications WHERE user_id=? AND household_id=? LIMIT 1",
		userID, householdID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// AppliedSet reports which of the given households the user has a pending
// application for, one query per page.
func (r *ApplicationRepo) AppliedSet(ctx context.Context, userID uint64, ids []uint64) (map[uint64]bool, error) {
	return householdIDSet(ctx, r.db,
		"SELECT household_id FROM household_applications WHERE user_id=? AND household_id IN", userID, ids)
}

// Delete removes an application row (withdrawal or rejection).
func (r *ApplicationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM household_applications WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

// Accept turns an application into a membership: insert the membership row,
// delete the application. Both run in one transaction so a failed membership
// insert leaves the application in place.
func (r *ApplicationRepo) Accept(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var userID, householdID uint64
	err = tx.QueryRowContext(ctx,
		"SELECT user_id, household_id FROM household_applications WHERE id=? LIMIT 1", id).
		Scan(&userID, &householdID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrApplicationNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO user_households (user_id, household_id) VALUES (?,?)",
		userID, householdID); err != nil {
		if isDuplicateKey(err) {
			return ErrAlreadyMember
		}
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM household_applications WHERE id=?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// ListByUser returns the applications a user has sent.
func (r *ApplicationRepo) ListByUser(ctx context.Context, userID uint64) ([]Application, error) {
	return r.list(ctx,
		"SELECT id, user_id, household_id, created_at, updated_at FROM household_applications WHERE user_id=? ORDER BY id",
		userID)
}

// ListByHousehold returns the applications a household has received.
func (r *ApplicationRepo) ListByHousehold(ctx context.Context, householdID uint64) ([]Application, error) {
	return r.list(ctx,
		"SELECT id, user_id, household_id, created_at, updated_at FROM household_applications WHERE household_id=? ORDER BY id",
		householdID)
}

func (r *ApplicationRepo) list(ctx context.Context, q string, arg uint64) ([]Application, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Application
	for rows.Next() {
		var a Application
		if err := rows.Scan(&a.ID, &a.UserID, &a.HouseholdID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// ListHouseholdsByApplicant returns the households a user has applied to.
func (r *ApplicationRepo) ListHouseholdsByApplicant(ctx context.Context, userID uint64) ([]Household, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT h.id, h.name, h.identifier, h.user_id, h.created_at, h.updated_at
		 FROM households h
		 JOIN household_applications a ON a.household_id = h.id
		 WHERE a.user_id = ?
		 ORDER BY h.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Household
	for rows.Next() {
		var h Household
		if err := rows.Scan(&h.ID, &h.Name, &h.Identifier, &h.UserID, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, h)
	}
	return result, rows.Err()
}

// ListApplicants returns the users who applied to a household.
func (r *ApplicationRepo) ListApplicants(ctx context.Context, householdID uint64) ([]User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.name, u.email, u.admin, u.created_at, u.updated_at
		 FROM users u
		 JOIN household_applications a ON a.user_id = u.id
		 WHERE a.household_id = ?
		 ORDER BY a.id`, householdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Admin, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}
