package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Household mirrors the 'households' table. UserID is the owning user.
type Household struct {
	ID         uint64    `json:"id"`
	Name       string    `json:"name"`
	Identifier string    `json:"identifier"`
	UserID     uint64    `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

var (
	ErrHouseholdNotFound = errors.New("household not found")
	ErrIdentifierExists  = errors.New("identifier already exists")
	ErrMembershipExists  = errors.New("membership already exists")
	ErrMemberNotFound    = errors.New("user not found in household")
)

// HouseholdRepo provides persistence for households and their membership
// rows. Multi-step operations (create with owner, member removal with
// ownership transfer, cascading delete) run inside a single transaction: if
// the second step fails the first must roll back.
type HouseholdRepo struct {
	db *sql.DB
}

func NewHouseholdRepo(db *sql.DB) *HouseholdRepo { return &HouseholdRepo{db: db} }

const householdCols = "id, name, identifier, user_id, created_at, updated_at"

func scanHousehold(row *sql.Row) (Household, error) {
	var h Household
	err := row.Scan(&h.ID, &h.Name, &h.Identifier, &h.UserID, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return h, ErrHouseholdNotFound
	}
	return h, err
}

// GetByID fetches a household by id.
func (r *HouseholdRepo) GetByID(ctx context.Context, id uint64) (Household, error) {
	return scanHousehold(r.db.QueryRowContext(ctx,
		"SELECT "+householdCols+" FROM households WHERE id=? LIMIT 1", id))
}

// Search returns a page of households whose name or identifier matches the
// search term, plus the total match count for the pagination envelope.
func (r *HouseholdRepo) Search(ctx context.Context, search string, page, perPage int) ([]Household, int, error) {
	where := ""
	args := []interface{}{}
	if s := strings.TrimSpace(search); s != "" {
		where = " WHERE name LIKE ? OR identifier LIKE ?"
		like := "%" + s + "%"
		args = append(args, like, like)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM households"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, perPage, (page-1)*perPage)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+householdCols+" FROM households"+where+" ORDER BY id LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Household
	for rows.Next() {
		var h Household
		if err := rows.Scan(&h.ID, &h.Name, &h.Identifier, &h.UserID, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, h)
	}
	return result, total, rows.Err()
}

// CreateWithOwner inserts the household row and the owner's initial
// membership row atomically. Either both persist or neither does.
func (r *HouseholdRepo) CreateWithOwner(ctx context.Context, name, identifier string, ownerID uint64) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO households (name, identifier, user_id) VALUES (?,?,?)",
		name, identifier, ownerID)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrIdentifierExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO user_households (user_id, household_id) VALUES (?,?)",
		ownerID, uint64(id)); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update renames a household and changes its identifier.
func (r *HouseholdRepo) Update(ctx context.Context, id uint64, name, identifier string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE households SET name=?, identifier=?, updated_at=NOW() WHERE id=?",
		name, identifier, id)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrIdentifierExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrHouseholdNotFound
	}
	return nil
}

// IdentifierExists reports whether another household already uses the
// identifier. excludeID skips the household being updated.
func (r *HouseholdRepo) IdentifierExists(ctx context.Context, identifier string, excludeID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM households WHERE identifier=? AND id<>? LIMIT 1",
		identifier, excludeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Delete removes a household and everything scoped under it. The cascade is
// explicit: comments of the household's groceries, the groceries, pending
// applications, membership rows, then the household row itself.
func (r *HouseholdRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteHouseholdTx(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteHouseholdTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE c FROM comments c JOIN groceries g ON g.id = c.grocery_id WHERE g.household_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM groceries WHERE household_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM household_applications WHERE household_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM user_households WHERE household_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM households WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrHouseholdNotFound
	}
	return nil
}

// IsMember reports whether the user holds a membership row for the household.
func (r *HouseholdRepo) IsMember(ctx context.Context, userID, householdID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM user_households WHERE user_id=? AND household_id=? LIMIT 1",
		userID, householdID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// MemberSet reports which of the given households the user belongs to. One
// query per page instead of one IsMember call per row.
func (r *HouseholdRepo) MemberSet(ctx context.Context, userID uint64, ids []uint64) (map[uint64]bool, error) {
	return householdIDSet(ctx, r.db,
		"SELECT household_id FROM user_households WHERE user_id=? AND household_id IN", userID, ids)
}

// householdIDSet appends an IN list to q and collects the household ids the
// query returns.
func householdIDSet(ctx context.Context, db *sql.DB, q string, userID uint64, ids []uint64) (map[uint64]bool, error) {
	set := make(map[uint64]bool, len(ids))
	if len(ids) == 0 {
		return set, nil
	}
	ph := make([]string, len(ids))
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, userID)
	for i, id := range ids {
		ph[i] = "?"
		args = append(args, id)
	}
	rows, err := db.QueryContext(ctx, q+" ("+strings.Join(ph, ",")+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		set[id] = true
	}
	return set, rows.Err()
}

// ListByMember returns the households a user is a member of.
func (r *HouseholdRepo) ListByMember(ctx context.Context, userID uint64) ([]Household, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT h.id, h.name, h.identifier, h.user_id, h.created_at, h.updated_at
		 FROM households h
		 JOIN user_households uh ON uh.household_id = h.id
		 WHERE uh.user_id = ?
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

// ListUsers returns the members of a household.
func (r *HouseholdRepo) ListUsers(ctx context.Context, householdID uint64) ([]User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.name, u.email, u.admin, u.created_at, u.updated_at
		 FROM users u
		 JOIN user_households uh ON uh.user_id = u.id
		 WHERE uh.household_id = ?
		 ORDER BY uh.id`, householdID)
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

// RemovalOutcome describes what RemoveMember did.
type RemovalOutcome int

const (
	// MemberRemoved: a non-owner membership row was deleted.
	MemberRemoved RemovalOutcome = iota
	// OwnershipTransferred: the owner left and ownership moved to the
	// oldest remaining member.
	OwnershipTransferred
	// HouseholdDeleted: the owner left and no members remained, so the
	// household was removed entirely.
	HouseholdDeleted
)

// RemoveMember removes a user from a household. When the removed member owns
// the household, ownership transfers to the oldest remaining member; when
// nobody remains the household is deleted with its full cascade. The whole
// operation runs in one transaction. newOwnerID is set only for
// OwnershipTransferred.
func (r *HouseholdRepo) RemoveMember(ctx context.Context, householdID, userID uint64) (RemovalOutcome, uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var ownerID uint64
	err = tx.QueryRowContext(ctx,
		"SELECT user_id FROM households WHERE id=? LIMIT 1", householdID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, ErrHouseholdNotFound
	}
	if err != nil {
		return 0, 0, err
	}

	if ownerID != userID {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM user_households WHERE household_id=? AND user_id=?", householdID, userID)
		if err != nil {
			return 0, 0, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return 0, 0, ErrMemberNotFound
		}
		if err := tx.Commit(); err != nil {
			return 0, 0, err
		}
		return MemberRemoved, 0, nil
	}

	// Owner self-removal: pick the oldest remaining membership row.
	var newOwnerID uint64
	err = tx.QueryRowContext(ctx,
		"SELECT user_id FROM user_households WHERE household_id=? AND user_id<>? ORDER BY id LIMIT 1",
		householdID, userID).Scan(&newOwnerID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Last member standing: the household goes away entirely.
		if err := deleteHouseholdTx(ctx, tx, householdID); err != nil {
			return 0, 0, err
		}
		if err := tx.Commit(); err != nil {
			return 0, 0, err
		}
		return HouseholdDeleted, 0, nil
	case err != nil:
		return 0, 0, err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE households SET user_id=?, updated_at=NOW() WHERE id=?", newOwnerID, householdID); err != nil {
		return 0, 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM user_households WHERE household_id=? AND user_id=?", householdID, userID); err != nil {
		return 0, 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return OwnershipTransferred, newOwnerID, nil
}
