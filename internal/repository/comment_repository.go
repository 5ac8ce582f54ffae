package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Comment mirrors the 'comments' table. Comments are never hard-deleted:
// destroy replaces the content with RedactedContent and keeps the row.
type Comment struct {
	ID        uint64    `json:"id"`
	Content   string    `json:"content"`
	GroceryID uint64    `json:"grocery_id"`
	UserID    uint64    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RedactedContent is the literal placeholder a deleted comment's content is
// replaced with. Part of the wire contract.
const RedactedContent = "[Comment deleted]"

var ErrCommentNotFound = errors.New("comment not found")

type CommentRepo struct {
	db *sql.DB
}

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{db: db} }

// ListByGrocery returns a grocery's comments with the author name attached.
func (r *CommentRepo) ListByGrocery(ctx context.Context, groceryID uint64) ([]Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.content, c.grocery_id, c.user_id, u.name, c.created_at, c.updated_at
		 FROM comments c
		 JOIN users u ON u.id = c.user_id
		 WHERE c.grocery_id = ?
		 ORDER BY c.id`, groceryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.Content, &c.GroceryID, &c.UserID, &c.UserName, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// GetByID fetches a comment by id.
func (r *CommentRepo) GetByID(ctx context.Context, id uint64) (Comment, error) {
	var c Comment
	err := r.db.QueryRowContext(ctx,
		"SELECT id, content, grocery_id, user_id, created_at, updated_at FROM comments WHERE id=? LIMIT 1",
		id).Scan(&c.ID, &c.Content, &c.GroceryID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrCommentNotFound
	}
	return c, err
}

// Create inserts a comment and returns its id.
func (r *CommentRepo) Create(ctx context.Context, content string, groceryID, userID uint64) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO comments (content, grocery_id, user_id) VALUES (?,?,?)",
		content, groceryID, userID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Redact soft-deletes a comment by replacing its content with the
// placeholder. Redacting an already-redacted comment is a harmless no-op;
// existence was already established by the caller's lookup, so there is no
// RowsAffected check.
func (r *CommentRepo) Redact(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE comments SET content=?, updated_at=NOW() WHERE id=?", RedactedContent, id)
	return err
}
