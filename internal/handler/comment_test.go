package handler

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swift-cart/internal/repository"
)

func commentDeleteContext(e *echo.Echo) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id", "groceryId", "commentId")
	c.SetParamValues("10", "20", "30")
	return c, rec
}

func expectCommentScope(mock sqlmock.Sqlmock, memberRow bool) {
	now := time.Now()
	mock.ExpectQuery("SELECT id, name, identifier, user_id, created_at, updated_at FROM households WHERE id=").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "name", "identifier", "user_id", "created_at", "updated_at"}).
			AddRow(uint64(10), "Smith family", "smith-home", uint64(1), now, now))
	mock.ExpectQuery("SELECT id, name, quantity, unit, description, household_id, user_id, created_at, updated_at FROM groceries WHERE id=").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "name", "quantity", "unit", "description", "household_id", "user_id", "created_at", "updated_at"}).
			AddRow(uint64(20), "Milk", nil, nil, nil, uint64(10), uint64(1), now, now))
	rows := sqlmock.NewRows([]string{"1"})
	if memberRow {
		rows.AddRow(1)
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM user_households WHERE user_id=? AND household_id=? LIMIT 1")).
		WillReturnRows(rows)
}

// Any household member may redact a comment, even one they did not write.
func TestCommentDeleteByMemberRedacts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	e := echo.New()
	c, rec := commentDeleteContext(e)
	c.Set("user_id", float64(2)) // member, not the author
	c.Set("role", "USER")

	now := time.Now()
	expectCommentScope(mock, true)
	mock.ExpectQuery("SELECT id, content, grocery_id, user_id, created_at, updated_at FROM comments WHERE id=").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "content", "grocery_id", "user_id", "created_at", "updated_at"}).
			AddRow(uint64(30), "buy two", uint64(20), uint64(1), now, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE comments SET content=?, updated_at=NOW() WHERE id=?")).
		WithArgs(repository.RedactedContent, uint64(30)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := NewCommentHandler(repository.NewCommentRepo(db), repository.NewGroceryRepo(db), repository.NewHouseholdRepo(db))
	if err := h.Delete(c); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCommentDeleteByStrangerForbidden(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	e := echo.New()
	c, rec := commentDeleteContext(e)
	c.Set("user_id", float64(99)) // neither member nor author
	c.Set("role", "USER")

	now := time.Now()
	expectCommentScope(mock, false)
	mock.ExpectQuery("SELECT id, content, grocery_id, user_id, created_at, updated_at FROM comments WHERE id=").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "content", "grocery_id", "user_id", "created_at", "updated_at"}).
			AddRow(uint64(30), "buy two", uint64(20), uint64(1), now, now))

	h := NewCommentHandler(repository.NewCommentRepo(db), repository.NewGroceryRepo(db), repository.NewHouseholdRepo(db))
	if err := h.Delete(c); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403; body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Unauthorized") {
		t.Fatalf("body = %s, want Unauthorized reason", rec.Body.String())
	}
}

// Redacting twice is safe; the second call runs the same update and the
// content stays the literal placeholder.
func TestCommentDeleteIsIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	e := echo.New()
	c, rec := commentDeleteContext(e)
	c.Set("user_id", float64(1)) // the author
	c.Set("role", "USER")

	now := time.Now()
	expectCommentScope(mock, true)
	mock.ExpectQuery("SELECT id, content, grocery_id, user_id, created_at, updated_at FROM comments WHERE id=").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "content", "grocery_id", "user_id", "created_at", "updated_at"}).
			AddRow(uint64(30), repository.RedactedContent, uint64(20), uint64(1), now, now))
	// Redact ignores the exec result, so even a driver reporting zero
	// rows leaves the response a plain 200.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE comments SET content=?, updated_at=NOW() WHERE id=?")).
		WithArgs(repository.RedactedContent, uint64(30)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	h := NewCommentHandler(repository.NewCommentRepo(db), repository.NewGroceryRepo(db), repository.NewHouseholdRepo(db))
	if err := h.Delete(c); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
