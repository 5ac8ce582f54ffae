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

// expectHousehold queues the household lookup every scoped endpoint starts
// with. The user_id values in the tests are stored as float64 the way the
// JWT middleware leaves claims in the context.
func expectHousehold(mock sqlmock.Sqlmock, id, ownerID uint64) {
	now := time.Now()
	mock.ExpectQuery("SELECT id, name, identifier, user_id, created_at, updated_at FROM households WHERE id=").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "name", "identifier", "user_id", "created_at", "updated_at"}).
			AddRow(id, "Smith family", "smith-home", ownerID, now, now))
}

func TestApplyDuplicateApplicationMessage(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("10")
	c.Set("user_id", float64(2))
	c.Set("role", "USER")

	expectHousehold(mock, 10, 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM household_applications WHERE user_id=? AND household_id=? LIMIT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	h := NewApplicationHandler(repository.NewApplicationRepo(db), repository.NewHouseholdRepo(db))
	if err := h.Store(c); err != nil {
		t.Fatalf("store: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "This application already exists") {
		t.Fatalf("body = %s, want duplicate-application message", rec.Body.String())
	}
}

func TestApplyAlreadyMemberMessage(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("10")
	c.Set("user_id", float64(2))
	c.Set("role", "USER")

	expectHousehold(mock, 10, 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM household_applications WHERE user_id=? AND household_id=? LIMIT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM user_households WHERE user_id=? AND household_id=? LIMIT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	h := NewApplicationHandler(repository.NewApplicationRepo(db), repository.NewHouseholdRepo(db))
	if err := h.Store(c); err != nil {
		t.Fatalf("store: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "The user is already in this household") {
		t.Fatalf("body = %s, want already-member message", rec.Body.String())
	}
}

func TestApplyUnknownHousehold(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("99")
	c.Set("user_id", float64(2))
	c.Set("role", "USER")

	mock.ExpectQuery("SELECT id, name, identifier, user_id, created_at, updated_at FROM households WHERE id=").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "name", "identifier", "user_id", "created_at", "updated_at"}))

	h := NewApplicationHandler(repository.NewApplicationRepo(db), repository.NewHouseholdRepo(db))
	if err := h.Store(c); err != nil {
		t.Fatalf("store: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
