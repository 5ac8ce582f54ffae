package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swift-cart/internal/repository"
)

// Every household listing embeds the caller's relationship so clients can
// tell owned, joined and applied-to households apart without extra calls.
func TestIndexEmbedsRelationshipPerRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM households")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, identifier, user_id, created_at, updated_at FROM households ORDER BY id LIMIT ? OFFSET ?")).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "name", "identifier", "user_id", "created_at", "updated_at"}).
			AddRow(uint64(1), "North house", "north-home", uint64(2), now, now).
			AddRow(uint64(2), "South house", "south-home", uint64(9), now, now).
			AddRow(uint64(3), "West house", "west-home", uint64(9), now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT household_id FROM user_households WHERE user_id=? AND household_id IN (?,?,?)")).
		WithArgs(uint64(2), uint64(1), uint64(2), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"household_id"}).AddRow(uint64(2)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT household_id FROM household_applications WHERE user_id=? AND household_id IN (?,?,?)")).
		WithArgs(uint64(2), uint64(1), uint64(2), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"household_id"}).AddRow(uint64(3)))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", float64(2))
	c.Set("role", "USER")

	h := NewHouseholdHandler(repository.NewHouseholdRepo(db), repository.NewApplicationRepo(db))
	if err := h.Index(c); err != nil {
		t.Fatalf("index: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data []struct {
			ID           uint64 `json:"id"`
			Relationship string `json:"relationship"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	want := map[uint64]string{1: "owner", 2: "member", 3: "applied"}
	if len(resp.Data) != len(want) {
		t.Fatalf("got %d rows, want %d", len(resp.Data), len(want))
	}
	for _, row := range resp.Data {
		if row.Relationship != want[row.ID] {
			t.Errorf("household %d relationship = %q, want %q", row.ID, row.Relationship, want[row.ID])
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
