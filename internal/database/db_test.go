package database

import (
	"strings"
	"testing"
)

func TestDSN(t *testing.T) {
	got := dsn("app", "secret", "db", "3306", "swiftcart")
	if !strings.HasPrefix(got, "app:secret@tcp(db:3306)/swiftcart?") {
		t.Fatalf("dsn = %q, bad address part", got)
	}
	for _, param := range []string{"parseTime=true", "loc=UTC", "clientFoundRows=true"} {
		if !strings.Contains(got, param) {
			t.Errorf("dsn = %q, missing %s", got, param)
		}
	}
}

func TestDSNWithoutPassword(t *testing.T) {
	got := dsn("app", "", "localhost", "3306", "swiftcart")
	if !strings.HasPrefix(got, "app@tcp(localhost:3306)/swiftcart?") {
		t.Fatalf("dsn = %q, want bare user before @", got)
	}
}
