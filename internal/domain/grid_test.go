package domain

import "testing"

func TestValidateMapSize(t *testing.T) {
	if errs := ValidateMapSize(2, 2); errs != nil {
		t.Fatalf("minimum size rejected: %v", errs)
	}
	if errs := ValidateMapSize(100, 100); errs != nil {
		t.Fatalf("maximum size rejected: %v", errs)
	}
	if errs := ValidateMapSize(1, 50); errs["x_size"] == "" {
		t.Fatal("x_size 1 should be rejected")
	}
	if errs := ValidateMapSize(50, 101); errs["y_size"] == "" {
		t.Fatal("y_size 101 should be rejected")
	}
}

func TestValidSegmentType(t *testing.T) {
	for _, s := range SegmentTypes {
		if !ValidSegmentType(s) {
			t.Fatalf("type %q should be valid", s)
		}
	}
	for _, s := range []string{"", "Shelf", "cash_register", "door"} {
		if ValidSegmentType(s) {
			t.Fatalf("type %q should be invalid", s)
		}
	}
}

func TestValidateSegmentBounds(t *testing.T) {
	if errs := ValidateSegment(0, 0, 5, 5, "shelf"); errs != nil {
		t.Fatalf("corner cell rejected: %v", errs)
	}
	if errs := ValidateSegment(4, 4, 5, 5, "wall"); errs != nil {
		t.Fatalf("far corner cell rejected: %v", errs)
	}
	if errs := ValidateSegment(5, 0, 5, 5, "shelf"); errs["x"] == "" {
		t.Fatal("x == x_size should be out of bounds")
	}
	if errs := ValidateSegment(0, -1, 5, 5, "shelf"); errs["y"] == "" {
		t.Fatal("negative y should be out of bounds")
	}
	if errs := ValidateSegment(0, 0, 5, 5, "door"); errs["type"] == "" {
		t.Fatal("unknown type should be rejected")
	}
}

// A resize keeps exactly the segments whose coordinates satisfy the bounds
// predicate against the new size.
func TestInBoundsResizeFilter(t *testing.T) {
	type cell struct{ x, y int }
	segments := []cell{{0, 0}, {2, 2}, {4, 4}, {2, 4}, {4, 2}}

	// 5x5 shrunk to 3x5: everything with x >= 3 goes.
	var survived []cell
	for _, s := range segments {
		if InBounds(s.x, s.y, 3, 5) {
			survived = append(survived, s)
		}
	}
	want := []cell{{0, 0}, {2, 2}, {2, 4}}
	if len(survived) != len(want) {
		t.Fatalf("survivors = %v, want %v", survived, want)
	}
	for i := range want {
		if survived[i] != want[i] {
			t.Fatalf("survivors = %v, want %v", survived, want)
		}
	}
}
