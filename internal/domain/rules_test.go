package domain

import "testing"

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }

func TestValidateGroceryPair(t *testing.T) {
	if err := ValidateGroceryPair(nil, nil); err != nil {
		t.Fatalf("both absent should pass, got %v", err)
	}
	if err := ValidateGroceryPair(intp(3), strp("pieces")); err != nil {
		t.Fatalf("both present should pass, got %v", err)
	}
	if err := ValidateGroceryPair(intp(3), nil); err != ErrUnitQuantityPair {
		t.Fatalf("quantity without unit: got %v, want ErrUnitQuantityPair", err)
	}
	if err := ValidateGroceryPair(nil, strp("pieces")); err != ErrUnitQuantityPair {
		t.Fatalf("unit without quantity: got %v, want ErrUnitQuantityPair", err)
	}
	want := "Either both unit and quantity should be set, or none of them."
	if ErrUnitQuantityPair.Error() != want {
		t.Fatalf("pair error text = %q, want %q", ErrUnitQuantityPair.Error(), want)
	}
}

func TestValidUnit(t *testing.T) {
	for _, u := range UnitTypes {
		if !ValidUnit(u) {
			t.Fatalf("unit %q should be valid", u)
		}
	}
	for _, u := range []string{"gram", "KILOGRAM", "", "piece"} {
		if ValidUnit(u) {
			t.Fatalf("unit %q should be invalid", u)
		}
	}
}

func TestValidateGrocery(t *testing.T) {
	if errs := ValidateGrocery("Milk", intp(2), strp("liter"), nil); errs != nil {
		t.Fatalf("valid grocery rejected: %v", errs)
	}
	if errs := ValidateGrocery("", nil, nil, nil); errs["name"] == "" {
		t.Fatal("empty name should be rejected")
	}
	if errs := ValidateGrocery("Milk", intp(1000), strp("liter"), nil); errs["quantity"] == "" {
		t.Fatal("quantity 1000 should be rejected")
	}
	if errs := ValidateGrocery("Milk", intp(-1), strp("liter"), nil); errs["quantity"] == "" {
		t.Fatal("negative quantity should be rejected")
	}
	if errs := ValidateGrocery("Milk", intp(0), strp("liter"), nil); errs != nil {
		t.Fatalf("quantity 0 is within bounds, got %v", errs)
	}
	if errs := ValidateGrocery("Milk", intp(2), strp("bucket"), nil); errs["unit"] == "" {
		t.Fatal("unknown unit should be rejected")
	}
}

func TestValidateHousehold(t *testing.T) {
	if errs := ValidateHousehold("Smith family", "smith-home-1"); errs != nil {
		t.Fatalf("valid household rejected: %v", errs)
	}
	// Below min 5.
	if errs := ValidateHousehold("abcd", "valid-ident"); errs["name"] == "" {
		t.Fatal("4-char name should be rejected")
	}
	// Above max 20.
	if errs := ValidateHousehold("abcdefghijklmnopqrstu", "valid-ident"); errs["name"] == "" {
		t.Fatal("21-char name should be rejected")
	}
	if errs := ValidateHousehold("valid-name", "abc"); errs["identifier"] == "" {
		t.Fatal("short identifier should be rejected")
	}
}

func TestValidateProduct(t *testing.T) {
	if errs := ValidateProduct("Oat milk", "Oatly", nil, 249); errs != nil {
		t.Fatalf("valid product rejected: %v", errs)
	}
	if errs := ValidateProduct("", "Oatly", nil, 249); errs["name"] == "" {
		t.Fatal("empty name should be rejected")
	}
	if errs := ValidateProduct("a-name-that-is-way-too-long", "Oatly", nil, 249); errs["name"] == "" {
		t.Fatal("name over 20 chars should be rejected")
	}
	if errs := ValidateProduct("Oat milk", "Oatly", nil, MaxProductPrice+1); errs["price"] == "" {
		t.Fatal("price over bound should be rejected")
	}
	if errs := ValidateProduct("Oat milk", "Oatly", nil, -1); errs["price"] == "" {
		t.Fatal("negative price should be rejected")
	}
}

func TestValidateLocation(t *testing.T) {
	if errs := ValidateLocation("Hungary", "1117", "Budapest", "Main street"); errs != nil {
		t.Fatalf("valid location rejected: %v", errs)
	}
	for _, zip := range []string{"", "123", "12345", "12a4"} {
		if errs := ValidateLocation("Hungary", zip, "Budapest", "Main street"); errs["zip_code"] == "" {
			t.Fatalf("zip %q should be rejected", zip)
		}
	}
	if errs := ValidateLocation("", "1117", "Budapest", "Main street"); errs["country"] == "" {
		t.Fatal("empty country should be rejected")
	}
}
