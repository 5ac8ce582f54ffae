// Package domain holds the field validation rules of the API: closed
// enumerations, length bounds and the linked unit/quantity pair on
// groceries. Validators return a field -> message map so handlers can
// surface them as a 400 body, or a plain error for cross-field rules.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// UnitTypes is the closed set of grocery units.
var UnitTypes = []string{
	"pieces", "pair", "kilogram", "pound", "inch", "ounce",
	"liter", "decagram", "deciliter",
}

// ErrUnitQuantityPair is returned when exactly one of unit/quantity is set.
var ErrUnitQuantityPair = errors.New("Either both unit and quantity should be set, or none of them.")

// ValidUnit reports whether s is a known grocery unit.
func ValidUnit(s string) bool {
	for _, u := range UnitTypes {
		if s == u {
			return true
		}
	}
	return false
}

// Quantity bounds for groceries.
const (
	MinQuantity = 0
	MaxQuantity = 999
)

// ValidateGrocery checks the grocery fields. name is required; quantity and
// unit are each optional but must be set together (ErrUnitQuantityPair comes
// from ValidateGroceryPair, not from here, so the pair rule keeps its own
// error body as in the original API).
func ValidateGrocery(name string, quantity *int, unit, description *string) map[string]string {
	errs := map[string]string{}
	name = strings.TrimSpace(name)
	if name == "" {
		errs["name"] = "The name field is required."
	} else if len(name) > 20 {
		errs["name"] = "The name may not be greater than 20 characters."
	}
	if quantity != nil && (*quantity < MinQuantity || *quantity > MaxQuantity) {
		errs["quantity"] = fmt.Sprintf("The quantity must be between %d and %d.", MinQuantity, MaxQuantity)
	}
	if unit != nil && !ValidUnit(*unit) {
		errs["unit"] = "The selected unit is invalid."
	}
	if description != nil && len(*description) > 255 {
		errs["description"] = "The description may not be greater than 255 characters."
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateGroceryPair enforces the linked optional pair: both present or
// both absent, never one without the other.
func ValidateGroceryPair(quantity *int, unit *string) error {
	if (quantity == nil) != (unit == nil) {
		return ErrUnitQuantityPair
	}
	return nil
}

// Household name/identifier bounds. The canonical contract is min 5 / max 20
// for both fields.
const (
	HouseholdNameMin = 5
	HouseholdNameMax = 20
)

// ValidateHousehold checks name and identifier lengths. Identifier
// uniqueness is a database concern checked by the repository.
func ValidateHousehold(name, identifier string) map[string]string {
	errs := map[string]string{}
	if n := len(strings.TrimSpace(name)); n < HouseholdNameMin || n > HouseholdNameMax {
		errs["name"] = fmt.Sprintf("The name must be between %d and %d characters.", HouseholdNameMin, HouseholdNameMax)
	}
	if n := len(strings.TrimSpace(identifier)); n < HouseholdNameMin || n > HouseholdNameMax {
		errs["identifier"] = fmt.Sprintf("The identifier must be between %d and %d characters.", HouseholdNameMin, HouseholdNameMax)
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateComment checks a comment body.
func ValidateComment(content string) map[string]string {
	content = strings.TrimSpace(content)
	if content == "" {
		return map[string]string{"content": "The content field is required."}
	}
	if len(content) > 255 {
		return map[string]string{"content": "The content may not be greater than 255 characters."}
	}
	return nil
}

// Product field bounds.
const MaxProductPrice = 9999999

// ValidateProduct checks the product fields.
func ValidateProduct(name, brand string, description *string, price int) map[string]string {
	errs := map[string]string{}
	if s := strings.TrimSpace(name); s == "" {
		errs["name"] = "The name field is required."
	} else if len(s) > 20 {
		errs["name"] = "The name may not be greater than 20 characters."
	}
	if s := strings.TrimSpace(brand); s == "" {
		errs["brand"] = "The brand field is required."
	} else if len(s) > 20 {
		errs["brand"] = "The brand may not be greater than 20 characters."
	}
	if description != nil && len(*description) > 255 {
		errs["description"] = "The description may not be greater than 255 characters."
	}
	if price < 0 || price > MaxProductPrice {
		errs["price"] = fmt.Sprintf("The price must be between 0 and %d.", MaxProductPrice)
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateLocation checks the structured address fields. detail is optional.
func ValidateLocation(country, zipCode, city, street string) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(country) == "" {
		errs["country"] = "The country field is required."
	}
	if !validZip(zipCode) {
		errs["zip_code"] = "The zip code must be 4 digits."
	}
	if strings.TrimSpace(city) == "" {
		errs["city"] = "The city field is required."
	}
	if strings.TrimSpace(street) == "" {
		errs["street"] = "The street field is required."
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validZip(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
