package domain

import "docproof/pkg/domainerr"

// Category is a domain value that classifies a registered document.
// Invariant: the value must be one of the supported categories.
//
// Usage: construct via ParseCategory at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Category string

// Supported document categories.
const (
	CategoryLegal      Category = "legal"
	CategoryAcademic   Category = "academic"
	CategoryMedical    Category = "medical"
	CategoryProperty   Category = "property"
	CategoryInsurance  Category = "insurance"
	CategoryEmployment Category = "employment"
	CategoryTax        Category = "tax"
	CategoryIdentity   Category = "identity"
	CategoryVehicle    Category = "vehicle"
	CategoryEducation  Category = "education"
	CategoryOther      Category = "other"
)

// validCategories is the single source of truth for valid categories.
var validCategories = map[Category]bool{
	CategoryLegal:      true,
	CategoryAcademic:   true,
	CategoryMedical:    true,
	CategoryProperty:   true,
	CategoryInsurance:  true,
	CategoryEmployment: true,
	CategoryTax:        true,
	CategoryIdentity:   true,
	CategoryVehicle:    true,
	CategoryEducation:  true,
	CategoryOther:      true,
}

// ParseCategory constructs a Category from external input. The empty string
// maps to CategoryOther, matching the registry's default classification.
//
// Errors: returns CodeInvalidInput when the value is unsupported.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryOther, nil
	}
	c := Category(s)
	if !validCategories[c] {
		return "", domainerr.New(domainerr.CodeInvalidInput, "invalid category: "+s)
	}
	return c, nil
}

// IsValid checks if the category is one of the supported enum values.
func (c Category) IsValid() bool {
	return validCategories[c]
}

func (c Category) String() string {
	return string(c)
}
