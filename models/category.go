package models

import (
	"database/sql/driver"
	"fmt"
)

// Category is the closed set of product categories.
// It is stored and serialized by its label.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryCloths
	CategoryFood
	CategoryHousewares
	CategoryAutomotive
	CategoryTools
)

var categoryLabels = [...]string{
	CategoryUnknown:    "UNKNOWN",
	CategoryCloths:     "CLOTHS",
	CategoryFood:       "FOOD",
	CategoryHousewares: "HOUSEWARES",
	CategoryAutomotive: "AUTOMOTIVE",
	CategoryTools:      "TOOLS",
}

// Categories returns every category in declaration order.
func Categories() []Category {
	out := make([]Category, len(categoryLabels))
	for i := range categoryLabels {
		out[i] = Category(i)
	}
	return out
}

// ParseCategory looks a category up by its exact label.
func ParseCategory(label string) (Category, error) {
	for i, l := range categoryLabels {
		if l == label {
			return Category(i), nil
		}
	}
	return CategoryUnknown, &ValidationError{
		Field:  "category",
		Reason: fmt.Sprintf("invalid category %q", label),
	}
}

func (c Category) Valid() bool {
	return c >= 0 && int(c) < len(categoryLabels)
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryLabels[c]
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value stores the category as its label.
func (c Category) Value() (driver.Value, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return c.String(), nil
}

// Scan reads a category label from the store.
func (c *Category) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return c.UnmarshalText([]byte(v))
	case []byte:
		return c.UnmarshalText(v)
	case nil:
		*c = CategoryUnknown
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Category", src)
	}
}
