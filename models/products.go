package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog.
// ID stays zero until the product is first written to the store.
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:100;not null;index" json:"name" validate:"required,max=100"`
	Description string          `gorm:"size:250;not null" json:"description" validate:"max=250"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price" validate:"dec_gte=0,dec_lt=100000000,dec_places=2"`
	Available   bool            `gorm:"not null;index" json:"available"`
	Category    Category        `gorm:"type:varchar(50);not null;index" json:"category"`

	// set once the row is deleted; a stale product must not be written again
	stale bool
}

func (p *Product) TableName() string {
	return "products"
}

func (p *Product) String() string {
	id := "None"
	if p.ID != 0 {
		id = strconv.FormatUint(uint64(p.ID), 10)
	}
	return fmt.Sprintf("<Product %s id=[%s]>", p.Name, id)
}

// Stale reports whether the product has been deleted from the store.
func (p *Product) Stale() bool {
	return p.stale
}

// Equal compares products by identity. Unsaved products are never equal.
func (p *Product) Equal(other *Product) bool {
	if p == nil || other == nil {
		return false
	}
	return p.ID != 0 && p.ID == other.ID
}

// Serialize renders the product as a JSON-ready map.
func (p *Product) Serialize() map[string]any {
	var id any
	if p.ID != 0 {
		id = p.ID
	}
	return map[string]any{
		"id":          id,
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price.StringFixed(2),
		"available":   p.Available,
		"category":    p.Category.String(),
	}
}

func (p Product) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Serialize())
}

// Deserialize replaces every field except ID from a full payload.
// name and price are required; description, available and category fall
// back to "", true and UNKNOWN. p is left untouched on error.
func (p *Product) Deserialize(data map[string]any) error {
	next := Product{
		ID:        p.ID,
		Available: true,
		Category:  CategoryUnknown,
		stale:     p.stale,
	}
	for _, key := range []string{"name", "price"} {
		if _, ok := data[key]; !ok {
			return &ValidationError{Field: key, Reason: "is required"}
		}
	}
	if err := next.apply(data); err != nil {
		return err
	}
	*p = next
	return nil
}

// Merge applies only the fields present in data, keeping the others.
// p is left untouched on error.
func (p *Product) Merge(data map[string]any) error {
	next := *p
	if err := next.apply(data); err != nil {
		return err
	}
	*p = next
	return nil
}

// Validate checks the field rules that hold for every stored product.
func (p *Product) Validate() error {
	if !p.Category.Valid() {
		return &ValidationError{Field: "category", Reason: fmt.Sprintf("invalid category %d", int(p.Category))}
	}
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: fe.Field(), Reason: validationReason(fe)}
	}
	return &ValidationError{Reason: err.Error()}
}

func (p *Product) apply(data map[string]any) error {
	if v, ok := data["name"]; ok {
		s, err := asString("name", v)
		if err != nil {
			return err
		}
		p.Name = s
	}
	if v, ok := data["description"]; ok {
		s, err := asString("description", v)
		if err != nil {
			return err
		}
		p.Description = s
	}
	if v, ok := data["price"]; ok {
		d, err := asDecimal("price", v)
		if err != nil {
			return err
		}
		p.Price = d
	}
	if v, ok := data["available"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return &ValidationError{Field: "available", Reason: fmt.Sprintf("must be a boolean, got %s", typeName(v))}
		}
		p.Available = b
	}
	if v, ok := data["category"]; ok {
		c, err := asCategory(v)
		if err != nil {
			return err
		}
		p.Category = c
	}
	return p.Validate()
}

func asString(field string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Field: field, Reason: fmt.Sprintf("must be a string, got %s", typeName(v))}
	}
	return s, nil
}

// asDecimal never goes through float64 for JSON input, so no precision is lost.
func asDecimal(field string, v any) (decimal.Decimal, error) {
	var (
		d   decimal.Decimal
		err error
	)
	switch n := v.(type) {
	case json.Number:
		d, err = decimal.NewFromString(n.String())
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(n))
	case decimal.Decimal:
		d = n
	case float64:
		d = decimal.NewFromFloat(n)
	case int:
		d = decimal.NewFromInt(int64(n))
	case int64:
		d = decimal.NewFromInt(n)
	default:
		return decimal.Decimal{}, &ValidationError{Field: field, Reason: fmt.Sprintf("must be a number, got %s", typeName(v))}
	}
	if err != nil {
		return decimal.Decimal{}, &ValidationError{Field: field, Reason: fmt.Sprintf("invalid decimal %v", v)}
	}
	return d, nil
}

func asCategory(v any) (Category, error) {
	switch c := v.(type) {
	case string:
		return ParseCategory(c)
	case Category:
		if !c.Valid() {
			return CategoryUnknown, &ValidationError{Field: "category", Reason: fmt.Sprintf("invalid category %d", int(c))}
		}
		return c, nil
	default:
		return CategoryUnknown, &ValidationError{Field: "category", Reason: fmt.Sprintf("must be a string, got %s", typeName(v))}
	}
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case json.Number, float64, int, int64:
		return "number"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return reflect.TypeOf(v).String()
}

// DecodePayload reads a single JSON object, keeping numbers as json.Number.
func DecodePayload(r io.Reader) (map[string]any, error) {
	var data map[string]any
	if err := decodeJSON(r, &data); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, &ValidationError{Reason: "request body must be a JSON object"}
	}
	return data, nil
}

// DecodePayloads reads a JSON array of product objects.
func DecodePayloads(r io.Reader) ([]map[string]any, error) {
	var data []map[string]any
	if err := decodeJSON(r, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func decodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &ValidationError{Reason: "request body is empty"}
		}
		return &ValidationError{Reason: "invalid JSON body: " + err.Error()}
	}
	return nil
}
