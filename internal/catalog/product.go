package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Product is one sellable item. JSON names match the stored document and
// the storefront pages that read it.
type Product struct {
	ID                  string   `json:"id" validate:"required,urlsafe"`
	Title               string   `json:"title" validate:"required"`
	Description         string   `json:"description" validate:"required"`
	Image               string   `json:"image"`
	NutritionLabel      string   `json:"nutritionLabel"`
	Price               string   `json:"price,omitempty" validate:"required"`
	Category            string   `json:"category"`
	Flavour             string   `json:"flavour,omitempty"`
	DetailedDescription string   `json:"detailedDescription,omitempty"`
	Ingredients         []string `json:"ingredients,omitempty"`
	Benefits            []string `json:"benefits,omitempty"`
	Usage               string   `json:"usage,omitempty"`
	Servings            string   `json:"servings,omitempty"`
	Weight              string   `json:"weight,omitempty"`
}

// Catalog is the ordered product list. Display order is storage order.
type Catalog struct {
	Products []Product `json:"products"`
}

// clone copies the list items too, so callers never share backing arrays with a store.
func (c Catalog) clone() Catalog {
	out := make([]Product, len(c.Products))
	for i, p := range c.Products {
		p.Ingredients = slices.Clone(p.Ingredients)
		p.Benefits = slices.Clone(p.Benefits)
		out[i] = p
	}
	return Catalog{Products: out}
}

// Slug lower-cases title and collapses every whitespace run into one hyphen.
func Slug(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), "-")
}

var ErrInvalidProduct = errors.New("invalid product")

// FieldError names one rejected field of a product.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+":"+f.Rule)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidProduct, strings.Join(parts, ","))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidProduct }

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func productValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			return name
		})
		_ = v.RegisterValidation("urlsafe", func(fl validator.FieldLevel) bool {
			return isURLSafe(fl.Field().String())
		})
		validate = v
	})
	return validate
}

func isURLSafe(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t\r\n/?#%\\")
}

// Validate checks the write-time schema: id, title, description and price
// are required and the id must be usable as a path segment.
func Validate(p Product) error {
	err := productValidator().Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}
