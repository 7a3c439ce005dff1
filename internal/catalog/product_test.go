package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Whey Blast":        "whey-blast",
		"Pro  Max":          "pro-max",
		"  Mass\tGainer XL ": "mass-gainer-xl",
		"ISO":               "iso",
		"":                  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slug(in), "Slug(%q)", in)
	}
}

func validProduct() Product {
	return Product{
		ID:          "whey-blast",
		Title:       "Whey Blast",
		Description: "Fast absorbing whey",
		Price:       "$39.99",
		Category:    "protein",
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, Validate(validProduct()))
}

func TestValidate_MissingFields(t *testing.T) {
	err := Validate(Product{ID: "x"})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidProduct))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Rule
	}
	assert.Equal(t, "required", fields["title"])
	assert.Equal(t, "required", fields["description"])
	assert.Equal(t, "required", fields["price"])
	assert.NotContains(t, fields, "id")
}

func TestValidate_IDMustBeURLSafe(t *testing.T) {
	for _, id := range []string{"a b", "a/b", "a?b", "a#b", "50%"} {
		p := validProduct()
		p.ID = id

		var verr *ValidationError
		require.True(t, errors.As(Validate(p), &verr), "id %q", id)
		assert.Equal(t, []FieldError{{Field: "id", Rule: "urlsafe"}}, verr.Fields)
	}
}
