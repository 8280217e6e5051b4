package product

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Draft is the admin input for creating or updating a product.
type Draft struct {
	Name          string `validate:"required,max=200"`
	Description   string `validate:"max=5000"`
	Price         decimal.Decimal
	ImageURL      string `validate:"max=2048"`
	Category      string `validate:"required,oneof=men women cosmetics"`
	StockQuantity int    `validate:"gte=0"`
}

// ValidationError describes invalid admin input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Normalize trims text fields, lower-cases the category and shrinks bundled
// asset paths to their basename.
func (d Draft) Normalize() Draft {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.Category = strings.ToLower(strings.TrimSpace(d.Category))
	d.ImageURL = NormalizeImageInput(d.ImageURL)
	return d
}

// Validate checks a normalized draft.
func (d Draft) Validate() error {
	if d.Price.IsNegative() {
		return &ValidationError{Field: "price", Message: "must not be negative"}
	}
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ValidationError{
				Field:   strings.ToLower(fe.Field()),
				Message: "failed " + fe.Tag() + " check",
			}
		}
		return errors.Wrap(err, "validate product")
	}
	return nil
}

// Apply copies the draft fields onto p.
func (d Draft) Apply(p *Product) {
	p.Name = d.Name
	p.Description = d.Description
	p.Price = d.Price
	p.ImageURL = d.ImageURL
	p.Category = Category(d.Category)
	p.StockQuantity = d.StockQuantity
}
