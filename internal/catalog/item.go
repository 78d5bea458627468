package catalog

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	"github.com/angelmondragon/foodcart-backend/pkg/money"
)

// Record is the catalog lookup payload for a single menu item.
type Record struct {
	ID        string  `json:"id" validate:"required,max=128"`
	Name      string  `json:"name" validate:"required,max=256"`
	UnitPrice float64 `json:"unit_price"`
	Tag       string  `json:"tag,omitempty" validate:"max=128"`
	ImageRef  string  `json:"image_ref,omitempty" validate:"omitempty,max=2048"`
	Available *bool   `json:"available,omitempty"`
}

// MaxUnitPrice caps a single menu item, in major units. It keeps line and cart
// totals far from the int64 limit of money.Cents.
const MaxUnitPrice = 100000.00

// Item is a validated catalog record priced in minor units.
type Item struct {
	ID        string
	Name      string
	UnitPrice money.Cents
	Tag       string
	ImageRef  string
}

const maxUnitCents = money.Cents(MaxUnitPrice * 100)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Parse validates a catalog record and converts its price to cents. Records with
// a negative, non-finite or oversized price, or marked unavailable, fail with
// CodeInvalidItem.
func Parse(rec Record) (Item, error) {
	rec.ID = strings.TrimSpace(rec.ID)
	rec.Name = strings.TrimSpace(rec.Name)

	if err := validate.Struct(rec); err != nil {
		return Item{}, invalidItem(rec.ID, "catalog record failed validation", fieldErrors(err))
	}
	if rec.Available != nil && !*rec.Available {
		return Item{}, invalidItem(rec.ID, "item is currently unavailable", nil)
	}

	switch {
	case math.IsNaN(rec.UnitPrice) || math.IsInf(rec.UnitPrice, 0):
		return Item{}, invalidItem(rec.ID, "unit price must be a finite number", map[string]string{"unit_price": "is not finite"})
	case rec.UnitPrice < 0:
		return Item{}, invalidItem(rec.ID, "unit price must be non-negative", map[string]string{"unit_price": "is negative"})
	case rec.UnitPrice > MaxUnitPrice:
		return Item{}, invalidItem(rec.ID, "unit price exceeds the catalog maximum", map[string]string{"unit_price": fmt.Sprintf("must be at most %.2f", MaxUnitPrice)})
	}
	price, err := money.FromFloat(rec.UnitPrice)
	if err != nil {
		return Item{}, invalidItem(rec.ID, "unit price cannot be represented in cents", map[string]string{"unit_price": err.Error()})
	}

	return Item{
		ID:        rec.ID,
		Name:      rec.Name,
		UnitPrice: price,
		Tag:       strings.TrimSpace(rec.Tag),
		ImageRef:  strings.TrimSpace(rec.ImageRef),
	}, nil
}

// Validate re-checks the ledger precondition on an already-built Item.
func (i Item) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return invalidItem(i.ID, "item id is required", nil)
	}
	if i.UnitPrice.IsNegative() {
		return invalidItem(i.ID, "unit price must be non-negative", nil)
	}
	if i.UnitPrice > maxUnitCents {
		return invalidItem(i.ID, "unit price exceeds the catalog maximum", nil)
	}
	return nil
}

func invalidItem(id, msg string, fields map[string]string) error {
	details := map[string]any{}
	if id != "" {
		details["id"] = id
	}
	if len(fields) > 0 {
		details["fields"] = fields
	}
	return pkgerrors.New(pkgerrors.CodeInvalidItem, msg).WithDetails(details)
}

func fieldErrors(err error) map[string]string {
	fields := map[string]string{}
	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range errs {
			switch fe.Tag() {
			case "required":
				fields[fe.Field()] = "is required"
			case "max":
				fields[fe.Field()] = fmt.Sprintf("must be at most %s characters", fe.Param())
			default:
				fields[fe.Field()] = "is invalid"
			}
		}
		return fields
	}
	fields["record"] = err.Error()
	return fields
}
