package invoice

import (
	"errors"
	"reflect"
	"strings"

	domainErrors "github.com/lztpay/lztpay/internal/domain/errors"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Lets numeric tags such as gt=0 apply to decimal amounts.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the request against the gateway's documented bounds.
func (r *CreateRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return domainErrors.NewValidationError(ve[0].Field(), describe(ve[0]))
		}
		return domainErrors.NewValidationError("invoice", err.Error())
	}
	return nil
}

// Validate checks that at least one identifier is set.
func (l Lookup) Validate() error {
	if l.InvoiceID <= 0 && l.PaymentID == "" {
		return domainErrors.NewValidationError("invoice_id|payment_id", "either invoice_id or payment_id must be provided")
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "url":
		return "must be a valid url"
	default:
		return fe.Tag() + " validation failed"
	}
}
