package core

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// InvoiceInput is the decoded submit payload for create, update, and the
// generate (preview) step. Field names mirror the multipart form fields.
type InvoiceInput struct {
	ClientID       *int64          `form:"client_id"`
	OtherClient    string          `form:"client_name"`
	ProjectID      *int64          `form:"project_id"`
	OtherProject   string          `form:"project_name"`
	ProposalID     *int64          `form:"proposal_id"`
	EstimateID     *int64          `form:"estimate_id"`
	CompanyID      *int64          `form:"company_id"`
	CurrencyID     *int64          `form:"currency_id" validate:"required"`
	CurrencyCode   string          `form:"currency_code"`
	CurrencyRate   decimal.Decimal `form:"currency_rate"`
	ClientAddress  string          `form:"client_address"`
	InvoiceNo      string          `form:"invoice_no" validate:"required,max=64"`
	InvoiceDate    *time.Time      `form:"invoice_date"`
	DueDate        *time.Time      `form:"due_date"`
	InvoiceRate    decimal.Decimal `form:"invoice_rate"`
	DiscountLabel  string          `form:"discount_label" validate:"max=128"`
	DiscountAmount decimal.Decimal `form:"discount_amount"`
	Description    string          `form:"invoice_description"`
	Notice         string          `form:"notice"`
	InvoiceType    string          `form:"invoice_type"`
	IsPaid         PaidStatus      `form:"is_paid" validate:"gte=0,lte=2"`
	IsCompleted    bool            `form:"is_completed"`
	WorkTitle      string          `form:"work_title"`
	WorkStartDate  *time.Time      `form:"work_start_date"`
	WorkEndDate    *time.Time      `form:"work_end_date"`
	WorkPaidAmount []PaymentEntry  `form:"work_paid_amount"`
	PriceAmount    decimal.Decimal `form:"price_amount"`
}

// FieldErrors maps form field names to validation messages. The web layer
// renders them inline per field rather than as a global error.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, f[k]))
	}
	return strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report errors under the multipart field name, not the Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks the submit payload and returns per-field errors, or nil
// when the payload is acceptable. The rules the hosted form enforces
// client-side are re-checked here.
func (in *InvoiceInput) Validate() FieldErrors {
	errs := FieldErrors{}

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs[fe.Field()] = messageForTag(fe)
			}
		} else {
			errs["payload"] = err.Error()
		}
	}

	// A client must be chosen or named; the form allows either.
	if in.ClientID == nil && strings.TrimSpace(in.OtherClient) == "" {
		errs["client_id"] = "client is required"
	}
	if in.InvoiceRate.IsNegative() {
		errs["invoice_rate"] = "must not be negative"
	}
	if in.PriceAmount.IsNegative() {
		errs["price_amount"] = "must not be negative"
	}
	if in.DiscountAmount.IsNegative() {
		errs["discount_amount"] = "must not be negative"
	}
	if in.InvoiceDate != nil && in.DueDate != nil && in.DueDate.Before(*in.InvoiceDate) {
		errs["due_date"] = "must not precede the invoice date"
	}
	for i, entry := range in.WorkPaidAmount {
		if entry.PaidAmount.IsNegative() {
			errs[fmt.Sprintf("work_paid_amount[%d].paid_amount", i)] = "must not be negative"
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte", "lte":
		return "is out of range"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
