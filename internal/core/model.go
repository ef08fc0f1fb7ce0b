package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaidStatus is the tri-state payment flag carried on an invoice's work info.
type PaidStatus int

const (
	Unpaid        PaidStatus = 0
	FullyPaid     PaidStatus = 1
	PartiallyPaid PaidStatus = 2
)

// PaymentEntry is one record of a partial payment against an invoice's work total.
// Date is a yyyy-MM-dd string, nil when the payment has no recorded date.
type PaymentEntry struct {
	PaidAmount decimal.Decimal `json:"paid_amount"`
	Date       *string         `json:"date"`
	Note       string          `json:"note"`
}

// Complete reports whether the entry qualifies for submission: a positive
// amount, a date, and a non-empty note.
func (e PaymentEntry) Complete() bool {
	return e.PaidAmount.IsPositive() && e.Date != nil && *e.Date != "" && e.Note != ""
}

// WorkInfo is the block of fields describing the underlying billable work,
// distinct from invoice-specific fields. Persisted as a single JSON blob on
// the invoice row.
type WorkInfo struct {
	WorkPaidAmount []PaymentEntry  `json:"work_paid_amount"`
	PriceAmount    decimal.Decimal `json:"price_amount"`
	IsPaid         PaidStatus      `json:"is_paid"`
	IsCompleted    bool            `json:"is_completed"`
	WorkStartDate  *string         `json:"work_start_date,omitempty"`
	WorkEndDate    *string         `json:"work_end_date,omitempty"`
	WorkTitle      string          `json:"work_title,omitempty"`
}

type Client struct {
	ID         int64     `json:"id"`
	Name       string    `json:"client_name"`
	Company    string    `json:"company"`
	Address    string    `json:"address"`
	CurrencyID *int64    `json:"currency_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ClientDetail is the expanded client record the invoice form loads on
// selection: address block, country currency with its rate, and the client's
// projects.
type ClientDetail struct {
	Client
	Currency *Currency `json:"currency,omitempty"`
	Projects []Project `json:"project"`
}

type Project struct {
	ID       int64  `json:"id"`
	Name     string `json:"project_name"`
	ClientID *int64 `json:"client_id,omitempty"`
	Address  string `json:"address,omitempty"`
}

// ProjectDetail carries the associated client for pre-filling the form when a
// project is selected before a client.
type ProjectDetail struct {
	Project
	Client *Client `json:"client,omitempty"`
}

type Currency struct {
	ID           int64           `json:"id"`
	CurrencyCode string          `json:"currency_code"`
	Name         string          `json:"name"`
	Rate         decimal.Decimal `json:"rate"`
}

type Company struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Proposal is a selectable record representing in-progress client work,
// an alternate to project selection on the form.
type Proposal struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	ClientID *int64 `json:"client_id,omitempty"`
	IsActive bool   `json:"is_active"`
}

// Estimate is a prior record that can pre-populate a new invoice.
type Estimate struct {
	ID              int64           `json:"id"`
	ClientID        *int64          `json:"client_id,omitempty"`
	OtherClient     string          `json:"other_client,omitempty"`
	ProjectID       *int64          `json:"project_id,omitempty"`
	OtherProject    string          `json:"other_project,omitempty"`
	ProposalID      *int64          `json:"proposal_id,omitempty"`
	CompanyID       *int64          `json:"company_id,omitempty"`
	ClientAddress   string          `json:"client_address,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	CurrencyRate    decimal.Decimal `json:"currency_rate"`
	DiscountLabel   string          `json:"discount_label,omitempty"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	WorkDescription string          `json:"work_description,omitempty"`
	Notice          string          `json:"notice,omitempty"`
	Reference       string          `json:"reference,omitempty"`
	WorkInfo        WorkInfo        `json:"work_info"`
}

type Attachment struct {
	ID        int64     `json:"id"`
	InvoiceID int64     `json:"invoice_id"`
	FileName  string    `json:"file_name"`
	StoredAs  string    `json:"-"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

type Invoice struct {
	ID             int64           `json:"id"`
	ClientID       *int64          `json:"client_id,omitempty"`
	OtherClient    string          `json:"other_client,omitempty"`
	ProjectID      *int64          `json:"project_id,omitempty"`
	OtherProject   string          `json:"other_project,omitempty"`
	ProposalID     *int64          `json:"proposal_id,omitempty"`
	EstimateID     *int64          `json:"estimate_id,omitempty"`
	CompanyID      *int64          `json:"company_id,omitempty"`
	CurrencyID     *int64          `json:"currency_id,omitempty"`
	CurrencyCode   string          `json:"currency_code,omitempty"`
	CurrencyRate   decimal.Decimal `json:"currency_rate"`
	ClientAddress  string          `json:"client_address,omitempty"`
	InvoiceNo      string          `json:"invoice_no"`
	Reference      string          `json:"reference,omitempty"`
	InvoiceDate    *string         `json:"invoice_date,omitempty"`
	DueDate        *string         `json:"due_date,omitempty"`
	InvoiceRate    decimal.Decimal `json:"invoice_rate"`
	DiscountLabel  string          `json:"discount_label,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Description    string          `json:"invoice_description,omitempty"`
	Notice         string          `json:"notice,omitempty"`
	InvoiceType    string          `json:"invoice_type"`
	IsExternal     bool            `json:"is_external"`
	IsPaid         PaidStatus      `json:"is_paid"`
	WorkInfo       WorkInfo        `json:"work_info"`
	Attachments    []Attachment    `json:"attachments,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
