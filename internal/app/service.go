package app

import (
	"context"
	"time"

	"invoicing-service/internal/core"
)

// AttachmentUpload describes a file the web layer has already written to the
// upload directory.
type AttachmentUpload struct {
	FileName  string
	StoredAs  string
	SizeBytes int64
}

// SaveInvoiceRequest is the decoded submit payload plus its uploaded files.
// The same shape serves create, update, and the generate (preview) step.
type SaveInvoiceRequest struct {
	core.InvoiceInput
	Attachments []AttachmentUpload
}

// UserSession identifies an authenticated user.
type UserSession struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// ApplicationService is the single interface the web adapter calls. It
// decouples HTTP handling from business logic; implementations contain no
// response writing or rendering of any kind.
type ApplicationService interface {
	// Reference data the invoice form loads up front.
	ListClients(ctx context.Context) ([]core.Client, error)
	GetClient(ctx context.Context, id int64) (*core.ClientDetail, error)
	ListProjects(ctx context.Context) ([]core.Project, error)
	GetProject(ctx context.Context, id int64) (*core.ProjectDetail, error)
	ListCurrencies(ctx context.Context) ([]core.Currency, error)
	ListCompanies(ctx context.Context) ([]core.Company, error)
	ListActiveProposals(ctx context.Context) ([]core.Proposal, error)

	// GetCurrencyRate resolves the current rate for a currency. When a rate
	// provider is configured its answer (or its failure) wins; otherwise the
	// stored rate is returned.
	GetCurrencyRate(ctx context.Context, currencyID int64) (*core.Currency, error)

	// GetEstimate returns an estimate for pre-filling a new invoice.
	GetEstimate(ctx context.Context, id int64) (*core.Estimate, error)

	// GetInvoice loads an invoice for editing, or for copying when copyMode
	// is set (reference and payment history blanked).
	GetInvoice(ctx context.Context, id int64, copyMode bool) (*core.Invoice, error)

	// CountInvoices returns how many invoices exist for the client on the
	// given ddMMyyyy day stamp.
	CountInvoices(ctx context.Context, dateStamp string, clientID int64, clientName string) (int, error)

	// GenerateInvoiceNumber derives a reference for the form. Best effort:
	// always returns a usable number.
	GenerateInvoiceNumber(ctx context.Context, clientName string, clientID int64, invoiceDate *time.Time, isUpdate bool) string

	CreateInvoice(ctx context.Context, req SaveInvoiceRequest) (*core.Invoice, error)
	UpdateInvoice(ctx context.Context, id int64, req SaveInvoiceRequest) (*core.Invoice, error)

	// GenerateInvoice runs the pre-save preview computation; nothing is persisted.
	GenerateInvoice(ctx context.Context, req SaveInvoiceRequest) (*core.GeneratedInvoice, error)

	// DeleteAttachment removes an attachment record and returns the stored
	// file name so the caller can unlink it from disk.
	DeleteAttachment(ctx context.Context, invoiceID int64, fileName string) (string, error)

	AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error)
	GetUser(ctx context.Context, userID int64) (*core.User, error)
}
