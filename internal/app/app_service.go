package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"invoicing-service/internal/core"
	"invoicing-service/internal/rates"
)

type appService struct {
	invoices  core.InvoiceService
	reference core.ReferenceService
	users     core.UserService
	numberGen *core.InvoiceNumberGenerator
	rates     *rates.Client
	log       *zap.SugaredLogger
}

// NewAppService constructs an appService that satisfies ApplicationService.
// ratesClient may be nil when no external provider is configured.
func NewAppService(
	invoices core.InvoiceService,
	reference core.ReferenceService,
	users core.UserService,
	ratesClient *rates.Client,
	log *zap.SugaredLogger,
) ApplicationService {
	return &appService{
		invoices:  invoices,
		reference: reference,
		users:     users,
		numberGen: core.NewInvoiceNumberGenerator(invoices, log),
		rates:     ratesClient,
		log:       log,
	}
}

func (s *appService) ListClients(ctx context.Context) ([]core.Client, error) {
	return s.reference.ListClients(ctx)
}

func (s *appService) GetClient(ctx context.Context, id int64) (*core.ClientDetail, error) {
	return s.reference.GetClient(ctx, id)
}

func (s *appService) ListProjects(ctx context.Context) ([]core.Project, error) {
	return s.reference.ListProjects(ctx)
}

func (s *appService) GetProject(ctx context.Context, id int64) (*core.ProjectDetail, error) {
	return s.reference.GetProject(ctx, id)
}

func (s *appService) ListCurrencies(ctx context.Context) ([]core.Currency, error) {
	return s.reference.ListCurrencies(ctx)
}

func (s *appService) ListCompanies(ctx context.Context) ([]core.Company, error) {
	return s.reference.ListCompanies(ctx)
}

func (s *appService) ListActiveProposals(ctx context.Context) ([]core.Proposal, error) {
	return s.reference.ListActiveProposals(ctx)
}

// GetCurrencyRate returns the currency with its current rate. Provider
// failures are not swallowed: the message propagates to the caller, which is
// the one lookup the form surfaces explicitly.
func (s *appService) GetCurrencyRate(ctx context.Context, currencyID int64) (*core.Currency, error) {
	currency, err := s.reference.GetCurrency(ctx, currencyID)
	if err != nil {
		return nil, err
	}

	if s.rates != nil {
		rate, err := s.rates.GetRate(ctx, currency.CurrencyCode)
		if err != nil {
			return nil, fmt.Errorf("rate lookup for %s: %w", currency.CurrencyCode, err)
		}
		currency.Rate = rate
	}
	return currency, nil
}

func (s *appService) GetEstimate(ctx context.Context, id int64) (*core.Estimate, error) {
	return s.reference.GetEstimate(ctx, id)
}

func (s *appService) GetInvoice(ctx context.Context, id int64, copyMode bool) (*core.Invoice, error) {
	return s.invoices.Get(ctx, id, copyMode)
}

func (s *appService) CountInvoices(ctx context.Context, dateStamp string, clientID int64, clientName string) (int, error) {
	return s.invoices.CountInvoicesByDate(ctx, dateStamp, clientID, clientName)
}

// GenerateInvoiceNumber derives a reference. When the caller only has a
// client id, the name is resolved first so the initials come out right.
func (s *appService) GenerateInvoiceNumber(ctx context.Context, clientName string, clientID int64, invoiceDate *time.Time, isUpdate bool) string {
	if clientName == "" && clientID > 0 {
		detail, err := s.reference.GetClient(ctx, clientID)
		if err != nil {
			s.log.Warnw("client lookup for invoice number failed", "client_id", clientID, "error", err)
		} else {
			clientName = detail.Name
		}
	}
	return s.numberGen.Generate(ctx, clientName, clientID, invoiceDate, isUpdate)
}

func (s *appService) CreateInvoice(ctx context.Context, req SaveInvoiceRequest) (*core.Invoice, error) {
	if errs := req.InvoiceInput.Validate(); errs != nil {
		return nil, errs
	}

	inv, err := s.invoices.Create(ctx, req.InvoiceInput)
	if err != nil {
		return nil, err
	}

	if err := s.attachUploads(ctx, inv, req.Attachments); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *appService) UpdateInvoice(ctx context.Context, id int64, req SaveInvoiceRequest) (*core.Invoice, error) {
	if errs := req.InvoiceInput.Validate(); errs != nil {
		return nil, errs
	}

	inv, err := s.invoices.Update(ctx, id, req.InvoiceInput)
	if err != nil {
		return nil, err
	}

	if err := s.attachUploads(ctx, inv, req.Attachments); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *appService) attachUploads(ctx context.Context, inv *core.Invoice, uploads []AttachmentUpload) error {
	for _, u := range uploads {
		a, err := s.invoices.AttachFile(ctx, inv.ID, u.FileName, u.StoredAs, u.SizeBytes)
		if err != nil {
			return fmt.Errorf("attach %q: %w", u.FileName, err)
		}
		inv.Attachments = append(inv.Attachments, *a)
	}
	return nil
}

func (s *appService) GenerateInvoice(ctx context.Context, req SaveInvoiceRequest) (*core.GeneratedInvoice, error) {
	if errs := req.InvoiceInput.Validate(); errs != nil {
		return nil, errs
	}
	return s.invoices.GeneratePreview(ctx, req.InvoiceInput)
}

func (s *appService) DeleteAttachment(ctx context.Context, invoiceID int64, fileName string) (string, error) {
	return s.invoices.DeleteAttachment(ctx, invoiceID, fileName)
}

func (s *appService) AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error) {
	user, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			return nil, err
		}
		return nil, fmt.Errorf("authenticate %q: %w", username, err)
	}
	return &UserSession{UserID: user.ID, Username: user.Username, Role: user.Role}, nil
}

func (s *appService) GetUser(ctx context.Context, userID int64) (*core.User, error) {
	return s.users.GetByID(ctx, userID)
}
