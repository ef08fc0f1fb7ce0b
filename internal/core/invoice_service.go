package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrInvoiceNotFound    = errors.New("invoice not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrDuplicateInvoiceNo = errors.New("invoice number already exists")
)

// InvoiceService owns the invoice lifecycle: create, update, load for
// edit/copy, the same-day reference counter, the preview computation, and
// attachment bookkeeping.
type InvoiceService interface {
	Create(ctx context.Context, in InvoiceInput) (*Invoice, error)
	Update(ctx context.Context, id int64, in InvoiceInput) (*Invoice, error)
	// Get loads an invoice for editing. In copy mode the reference and the
	// payment history are blanked, since a copied invoice starts fresh.
	Get(ctx context.Context, id int64, copyMode bool) (*Invoice, error)
	GeneratePreview(ctx context.Context, in InvoiceInput) (*GeneratedInvoice, error)

	// CountInvoicesByDate satisfies InvoiceCounter.
	CountInvoicesByDate(ctx context.Context, dateStamp string, clientID int64, clientName string) (int, error)

	AttachFile(ctx context.Context, invoiceID int64, fileName, storedAs string, sizeBytes int64) (*Attachment, error)
	// DeleteAttachment removes the row and returns the stored name so the
	// caller can unlink the file on disk.
	DeleteAttachment(ctx context.Context, invoiceID int64, fileName string) (string, error)
}

// GeneratedInvoice is the pre-save preview: computed totals for the current
// form values, nothing persisted.
type GeneratedInvoice struct {
	InvoiceNo      string          `json:"invoice_no"`
	Reference      string          `json:"reference"`
	CurrencyCode   string          `json:"currency_code"`
	CurrencyRate   decimal.Decimal `json:"currency_rate"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountLabel  string          `json:"discount_label,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	BalanceDue     decimal.Decimal `json:"balance_due"`
	IsPaid         PaidStatus      `json:"is_paid"`
	WorkInfo       WorkInfo        `json:"work_info"`
}

type invoiceService struct {
	pool *pgxpool.Pool
}

func NewInvoiceService(pool *pgxpool.Pool) InvoiceService {
	return &invoiceService{pool: pool}
}

const invoiceColumns = `
	id, client_id, other_client, project_id, other_project, proposal_id,
	estimate_id, company_id, currency_id, currency_code, currency_rate,
	client_address, invoice_no, reference, invoice_date, due_date,
	invoice_rate, discount_label, discount_amount, invoice_description,
	notice, invoice_type, is_external, is_paid, work_info, created_at, updated_at`

func (s *invoiceService) Create(ctx context.Context, in InvoiceInput) (*Invoice, error) {
	wi, err := json.Marshal(buildWorkInfo(in))
	if err != nil {
		return nil, fmt.Errorf("encode work info: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO invoices (
			client_id, other_client, project_id, other_project, proposal_id,
			estimate_id, company_id, currency_id, currency_code, currency_rate,
			client_address, invoice_no, reference, invoice_date, due_date,
			invoice_rate, discount_label, discount_amount, invoice_description,
			notice, invoice_type, is_external, is_paid, work_info
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING `+invoiceColumns,
		in.ClientID, in.OtherClient, in.ProjectID, in.OtherProject, in.ProposalID,
		in.EstimateID, in.CompanyID, in.CurrencyID, in.CurrencyCode, in.CurrencyRate,
		strings.TrimSpace(in.ClientAddress), in.InvoiceNo, in.InvoiceNo,
		in.InvoiceDate, in.DueDate,
		in.InvoiceRate, strings.TrimSpace(in.DiscountLabel), in.DiscountAmount,
		strings.TrimSpace(in.Description), strings.TrimSpace(in.Notice),
		invoiceType(in), in.isExternal(), in.IsPaid, wi,
	)

	inv, err := scanInvoice(row, false)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateInvoiceNo
		}
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return inv, nil
}

func (s *invoiceService) Update(ctx context.Context, id int64, in InvoiceInput) (*Invoice, error) {
	wi, err := json.Marshal(buildWorkInfo(in))
	if err != nil {
		return nil, fmt.Errorf("encode work info: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE invoices SET
			client_id = $2, other_client = $3, project_id = $4, other_project = $5,
			proposal_id = $6, estimate_id = $7, company_id = $8, currency_id = $9,
			currency_code = $10, currency_rate = $11, client_address = $12,
			invoice_no = $13, reference = $14, invoice_date = $15, due_date = $16,
			invoice_rate = $17, discount_label = $18, discount_amount = $19,
			invoice_description = $20, notice = $21, invoice_type = $22,
			is_external = $23, is_paid = $24, work_info = $25, updated_at = NOW()
		WHERE id = $1
		RETURNING `+invoiceColumns,
		id,
		in.ClientID, in.OtherClient, in.ProjectID, in.OtherProject,
		in.ProposalID, in.EstimateID, in.CompanyID, in.CurrencyID,
		in.CurrencyCode, in.CurrencyRate, strings.TrimSpace(in.ClientAddress),
		in.InvoiceNo, in.InvoiceNo, in.InvoiceDate, in.DueDate,
		in.InvoiceRate, strings.TrimSpace(in.DiscountLabel), in.DiscountAmount,
		strings.TrimSpace(in.Description), strings.TrimSpace(in.Notice),
		invoiceType(in), in.isExternal(), in.IsPaid, wi,
	)

	inv, err := scanInvoice(row, false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicateInvoiceNo
		}
		return nil, fmt.Errorf("update invoice %d: %w", id, err)
	}
	return inv, nil
}

func (s *invoiceService) Get(ctx context.Context, id int64, copyMode bool) (*Invoice, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)

	inv, err := scanInvoice(row, copyMode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("load invoice %d: %w", id, err)
	}

	if copyMode {
		// A copied invoice gets a fresh reference once client and date are set.
		inv.InvoiceNo = ""
		inv.Reference = ""
		inv.Attachments = nil
		return inv, nil
	}

	attachments, err := s.listAttachments(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Attachments = attachments
	return inv, nil
}

func (s *invoiceService) CountInvoicesByDate(ctx context.Context, dateStamp string, clientID int64, clientName string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM invoices
		WHERE to_char(invoice_date, 'DDMMYYYY') = $1
		  AND ((($2)::bigint IS NOT NULL AND client_id = $2)
		    OR (($2)::bigint IS NULL AND other_client = $3))`,
		dateStamp, nullableID(clientID), clientName,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count invoices for %s: %w", dateStamp, err)
	}
	return count, nil
}

func (s *invoiceService) GeneratePreview(ctx context.Context, in InvoiceInput) (*GeneratedInvoice, error) {
	currencyCode := in.CurrencyCode
	if currencyCode == "" && in.CurrencyID != nil {
		err := s.pool.QueryRow(ctx,
			"SELECT currency_code FROM currencies WHERE id = $1", *in.CurrencyID,
		).Scan(&currencyCode)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("resolve currency %d: %w", *in.CurrencyID, err)
		}
	}

	wi := buildWorkInfo(in)

	totalPaid := decimal.Zero
	for _, e := range wi.WorkPaidAmount {
		totalPaid = totalPaid.Add(e.PaidAmount)
	}

	subtotal := in.InvoiceRate
	total := subtotal.Sub(in.DiscountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return &GeneratedInvoice{
		InvoiceNo:      in.InvoiceNo,
		Reference:      in.InvoiceNo,
		CurrencyCode:   currencyCode,
		CurrencyRate:   in.CurrencyRate,
		Subtotal:       subtotal,
		DiscountLabel:  strings.TrimSpace(in.DiscountLabel),
		DiscountAmount: in.DiscountAmount,
		Total:          total,
		TotalPaid:      totalPaid,
		BalanceDue:     total.Sub(totalPaid),
		IsPaid:         in.IsPaid,
		WorkInfo:       wi,
	}, nil
}

func (s *invoiceService) AttachFile(ctx context.Context, invoiceID int64, fileName, storedAs string, sizeBytes int64) (*Attachment, error) {
	var a Attachment
	err := s.pool.QueryRow(ctx, `
		INSERT INTO invoice_attachments (invoice_id, file_name, stored_as, size_bytes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (invoice_id, file_name)
		DO UPDATE SET stored_as = EXCLUDED.stored_as, size_bytes = EXCLUDED.size_bytes
		RETURNING id, invoice_id, file_name, stored_as, size_bytes, created_at`,
		invoiceID, fileName, storedAs, sizeBytes,
	).Scan(&a.ID, &a.InvoiceID, &a.FileName, &a.StoredAs, &a.SizeBytes, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("attach %q to invoice %d: %w", fileName, invoiceID, err)
	}
	return &a, nil
}

func (s *invoiceService) DeleteAttachment(ctx context.Context, invoiceID int64, fileName string) (string, error) {
	var storedAs string
	err := s.pool.QueryRow(ctx, `
		DELETE FROM invoice_attachments
		WHERE invoice_id = $1 AND file_name = $2
		RETURNING stored_as`,
		invoiceID, fileName,
	).Scan(&storedAs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrAttachmentNotFound
		}
		return "", fmt.Errorf("delete attachment %q from invoice %d: %w", fileName, invoiceID, err)
	}
	return storedAs, nil
}

func (s *invoiceService) listAttachments(ctx context.Context, invoiceID int64) ([]Attachment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, invoice_id, file_name, stored_as, size_bytes, created_at
		FROM invoice_attachments
		WHERE invoice_id = $1
		ORDER BY id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list attachments for invoice %d: %w", invoiceID, err)
	}
	defer rows.Close()

	var attachments []Attachment
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.ID, &a.InvoiceID, &a.FileName, &a.StoredAs, &a.SizeBytes, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

// buildWorkInfo assembles the persisted work-info blob from the submit
// payload. Only complete payment entries are written; the editable ledger
// stays with the form.
func buildWorkInfo(in InvoiceInput) WorkInfo {
	wi := WorkInfo{
		WorkPaidAmount: CleanEntries(in.WorkPaidAmount),
		PriceAmount:    in.PriceAmount,
		IsPaid:         in.IsPaid,
		IsCompleted:    in.IsCompleted,
	}
	if in.WorkStartDate != nil {
		d := in.WorkStartDate.Format("2006-01-02")
		wi.WorkStartDate = &d
	}
	if in.WorkEndDate != nil {
		d := in.WorkEndDate.Format("2006-01-02")
		wi.WorkEndDate = &d
	}
	if title := strings.TrimSpace(in.WorkTitle); title != "" {
		wi.WorkTitle = title
	}
	return wi
}

// storedWorkInfo keeps work_paid_amount raw so historical single-object rows
// normalize the same way the form always normalized them.
type storedWorkInfo struct {
	WorkPaidAmount json.RawMessage `json:"work_paid_amount"`
	PriceAmount    decimal.Decimal `json:"price_amount"`
	IsPaid         PaidStatus      `json:"is_paid"`
	IsCompleted    bool            `json:"is_completed"`
	WorkStartDate  *string         `json:"work_start_date"`
	WorkEndDate    *string         `json:"work_end_date"`
	WorkTitle      string          `json:"work_title"`
}

func scanInvoice(row pgx.Row, copyMode bool) (*Invoice, error) {
	var (
		inv         Invoice
		invoiceDate *time.Time
		dueDate     *time.Time
		rawWorkInfo []byte
	)
	err := row.Scan(
		&inv.ID, &inv.ClientID, &inv.OtherClient, &inv.ProjectID, &inv.OtherProject,
		&inv.ProposalID, &inv.EstimateID, &inv.CompanyID, &inv.CurrencyID,
		&inv.CurrencyCode, &inv.CurrencyRate, &inv.ClientAddress, &inv.InvoiceNo,
		&inv.Reference, &invoiceDate, &dueDate, &inv.InvoiceRate,
		&inv.DiscountLabel, &inv.DiscountAmount, &inv.Description, &inv.Notice,
		&inv.InvoiceType, &inv.IsExternal, &inv.IsPaid, &rawWorkInfo,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if invoiceDate != nil {
		d := invoiceDate.Format("2006-01-02")
		inv.InvoiceDate = &d
	}
	if dueDate != nil {
		d := dueDate.Format("2006-01-02")
		inv.DueDate = &d
	}

	var stored storedWorkInfo
	if len(rawWorkInfo) > 0 {
		if err := json.Unmarshal(rawWorkInfo, &stored); err != nil {
			return nil, fmt.Errorf("decode work info for invoice %d: %w", inv.ID, err)
		}
	}
	inv.WorkInfo = WorkInfo{
		WorkPaidAmount: NormalizePaidAmounts(stored.WorkPaidAmount, copyMode),
		PriceAmount:    stored.PriceAmount,
		IsPaid:         stored.IsPaid,
		IsCompleted:    stored.IsCompleted,
		WorkStartDate:  stored.WorkStartDate,
		WorkEndDate:    stored.WorkEndDate,
		WorkTitle:      stored.WorkTitle,
	}
	return &inv, nil
}

func invoiceType(in InvoiceInput) string {
	if in.InvoiceType == "" {
		return "invoice"
	}
	return in.InvoiceType
}

// isExternal mirrors the form rule: naming a client or project by hand marks
// the invoice external.
func (in *InvoiceInput) isExternal() bool {
	return strings.TrimSpace(in.OtherClient) != "" || strings.TrimSpace(in.OtherProject) != ""
}

func nullableID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
