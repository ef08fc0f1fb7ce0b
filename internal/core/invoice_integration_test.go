package core_test

import (
	"context"
	"os"
	"testing"
	"time"

	"invoicing-service/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE invoice_attachments, invoices, estimates, proposals, projects, clients, currencies, companies CASCADE;

		INSERT INTO currencies (id, currency_code, name, rate) VALUES (1, 'USD', 'US Dollar', 1);
		INSERT INTO clients (id, client_name, company, address, currency_id) VALUES (1, 'Acme Corp', 'Acme Holdings', '1 Main St', 1);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

func testInput(invoiceNo string) core.InvoiceInput {
	clientID := int64(1)
	currencyID := int64(1)
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	return core.InvoiceInput{
		ClientID:    &clientID,
		CurrencyID:  &currencyID,
		InvoiceNo:   invoiceNo,
		InvoiceDate: &date,
		InvoiceRate: decimal.NewFromInt(100),
		PriceAmount: decimal.NewFromInt(100),
	}
}

func TestInvoiceService_CreateAndGet(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewInvoiceService(pool)
	ctx := context.Background()

	in := testInput("AC/15032024")
	in.WorkPaidAmount = []core.PaymentEntry{
		{PaidAmount: decimal.NewFromInt(40), Date: strPtr("2024-03-16"), Note: "first"},
	}

	created, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("Create returned zero ID")
	}
	if created.IsPaid != core.PartiallyPaid {
		t.Errorf("IsPaid = %d, want %d", created.IsPaid, core.PartiallyPaid)
	}

	loaded, err := svc.Get(ctx, created.ID, false)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(loaded.WorkInfo.WorkPaidAmount) != 1 {
		t.Fatalf("payment entries = %d, want 1", len(loaded.WorkInfo.WorkPaidAmount))
	}
	if !loaded.WorkInfo.WorkPaidAmount[0].PaidAmount.Equal(decimal.NewFromInt(40)) {
		t.Errorf("paid amount = %s, want 40", loaded.WorkInfo.WorkPaidAmount[0].PaidAmount)
	}
}

func TestInvoiceService_DuplicateNumber(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewInvoiceService(pool)
	ctx := context.Background()

	if _, err := svc.Create(ctx, testInput("AC/15032024")); err != nil {
		t.Fatalf("First create failed: %v", err)
	}

	_, err := svc.Create(ctx, testInput("AC/15032024"))
	if err != core.ErrDuplicateInvoiceNo {
		t.Fatalf("err = %v, want ErrDuplicateInvoiceNo", err)
	}
}

func TestInvoiceService_CopyModeBlanksHistory(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewInvoiceService(pool)
	ctx := context.Background()

	in := testInput("AC/15032024")
	in.WorkPaidAmount = []core.PaymentEntry{
		{PaidAmount: decimal.NewFromInt(100), Date: strPtr("2024-03-16"), Note: "paid in full"},
	}

	created, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	copied, err := svc.Get(ctx, created.ID, true)
	if err != nil {
		t.Fatalf("Get in copy mode failed: %v", err)
	}
	if copied.InvoiceNo != "" {
		t.Errorf("copy mode InvoiceNo = %q, want blank", copied.InvoiceNo)
	}
	if len(copied.WorkInfo.WorkPaidAmount) != 1 {
		t.Fatalf("copy mode payment entries = %d, want 1 blank entry", len(copied.WorkInfo.WorkPaidAmount))
	}
	if !copied.WorkInfo.WorkPaidAmount[0].PaidAmount.IsZero() {
		t.Error("copy mode must blank the payment history")
	}
}

func TestInvoiceService_CountByDate(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewInvoiceService(pool)
	ctx := context.Background()

	if _, err := svc.Create(ctx, testInput("AC/15032024")); err != nil {
		t.Fatalf("First create failed: %v", err)
	}
	if _, err := svc.Create(ctx, testInput("AC/2/15032024")); err != nil {
		t.Fatalf("Second create failed: %v", err)
	}

	count, err := svc.CountInvoicesByDate(ctx, "15032024", 1, "")
	if err != nil {
		t.Fatalf("CountInvoicesByDate failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	count, err = svc.CountInvoicesByDate(ctx, "16032024", 1, "")
	if err != nil {
		t.Fatalf("CountInvoicesByDate failed: %v", err)
	}
	if count != 0 {
		t.Errorf("count for other day = %d, want 0", count)
	}
}

func TestInvoiceService_Attachments(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewInvoiceService(pool)
	ctx := context.Background()

	created, err := svc.Create(ctx, testInput("AC/15032024"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	att, err := svc.AttachFile(ctx, created.ID, "report.pdf", "abc123.pdf", 2048)
	if err != nil {
		t.Fatalf("AttachFile failed: %v", err)
	}
	if att.FileName != "report.pdf" {
		t.Errorf("FileName = %q, want report.pdf", att.FileName)
	}

	storedAs, err := svc.DeleteAttachment(ctx, created.ID, "report.pdf")
	if err != nil {
		t.Fatalf("DeleteAttachment failed: %v", err)
	}
	if storedAs != "abc123.pdf" {
		t.Errorf("storedAs = %q, want abc123.pdf", storedAs)
	}

	if _, err := svc.DeleteAttachment(ctx, created.ID, "report.pdf"); err != core.ErrAttachmentNotFound {
		t.Fatalf("err = %v, want ErrAttachmentNotFound", err)
	}
}
