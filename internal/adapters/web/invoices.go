package web

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"invoicing-service/internal/app"
	"invoicing-service/internal/core"
)

// workInfoPayload mirrors the work_info form field. The paid amounts arrive
// in whatever shape the submitting form last had them in, so they stay raw
// until normalized.
type workInfoPayload struct {
	WorkPaidAmount json.RawMessage `json:"work_paid_amount"`
	PriceAmount    decimal.Decimal `json:"price_amount"`
	IsPaid         core.PaidStatus `json:"is_paid"`
	IsCompleted    bool            `json:"is_completed"`
	WorkStartDate  *string         `json:"work_start_date"`
	WorkEndDate    *string         `json:"work_end_date"`
	WorkTitle      string          `json:"work_title"`
}

// parseInvoiceForm decodes the multipart submit payload into a save request
// and writes any uploaded attachment files to the upload directory.
func (h *Handler) parseInvoiceForm(r *http.Request) (*app.SaveInvoiceRequest, error) {
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return nil, fmt.Errorf("parse multipart form: %w", err)
	}

	var in core.InvoiceInput
	var err error

	if in.ClientID, err = formID(r, "client_id"); err != nil {
		return nil, err
	}
	in.OtherClient = r.FormValue("client_name")
	if in.ProjectID, err = formID(r, "project_id"); err != nil {
		return nil, err
	}
	in.OtherProject = r.FormValue("project_name")
	if in.ProposalID, err = formID(r, "proposal_id"); err != nil {
		return nil, err
	}
	if in.EstimateID, err = formID(r, "estimate_id"); err != nil {
		return nil, err
	}
	if in.CompanyID, err = formID(r, "company_id"); err != nil {
		return nil, err
	}
	if in.CurrencyID, err = formID(r, "currency_id"); err != nil {
		return nil, err
	}
	in.CurrencyCode = r.FormValue("currency_code")
	if in.CurrencyRate, err = formDecimal(r, "currency_rate"); err != nil {
		return nil, err
	}
	in.ClientAddress = r.FormValue("client_address")
	in.InvoiceNo = strings.TrimSpace(r.FormValue("invoice_no"))
	if in.InvoiceDate, err = formDate(r, "invoice_date"); err != nil {
		return nil, err
	}
	if in.DueDate, err = formDate(r, "due_date"); err != nil {
		return nil, err
	}
	if in.InvoiceRate, err = formDecimal(r, "invoice_rate"); err != nil {
		return nil, err
	}
	in.DiscountLabel = r.FormValue("discount_label")
	if in.DiscountAmount, err = formDecimal(r, "discount_amount"); err != nil {
		return nil, err
	}
	in.Description = r.FormValue("invoice_description")
	in.Notice = r.FormValue("notice")
	in.InvoiceType = r.FormValue("invoice_type")
	if v := r.FormValue("is_paid"); v != "" {
		n, perr := strconv.Atoi(v)
		if perr != nil {
			return nil, fmt.Errorf("field is_paid: %w", perr)
		}
		in.IsPaid = core.PaidStatus(n)
	}

	if blob := r.FormValue("work_info"); blob != "" {
		var wi workInfoPayload
		if err := json.Unmarshal([]byte(blob), &wi); err != nil {
			return nil, fmt.Errorf("field work_info: %w", err)
		}
		in.WorkPaidAmount = core.NormalizePaidAmounts(wi.WorkPaidAmount, false)
		in.PriceAmount = wi.PriceAmount
		in.IsCompleted = wi.IsCompleted
		in.WorkTitle = wi.WorkTitle
		if in.WorkStartDate, err = parseDatePtr(wi.WorkStartDate); err != nil {
			return nil, fmt.Errorf("field work_info.work_start_date: %w", err)
		}
		if in.WorkEndDate, err = parseDatePtr(wi.WorkEndDate); err != nil {
			return nil, fmt.Errorf("field work_info.work_end_date: %w", err)
		}
	}

	req := &app.SaveInvoiceRequest{InvoiceInput: in}
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["attachment[]"] {
			upload, err := h.saveUpload(fh)
			if err != nil {
				return nil, err
			}
			req.Attachments = append(req.Attachments, *upload)
		}
	}
	return req, nil
}

// saveUpload writes one uploaded file under a fresh random name so uploads
// can never collide or traverse outside the upload directory.
func (h *Handler) saveUpload(fh *multipart.FileHeader) (*app.AttachmentUpload, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer src.Close()

	storedAs := uuid.NewString() + filepath.Ext(fh.Filename)
	dst, err := os.Create(filepath.Join(h.uploadDir, storedAs))
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		return nil, fmt.Errorf("write upload file: %w", err)
	}

	return &app.AttachmentUpload{
		FileName:  filepath.Base(fh.Filename),
		StoredAs:  storedAs,
		SizeBytes: size,
	}, nil
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseInvoiceForm(r)
	if err != nil {
		writeFail(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	inv, err := h.svc.CreateInvoice(r.Context(), *req)
	if err != nil {
		h.removeUploads(req.Attachments)
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, inv)
}

func (h *Handler) updateInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	req, err := h.parseInvoiceForm(r)
	if err != nil {
		writeFail(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	inv, err := h.svc.UpdateInvoice(r.Context(), id, *req)
	if err != nil {
		h.removeUploads(req.Attachments)
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, inv)
}

func (h *Handler) generateInvoice(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseInvoiceForm(r)
	if err != nil {
		writeFail(w, r, err.Error(), http.StatusBadRequest)
		return
	}
	// Preview never persists, so any uploaded files are discarded again.
	defer h.removeUploads(req.Attachments)

	preview, err := h.svc.GenerateInvoice(r.Context(), *req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, preview)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	copyMode := r.URL.Query().Get("mode") == "copy"

	inv, err := h.svc.GetInvoice(r.Context(), id, copyMode)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, inv)
}

func (h *Handler) countInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dateStamp := q.Get("date")
	if dateStamp == "" {
		writeFail(w, r, "date is required (ddMMyyyy)", http.StatusBadRequest)
		return
	}

	var clientID int64
	if v := q.Get("client_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeFail(w, r, "invalid client_id", http.StatusBadRequest)
			return
		}
		clientID = id
	}

	count, err := h.svc.CountInvoices(r.Context(), dateStamp, clientID, q.Get("client_name"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, map[string]int{"count": count})
}

func (h *Handler) generateNumber(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var clientID int64
	if v := q.Get("client_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeFail(w, r, "invalid client_id", http.StatusBadRequest)
			return
		}
		clientID = id
	}

	var invoiceDate *time.Time
	if v := q.Get("invoice_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeFail(w, r, "invalid invoice_date, expected yyyy-MM-dd", http.StatusBadRequest)
			return
		}
		invoiceDate = &t
	}

	isUpdate := q.Get("update") == "true"
	number := h.svc.GenerateInvoiceNumber(r.Context(), q.Get("client_name"), clientID, invoiceDate, isUpdate)
	writeSuccess(w, map[string]string{"invoice_no": number})
}

func (h *Handler) deleteAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")

	storedAs, err := h.svc.DeleteAttachment(r.Context(), id, name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if storedAs != "" {
		if rmErr := os.Remove(filepath.Join(h.uploadDir, filepath.Base(storedAs))); rmErr != nil && !os.IsNotExist(rmErr) {
			h.log.Warnw("remove attachment file", "file", storedAs, "error", rmErr)
		}
	}
	writeSuccess(w, map[string]string{"deleted": name})
}

// removeUploads unlinks files written during a request whose outcome did not
// keep them.
func (h *Handler) removeUploads(uploads []app.AttachmentUpload) {
	for _, u := range uploads {
		if err := os.Remove(filepath.Join(h.uploadDir, u.StoredAs)); err != nil && !os.IsNotExist(err) {
			h.log.Warnw("remove upload file", "file", u.StoredAs, "error", err)
		}
	}
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		writeFail(w, r, "invalid "+param, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func formID(r *http.Request, field string) (*int64, error) {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" || v == "0" || v == "null" {
		return nil, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", field, err)
	}
	return &id, nil
}

func formDecimal(r *http.Request, field string) (decimal.Decimal, error) {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("field %s: %w", field, err)
	}
	return d, nil
}

func formDate(r *http.Request, field string) (*time.Time, error) {
	t, err := parseDatePtr(ptrOrNil(r.FormValue(field)))
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", field, err)
	}
	return t, nil
}

func parseDatePtr(v *string) (*time.Time, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(*v))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func ptrOrNil(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
