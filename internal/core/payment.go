package core

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// paymentDateLayouts are the formats accepted for persisted payment dates.
// Anything else normalizes to nil rather than failing the whole ledger.
var paymentDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// BlankPaymentEntry returns the zero-value ledger row the form starts from.
func BlankPaymentEntry() PaymentEntry {
	return PaymentEntry{PaidAmount: decimal.Zero, Date: nil, Note: ""}
}

// rawPaymentEntry tolerates the loose shapes found in persisted work_info
// blobs: amounts as numbers or strings, dates as strings or missing entirely.
type rawPaymentEntry struct {
	PaidAmount any    `json:"paid_amount"`
	Date       any    `json:"date"`
	Note       string `json:"note"`
}

// NormalizePaidAmounts converts persisted payment history into a canonical
// ordered ledger. Historical rows were stored in three shapes: a single
// object, a list, or nothing at all. In copy mode the history is discarded
// outright, since copying an invoice must not carry over payments.
func NormalizePaidAmounts(raw json.RawMessage, copyMode bool) []PaymentEntry {
	if copyMode {
		return []PaymentEntry{BlankPaymentEntry()}
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []PaymentEntry{BlankPaymentEntry()}
	}

	switch trimmed[0] {
	case '[':
		var items []rawPaymentEntry
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return []PaymentEntry{BlankPaymentEntry()}
		}
		entries := make([]PaymentEntry, 0, len(items))
		for _, item := range items {
			entries = append(entries, normalizeEntry(item))
		}
		return entries
	case '{':
		var item rawPaymentEntry
		if err := json.Unmarshal(trimmed, &item); err != nil {
			return []PaymentEntry{BlankPaymentEntry()}
		}
		return []PaymentEntry{normalizeEntry(item)}
	default:
		return []PaymentEntry{BlankPaymentEntry()}
	}
}

func normalizeEntry(item rawPaymentEntry) PaymentEntry {
	return PaymentEntry{
		PaidAmount: coerceAmount(item.PaidAmount),
		Date:       normalizeDate(item.Date),
		Note:       item.Note,
	}
}

// coerceAmount converts a loosely typed paid_amount to a decimal, defaulting
// to zero on anything unparsable.
func coerceAmount(v any) decimal.Decimal {
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t)
	case string:
		d, err := decimal.NewFromString(t)
		if err != nil {
			return decimal.Zero
		}
		return d
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// normalizeDate reformats a stored payment date as yyyy-MM-dd. An absent or
// unparsable date yields nil instead of an error.
func normalizeDate(v any) *string {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	for _, layout := range paymentDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			formatted := t.Format("2006-01-02")
			return &formatted
		}
	}
	return nil
}

// CleanEntries filters the ledger down to complete entries for submission.
// The editable ledger itself is never mutated; the caller keeps its copy.
func CleanEntries(entries []PaymentEntry) []PaymentEntry {
	cleaned := make([]PaymentEntry, 0, len(entries))
	for _, e := range entries {
		if e.Complete() {
			cleaned = append(cleaned, e)
		}
	}
	return cleaned
}

// DerivePaidStatus computes the invoice paid flag from the most recently
// edited entry's amount against the total work price. It deliberately looks
// at the single edited row, not a running sum across the ledger.
func DerivePaidStatus(editedAmount, totalPrice decimal.Decimal) PaidStatus {
	if editedAmount.LessThan(totalPrice) && !editedAmount.IsZero() {
		return PartiallyPaid
	}
	if editedAmount.Equal(totalPrice) {
		return FullyPaid
	}
	return Unpaid
}

// AppendEntry adds one blank row to the end of the ledger.
func AppendEntry(entries []PaymentEntry) []PaymentEntry {
	out := make([]PaymentEntry, 0, len(entries)+1)
	out = append(out, entries...)
	return append(out, BlankPaymentEntry())
}

// RemoveEntry deletes the row at index, preserving the order of the rest.
// Out-of-range indexes and the last remaining row are left untouched; the
// form always keeps at least one editable row.
func RemoveEntry(entries []PaymentEntry, index int) []PaymentEntry {
	if index < 0 || index >= len(entries) || len(entries) <= 1 {
		return entries
	}
	out := make([]PaymentEntry, 0, len(entries)-1)
	out = append(out, entries[:index]...)
	return append(out, entries[index+1:]...)
}
