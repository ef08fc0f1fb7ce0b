package core_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"invoicing-service/internal/core"
)

func strPtr(s string) *string { return &s }

func TestNormalizePaidAmounts_CopyModeDiscardsHistory(t *testing.T) {
	inputs := []json.RawMessage{
		json.RawMessage(`[{"paid_amount": 50, "date": "2024-01-01", "note": "wire"}]`),
		json.RawMessage(`{"paid_amount": "25", "date": "2024-02-02", "note": "cash"}`),
		json.RawMessage(`null`),
		nil,
	}

	for _, raw := range inputs {
		entries := core.NormalizePaidAmounts(raw, true)
		if len(entries) != 1 {
			t.Fatalf("copy mode: expected exactly one entry, got %d", len(entries))
		}
		e := entries[0]
		if !e.PaidAmount.IsZero() || e.Date != nil || e.Note != "" {
			t.Errorf("copy mode: expected blank entry, got %+v", e)
		}
	}
}

func TestNormalizePaidAmounts_Shapes(t *testing.T) {
	tests := []struct {
		name string
		raw  json.RawMessage
		want []core.PaymentEntry
	}{
		{
			name: "absent",
			raw:  nil,
			want: []core.PaymentEntry{core.BlankPaymentEntry()},
		},
		{
			name: "json null",
			raw:  json.RawMessage(`null`),
			want: []core.PaymentEntry{core.BlankPaymentEntry()},
		},
		{
			name: "single object with string amount",
			raw:  json.RawMessage(`{"paid_amount": "50", "date": "2024-01-01", "note": "x"}`),
			want: []core.PaymentEntry{
				{PaidAmount: decimal.NewFromInt(50), Date: strPtr("2024-01-01"), Note: "x"},
			},
		},
		{
			name: "list with mixed amount types",
			raw: json.RawMessage(`[
				{"paid_amount": 10.5, "date": "2024-03-01", "note": "first"},
				{"paid_amount": "abc", "date": "2024-03-02", "note": "second"}
			]`),
			want: []core.PaymentEntry{
				{PaidAmount: decimal.NewFromFloat(10.5), Date: strPtr("2024-03-01"), Note: "first"},
				{PaidAmount: decimal.Zero, Date: strPtr("2024-03-02"), Note: "second"},
			},
		},
		{
			name: "unparsable date falls back to nil",
			raw:  json.RawMessage(`{"paid_amount": 5, "date": "not-a-date", "note": "n"}`),
			want: []core.PaymentEntry{
				{PaidAmount: decimal.NewFromInt(5), Date: nil, Note: "n"},
			},
		},
		{
			name: "timestamp date reformatted",
			raw:  json.RawMessage(`{"paid_amount": 5, "date": "2024-04-09T12:30:00Z", "note": "n"}`),
			want: []core.PaymentEntry{
				{PaidAmount: decimal.NewFromInt(5), Date: strPtr("2024-04-09"), Note: "n"},
			},
		},
		{
			name: "missing note defaults to empty",
			raw:  json.RawMessage(`{"paid_amount": 5, "date": "2024-04-09"}`),
			want: []core.PaymentEntry{
				{PaidAmount: decimal.NewFromInt(5), Date: strPtr("2024-04-09"), Note: ""},
			},
		},
		{
			name: "scalar garbage",
			raw:  json.RawMessage(`42`),
			want: []core.PaymentEntry{core.BlankPaymentEntry()},
		},
		{
			name: "empty list stays empty",
			raw:  json.RawMessage(`[]`),
			want: []core.PaymentEntry{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.NormalizePaidAmounts(tt.raw, false)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d entries, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if !got[i].PaidAmount.Equal(tt.want[i].PaidAmount) {
					t.Errorf("entry %d: amount %s, want %s", i, got[i].PaidAmount, tt.want[i].PaidAmount)
				}
				switch {
				case got[i].Date == nil && tt.want[i].Date != nil:
					t.Errorf("entry %d: date nil, want %s", i, *tt.want[i].Date)
				case got[i].Date != nil && tt.want[i].Date == nil:
					t.Errorf("entry %d: date %s, want nil", i, *got[i].Date)
				case got[i].Date != nil && *got[i].Date != *tt.want[i].Date:
					t.Errorf("entry %d: date %s, want %s", i, *got[i].Date, *tt.want[i].Date)
				}
				if got[i].Note != tt.want[i].Note {
					t.Errorf("entry %d: note %q, want %q", i, got[i].Note, tt.want[i].Note)
				}
			}
		})
	}
}

func TestCleanEntries(t *testing.T) {
	complete := core.PaymentEntry{PaidAmount: decimal.NewFromInt(10), Date: strPtr("2024-01-01"), Note: "x"}

	tests := []struct {
		name    string
		entries []core.PaymentEntry
		want    int
	}{
		{
			name: "each incomplete variant excluded",
			entries: []core.PaymentEntry{
				{PaidAmount: decimal.Zero, Date: strPtr("2024-01-01"), Note: "x"},
				{PaidAmount: decimal.NewFromInt(10), Date: nil, Note: "x"},
				{PaidAmount: decimal.NewFromInt(10), Date: strPtr("2024-01-01"), Note: ""},
			},
			want: 0,
		},
		{
			name:    "complete entry passes unchanged",
			entries: []core.PaymentEntry{complete},
			want:    1,
		},
		{
			name: "negative amount excluded",
			entries: []core.PaymentEntry{
				{PaidAmount: decimal.NewFromInt(-5), Date: strPtr("2024-01-01"), Note: "x"},
			},
			want: 0,
		},
		{
			name:    "mixed keeps only complete",
			entries: []core.PaymentEntry{core.BlankPaymentEntry(), complete, core.BlankPaymentEntry()},
			want:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(tt.entries)
			got := core.CleanEntries(tt.entries)
			if len(got) != tt.want {
				t.Errorf("expected %d cleaned entries, got %d", tt.want, len(got))
			}
			if len(tt.entries) != before {
				t.Errorf("input ledger was mutated")
			}
		})
	}
}

func TestDerivePaidStatus(t *testing.T) {
	tests := []struct {
		name   string
		edited string
		total  string
		want   core.PaidStatus
	}{
		{"full payment", "100", "100", core.FullyPaid},
		{"partial payment", "50", "100", core.PartiallyPaid},
		{"no payment", "0", "100", core.Unpaid},
		{"overpayment falls through to unpaid", "150", "100", core.Unpaid},
		{"zero against zero price", "0", "0", core.FullyPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edited, _ := decimal.NewFromString(tt.edited)
			total, _ := decimal.NewFromString(tt.total)
			if got := core.DerivePaidStatus(edited, total); got != tt.want {
				t.Errorf("DerivePaidStatus(%s, %s) = %d, want %d", tt.edited, tt.total, got, tt.want)
			}
		})
	}
}

func TestAppendEntry(t *testing.T) {
	ledger := []core.PaymentEntry{
		{PaidAmount: decimal.NewFromInt(10), Date: strPtr("2024-01-01"), Note: "first"},
	}

	out := core.AppendEntry(ledger)
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out))
	}
	if out[0].Note != "first" {
		t.Errorf("existing entry displaced: %+v", out[0])
	}
	last := out[len(out)-1]
	if !last.PaidAmount.IsZero() || last.Date != nil || last.Note != "" {
		t.Errorf("appended entry not blank: %+v", last)
	}
}

func TestRemoveEntry(t *testing.T) {
	ledger := []core.PaymentEntry{
		{PaidAmount: decimal.NewFromInt(1), Note: "a"},
		{PaidAmount: decimal.NewFromInt(2), Note: "b"},
		{PaidAmount: decimal.NewFromInt(3), Note: "c"},
	}

	out := core.RemoveEntry(ledger, 1)
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out))
	}
	if out[0].Note != "a" || out[1].Note != "c" {
		t.Errorf("remaining order not preserved: %+v", out)
	}

	// Out-of-range indexes are a no-op.
	if got := core.RemoveEntry(ledger, 5); len(got) != 3 {
		t.Errorf("out-of-range remove changed ledger: %d entries", len(got))
	}
	if got := core.RemoveEntry(ledger, -1); len(got) != 3 {
		t.Errorf("negative remove changed ledger: %d entries", len(got))
	}

	// The last remaining row cannot be removed.
	single := []core.PaymentEntry{core.BlankPaymentEntry()}
	if got := core.RemoveEntry(single, 0); len(got) != 1 {
		t.Errorf("last row was removed: %d entries", len(got))
	}
}
