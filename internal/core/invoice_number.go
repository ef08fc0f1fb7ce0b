package core

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
)

// invoiceDateStamp is the date segment embedded in invoice references (ddMMyyyy).
const invoiceDateStamp = "02012006"

// InvoiceCounter reports how many invoices already exist for a client on a
// given day. The date is passed pre-formatted as ddMMyyyy, matching the stamp
// embedded in the reference itself.
type InvoiceCounter interface {
	CountInvoicesByDate(ctx context.Context, dateStamp string, clientID int64, clientName string) (int, error)
}

// InvoiceNumberGenerator derives a human-readable invoice reference from
// client initials, a day stamp, and the count of same-day invoices for that
// client.
type InvoiceNumberGenerator struct {
	counter InvoiceCounter
	log     *zap.SugaredLogger
	now     func() time.Time
}

func NewInvoiceNumberGenerator(counter InvoiceCounter, log *zap.SugaredLogger) *InvoiceNumberGenerator {
	return &InvoiceNumberGenerator{counter: counter, log: log, now: time.Now}
}

// ClientInitials returns the uppercased first letters of the first two words
// of name: "Acme Corp" gives "AC", "Acme" gives "A", "" gives "".
func ClientInitials(name string) string {
	if name == "" {
		return ""
	}
	words := strings.Split(name, " ")
	var b strings.Builder
	if first := []rune(words[0]); len(first) > 0 {
		b.WriteRune(unicode.ToUpper(first[0]))
	}
	if len(words) > 1 {
		if second := []rune(words[1]); len(second) > 0 {
			b.WriteRune(unicode.ToUpper(second[0]))
		}
	}
	return b.String()
}

// Generate builds the invoice reference. The count lookup is best effort: a
// failed query is logged and numbering proceeds as if the count were zero, so
// the caller always gets a usable reference.
//
// In update mode the counter segment is always omitted, since editing an
// existing invoice must not change its reference pattern.
func (g *InvoiceNumberGenerator) Generate(ctx context.Context, clientName string, clientID int64, invoiceDate *time.Time, isUpdate bool) string {
	initials := ClientInitials(clientName)

	stamp := g.now().Format(invoiceDateStamp)
	if invoiceDate != nil {
		stamp = invoiceDate.Format(invoiceDateStamp)
	}

	count := 0
	if g.counter != nil {
		n, err := g.counter.CountInvoicesByDate(ctx, stamp, clientID, clientName)
		if err != nil {
			g.log.Warnw("invoice count lookup failed, numbering without counter",
				"client_id", clientID, "date", stamp, "error", err)
		} else {
			count = n
		}
	}

	if isUpdate {
		return fmt.Sprintf("%s/%s", initials, stamp)
	}
	if count > 0 {
		return fmt.Sprintf("%s/%d/%s", initials, count+1, stamp)
	}
	return fmt.Sprintf("%s/%s", initials, stamp)
}
