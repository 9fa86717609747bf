package cart

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	DefaultScheme   = "https://wa.me"
	DefaultCurrency = "ل.س"
	timestampLayout = "2006-01-02 15:04"
)

type labels struct {
	header    string
	date      string
	option    string
	notes     string
	subtotal  string
	separator string
	total     string
	thanks    string
}

var messageLabels = map[string]labels{
	"ar": {
		header:    "*مرحباً، أود طلب ما يلي:*",
		date:      "التاريخ",
		option:    "الخيار",
		notes:     "ملاحظات",
		subtotal:  "السعر",
		separator: "*------------------*",
		total:     "المجموع الكلي",
		thanks:    "شكراً!",
	},
	"en": {
		header:    "*Hello, I would like to order:*",
		date:      "Date",
		option:    "Option",
		notes:     "Notes",
		subtotal:  "Price",
		separator: "*------------------*",
		total:     "Total",
		thanks:    "Thank you!",
	},
}

// Formatter renders a cart into a checkout message and deep link.
type Formatter struct {
	Scheme   string
	Currency string
	Lang     string
	Now      func() time.Time
	// Location, when set, is the zone the order timestamp is printed in.
	Location *time.Location

	printer *message.Printer
}

// NewFormatter returns a Formatter for lang ("ar" or "en"; anything else
// falls back to Arabic labels).
func NewFormatter(lang string) *Formatter {
	if _, ok := messageLabels[lang]; !ok {
		lang = "ar"
	}
	return &Formatter{
		Scheme:   DefaultScheme,
		Currency: DefaultCurrency,
		Lang:     lang,
		Now:      time.Now,

		// Latin digits with comma grouping regardless of label language.
		printer: message.NewPrinter(language.English),
	}
}

// FormatAmount renders an amount with thousands grouping.
func (f *Formatter) FormatAmount(v float64) string {
	p := f.numberPrinter()
	if v == float64(int64(v)) {
		return p.Sprintf("%d", int64(v))
	}
	return p.Sprintf("%.2f", v)
}

func (f *Formatter) numberPrinter() *message.Printer {
	if f.printer == nil {
		f.printer = message.NewPrinter(language.English)
	}
	return f.printer
}

// Message renders the order summary as plain text. An empty cart yields "".
func (f *Formatter) Message(s *Store) string {
	if s == nil || s.IsEmpty() {
		return ""
	}

	l := messageLabels[f.Lang]
	if l.header == "" {
		l = messageLabels["ar"]
	}
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}

	ts := now()
	if f.Location != nil {
		ts = ts.In(f.Location)
	}

	var b strings.Builder
	b.WriteString(l.header + "\n")
	b.WriteString(l.date + ": " + ts.Format(timestampLayout) + "\n\n")

	for _, line := range s.Items() {
		b.WriteString("*" + strconv.Itoa(line.Quantity) + "x " + line.Name + "*\n")
		if line.SelectedOption != nil && line.SelectedOption.Name != "" {
			b.WriteString("  " + l.option + ": " + line.SelectedOption.Name + "\n")
		}
		if notes := strings.TrimSpace(line.Notes); notes != "" {
			b.WriteString("  " + l.notes + ": " + line.Notes + "\n")
		}
		subtotal := line.Price * float64(line.Quantity)
		b.WriteString("  " + l.subtotal + ": " + f.FormatAmount(subtotal) + " " + f.Currency + "\n\n")
	}

	b.WriteString(l.separator + "\n")
	b.WriteString("*" + l.total + ": " + f.FormatAmount(s.TotalPrice()) + " " + f.Currency + "*\n")
	b.WriteString(l.thanks)
	return b.String()
}

// Link builds the messaging deep link for phone. The whole message body is
// escaped once. An empty cart yields "".
func (f *Formatter) Link(s *Store, phone string) string {
	msg := f.Message(s)
	if msg == "" {
		return ""
	}
	scheme := strings.TrimSuffix(f.Scheme, "/")
	if scheme == "" {
		scheme = DefaultScheme
	}
	return scheme + "/" + phone + "?text=" + EscapeMessage(msg)
}

// EscapeMessage percent-encodes a message body for a query string, using
// %20 for spaces so the link survives clients that do not decode '+'.
func EscapeMessage(msg string) string {
	return strings.ReplaceAll(url.QueryEscape(msg), "+", "%20")
}
