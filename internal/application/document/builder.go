package document

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	domain "github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/document"
	"github.com/shopspring/decimal"
)

const defaultThanks = "Thank you for your business!"

// Builder turns request payloads into document trees. It owns every
// per-type layout decision; renderers only see the tree.
type Builder struct {
	org    domain.Organisation
	format domain.Formatter
	footer string
}

// NewBuilder creates a builder using org when a payload carries no organisation
func NewBuilder(org domain.Organisation, format domain.Formatter, footer string) *Builder {
	return &Builder{org: org, format: format, footer: footer}
}

// Formatter returns the value formatter shared with report documents
func (b *Builder) Formatter() domain.Formatter {
	return b.format
}

// Organisation returns the default organisation
func (b *Builder) Organisation() domain.Organisation {
	return b.org
}

func (b *Builder) newDocument(kind domain.Kind, title string, org *domain.Organisation, now time.Time) *domain.Document {
	o := b.org
	if org != nil && org.Name != "" {
		o = *org
	}
	return &domain.Document{
		Kind:         kind,
		Title:        title,
		Organisation: o,
		Footer:       b.footer,
		GeneratedAt:  now,
	}
}

func (b *Builder) money(v decimal.Decimal) string {
	return b.format.Money(v)
}

// Receipt builds a sale receipt
func (b *Builder) Receipt(p ReceiptPayload, now time.Time) *domain.Document {
	doc := b.newDocument(domain.KindReceipt, "Receipt", p.Organisation, now)
	doc.Subtitle = p.SaleNumber
	doc.Filename = "Receipt-" + domain.SanitizeFilename(p.SaleNumber)

	date := p.Date.Time
	if date.IsZero() {
		date = now
	}
	doc.Add(&domain.KeyValues{Pairs: nonEmpty(
		domain.Pair{Label: "Receipt No", Value: p.SaleNumber},
		domain.Pair{Label: "Date", Value: b.format.Date(date)},
		domain.Pair{Label: "Customer", Value: orDefault(p.CustomerName, "Walk-in Customer")},
		domain.Pair{Label: "Payment", Value: titleCase(p.PaymentMethod)},
		domain.Pair{Label: "Cashier", Value: p.CashierName},
		domain.Pair{Label: "Location", Value: p.Location},
	)})

	subtotal := sumItems(p.Items)
	total := p.TotalAmount
	if total.IsZero() {
		total = subtotal.Sub(p.Discount).Add(p.Tax)
	}
	doc.Add(b.itemsTable(p.Items, total))

	if !p.Subtotal.IsZero() {
		subtotal = p.Subtotal
	}
	var lines []domain.SummaryLine
	if !p.Discount.IsZero() || !p.Tax.IsZero() {
		lines = append(lines, domain.SummaryLine{Label: "Subtotal", Value: b.money(subtotal)})
		if !p.Discount.IsZero() {
			lines = append(lines, domain.SummaryLine{Label: "Discount", Value: "-" + b.money(p.Discount)})
		}
		if !p.Tax.IsZero() {
			lines = append(lines, domain.SummaryLine{Label: "Tax", Value: b.money(p.Tax)})
		}
	}
	if !p.AmountPaid.IsZero() {
		lines = append(lines, domain.SummaryLine{Label: "Amount Paid", Value: b.money(p.AmountPaid)})
		change := p.ChangeGiven
		if change.IsZero() && p.AmountPaid.GreaterThan(total) {
			change = p.AmountPaid.Sub(total)
		}
		lines = append(lines, domain.SummaryLine{Label: "Change", Value: b.money(change)})
	}
	if len(lines) > 0 {
		doc.Add(&domain.Summary{Lines: lines})
	}
	doc.Add(&domain.Note{Text: orDefault(p.Notes, defaultThanks)})
	return doc
}

// Invoice builds a customer invoice
func (b *Builder) Invoice(p InvoicePayload, now time.Time) *domain.Document {
	doc := b.newDocument(domain.KindInvoice, "Invoice", p.Organisation, now)
	doc.Subtitle = p.InvoiceNumber
	doc.Filename = "Invoice-" + domain.SanitizeFilename(p.InvoiceNumber)

	date := p.Date.Time
	if date.IsZero() {
		date = now
	}
	doc.Add(&domain.KeyValues{Pairs: nonEmpty(
		domain.Pair{Label: "Invoice No", Value: p.InvoiceNumber},
		domain.Pair{Label: "Date", Value: b.format.Date(date)},
		domain.Pair{Label: "Due Date", Value: b.format.Date(p.DueDate.Time)},
		domain.Pair{Label: "Status", Value: titleCase(p.Status)},
	)})
	doc.Add(&domain.Heading{Text: "Bill To"})
	doc.Add(&domain.KeyValues{Pairs: nonEmpty(
		domain.Pair{Label: "Customer", Value: p.CustomerName},
		domain.Pair{Label: "Email", Value: p.CustomerEmail},
		domain.Pair{Label: "Phone", Value: p.CustomerPhone},
		domain.Pair{Label: "Address", Value: p.CustomerAddress},
	)})

	subtotal := sumItems(p.Items)
	if !p.Subtotal.IsZero() {
		subtotal = p.Subtotal
	}
	total := p.TotalAmount
	if total.IsZero() {
		total = subtotal.Sub(p.Discount).Add(p.Tax)
	}
	doc.Add(b.itemsTable(p.Items, total))

	lines := []domain.SummaryLine{{Label: "Subtotal", Value: b.money(subtotal)}}
	if !p.Discount.IsZero() {
		lines = append(lines, domain.SummaryLine{Label: "Discount", Value: "-" + b.money(p.Discount)})
	}
	if !p.Tax.IsZero() {
		lines = append(lines, domain.SummaryLine{Label: "Tax", Value: b.money(p.Tax)})
	}
	lines = append(lines, domain.SummaryLine{Label: "Total", Value: b.money(total), Emphasis: true})
	if !p.AmountPaid.IsZero() {
		lines = append(lines,
			domain.SummaryLine{Label: "Amount Paid", Value: b.money(p.AmountPaid)},
			domain.SummaryLine{Label: "Balance Due", Value: b.money(total.Sub(p.AmountPaid)), Emphasis: true},
		)
	}
	doc.Add(&domain.Summary{Lines: lines})
	doc.Add(&domain.Note{Text: orDefault(p.Notes, defaultThanks)})
	return doc
}

// Payslip builds an employee payslip
func (b *Builder) Payslip(p PayslipPayload, now time.Time) *domain.Document {
	doc := b.newDocument(domain.KindPayslip, "Payslip", p.Organisation, now)

	period := p.Period
	if period == "" && !p.PeriodStart.IsZero() {
		period = b.format.Date(p.PeriodStart.Time)
		if !p.PeriodEnd.IsZero() {
			period += " - " + b.format.Date(p.PeriodEnd.Time)
		}
	}
	doc.Subtitle = period
	doc.Filename = "Payslip-" + domain.SanitizeFilename(p.EmployeeName)
	if p.Period != "" {
		doc.Filename += "-" + domain.SanitizeFilename(p.Period)
	}

	doc.Add(&domain.KeyValues{Pairs: nonEmpty(
		domain.Pair{Label: "Employee", Value: p.EmployeeName},
		domain.Pair{Label: "Employee ID", Value: p.EmployeeCode},
		domain.Pair{Label: "Department", Value: p.Department},
		domain.Pair{Label: "Position", Value: p.Position},
		domain.Pair{Label: "Pay Period", Value: period},
		domain.Pair{Label: "Payment Date", Value: b.format.Date(p.PaymentDate.Time)},
	)})

	earnings := append([]PayItem{{Name: "Basic Salary", Amount: p.BaseSalary}}, p.Allowances...)
	gross := p.GrossPay
	if gross.IsZero() {
		gross = sumPay(earnings)
	}
	deductions := p.TotalDeductions
	if deductions.IsZero() {
		deductions = sumPay(p.Deductions)
	}
	net := p.NetPay
	if net.IsZero() {
		net = gross.Sub(deductions)
	}

	doc.Add(&domain.Heading{Text: "Earnings"})
	doc.Add(b.payTable(earnings, "GROSS PAY", gross))
	if len(p.Deductions) > 0 {
		doc.Add(&domain.Heading{Text: "Deductions"})
		doc.Add(b.payTable(p.Deductions, "TOTAL DEDUCTIONS", deductions))
	}
	doc.Add(&domain.Summary{Lines: []domain.SummaryLine{
		{Label: "Gross Pay", Value: b.money(gross)},
		{Label: "Total Deductions", Value: "-" + b.money(deductions)},
		{Label: "Net Pay", Value: b.money(net), Emphasis: true},
	}})
	if p.Notes != "" {
		doc.Add(&domain.Note{Text: p.Notes})
	}
	return doc
}

// Report builds a free-form tabular report
func (b *Builder) Report(p ReportPayload, now time.Time) *domain.Document {
	doc := b.newDocument(domain.KindReport, p.Title, p.Organisation, now)
	doc.Subtitle = orDefault(p.Period, p.Subtitle)
	doc.Filename = domain.SanitizeFilename(p.Title)

	if len(p.Summary) > 0 {
		pairs := make([]domain.Pair, 0, len(p.Summary))
		for _, s := range p.Summary {
			value := scalarString(s.Value)
			if d, ok := toDecimal(s.Value); ok && s.Money {
				value = b.money(d)
			}
			pairs = append(pairs, domain.Pair{Label: s.Label, Value: value})
		}
		doc.Add(&domain.Heading{Text: "Summary"}, &domain.KeyValues{Pairs: pairs})
	}

	if len(p.Columns) > 0 {
		doc.Add(b.reportTable(p))
	}
	if p.Notes != "" {
		doc.Add(&domain.Note{Text: p.Notes})
	}
	return doc
}

func (b *Builder) itemsTable(items []LineItem, total decimal.Decimal) *domain.Table {
	t := &domain.Table{
		Columns: []domain.Column{
			{Title: "Item", Weight: 3},
			{Title: "Qty", Weight: 1, Align: domain.AlignRight},
			{Title: "Unit Price", Weight: 1.6, Align: domain.AlignRight},
			{Title: "Total", Weight: 1.6, Align: domain.AlignRight},
		},
	}
	for _, it := range items {
		line := it.LineTotal()
		t.Rows = append(t.Rows, []string{it.ProductName, b.format.Quantity(it.Quantity), b.money(it.UnitPrice), b.money(line)})
		t.PlainRows = append(t.PlainRows, []string{it.ProductName, it.Quantity.String(), it.UnitPrice.String(), line.String()})
	}
	t.Total = []string{"TOTAL", "", "", b.money(total)}
	t.PlainTotal = []string{"TOTAL", "", "", total.String()}
	return t
}

func (b *Builder) payTable(items []PayItem, label string, total decimal.Decimal) *domain.Table {
	t := &domain.Table{
		Columns: []domain.Column{
			{Title: "Description", Weight: 3},
			{Title: "Amount", Weight: 1.5, Align: domain.AlignRight},
		},
	}
	for _, it := range items {
		t.Rows = append(t.Rows, []string{it.Name, b.money(it.Amount)})
		t.PlainRows = append(t.PlainRows, []string{it.Name, it.Amount.String()})
	}
	t.Total = []string{label, b.money(total)}
	t.PlainTotal = []string{label, total.String()}
	return t
}

func (b *Builder) reportTable(p ReportPayload) *domain.Table {
	t := &domain.Table{}
	sums := make([]decimal.Decimal, len(p.Columns))
	numeric := false
	for _, c := range p.Columns {
		col := domain.Column{Title: orDefault(c.Label, humanize(c.Key)), Weight: c.Weight}
		if c.Type == "money" || c.Type == "number" {
			col.Align = domain.AlignRight
			numeric = true
		}
		t.Columns = append(t.Columns, col)
	}

	for _, row := range p.Rows {
		cells := make([]string, len(p.Columns))
		plain := make([]string, len(p.Columns))
		for i, c := range p.Columns {
			v := row[c.Key]
			switch c.Type {
			case "money", "number":
				d, _ := toDecimal(v)
				sums[i] = sums[i].Add(d)
				plain[i] = d.String()
				cells[i] = d.String()
				if c.Type == "money" {
					cells[i] = b.money(d)
				}
			case "date":
				cells[i] = b.dateValue(v)
				plain[i] = cells[i]
			default:
				cells[i] = scalarString(v)
				plain[i] = cells[i]
			}
		}
		t.Rows = append(t.Rows, cells)
		t.PlainRows = append(t.PlainRows, plain)
	}

	showTotals := numeric
	if p.ShowTotals != nil {
		showTotals = *p.ShowTotals
	}
	if showTotals && len(p.Columns) > 0 {
		t.Total = make([]string, len(p.Columns))
		t.PlainTotal = make([]string, len(p.Columns))
		for i, c := range p.Columns {
			switch c.Type {
			case "money":
				t.Total[i] = b.money(sums[i])
				t.PlainTotal[i] = sums[i].String()
			case "number":
				t.Total[i] = sums[i].String()
				t.PlainTotal[i] = sums[i].String()
			}
		}
		t.Total[0] = "TOTAL"
		t.PlainTotal[0] = "TOTAL"
	}
	return t
}

func (b *Builder) dateValue(v any) string {
	s := scalarString(v)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return b.format.Date(t)
		}
	}
	return s
}

func sumItems(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

func sumPay(items []PayItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	return total
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	case decimal.Decimal:
		return n, true
	}
	return decimal.Zero, false
}

func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return decimal.NewFromFloat(s).String()
	case bool:
		if s {
			return "Yes"
		}
		return "No"
	}
	return fmt.Sprint(v)
}

func nonEmpty(pairs ...domain.Pair) []domain.Pair {
	out := pairs[:0]
	for _, p := range pairs {
		if strings.TrimSpace(p.Value) != "" {
			out = append(out, p)
		}
	}
	return out
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// humanize turns "total_amount" into "Total Amount"
func humanize(key string) string {
	return titleCase(strings.ReplaceAll(key, "_", " "))
}

func titleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[:1])) + string(r[1:])
	}
	return strings.Join(words, " ")
}
