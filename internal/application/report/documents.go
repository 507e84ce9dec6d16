package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/document"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/report"
	"github.com/shopspring/decimal"
)

// DocumentBuilder lays out aggregated summaries as document trees
type DocumentBuilder struct {
	org    document.Organisation
	format document.Formatter
	footer string
}

// NewDocumentBuilder creates a new DocumentBuilder
func NewDocumentBuilder(org document.Organisation, format document.Formatter, footer string) *DocumentBuilder {
	return &DocumentBuilder{org: org, format: format, footer: footer}
}

func (b *DocumentBuilder) newDocument(title string, rng report.DateRange, now time.Time) *document.Document {
	name := document.SanitizeFilename(title) + "-" + rng.Start.Format("2006-01-02") + "_" + rng.End.Format("2006-01-02")
	return &document.Document{
		Kind:         document.KindReport,
		Title:        title,
		Subtitle:     rng.Label(),
		Organisation: b.org,
		Footer:       b.footer,
		GeneratedAt:  now,
		Filename:     name,
	}
}

// Summary builds a report with the record table first, followed by the
// breakdown. The record table is the one tabular formats export.
func (b *DocumentBuilder) Summary(def report.ReportDefinition, s report.Summary, title string, now time.Time) *document.Document {
	if title == "" {
		title = def.Title
	}
	doc := b.newDocument(title, s.Range, now)
	doc.Add(&document.KeyValues{Pairs: []document.Pair{
		{Label: "Period", Value: s.Range.Label()},
		{Label: "Records", Value: strconv.Itoa(s.Count)},
		{Label: "Total", Value: b.format.Money(s.Primary)},
		{Label: "Average", Value: b.format.Money(s.Average)},
	}})

	doc.Add(&document.Heading{Text: "Records"}, b.recordTable(def, s))

	if len(s.Breakdown) > 0 {
		doc.Add(
			&document.Heading{Text: "By " + humanize(s.GroupBy)},
			b.breakdownTable(humanize(s.GroupBy), s.Breakdown, s.Primary),
		)
	}
	return doc
}

func (b *DocumentBuilder) recordTable(def report.ReportDefinition, s report.Summary) *document.Table {
	t := &document.Table{}
	for _, c := range def.Columns {
		col := document.Column{Title: c.Title, Weight: c.Weight}
		if c.Kind == report.ColumnMoney {
			col.Align = document.AlignRight
		}
		t.Columns = append(t.Columns, col)
	}

	totals := make([]decimal.Decimal, len(def.Columns))
	for _, r := range s.Records {
		row := make([]string, len(def.Columns))
		plain := make([]string, len(def.Columns))
		for i, c := range def.Columns {
			switch c.Kind {
			case report.ColumnDate:
				row[i] = b.format.Date(r.Date)
				plain[i] = r.Date.Format("2006-01-02")
			case report.ColumnMoney:
				v := r.Amount(c.Key)
				totals[i] = totals[i].Add(v)
				row[i] = b.format.Money(v)
				plain[i] = v.String()
			default:
				row[i] = r.Label(c.Key)
				plain[i] = row[i]
			}
		}
		t.Rows = append(t.Rows, row)
		t.PlainRows = append(t.PlainRows, plain)
	}

	t.Total = make([]string, len(def.Columns))
	t.PlainTotal = make([]string, len(def.Columns))
	for i, c := range def.Columns {
		if c.Kind == report.ColumnMoney {
			t.Total[i] = b.format.Money(totals[i])
			t.PlainTotal[i] = totals[i].String()
		}
	}
	t.Total[0], t.PlainTotal[0] = "TOTAL", "TOTAL"
	return t
}

func (b *DocumentBuilder) breakdownTable(label string, items []report.CategoryTotal, total decimal.Decimal) *document.Table {
	t := &document.Table{Columns: []document.Column{
		{Title: label, Weight: 2.5},
		{Title: "Count", Weight: 1, Align: document.AlignRight},
		{Title: "Total", Weight: 1.5, Align: document.AlignRight},
		{Title: "Share", Weight: 1, Align: document.AlignRight},
	}}
	count := 0
	for _, it := range items {
		count += it.Count
		t.Rows = append(t.Rows, []string{it.Label, strconv.Itoa(it.Count), b.format.Money(it.Total), it.Share.StringFixed(2) + "%"})
		t.PlainRows = append(t.PlainRows, []string{it.Label, strconv.Itoa(it.Count), it.Total.String(), it.Share.StringFixed(2)})
	}
	share := report.Percentage(total, total).StringFixed(2)
	t.Total = []string{"TOTAL", strconv.Itoa(count), b.format.Money(total), share + "%"}
	t.PlainTotal = []string{"TOTAL", strconv.Itoa(count), total.String(), share}
	return t
}

// Consolidated builds the profit-and-loss statement
func (b *DocumentBuilder) Consolidated(c report.ConsolidatedSummary, title string, now time.Time) *document.Document {
	if title == "" {
		title = "Consolidated Report"
	}
	doc := b.newDocument(title, c.Range, now)
	doc.Add(&document.KeyValues{Pairs: []document.Pair{
		{Label: "Period", Value: c.Range.Label()},
		{Label: "Sales", Value: strconv.Itoa(c.SalesCount)},
		{Label: "Trips", Value: strconv.Itoa(c.TripCount)},
	}})

	t := &document.Table{Columns: []document.Column{
		{Title: "Line", Weight: 3},
		{Title: "Amount", Weight: 1.5, Align: document.AlignRight},
	}}
	add := func(label string, v decimal.Decimal) {
		t.Rows = append(t.Rows, []string{label, b.format.Money(v)})
		t.PlainRows = append(t.PlainRows, []string{label, v.String()})
	}
	for _, l := range c.Revenue {
		add("Revenue: "+l.Label, l.Amount)
	}
	add("Total Revenue", c.TotalRevenue)
	for _, l := range c.Costs {
		add("Cost: "+l.Label, l.Amount)
	}
	add("Total Costs", c.TotalCosts)
	t.Total = []string{"NET PROFIT", b.format.Money(c.NetProfit)}
	t.PlainTotal = []string{"NET PROFIT", c.NetProfit.String()}
	doc.Add(&document.Heading{Text: "Profit and Loss"}, t)

	doc.Add(&document.Summary{Lines: []document.SummaryLine{
		{Label: "Total Revenue", Value: b.format.Money(c.TotalRevenue)},
		{Label: "Total Costs", Value: b.format.Money(c.TotalCosts)},
		{Label: "Net Profit", Value: b.format.Money(c.NetProfit), Emphasis: true},
		{Label: "Profit Margin", Value: c.ProfitMargin.StringFixed(2) + "%"},
	}})

	if len(c.ExpenseBreakdown) > 0 {
		doc.Add(
			&document.Heading{Text: "Expenses by Category"},
			b.breakdownTable("Category", c.ExpenseBreakdown, c.Expenses),
		)
	}
	return doc
}

// humanize turns "payment_method" into "Payment Method"
func humanize(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
