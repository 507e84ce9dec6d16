package rendering

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/document"
	"github.com/phpdave11/gofpdf"
)

// A4 portrait geometry in millimetres
const (
	pageWidth     = 210.0
	pageHeight    = 297.0
	marginX       = 15.0
	contentWidth  = pageWidth - 2*marginX
	bandHeight    = 2.0
	stripeHeight  = 3 * bandHeight
	headerTop     = stripeHeight + 6
	footerHeight  = 14.0
	bodyBottom    = pageHeight - stripeHeight - footerHeight
	rowHeight     = 7.0
	headRowHeight = 8.0
	textRunes     = 80
	fontFamily    = "Helvetica"
	pdfProducer   = "bfse-reports"
)

// pdfEpoch stands in for a missing GeneratedAt so metadata never reads the clock
var pdfEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// PDFRenderer lays out any document tree on A4 pages with gofpdf
type PDFRenderer struct {
	theme Theme
}

// NewPDFRenderer creates a PDF renderer with the given brand theme
func NewPDFRenderer(theme Theme) *PDFRenderer {
	return &PDFRenderer{theme: theme}
}

// Format implements Renderer
func (r *PDFRenderer) Format() Format { return FormatPDF }

// Render implements Renderer. Output is uncompressed and its metadata dates
// equal doc.GeneratedAt, so equal input yields equal bytes.
func (r *PDFRenderer) Render(ctx context.Context, doc *document.Document) (*Artifact, error) {
	l := newPDFLayout(r.theme, doc)
	if err := l.run(ctx); err != nil {
		return nil, err
	}
	pages := l.pdf.PageNo()

	var buf bytes.Buffer
	if err := l.pdf.Output(&buf); err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to write PDF", err)
	}
	a := newArtifact(FormatPDF, doc, buf.Bytes())
	a.PageCount = pages
	return a, nil
}

// pdfLayout holds the running cursor of one render
type pdfLayout struct {
	pdf   *gofpdf.Fpdf
	theme Theme
	doc   *document.Document
	tr    func(string) string
	y     float64
}

func newPDFLayout(theme Theme, doc *document.Document) *pdfLayout {
	stamp := doc.GeneratedAt
	if stamp.IsZero() {
		stamp = pdfEpoch
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(stamp)
	pdf.SetModificationDate(stamp)
	pdf.SetProducer(pdfProducer, false)
	pdf.SetTitle(doc.Title, true)
	pdf.SetAuthor(doc.Organisation.Name, true)
	pdf.SetMargins(marginX, headerTop, marginX)
	pdf.SetAutoPageBreak(false, 0)

	return &pdfLayout{
		pdf:   pdf,
		theme: theme,
		doc:   doc,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (l *pdfLayout) run(ctx context.Context) error {
	l.newPage()
	for _, b := range l.doc.Blocks {
		if err := ctx.Err(); err != nil {
			return NewRenderError(ErrCodeRenderTimeout, "PDF rendering was cancelled", err)
		}
		switch n := b.(type) {
		case *document.Heading:
			l.heading(n)
		case *document.KeyValues:
			l.keyValues(n)
		case *document.Table:
			l.table(n)
		case *document.Summary:
			l.summary(n)
		case *document.Note:
			l.note(n)
		}
	}
	l.footer()

	if l.pdf.Err() {
		return NewRenderError(ErrCodeRenderFailed, "PDF layout failed", l.pdf.Error())
	}
	return nil
}

// newPage closes the current page, if any, and opens the next one with its
// stripes and header band.
func (l *pdfLayout) newPage() {
	if l.pdf.PageNo() > 0 {
		l.footer()
	}
	l.pdf.AddPage()
	l.stripe(0)
	l.stripe(pageHeight - stripeHeight)
	l.header()
}

// ensure starts a new page when h more millimetres would cross the body
// bottom. It reports whether a page break happened.
func (l *pdfLayout) ensure(h float64) bool {
	if l.y+h <= bodyBottom {
		return false
	}
	l.newPage()
	return true
}

func (l *pdfLayout) stripe(y float64) {
	for i, c := range l.theme.Stripe {
		l.pdf.SetFillColor(c.R, c.G, c.B)
		l.pdf.Rect(0, y+float64(i)*bandHeight, pageWidth, bandHeight, "F")
	}
}

func (l *pdfLayout) font(style string, size float64, c RGB) {
	l.pdf.SetFont(fontFamily, style, size)
	l.pdf.SetTextColor(c.R, c.G, c.B)
}

func (l *pdfLayout) cell(x, w, h float64, text, border, align string, fill bool) {
	l.pdf.SetXY(x, l.y)
	l.pdf.CellFormat(w, h, text, border, 0, align, fill, 0, "")
}

func (l *pdfLayout) header() {
	org := l.doc.Organisation
	const leftW, rightW = 110.0, 70.0
	rightX := pageWidth - marginX - rightW

	l.y = headerTop
	l.font("B", 14, l.theme.Accent)
	l.cell(marginX, leftW, 7, l.fit(org.Name, leftW, textRunes), "", "L", false)
	l.font("B", 16, l.theme.Accent)
	l.cell(rightX, rightW, 7, l.fit(strings.ToUpper(l.doc.Title), rightW, textRunes), "", "R", false)

	l.y += 7
	l.font("", 9, l.theme.Muted)
	if org.Address != "" {
		l.cell(marginX, leftW, 5, l.fit(org.Address, leftW, textRunes), "", "L", false)
	}
	if l.doc.Subtitle != "" {
		l.cell(rightX, rightW, 5, l.fit(l.doc.Subtitle, rightW, textRunes), "", "R", false)
	}
	l.y += 5
	if contact := org.ContactLine(); contact != "" {
		l.cell(marginX, leftW, 5, l.fit(contact, leftW, textRunes), "", "L", false)
	}

	l.y += 7
	l.pdf.SetDrawColor(l.theme.Accent.R, l.theme.Accent.G, l.theme.Accent.B)
	l.pdf.SetLineWidth(0.4)
	l.pdf.Line(marginX, l.y, pageWidth-marginX, l.y)
	l.y += 4
}

func (l *pdfLayout) footer() {
	const colW = contentWidth / 3
	y := bodyBottom + 4
	band := l.theme.Stripe[0]
	l.pdf.SetDrawColor(band.R, band.G, band.B)
	l.pdf.SetLineWidth(0.2)
	l.pdf.Line(marginX, y, pageWidth-marginX, y)

	text := l.doc.Footer
	if text == "" {
		text = l.doc.Organisation.Name
	}

	saved := l.y
	l.y = y + 1.5
	l.font("", 8, l.theme.Muted)
	l.cell(marginX, colW, 5, l.fit(text, colW, textRunes), "", "L", false)
	l.cell(marginX+colW, colW, 5, l.tr(l.doc.GeneratedOn()), "", "C", false)
	l.cell(marginX+2*colW, colW, 5, "Page "+strconv.Itoa(l.pdf.PageNo()), "", "R", false)
	l.y = saved
}

func (l *pdfLayout) heading(h *document.Heading) {
	l.ensure(11)
	l.y += 2
	l.font("B", 11, l.theme.Accent)
	l.cell(marginX, contentWidth, 7, l.fit(h.Text, contentWidth, textRunes), "", "L", false)
	l.y += 7
	l.pdf.SetDrawColor(l.theme.TotalFill.R, l.theme.TotalFill.G, l.theme.TotalFill.B)
	l.pdf.SetLineWidth(0.3)
	l.pdf.Line(marginX, l.y, pageWidth-marginX, l.y)
	l.y += 2
}

func (l *pdfLayout) keyValues(kv *document.KeyValues) {
	const half = contentWidth / 2
	const labelW = 32.0
	const valueW = half - labelW
	for i := 0; i < len(kv.Pairs); i += 2 {
		l.ensure(6)
		for j := 0; j < 2 && i+j < len(kv.Pairs); j++ {
			pair := kv.Pairs[i+j]
			x := marginX + float64(j)*half
			l.font("", 9, l.theme.Muted)
			l.cell(x, labelW, 6, l.fit(pair.Label+":", labelW, textRunes), "", "L", false)
			l.font("B", 9, l.theme.Text)
			l.cell(x+labelW, valueW, 6, l.fit(pair.Value, valueW, textRunes), "", "L", false)
		}
		l.y += 6
	}
	l.y += 3
}

func (l *pdfLayout) table(t *document.Table) {
	widths := columnWidths(t.Columns, contentWidth)
	l.ensure(headRowHeight + rowHeight)
	l.tableHeader(t.Columns, widths)
	for i, row := range t.Rows {
		if l.ensure(rowHeight) {
			l.tableHeader(t.Columns, widths)
		}
		l.tableRow(t.Columns, widths, row, i%2 == 1, false)
	}
	if t.HasTotal() {
		if l.ensure(rowHeight) {
			l.tableHeader(t.Columns, widths)
		}
		l.tableRow(t.Columns, widths, t.Total, false, true)
	}
	l.y += 4
}

func (l *pdfLayout) tableHeader(cols []document.Column, widths []float64) {
	l.pdf.SetFillColor(l.theme.Accent.R, l.theme.Accent.G, l.theme.Accent.B)
	l.font("B", 9, RGB{255, 255, 255})
	x := marginX
	for i, w := range widths {
		l.cell(x, w, headRowHeight, l.fit(cols[i].Title, w, document.MaxCellRunes), "", alignOf(cols[i]), true)
		x += w
	}
	l.y += headRowHeight
}

func (l *pdfLayout) tableRow(cols []document.Column, widths []float64, cells []string, shaded, total bool) {
	style, border, fill := "", "", shaded
	switch {
	case total:
		style, border, fill = "B", "T", true
		l.pdf.SetFillColor(l.theme.TotalFill.R, l.theme.TotalFill.G, l.theme.TotalFill.B)
		l.pdf.SetDrawColor(l.theme.Accent.R, l.theme.Accent.G, l.theme.Accent.B)
		l.pdf.SetLineWidth(0.3)
	case shaded:
		l.pdf.SetFillColor(l.theme.Shade.R, l.theme.Shade.G, l.theme.Shade.B)
	}
	l.font(style, 9, l.theme.Text)

	x := marginX
	for i, w := range widths {
		var value string
		if i < len(cells) {
			value = cells[i]
		}
		l.cell(x, w, rowHeight, l.fit(value, w, document.MaxCellRunes), border, alignOf(cols[i]), fill)
		x += w
	}
	l.y += rowHeight
}

func (l *pdfLayout) summary(s *document.Summary) {
	const labelW, valueW = 50.0, 45.0
	x := pageWidth - marginX - labelW - valueW
	for _, line := range s.Lines {
		h, style, size := 6.0, "", 10.0
		if line.Emphasis {
			h, style, size = 8.0, "B", 11.0
		}
		l.ensure(h)
		l.pdf.SetFillColor(l.theme.TotalFill.R, l.theme.TotalFill.G, l.theme.TotalFill.B)
		l.font(style, size, l.theme.Text)
		l.cell(x, labelW, h, l.fit(line.Label, labelW, textRunes), "", "L", line.Emphasis)
		l.cell(x+labelW, valueW, h, l.fit(line.Value, valueW, textRunes), "", "R", line.Emphasis)
		l.y += h
	}
	l.y += 3
}

func (l *pdfLayout) note(n *document.Note) {
	const lineH = 5.0
	l.font("I", 9, l.theme.Muted)
	lines := l.pdf.SplitLines([]byte(l.tr(n.Text)), contentWidth)
	for _, line := range lines {
		if l.ensure(lineH) {
			l.font("I", 9, l.theme.Muted)
		}
		l.cell(marginX, contentWidth, lineH, string(line), "", "L", false)
		l.y += lineH
	}
	l.y += 2
}

// fit truncates s to maxRunes and then further until it fits width at the
// current font. The result is already translated to the PDF code page.
func (l *pdfLayout) fit(s string, width float64, maxRunes int) string {
	limit := utf8.RuneCountInString(s)
	if limit > maxRunes {
		limit = maxRunes
	}
	out := l.tr(document.Truncate(s, limit))
	for limit > 4 && l.pdf.GetStringWidth(out) > width-2 {
		limit--
		out = l.tr(document.Truncate(s, limit))
	}
	return out
}

func columnWidths(cols []document.Column, total float64) []float64 {
	sum := 0.0
	weights := make([]float64, len(cols))
	for i, c := range cols {
		w := c.Weight
		if w <= 0 {
			w = 1
		}
		weights[i] = w
		sum += w
	}
	widths := make([]float64, len(cols))
	for i, w := range weights {
		widths[i] = total * w / sum
	}
	return widths
}

func alignOf(c document.Column) string {
	if c.Align == "" {
		return string(document.AlignLeft)
	}
	return string(c.Align)
}
