// Package document models rendered business documents as a declarative tree.
// Renderers walk the tree; nothing here knows about coordinates or pages.
package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
)

// Kind is the document type requested by callers
type Kind string

const (
	KindReceipt Kind = "receipt"
	KindInvoice Kind = "invoice"
	KindPayslip Kind = "payslip"
	KindReport  Kind = "report"
)

// ErrInvalidDocumentType is returned for an unrecognised document type
var ErrInvalidDocumentType = shared.InvalidInput("Invalid document type")

// ParseKind validates a document type
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindReceipt, KindInvoice, KindPayslip, KindReport:
		return k, nil
	}
	return "", ErrInvalidDocumentType
}

// Organisation is printed in the header band
type Organisation struct {
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address,omitempty" yaml:"address"`
	Phone   string `json:"phone,omitempty" yaml:"phone"`
	Email   string `json:"email,omitempty" yaml:"email"`
}

// ContactLine joins the phone and email for the header band
func (o Organisation) ContactLine() string {
	var parts []string
	for _, p := range []string{o.Phone, o.Email} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " | ")
}

// Align is the horizontal alignment of a table column
type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
	AlignRight  Align = "R"
)

// Block is a node of the document body
type Block interface {
	blockKind() string
}

// Heading is a section title
type Heading struct {
	Text string
}

// Pair is a label/value line
type Pair struct {
	Label string
	Value string
}

// KeyValues lays out labelled values in two columns
type KeyValues struct {
	Pairs []Pair
}

// Column is a table column. Weight sets its share of the available width.
type Column struct {
	Title  string
	Weight float64
	Align  Align
}

// Table is a tabular block with alternating row shading and an optional
// bold total row. PlainRows and PlainTotal, when set, hold the same cells
// without display formatting and are preferred by data formats.
type Table struct {
	Columns    []Column
	Rows       [][]string
	Total      []string
	PlainRows  [][]string
	PlainTotal []string
}

// HasTotal reports whether the table carries a total row
func (t *Table) HasTotal() bool {
	return len(t.Total) > 0
}

// DataRows returns PlainRows when present, Rows otherwise
func (t *Table) DataRows() [][]string {
	if len(t.PlainRows) == len(t.Rows) && t.PlainRows != nil {
		return t.PlainRows
	}
	return t.Rows
}

// DataTotal returns PlainTotal when present, Total otherwise
func (t *Table) DataTotal() []string {
	if len(t.PlainTotal) > 0 {
		return t.PlainTotal
	}
	return t.Total
}

// Titles returns the column titles
func (t *Table) Titles() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Title
	}
	return out
}

// SummaryLine is one line of a summary block
type SummaryLine struct {
	Label    string
	Value    string
	Emphasis bool
}

// Summary is a right-aligned list of totals
type Summary struct {
	Lines []SummaryLine
}

// Note is a free text paragraph
type Note struct {
	Text string
}

func (*Heading) blockKind() string   { return "heading" }
func (*KeyValues) blockKind() string { return "key_values" }
func (*Table) blockKind() string     { return "table" }
func (*Summary) blockKind() string   { return "summary" }
func (*Note) blockKind() string      { return "note" }

// Document is the root of the tree
type Document struct {
	Kind         Kind
	Title        string
	Subtitle     string
	Organisation Organisation
	Blocks       []Block
	Footer       string
	GeneratedAt  time.Time
	Filename     string
}

// Add appends blocks and returns the document for chaining
func (d *Document) Add(blocks ...Block) *Document {
	d.Blocks = append(d.Blocks, blocks...)
	return d
}

// PrimaryTable returns the first table, used by tabular formats
func (d *Document) PrimaryTable() (*Table, bool) {
	for _, b := range d.Blocks {
		if t, ok := b.(*Table); ok {
			return t, true
		}
	}
	return nil, false
}

// GeneratedOn is the only time-dependent text rendered into a document
func (d *Document) GeneratedOn() string {
	return "Generated on " + d.GeneratedAt.Format("02 Jan 2006 15:04")
}

// BaseName returns the filename without extension
func (d *Document) BaseName() string {
	name := d.Filename
	if name == "" {
		name = d.Title
	}
	if name == "" {
		name = string(d.Kind)
	}
	return name
}

// FilenameFor returns BaseName with the extension of a format
func (d *Document) FilenameFor(ext string) string {
	return fmt.Sprintf("%s.%s", d.BaseName(), strings.TrimPrefix(ext, "."))
}
