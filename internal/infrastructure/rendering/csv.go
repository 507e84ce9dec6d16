package rendering

import (
	"bytes"
	"context"
	"strings"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/document"
)

// CSVRenderer writes the primary table of a document as CSV: a header row,
// one row per record and the totals row. Every field is double-quoted and
// embedded quotes are doubled. Plain cell values are used when the table
// carries them, so amounts contain no grouping separators.
type CSVRenderer struct{}

// NewCSVRenderer creates a CSV renderer
func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

// Format implements Renderer
func (r *CSVRenderer) Format() Format { return FormatCSV }

// Render implements Renderer
func (r *CSVRenderer) Render(ctx context.Context, doc *document.Document) (*Artifact, error) {
	s, err := r.RenderString(ctx, doc)
	if err != nil {
		return nil, err
	}
	return newArtifact(FormatCSV, doc, []byte(s)), nil
}

// RenderString renders the CSV text
func (r *CSVRenderer) RenderString(ctx context.Context, doc *document.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", NewRenderError(ErrCodeRenderTimeout, "CSV rendering was cancelled", err)
	}
	t, ok := doc.PrimaryTable()
	if !ok {
		return "", NewRenderError(ErrCodeNoTable, "document has no table to export", nil)
	}

	var buf bytes.Buffer
	writeCSVLine(&buf, t.Titles(), len(t.Columns))
	for _, row := range t.DataRows() {
		writeCSVLine(&buf, row, len(t.Columns))
	}
	if t.HasTotal() {
		writeCSVLine(&buf, t.DataTotal(), len(t.Columns))
	}
	return buf.String(), nil
}

func writeCSVLine(buf *bytes.Buffer, cells []string, width int) {
	for i := 0; i < width; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		var v string
		if i < len(cells) {
			v = cells[i]
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(v, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}
