package rendering

import (
	"context"
	"strings"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/document"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const xlsxMaxSheetName = 31

// XLSXRenderer writes the primary table of a document to a single-sheet
// workbook with a bold header and a bold totals row. Plain cells that parse
// as decimals are stored as numbers.
type XLSXRenderer struct {
	theme Theme
}

// NewXLSXRenderer creates an XLSX renderer
func NewXLSXRenderer(theme Theme) *XLSXRenderer {
	return &XLSXRenderer{theme: theme}
}

// Format implements Renderer
func (r *XLSXRenderer) Format() Format { return FormatXLSX }

// Render implements Renderer
func (r *XLSXRenderer) Render(ctx context.Context, doc *document.Document) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeRenderTimeout, "XLSX rendering was cancelled", err)
	}
	t, ok := doc.PrimaryTable()
	if !ok {
		return nil, NewRenderError(ErrCodeNoTable, "document has no table to export", nil)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(doc.Title)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to name sheet", err)
	}

	headStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{r.theme.Accent.Hex()}},
	})
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to create header style", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{r.theme.TotalFill.Hex()}},
		Border: []excelize.Border{{Type: "top", Color: r.theme.Accent.Hex(), Style: 2}},
	})
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to create total style", err)
	}

	width := len(t.Columns)
	row := 1
	if err := writeXLSXRow(f, sheet, row, t.Titles(), width, false); err != nil {
		return nil, err
	}
	if err := styleXLSXRow(f, sheet, row, width, headStyle); err != nil {
		return nil, err
	}
	for _, cells := range t.DataRows() {
		row++
		if err := writeXLSXRow(f, sheet, row, cells, width, true); err != nil {
			return nil, err
		}
	}
	if t.HasTotal() {
		row++
		if err := writeXLSXRow(f, sheet, row, t.DataTotal(), width, true); err != nil {
			return nil, err
		}
		if err := styleXLSXRow(f, sheet, row, width, totalStyle); err != nil {
			return nil, err
		}
	}

	for i, c := range t.Columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		w := 14.0
		if c.Weight > 0 {
			w = 8 + 6*c.Weight
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return nil, NewRenderError(ErrCodeRenderFailed, "failed to size column", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to write workbook", err)
	}
	return newArtifact(FormatXLSX, doc, buf.Bytes()), nil
}

func writeXLSXRow(f *excelize.File, sheet string, row int, cells []string, width int, numeric bool) error {
	for i := 0; i < width; i++ {
		var v string
		if i < len(cells) {
			v = cells[i]
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return NewRenderError(ErrCodeRenderFailed, "invalid cell", err)
		}
		var value any = v
		if numeric {
			if d, err := decimal.NewFromString(v); err == nil {
				value = d.InexactFloat64()
			}
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return NewRenderError(ErrCodeRenderFailed, "failed to set cell "+cell, err)
		}
	}
	return nil
}

func styleXLSXRow(f *excelize.File, sheet string, row, width, style int) error {
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(width, row)
	if err := f.SetCellStyle(sheet, first, last, style); err != nil {
		return NewRenderError(ErrCodeRenderFailed, "failed to style row", err)
	}
	return nil
}

// SheetName derives a valid worksheet name from a title
func SheetName(title string) string {
	repl := strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")", "'", "")
	name := strings.TrimSpace(repl.Replace(title))
	if name == "" {
		return "Report"
	}
	if r := []rune(name); len(r) > xlsxMaxSheetName {
		name = strings.TrimSpace(string(r[:xlsxMaxSheetName]))
	}
	return name
}
