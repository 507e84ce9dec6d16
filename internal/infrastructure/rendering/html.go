package rendering

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/document"
)

// HTMLRenderer renders a document tree as a standalone HTML page styled with
// inline CSS, suitable for email bodies and printing.
type HTMLRenderer struct {
	theme  Theme
	tmpl   *template.Template
	styles htmlStyles
}

type htmlStyles struct {
	Body       template.CSS
	Page       template.CSS
	Band       [3]template.CSS
	Header     template.CSS
	OrgName    template.CSS
	Muted      template.CSS
	Title      template.CSS
	Heading    template.CSS
	Table      template.CSS
	Th         template.CSS
	Td         template.CSS
	TdShaded   template.CSS
	TdTotal    template.CSS
	Label      template.CSS
	Value      template.CSS
	SummaryRow template.CSS
	Emphasis   template.CSS
	Note       template.CSS
	Footer     template.CSS
}

type htmlCell struct {
	Text  string
	Align template.CSS
}

type htmlBlock struct {
	Kind    string
	Text    string
	Pairs   []document.Pair
	Columns []htmlCell
	Rows    [][]htmlCell
	Total   []htmlCell
	Lines   []document.SummaryLine
}

type htmlView struct {
	Doc         *document.Document
	Title       string
	Contact     string
	GeneratedOn string
	Blocks      []htmlBlock
	S           htmlStyles
}

// NewHTMLRenderer creates an HTML renderer with the given brand theme
func NewHTMLRenderer(theme Theme) *HTMLRenderer {
	funcs := template.FuncMap{
		"upper": strings.ToUpper,
		"zebra": func(i int) bool { return i%2 == 1 },
	}
	return &HTMLRenderer{
		theme:  theme,
		tmpl:   template.Must(template.New("document").Funcs(funcs).Parse(documentTemplate)),
		styles: buildStyles(theme),
	}
}

// Format implements Renderer
func (r *HTMLRenderer) Format() Format { return FormatHTML }

// Render implements Renderer
func (r *HTMLRenderer) Render(ctx context.Context, doc *document.Document) (*Artifact, error) {
	s, err := r.RenderString(ctx, doc)
	if err != nil {
		return nil, err
	}
	return newArtifact(FormatHTML, doc, []byte(s)), nil
}

// RenderString renders the document and returns the HTML text
func (r *HTMLRenderer) RenderString(ctx context.Context, doc *document.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", NewRenderError(ErrCodeRenderTimeout, "HTML rendering was cancelled", err)
	}
	view := htmlView{
		Doc:         doc,
		Title:       doc.Title,
		Contact:     doc.Organisation.ContactLine(),
		GeneratedOn: doc.GeneratedOn(),
		Blocks:      toHTMLBlocks(doc.Blocks),
		S:           r.styles,
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute HTML template", err)
	}
	return buf.String(), nil
}

func toHTMLBlocks(blocks []document.Block) []htmlBlock {
	out := make([]htmlBlock, 0, len(blocks))
	for _, b := range blocks {
		switch n := b.(type) {
		case *document.Heading:
			out = append(out, htmlBlock{Kind: "heading", Text: n.Text})
		case *document.KeyValues:
			out = append(out, htmlBlock{Kind: "pairs", Pairs: n.Pairs})
		case *document.Table:
			hb := htmlBlock{Kind: "table"}
			for _, c := range n.Columns {
				hb.Columns = append(hb.Columns, htmlCell{Text: c.Title, Align: cssAlign(c.Align)})
			}
			for _, row := range n.Rows {
				hb.Rows = append(hb.Rows, htmlRow(n.Columns, row))
			}
			if n.HasTotal() {
				hb.Total = htmlRow(n.Columns, n.Total)
			}
			out = append(out, hb)
		case *document.Summary:
			out = append(out, htmlBlock{Kind: "summary", Lines: n.Lines})
		case *document.Note:
			out = append(out, htmlBlock{Kind: "note", Text: n.Text})
		}
	}
	return out
}

func htmlRow(cols []document.Column, cells []string) []htmlCell {
	row := make([]htmlCell, len(cols))
	for i, c := range cols {
		var v string
		if i < len(cells) {
			v = cells[i]
		}
		row[i] = htmlCell{Text: document.Truncate(v, document.MaxCellRunes), Align: cssAlign(c.Align)}
	}
	return row
}

func cssAlign(a document.Align) template.CSS {
	switch a {
	case document.AlignRight:
		return "right"
	case document.AlignCenter:
		return "center"
	}
	return "left"
}

func buildStyles(t Theme) htmlStyles {
	css := func(format string, args ...any) template.CSS {
		return template.CSS(fmt.Sprintf(format, args...))
	}
	cell := "padding:6px 8px;font-size:13px;"
	s := htmlStyles{
		Body:       css("margin:0;padding:16px;background:#f4f5f7;font-family:Helvetica,Arial,sans-serif;color:%s;", t.Text.Hex()),
		Page:       css("max-width:780px;margin:0 auto;background:#ffffff;border:1px solid #e3e6ea;"),
		Header:     css("padding:18px 24px 12px 24px;border-bottom:2px solid %s;", t.Accent.Hex()),
		OrgName:    css("font-size:20px;font-weight:bold;color:%s;", t.Accent.Hex()),
		Muted:      css("font-size:12px;color:%s;", t.Muted.Hex()),
		Title:      css("font-size:22px;font-weight:bold;color:%s;text-align:right;", t.Accent.Hex()),
		Heading:    css("margin:18px 24px 6px 24px;font-size:15px;font-weight:bold;color:%s;border-bottom:1px solid %s;padding-bottom:4px;", t.Accent.Hex(), t.TotalFill.Hex()),
		Table:      css("width:calc(100%% - 48px);margin:0 24px 12px 24px;border-collapse:collapse;"),
		Th:         css("%sbackground:%s;color:#ffffff;font-weight:bold;", cell, t.Accent.Hex()),
		Td:         css("%sbackground:#ffffff;", cell),
		TdShaded:   css("%sbackground:%s;", cell, t.Shade.Hex()),
		TdTotal:    css("%sbackground:%s;font-weight:bold;border-top:2px solid %s;", cell, t.TotalFill.Hex(), t.Accent.Hex()),
		Label:      css("padding:3px 24px 3px 24px;font-size:12px;color:%s;width:25%%;", t.Muted.Hex()),
		Value:      css("padding:3px 8px;font-size:13px;font-weight:bold;"),
		SummaryRow: css("padding:4px 8px;font-size:14px;text-align:right;"),
		Emphasis:   css("padding:6px 8px;font-size:15px;font-weight:bold;text-align:right;background:%s;", t.TotalFill.Hex()),
		Note:       css("margin:8px 24px;font-size:12px;font-style:italic;color:%s;", t.Muted.Hex()),
		Footer:     css("padding:10px 24px;font-size:11px;color:%s;border-top:1px solid %s;", t.Muted.Hex(), t.Stripe[0].Hex()),
	}
	for i, c := range t.Stripe {
		s.Band[i] = css("height:6px;line-height:6px;font-size:0;background:%s;", c.Hex())
	}
	return s
}

const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
</head>
<body style="{{.S.Body}}">
<div style="{{.S.Page}}">
{{range .S.Band}}<div style="{{.}}">&nbsp;</div>
{{end}}<table role="presentation" width="100%" style="{{.S.Header}}"><tr>
<td>
<div style="{{.S.OrgName}}">{{.Doc.Organisation.Name}}</div>
{{if .Doc.Organisation.Address}}<div style="{{.S.Muted}}">{{.Doc.Organisation.Address}}</div>{{end}}
{{if .Contact}}<div style="{{.S.Muted}}">{{.Contact}}</div>{{end}}
</td>
<td style="{{.S.Title}}">{{upper .Title}}{{if .Doc.Subtitle}}<div style="{{.S.Muted}}">{{.Doc.Subtitle}}</div>{{end}}</td>
</tr></table>
{{range .Blocks}}{{if eq .Kind "heading"}}<div style="{{$.S.Heading}}">{{.Text}}</div>
{{else if eq .Kind "pairs"}}<table role="presentation" width="100%">{{range .Pairs}}<tr><td style="{{$.S.Label}}">{{.Label}}</td><td style="{{$.S.Value}}">{{.Value}}</td></tr>{{end}}</table>
{{else if eq .Kind "table"}}<table style="{{$.S.Table}}">
<thead><tr>{{range .Columns}}<th style="{{$.S.Th}}text-align:{{.Align}};">{{.Text}}</th>{{end}}</tr></thead>
<tbody>
{{range $i, $row := .Rows}}<tr>{{range $row}}<td style="{{if zebra $i}}{{$.S.TdShaded}}{{else}}{{$.S.Td}}{{end}}text-align:{{.Align}};">{{.Text}}</td>{{end}}</tr>
{{end}}{{if .Total}}<tr>{{range .Total}}<td style="{{$.S.TdTotal}}text-align:{{.Align}};">{{.Text}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
{{else if eq .Kind "summary"}}<table role="presentation" style="{{$.S.Table}}">{{range .Lines}}<tr><td style="{{if .Emphasis}}{{$.S.Emphasis}}{{else}}{{$.S.SummaryRow}}{{end}}">{{.Label}}</td><td style="{{if .Emphasis}}{{$.S.Emphasis}}{{else}}{{$.S.SummaryRow}}{{end}}">{{.Value}}</td></tr>{{end}}</table>
{{else if eq .Kind "note"}}<div style="{{$.S.Note}}">{{.Text}}</div>
{{end}}{{end}}<div style="{{.S.Footer}}">{{if .Doc.Footer}}{{.Doc.Footer}}{{else}}{{.Doc.Organisation.Name}}{{end}} &middot; {{.GeneratedOn}}</div>
{{range .S.Band}}<div style="{{.}}">&nbsp;</div>
{{end}}</div>
</body>
</html>
`
