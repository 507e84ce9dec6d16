// Package rendering turns document trees into downloadable artifacts.
//
// This package contains:
// - Renderer interface and a Registry keyed by output format
// - PDFRenderer, a single gofpdf layout engine with manual pagination
// - HTMLRenderer for email bodies and print views (inline CSS)
// - CSVRenderer and XLSXRenderer for the primary table of a document
// - ChromedpRenderer, an optional engine printing the HTML view to PDF
//
// Example usage:
//
//	registry := rendering.NewRegistry(
//	    rendering.NewPDFRenderer(theme),
//	    rendering.NewHTMLRenderer(theme),
//	    rendering.NewCSVRenderer(),
//	)
//	artifact, err := registry.Render(ctx, rendering.FormatPDF, doc)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%s: %d bytes\n", artifact.Filename, len(artifact.Data))
package rendering
