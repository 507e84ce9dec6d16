package rendering

import (
	"context"
	"fmt"
	"strings"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/document"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
)

// Format is an output format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
	FormatXLSX Format = "xlsx"
)

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPDF, FormatCSV, FormatHTML, FormatXLSX:
		return f, nil
	}
	return "", shared.InvalidInput(fmt.Sprintf("unsupported format %q", s))
}

// Artifact is a rendered document
type Artifact struct {
	Format      Format
	ContentType string
	Filename    string
	Data        []byte
	PageCount   int
}

// Renderer renders a document tree in one format
type Renderer interface {
	Format() Format
	Render(ctx context.Context, doc *document.Document) (*Artifact, error)
}

// Registry dispatches to the renderer registered for a format
type Registry struct {
	renderers map[Format]Renderer
}

// NewRegistry creates a registry. A later renderer for the same format
// replaces an earlier one.
func NewRegistry(renderers ...Renderer) *Registry {
	r := &Registry{renderers: make(map[Format]Renderer, len(renderers))}
	for _, rd := range renderers {
		r.Register(rd)
	}
	return r
}

// Register adds or replaces the renderer for rd.Format()
func (r *Registry) Register(rd Renderer) {
	r.renderers[rd.Format()] = rd
}

// Supports reports whether a renderer is registered for f
func (r *Registry) Supports(f Format) bool {
	_, ok := r.renderers[f]
	return ok
}

// Render renders doc in format f
func (r *Registry) Render(ctx context.Context, f Format, doc *document.Document) (*Artifact, error) {
	rd, ok := r.renderers[f]
	if !ok {
		return nil, NewRenderError(ErrCodeUnsupportedFormat, fmt.Sprintf("no renderer for format %q", f), nil)
	}
	if doc == nil {
		return nil, NewRenderError(ErrCodeInvalidDocument, "document is nil", nil)
	}
	return rd.Render(ctx, doc)
}

func newArtifact(f Format, doc *document.Document, data []byte) *Artifact {
	return &Artifact{
		Format:      f,
		ContentType: f.ContentType(),
		Filename:    doc.FilenameFor(string(f)),
		Data:        data,
	}
}

// RenderError represents an error during rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout     = "RENDER_TIMEOUT"
	ErrCodeRenderFailed      = "RENDER_FAILED"
	ErrCodeInvalidDocument   = "INVALID_DOCUMENT"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrCodeNoTable           = "NO_TABLE"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
