package document

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"reflect"
	"strings"
	"time"

	domain "github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/document"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/rendering"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Archive stores generated documents
type Archive interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
}

// Metrics observes document generation
type Metrics interface {
	ObserveDocument(kind, format string, elapsed time.Duration, err error)
}

// Service generates downloadable documents from request payloads
type Service struct {
	builder  *Builder
	registry *rendering.Registry
	clock    shared.Clock
	archive  Archive
	metrics  Metrics
	validate *validator.Validate
	logger   *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithArchive stores every generated document in the archive
func WithArchive(a Archive) Option {
	return func(s *Service) { s.archive = a }
}

// WithMetrics records generation metrics
func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a document service
func NewService(builder *Builder, registry *rendering.Registry, clock shared.Clock, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = shared.SystemClock(nil)
	}
	s := &Service{
		builder:  builder,
		registry: registry,
		clock:    clock,
		validate: newValidator(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build decodes and validates the payload of a document type and returns
// its document tree
func (s *Service) Build(documentType string, data json.RawMessage) (*domain.Document, error) {
	kind, err := domain.ParseKind(documentType)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, shared.InvalidInput("Missing document data")
	}

	now := s.clock.Now()
	switch kind {
	case domain.KindReceipt:
		var p ReceiptPayload
		if err := s.decode(data, &p); err != nil {
			return nil, err
		}
		return s.builder.Receipt(p, now), nil
	case domain.KindInvoice:
		var p InvoicePayload
		if err := s.decode(data, &p); err != nil {
			return nil, err
		}
		return s.builder.Invoice(p, now), nil
	case domain.KindPayslip:
		var p PayslipPayload
		if err := s.decode(data, &p); err != nil {
			return nil, err
		}
		return s.builder.Payslip(p, now), nil
	default:
		var p ReportPayload
		if err := s.decode(data, &p); err != nil {
			return nil, err
		}
		return s.builder.Report(p, now), nil
	}
}

// Generate builds and renders a PDF for the request
func (s *Service) Generate(ctx context.Context, tenantID uuid.UUID, req GenerateRequest) (*GenerateResult, error) {
	return s.GenerateAs(ctx, tenantID, req, rendering.FormatPDF)
}

// GenerateAs builds and renders the request in format f
func (s *Service) GenerateAs(ctx context.Context, tenantID uuid.UUID, req GenerateRequest, f rendering.Format) (*GenerateResult, error) {
	start := time.Now()
	doc, err := s.Build(req.DocumentType, req.Data)
	if err != nil {
		s.observe(req.DocumentType, f, start, err)
		return nil, err
	}

	artifact, err := s.registry.Render(ctx, f, doc)
	s.observe(string(doc.Kind), f, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", doc.Kind, err)
	}

	result := &GenerateResult{
		Filename:    artifact.Filename,
		ContentType: artifact.ContentType,
		Data:        artifact.Data,
		PageCount:   artifact.PageCount,
	}

	if s.archive != nil {
		key := ArchiveKey(tenantID, string(doc.Kind), artifact.Filename)
		if err := s.archive.Put(ctx, key, artifact.ContentType, artifact.Data); err != nil {
			s.logger.Warn("failed to archive document",
				zap.String("key", key),
				zap.Error(err))
		} else {
			result.ArchiveKey = key
		}
	}

	s.logger.Info("document generated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("kind", string(doc.Kind)),
		zap.String("format", string(f)),
		zap.String("filename", artifact.Filename),
		zap.Int("bytes", len(artifact.Data)),
		zap.Int("pages", artifact.PageCount))
	return result, nil
}

// ArchiveKey is the object key of an archived document
func ArchiveKey(tenantID uuid.UUID, kind, filename string) string {
	return path.Join("documents", tenantID.String(), kind, filename)
}

func (s *Service) observe(kind string, f rendering.Format, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.ObserveDocument(kind, string(f), time.Since(start), err)
	}
}

func (s *Service) decode(data json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return shared.InvalidInput("Invalid document data: " + err.Error())
	}
	if err := s.validate.Struct(v); err != nil {
		return shared.InvalidInput("Invalid document data: " + validationMessage(err))
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.SplitN(e.Namespace(), ".", 2)
		name := e.Field()
		if len(field) == 2 {
			name = field[1]
		}
		switch e.Tag() {
		case "required":
			msgs = append(msgs, name+" is required")
		case "email":
			msgs = append(msgs, name+" must be a valid email")
		case "oneof":
			msgs = append(msgs, name+" must be one of: "+e.Param())
		default:
			msgs = append(msgs, name+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
