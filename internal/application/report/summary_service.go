package report

import (
	"context"
	"fmt"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/document"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/report"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/rendering"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSummaryTTL is how long aggregated summaries stay cached
const DefaultSummaryTTL = 5 * time.Minute

// SummaryCache stores aggregated summaries. A miss returns false with a nil error.
type SummaryCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// SummaryQuery selects a report type, a period and an optional grouping
type SummaryQuery struct {
	ReportType report.ReportType
	report.RangeFilter
	GroupBy string
	Title   string
}

// SummaryService aggregates tenant records into report summaries and
// renders them in any supported format
type SummaryService struct {
	source    report.RecordSource
	documents *DocumentBuilder
	registry  *rendering.Registry
	cache     SummaryCache
	cacheTTL  time.Duration
	clock     shared.Clock
	logger    *zap.Logger
}

// SummaryOption configures a SummaryService
type SummaryOption func(*SummaryService)

// WithSummaryCache caches summaries for ttl
func WithSummaryCache(cache SummaryCache, ttl time.Duration) SummaryOption {
	return func(s *SummaryService) {
		s.cache = cache
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// NewSummaryService creates a new SummaryService
func NewSummaryService(
	source report.RecordSource,
	documents *DocumentBuilder,
	registry *rendering.Registry,
	clock shared.Clock,
	logger *zap.Logger,
	opts ...SummaryOption,
) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = shared.SystemClock(nil)
	}
	s := &SummaryService{
		source:    source,
		documents: documents,
		registry:  registry,
		cacheTTL:  DefaultSummaryTTL,
		clock:     clock,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock's current time
func (s *SummaryService) Now() time.Time {
	return s.clock.Now()
}

// Summary aggregates one single-entity report type over the query range
func (s *SummaryService) Summary(ctx context.Context, tenantID uuid.UUID, q SummaryQuery) (*report.Summary, error) {
	rng, err := q.Resolve(s.clock.Now())
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, tenantID, q.ReportType, rng, q.GroupBy)
}

func (s *SummaryService) summarize(ctx context.Context, tenantID uuid.UUID, t report.ReportType, rng report.DateRange, groupBy string) (*report.Summary, error) {
	def, ok := report.Definition(t)
	if !ok {
		return nil, shared.InvalidInput(fmt.Sprintf("unknown report type %q", t))
	}
	spec, err := def.Spec(groupBy)
	if err != nil {
		return nil, err
	}

	key := summaryCacheKey(tenantID, string(t), rng, spec.GroupBy)
	var cached report.Summary
	if s.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	records, err := s.source.Records(ctx, tenantID, def.Entity, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s records: %w", def.Entity, err)
	}
	summary := report.Aggregate(records, rng, spec)
	s.store(ctx, key, summary)
	return &summary, nil
}

// Consolidated builds the profit-and-loss summary over the filter range
func (s *SummaryService) Consolidated(ctx context.Context, tenantID uuid.UUID, f report.RangeFilter) (*report.ConsolidatedSummary, error) {
	rng, err := f.Resolve(s.clock.Now())
	if err != nil {
		return nil, err
	}
	return s.consolidate(ctx, tenantID, rng)
}

func (s *SummaryService) consolidate(ctx context.Context, tenantID uuid.UUID, rng report.DateRange) (*report.ConsolidatedSummary, error) {
	key := summaryCacheKey(tenantID, string(report.ReportConsolidated), rng, "")
	var cached report.ConsolidatedSummary
	if s.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	var src report.ConsolidatedSources
	for _, part := range []struct {
		kind report.EntityKind
		dst  *[]report.Record
	}{
		{report.EntitySale, &src.Sales},
		{report.EntityExpense, &src.Expenses},
		{report.EntityTrip, &src.Trips},
		{report.EntityPayroll, &src.Payroll},
	} {
		records, err := s.source.Records(ctx, tenantID, part.kind, rng)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s records: %w", part.kind, err)
		}
		*part.dst = records
	}

	c := report.Consolidate(rng, src)
	s.store(ctx, key, c)
	return &c, nil
}

// Document aggregates the query and returns its document tree
func (s *SummaryService) Document(ctx context.Context, tenantID uuid.UUID, q SummaryQuery) (*document.Document, error) {
	now := s.clock.Now()
	rng, err := q.Resolve(now)
	if err != nil {
		return nil, err
	}
	return s.document(ctx, tenantID, q.ReportType, rng, q.GroupBy, q.Title, now)
}

func (s *SummaryService) document(ctx context.Context, tenantID uuid.UUID, t report.ReportType, rng report.DateRange, groupBy, title string, now time.Time) (*document.Document, error) {
	if t == report.ReportConsolidated {
		c, err := s.consolidate(ctx, tenantID, rng)
		if err != nil {
			return nil, err
		}
		return s.documents.Consolidated(*c, title, now), nil
	}
	summary, err := s.summarize(ctx, tenantID, t, rng, groupBy)
	if err != nil {
		return nil, err
	}
	def, _ := report.Definition(t)
	return s.documents.Summary(def, *summary, title, now), nil
}

// Export renders the query in format f
func (s *SummaryService) Export(ctx context.Context, tenantID uuid.UUID, q SummaryQuery, f rendering.Format) (*rendering.Artifact, error) {
	doc, err := s.Document(ctx, tenantID, q)
	if err != nil {
		return nil, err
	}
	artifact, err := s.registry.Render(ctx, f, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s report: %w", q.ReportType, err)
	}
	s.logger.Info("report exported",
		zap.String("tenant_id", tenantID.String()),
		zap.String("report_type", string(q.ReportType)),
		zap.String("format", string(f)),
		zap.Int("bytes", len(artifact.Data)))
	return artifact, nil
}

func (s *SummaryService) lookup(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("summary cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *SummaryService) store(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("summary cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func summaryCacheKey(tenantID uuid.UUID, reportType string, rng report.DateRange, groupBy string) string {
	if groupBy == "" {
		groupBy = "none"
	}
	return fmt.Sprintf("report:summary:%s:%s:%s:%s", tenantID, reportType, rng.CacheKey(), groupBy)
}
