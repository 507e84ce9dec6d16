package report

import (
	"context"
	"errors"
	"fmt"
	"html"
	"path"
	"strings"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/document"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/notification"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/report"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/rendering"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/scheduler"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultLinkTTL is the lifetime of download links placed in report emails
const DefaultLinkTTL = 7 * 24 * time.Hour

var (
	// ErrScheduleNotEnabled is returned for a disabled schedule without a manual trigger
	ErrScheduleNotEnabled = shared.InvalidInput("Schedule not enabled")
	// ErrNoRecipients is returned when a schedule has nobody to send to
	ErrNoRecipients = shared.InvalidInput("No recipients configured")
)

// DocumentArchive stores rendered reports and hands out download links
type DocumentArchive interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	PresignURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// DeliveryMetrics observes scheduled deliveries
type DeliveryMetrics interface {
	ObserveDelivery(trigger, status string, recipients, failed int, elapsed time.Duration)
}

// SendScheduledReportInput is the body of the sendScheduledReport function
type SendScheduledReportInput struct {
	SavedReportID uuid.UUID `json:"saved_report_id" binding:"required"`
	Manual        bool      `json:"manual"`
}

// SendScheduledReportResult reports the per-recipient outcome of a delivery
type SendScheduledReportResult struct {
	Success    bool                     `json:"success"`
	Results    []report.RecipientResult `json:"results"`
	NextRun    *time.Time               `json:"next_run"`
	LastStatus report.RunStatus         `json:"last_status"`
}

// DeliveryService renders saved reports and emails them to the recipients
// of their schedule
type DeliveryService struct {
	reports   report.SavedReportRepository
	runs      report.ScheduleRunRepository
	summaries *SummaryService
	registry  *rendering.Registry
	sender    notification.Sender
	archive   DocumentArchive
	metrics   DeliveryMetrics
	linkTTL   time.Duration
	clock     shared.Clock
	logger    *zap.Logger
}

// DeliveryOption configures a DeliveryService
type DeliveryOption func(*DeliveryService)

// WithDeliveryArchive uploads a PDF of every delivery and links it in the email
func WithDeliveryArchive(a DocumentArchive, linkTTL time.Duration) DeliveryOption {
	return func(s *DeliveryService) {
		s.archive = a
		if linkTTL > 0 {
			s.linkTTL = linkTTL
		}
	}
}

// WithDeliveryMetrics records delivery metrics
func WithDeliveryMetrics(m DeliveryMetrics) DeliveryOption {
	return func(s *DeliveryService) { s.metrics = m }
}

// NewDeliveryService creates a new DeliveryService
func NewDeliveryService(
	reports report.SavedReportRepository,
	runs report.ScheduleRunRepository,
	summaries *SummaryService,
	registry *rendering.Registry,
	sender notification.Sender,
	clock shared.Clock,
	logger *zap.Logger,
	opts ...DeliveryOption,
) *DeliveryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = shared.SystemClock(nil)
	}
	s := &DeliveryService{
		reports:   reports,
		runs:      runs,
		summaries: summaries,
		registry:  registry,
		sender:    sender,
		linkTTL:   DefaultLinkTTL,
		clock:     clock,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendScheduledReport delivers a saved report now. A disabled schedule is
// only sent when in.Manual is set.
func (s *DeliveryService) SendScheduledReport(ctx context.Context, tenantID uuid.UUID, in SendScheduledReportInput) (*SendScheduledReportResult, error) {
	saved, err := s.reports.FindByID(ctx, tenantID, in.SavedReportID)
	if err != nil {
		return nil, err
	}
	trigger := report.TriggerAPI
	if in.Manual {
		trigger = report.TriggerManual
	}
	return s.deliver(ctx, saved, trigger, in.Manual)
}

// Execute runs a dispatcher job. Schedules that are no longer due, for
// example because another trigger already sent them, are skipped.
func (s *DeliveryService) Execute(ctx context.Context, job *scheduler.Job) error {
	saved, err := s.reports.FindByID(ctx, job.TenantID, job.SavedReportID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("scheduled report no longer exists",
				zap.String("saved_report_id", job.SavedReportID.String()))
			return nil
		}
		return err
	}
	if !saved.ScheduleOrEmpty().IsDue(s.clock.Now()) {
		s.logger.Debug("scheduled report no longer due",
			zap.String("saved_report_id", saved.ID.String()))
		return nil
	}
	_, err = s.deliver(ctx, saved, report.TriggerScheduler, false)
	return err
}

func (s *DeliveryService) deliver(ctx context.Context, saved *report.SavedReport, trigger report.RunTrigger, manual bool) (*SendScheduledReportResult, error) {
	schedule := saved.ScheduleOrEmpty()
	if !schedule.Enabled && !manual {
		return nil, ErrScheduleNotEnabled
	}
	if len(schedule.Recipients) == 0 {
		if trigger == report.TriggerScheduler {
			// a due schedule must move on or the dispatcher keeps resubmitting it
			now := s.clock.Now()
			schedule.RecordFailure(now, ErrNoRecipients)
			saved.Schedule = &schedule
			if err := s.finish(ctx, saved, report.NewScheduleRun(saved, report.TriggerScheduler, now), nil, ErrNoRecipients, time.Now()); err != nil {
				return nil, err
			}
		}
		return nil, ErrNoRecipients
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "report_delivery", "deliver",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, saved.TenantID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrSavedReportID, saved.ID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrTrigger, string(trigger)),
		telemetry.WithAttribute(telemetry.SpanAttrRecipients, len(schedule.Recipients)),
	)
	defer span.End()

	start := time.Now()
	now := s.clock.Now()
	run := report.NewScheduleRun(saved, trigger, now)

	email, err := s.compose(ctx, saved, schedule, now)
	if err != nil {
		telemetry.RecordError(span, err)
		schedule.RecordFailure(now, err)
		saved.Schedule = &schedule
		s.finish(ctx, saved, run, nil, err, start)
		return nil, fmt.Errorf("failed to prepare report %s: %w", saved.ID, err)
	}

	results := make([]report.RecipientResult, 0, len(schedule.Recipients))
	for _, to := range schedule.Recipients {
		msg := email
		msg.To = to
		id, err := s.sender.Send(ctx, msg)
		if err != nil {
			s.logger.Warn("failed to send scheduled report",
				zap.String("saved_report_id", saved.ID.String()),
				zap.String("recipient", to),
				zap.Error(err))
			telemetry.AddEvent(span, "recipient_failed", "email", to, "error", err.Error())
			results = append(results, report.RecipientResult{Email: to, Success: false, Error: err.Error()})
			continue
		}
		results = append(results, report.RecipientResult{Email: to, Success: true, MessageID: id})
	}

	if err := schedule.RecordRun(now, results); err != nil {
		s.logger.Warn("could not compute next run",
			zap.String("saved_report_id", saved.ID.String()),
			zap.Error(err))
	}
	saved.Schedule = &schedule
	if err := s.finish(ctx, saved, run, results, nil, start); err != nil {
		return nil, err
	}

	return &SendScheduledReportResult{
		Success:    true,
		Results:    results,
		NextRun:    schedule.NextRun,
		LastStatus: schedule.LastStatus,
	}, nil
}

// finish persists the schedule and the run log. Only the schedule write is
// allowed to fail the delivery.
func (s *DeliveryService) finish(ctx context.Context, saved *report.SavedReport, run *report.ScheduleRun, results []report.RecipientResult, cause error, start time.Time) error {
	saved.UpdatedAt = s.clock.Now()
	saveErr := s.reports.SaveSchedule(ctx, saved)
	if saveErr != nil {
		s.logger.Error("failed to persist schedule",
			zap.String("saved_report_id", saved.ID.String()),
			zap.Error(saveErr))
	}

	run.Finish(s.clock.Now(), results, cause)
	if s.runs != nil {
		if err := s.runs.Save(ctx, run); err != nil {
			s.logger.Warn("failed to record schedule run",
				zap.String("saved_report_id", saved.ID.String()),
				zap.Error(err))
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveDelivery(string(run.Trigger), string(run.Status), run.Recipients, run.Failed, time.Since(start))
	}

	s.logger.Info("scheduled report delivered",
		zap.String("tenant_id", saved.TenantID.String()),
		zap.String("saved_report_id", saved.ID.String()),
		zap.String("trigger", string(run.Trigger)),
		zap.String("status", string(run.Status)),
		zap.Int("recipients", run.Recipients),
		zap.Int("failed", run.Failed))

	if saveErr != nil {
		return fmt.Errorf("failed to save schedule: %w", saveErr)
	}
	return nil
}

// compose renders the report into the email every recipient receives
func (s *DeliveryService) compose(ctx context.Context, saved *report.SavedReport, schedule report.Schedule, now time.Time) (notification.Email, error) {
	rng, err := saved.Filters.Resolve(now)
	if err != nil {
		return notification.Email{}, err
	}
	doc, err := s.summaries.document(ctx, saved.TenantID, saved.ReportType, rng, saved.Filters.GroupBy, saved.Name, now)
	if err != nil {
		return notification.Email{}, err
	}

	email := notification.Email{Subject: schedule.Subject}
	if email.Subject == "" {
		email.Subject = fmt.Sprintf("%s - %s", doc.Title, rng.Label())
	}

	link := s.archiveLink(ctx, saved, doc)

	switch schedule.EffectiveFormat() {
	case report.DeliveryCSV, report.DeliveryXLSX:
		f := rendering.Format(schedule.EffectiveFormat())
		a, err := s.registry.Render(ctx, f, doc)
		if err != nil {
			return notification.Email{}, err
		}
		email.Attachments = append(email.Attachments, attachment(a))
		email.HTML = attachmentBody(schedule.Message, doc.Title, rng.Label(), a.Filename, link)
		email.Text = plainBody(schedule.Message, doc.Title, rng.Label(), link)

	default:
		var prefix []document.Block
		if schedule.Message != "" {
			prefix = append(prefix, &document.Note{Text: schedule.Message})
		}
		if link != "" {
			doc.Add(&document.Note{Text: "Download PDF: " + link})
		}
		doc.Blocks = append(prefix, doc.Blocks...)

		a, err := s.registry.Render(ctx, rendering.FormatHTML, doc)
		if err != nil {
			return notification.Email{}, err
		}
		email.HTML = string(a.Data)
		email.Text = plainBody(schedule.Message, doc.Title, rng.Label(), link)

		if schedule.AttachPDF {
			pdf, err := s.registry.Render(ctx, rendering.FormatPDF, doc)
			if err != nil {
				return notification.Email{}, err
			}
			email.Attachments = append(email.Attachments, attachment(pdf))
		}
	}
	return email, nil
}

// archiveLink uploads a PDF of doc and returns a presigned link. Archive
// failures only cost the link.
func (s *DeliveryService) archiveLink(ctx context.Context, saved *report.SavedReport, doc *document.Document) string {
	if s.archive == nil {
		return ""
	}
	pdf, err := s.registry.Render(ctx, rendering.FormatPDF, doc)
	if err != nil {
		s.logger.Warn("failed to render archive copy", zap.Error(err))
		return ""
	}
	key := path.Join("documents", saved.TenantID.String(), "scheduled", saved.ID.String(), pdf.Filename)
	if err := s.archive.Put(ctx, key, pdf.ContentType, pdf.Data); err != nil {
		s.logger.Warn("failed to archive scheduled report", zap.String("key", key), zap.Error(err))
		return ""
	}
	url, err := s.archive.PresignURL(ctx, key, s.linkTTL)
	if err != nil {
		s.logger.Warn("failed to presign archive link", zap.String("key", key), zap.Error(err))
		return ""
	}
	return url
}

func attachment(a *rendering.Artifact) notification.Attachment {
	return notification.Attachment{Filename: a.Filename, ContentType: a.ContentType, Content: a.Data}
}

func attachmentBody(message, title, period, filename, link string) string {
	var b strings.Builder
	b.WriteString("<html><body style=\"font-family:Helvetica,Arial,sans-serif;font-size:14px;color:#222\">")
	if message != "" {
		b.WriteString("<p>" + html.EscapeString(message) + "</p>")
	}
	b.WriteString("<p><strong>" + html.EscapeString(title) + "</strong><br>" + html.EscapeString(period) + "</p>")
	b.WriteString("<p>The report is attached as " + html.EscapeString(filename) + ".</p>")
	if link != "" {
		b.WriteString("<p><a href=\"" + html.EscapeString(link) + "\">Download PDF</a></p>")
	}
	b.WriteString("</body></html>")
	return b.String()
}

func plainBody(message, title, period, link string) string {
	lines := []string{}
	if message != "" {
		lines = append(lines, message, "")
	}
	lines = append(lines, title, period)
	if link != "" {
		lines = append(lines, "", "Download PDF: "+link)
	}
	return strings.Join(lines, "\n")
}
