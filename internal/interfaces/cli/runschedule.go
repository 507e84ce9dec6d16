package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	reportapp "github.com/Bri-fat-sen/bfse-management-system-sub006/internal/application/report"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/document"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/mail"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/persistence"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/rendering"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/storage"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// scheduledReportSender is the part of the delivery service the command drives
type scheduledReportSender interface {
	SendScheduledReport(ctx context.Context, tenantID uuid.UUID, in reportapp.SendScheduledReportInput) (*reportapp.SendScheduledReportResult, error)
}

func newRunScheduleCommand() *cobra.Command {
	var (
		tenant string
		id     string
	)

	cmd := &cobra.Command{
		Use:   "run-schedule",
		Short: "Deliver a saved report to its schedule's recipients now",
		Long: `Renders the saved report and emails it exactly as the dispatcher would.
The run is recorded as manual and next_run advances from the current time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := uuid.Parse(tenant)
			if err != nil {
				return fmt.Errorf("invalid --tenant: %w", err)
			}
			reportID, err := uuid.Parse(id)
			if err != nil {
				return fmt.Errorf("invalid --id: %w", err)
			}

			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			defer func() { _ = env.log.Sync() }()

			db, err := env.openDatabase()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			sender, closeSender, err := newDeliveryService(cmd.Context(), env, db)
			if err != nil {
				return err
			}
			defer closeSender()

			return runSchedule(cmd.Context(), sender, tenantID, reportID, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant ID")
	cmd.Flags().StringVar(&id, "id", "", "Saved report ID")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func newDeliveryService(ctx context.Context, env *environment, db *persistence.Database) (*reportapp.DeliveryService, func(), error) {
	cfg := env.cfg
	loc, err := cfg.App.Location()
	if err != nil {
		return nil, nil, err
	}
	clock := shared.SystemClock(loc)

	registry, closeRenderers, err := rendering.NewDefaultRegistry(cfg.Document, env.log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = closeRenderers() }

	var opts []reportapp.DeliveryOption
	if cfg.Storage.Enabled {
		archive, err := storage.NewS3Archive(ctx, cfg.Storage, storage.WithLogger(env.log))
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		opts = append(opts, reportapp.WithDeliveryArchive(archive, cfg.Storage.LinkTTL))
	}

	org := organisation(cfg.Document)
	formatter := document.NewFormatter(cfg.Document.Currency)
	savedReports := persistence.NewGormSavedReportRepository(db.DB)
	summaries := reportapp.NewSummaryService(
		persistence.NewGormRecordStore(db.DB),
		reportapp.NewDocumentBuilder(org, formatter, cfg.Document.Footer),
		registry, clock, env.log,
	)
	delivery := reportapp.NewDeliveryService(
		savedReports,
		persistence.NewGormScheduleRunRepository(db.DB),
		summaries, registry,
		mail.NewClient(cfg.Mail, env.log),
		clock, env.log, opts...,
	)
	return delivery, cleanup, nil
}

func runSchedule(ctx context.Context, sender scheduledReportSender, tenantID, id uuid.UUID, out io.Writer) error {
	result, err := sender.SendScheduledReport(ctx, tenantID, reportapp.SendScheduledReportInput{
		SavedReportID: id,
		Manual:        true,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}

	if !result.Success {
		failed := 0
		for _, r := range result.Results {
			if !r.Success {
				failed++
			}
		}
		return fmt.Errorf("delivery failed for %d of %d recipients", failed, len(result.Results))
	}
	return nil
}
