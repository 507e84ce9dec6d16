package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	documentapp "github.com/Bri-fat-sen/bfse-management-system-sub006/internal/application/document"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/document"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/config"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/rendering"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type renderOptions struct {
	docType string
	input   string
	output  string
	format  string
}

func newRenderCommand() *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a receipt, invoice, payslip or report from a YAML or JSON payload",
		Example: `  reportctl render --type receipt --in sale.yaml
  reportctl render --type payslip --in payslip.json --format html --out -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			defer func() { _ = env.log.Sync() }()

			loc, err := env.cfg.App.Location()
			if err != nil {
				return err
			}
			return runRender(cmd.Context(), env.cfg.Document, shared.SystemClock(loc), env.log, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.docType, "type", "", "Document type: receipt, invoice, payslip or report")
	cmd.Flags().StringVar(&opts.input, "in", "", "Payload file (.yaml, .yml or .json)")
	cmd.Flags().StringVar(&opts.output, "out", "", "Output file, - for stdout (default: the document's filename)")
	cmd.Flags().StringVar(&opts.format, "format", string(rendering.FormatPDF), "Output format: pdf, html, csv or xlsx")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func runRender(ctx context.Context, cfg config.DocumentConfig, clock shared.Clock, log *zap.Logger, opts renderOptions, out io.Writer) error {
	format, err := rendering.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	payload, err := readPayload(opts.input)
	if err != nil {
		return err
	}

	registry, closeRenderers, err := rendering.NewDefaultRegistry(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = closeRenderers() }()

	svc := documentapp.NewService(
		documentapp.NewBuilder(organisation(cfg), document.NewFormatter(cfg.Currency), cfg.Footer),
		registry, clock, log,
	)
	result, err := svc.GenerateAs(ctx, uuid.Nil, documentapp.GenerateRequest{
		DocumentType: opts.docType,
		Data:         payload,
	}, format)
	if err != nil {
		return err
	}

	switch opts.output {
	case "-":
		_, err = out.Write(result.Data)
		return err
	case "":
		opts.output = result.Filename
	}
	if err := os.WriteFile(opts.output, result.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	_, err = fmt.Fprintf(out, "wrote %s (%s, %d bytes)\n", opts.output, result.ContentType, len(result.Data))
	return err
}

func readPayload(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return payloadJSON(data, filepath.Ext(path))
}

// payloadJSON converts a payload file to the JSON the document builders
// decode. JSON files pass through; anything else is parsed as YAML.
func payloadJSON(data []byte, ext string) (json.RawMessage, error) {
	if strings.EqualFold(ext, ".json") {
		if !json.Valid(data) {
			return nil, errors.New("payload is not valid JSON")
		}
		return data, nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	if _, ok := v.(map[string]any); !ok {
		return nil, errors.New("payload must be a mapping")
	}
	encoded, err := json.Marshal(normalizeYAML(v))
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return encoded, nil
}

// normalizeYAML rewrites maps with non-string keys, which encoding/json
// cannot marshal, and turns bare YAML dates back into yyyy-mm-dd strings.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case time.Time:
		if t.Equal(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())) {
			return t.Format(time.DateOnly)
		}
		return t.Format(time.RFC3339)
	case map[string]any:
		for k, item := range t {
			t[k] = normalizeYAML(item)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, item := range t {
			m[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return m
	case []any:
		for i, item := range t {
			t[i] = normalizeYAML(item)
		}
		return t
	}
	return v
}
