package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const receiptYAML = `
sale_number: S-100
created_date: 2024-03-05
customer_name: Aminata Kamara
items:
  - product_name: Water
    quantity: 2
    unit_price: 5
    total: 10
total_amount: 10
payment_method: cash
`

var fixedClock = shared.ClockFunc(func() time.Time {
	return time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
})

func testDocumentConfig() config.DocumentConfig {
	return config.DocumentConfig{
		PDFEngine:        "native",
		Currency:         "SLE",
		OrganisationName: "Freetown Traders",
	}
}

func TestPayloadJSON_YAML(t *testing.T) {
	raw, err := payloadJSON([]byte(receiptYAML), ".yaml")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "S-100", got["sale_number"])
	assert.Equal(t, "2024-03-05", got["created_date"])
	assert.Equal(t, float64(10), got["total_amount"])
	items, ok := got["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "Water", items[0].(map[string]any)["product_name"])
}

func TestPayloadJSON_NonStringKeys(t *testing.T) {
	raw, err := payloadJSON([]byte("sale_number: S-1\nmeta:\n  1: one\n  true: yes\n"), ".yml")
	require.NoError(t, err)
	assert.JSONEq(t, `{"sale_number":"S-1","meta":{"1":"one","true":"yes"}}`, string(raw))
}

func TestPayloadJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		ext  string
		want string
	}{
		{"invalid json", `{"sale_number":`, ".json", "not valid JSON"},
		{"invalid yaml", "items: [a, b", ".yaml", "parse payload"},
		{"scalar document", "just text", ".yaml", "must be a mapping"},
		{"list document", "- a\n- b\n", ".yaml", "must be a mapping"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := payloadJSON([]byte(tt.data), tt.ext)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestPayloadJSON_JSONPassesThrough(t *testing.T) {
	in := `{"sale_number":"S-9","total_amount":"12.50"}`
	raw, err := payloadJSON([]byte(in), ".JSON")
	require.NoError(t, err)
	assert.Equal(t, in, string(raw))
}

func TestRunRender_WritesFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "sale.yaml")
	require.NoError(t, os.WriteFile(in, []byte(receiptYAML), 0o644))
	outPath := filepath.Join(dir, "receipt.pdf")

	var out bytes.Buffer
	err := runRender(context.Background(), testDocumentConfig(), fixedClock, zap.NewNop(), renderOptions{
		docType: "receipt",
		input:   in,
		output:  outPath,
		format:  "pdf",
	}, &out)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
	assert.Contains(t, out.String(), "wrote "+outPath)
	assert.Contains(t, out.String(), "application/pdf")
}

func TestRunRender_Stdout(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "sale.yaml")
	require.NoError(t, os.WriteFile(in, []byte(receiptYAML), 0o644))

	var out bytes.Buffer
	err := runRender(context.Background(), testDocumentConfig(), fixedClock, zap.NewNop(), renderOptions{
		docType: "receipt",
		input:   in,
		output:  "-",
		format:  "html",
	}, &out)
	require.NoError(t, err)

	html := out.String()
	assert.True(t, strings.Contains(html, "<html") || strings.Contains(html, "<!DOCTYPE"), "expected an html document")
	assert.Contains(t, html, "S-100")
	assert.Contains(t, html, "Freetown Traders")
}

func TestRunRender_Errors(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "sale.yaml")
	require.NoError(t, os.WriteFile(in, []byte(receiptYAML), 0o644))

	tests := []struct {
		name string
		opts renderOptions
		want string
	}{
		{"unknown format", renderOptions{docType: "receipt", input: in, format: "docx"}, "unsupported format"},
		{"missing file", renderOptions{docType: "receipt", input: filepath.Join(dir, "nope.yaml"), format: "pdf"}, "read payload"},
		{"unknown document type", renderOptions{docType: "quote", input: in, format: "pdf", output: "-"}, "Invalid document type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := runRender(context.Background(), testDocumentConfig(), fixedClock, zap.NewNop(), tt.opts, &out)
			assert.ErrorContains(t, err, tt.want)
			assert.Empty(t, out.String())
		})
	}
}
