package rendering

import (
	"context"
	"testing"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultRegistry_Native(t *testing.T) {
	registry, closeFn, err := NewDefaultRegistry(config.DocumentConfig{PDFEngine: EngineNative}, nil)
	require.NoError(t, err)
	defer func() { assert.NoError(t, closeFn()) }()

	for _, f := range []Format{FormatPDF, FormatCSV, FormatHTML, FormatXLSX} {
		assert.True(t, registry.Supports(f), "format %s", f)
	}

	artifact, err := registry.Render(context.Background(), FormatPDF, receiptDoc())
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(artifact.Data[:4]))
}

func TestNewDefaultRegistry_Chromedp(t *testing.T) {
	registry, closeFn, err := NewDefaultRegistry(config.DocumentConfig{
		PDFEngine: EngineChromedp,
		ChromeURL: "ws://127.0.0.1:9222",
	}, nil)
	require.NoError(t, err)
	assert.True(t, registry.Supports(FormatPDF))
	assert.NoError(t, closeFn())
}

func TestNewDefaultRegistry_Errors(t *testing.T) {
	_, _, err := NewDefaultRegistry(config.DocumentConfig{Stripe: []string{"#000000"}}, nil)
	assert.ErrorContains(t, err, "document.stripe")

	_, _, err = NewDefaultRegistry(config.DocumentConfig{PDFEngine: "wkhtmltopdf"}, nil)
	assert.ErrorContains(t, err, "unknown pdf engine")
}
