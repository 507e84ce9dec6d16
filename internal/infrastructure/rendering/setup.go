package rendering

import (
	"fmt"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/config"
	"go.uber.org/zap"
)

// PDF engines selectable with document.pdf_engine
const (
	EngineNative   = "native"
	EngineChromedp = "chromedp"
)

// NewDefaultRegistry registers every format with the configured theme and
// PDF engine. The returned func releases the browser when the chromedp
// engine is selected and is a no-op otherwise.
func NewDefaultRegistry(cfg config.DocumentConfig, logger *zap.Logger) (*Registry, func() error, error) {
	theme, err := DefaultTheme().WithStripe(cfg.Stripe)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid document.stripe: %w", err)
	}

	html := NewHTMLRenderer(theme)
	registry := NewRegistry(html, NewCSVRenderer(), NewXLSXRenderer(theme))

	switch cfg.PDFEngine {
	case "", EngineNative:
		registry.Register(NewPDFRenderer(theme))
		return registry, func() error { return nil }, nil
	case EngineChromedp:
		engine := NewChromedpRenderer(html, ChromedpConfig{
			Timeout:   cfg.ChromeTimeout,
			RemoteURL: cfg.ChromeURL,
			NoSandbox: cfg.ChromeNoSandbox,
			Logger:    logger,
		})
		registry.Register(engine)
		return registry, engine.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown pdf engine %q", cfg.PDFEngine)
	}
}
