package rendering

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/document"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const defaultChromeTimeout = 30 * time.Second

// ChromedpConfig configures the headless Chrome PDF engine
type ChromedpConfig struct {
	Timeout time.Duration
	// RemoteURL points at a running Chrome DevTools endpoint. When empty a
	// local browser is launched.
	RemoteURL string
	NoSandbox bool
	Logger    *zap.Logger
}

// ChromedpRenderer prints the HTML rendering of a document to PDF with
// headless Chrome. Output is not byte-stable across Chrome versions.
type ChromedpRenderer struct {
	html        *HTMLRenderer
	config      ChromedpConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpRenderer creates the engine. The browser starts lazily on the
// first render.
func NewChromedpRenderer(html *HTMLRenderer, config ChromedpConfig) *ChromedpRenderer {
	if config.Timeout == 0 {
		config.Timeout = defaultChromeTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &ChromedpRenderer{html: html, config: config, logger: logger}
	if config.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), config.RemoteURL)
		return r
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r
}

// Format implements Renderer
func (r *ChromedpRenderer) Format() Format { return FormatPDF }

// Render implements Renderer
func (r *ChromedpRenderer) Render(ctx context.Context, doc *document.Document) (*Artifact, error) {
	html, err := r.html.RenderString(ctx, doc)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()
	stop := context.AfterFunc(ctx, browserCancel)
	defer stop()

	var data []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(mmToInches(pageWidth)).
				WithPaperHeight(mmToInches(pageHeight)).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			if err != nil {
				return err
			}
			data = out
			return nil
		}),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewRenderError(ErrCodeRenderTimeout,
				fmt.Sprintf("PDF rendering timed out after %v", r.config.Timeout), err)
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, NewRenderError(ErrCodeRenderTimeout, "PDF rendering was cancelled", err)
		}
		r.logger.Error("chromedp rendering failed", zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", err)
	}
	if len(data) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil)
	}

	a := newArtifact(FormatPDF, doc, data)
	a.PageCount = CountPages(data)
	r.logger.Debug("PDF rendered with chromedp",
		zap.Int("bytes", len(data)),
		zap.Int("pages", a.PageCount),
		zap.Duration("duration", time.Since(start)))
	return a, nil
}

// Close releases the browser allocator
func (r *ChromedpRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

// CountPages estimates the page count of a PDF by counting page objects.
// It returns at least 1 for non-empty input.
func CountPages(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte("/Type /Page\n")) +
		bytes.Count(data, []byte("/Type/Page\n")) +
		bytes.Count(data, []byte("/Type /Page>>")) +
		bytes.Count(data, []byte("/Type/Page>>")) +
		bytes.Count(data, []byte("/Type /Page ")) +
		bytes.Count(data, []byte("/Type/Page/"))
	if n == 0 {
		return 1
	}
	return n
}

func mmToInches(mm float64) float64 {
	return mm / 25.4
}
