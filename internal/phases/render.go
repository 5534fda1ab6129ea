package phases

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
)

// RenderPhase captures every collected page once per monitor spec: a raw
// screenshot at the monitor's resolution plus a color-transformed variant
// simulating the panel's transfer curve. Pairs whose PNGs already exist are
// skipped, so an interrupted run resumes where it stopped.
type RenderPhase struct {
	config  common.RenderConfig
	dataDir string
	docs    interfaces.DocumentStorage
	logger  arbor.ILogger
}

func NewRenderPhase(config common.RenderConfig, dataDir string, docs interfaces.DocumentStorage, logger arbor.ILogger) *RenderPhase {
	return &RenderPhase{
		config:  config,
		dataDir: dataDir,
		docs:    docs,
		logger:  logger,
	}
}

func (p *RenderPhase) Run(ctx context.Context) (any, error) {
	pages, err := p.docs.ListPages()
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		p.logger.Warn().Msg("No pages to render")
		return map[string]int{"rendered": 0, "skipped": 0}, nil
	}

	// One headless browser for the whole phase.
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	rendered := 0
	skipped := 0
	for _, doc := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		htmlPath := filepath.Join(p.dataDir, "raw_html", filepath.FromSlash(doc.Filename))
		if _, err := os.Stat(htmlPath); err != nil {
			p.logger.Warn().Str("file", doc.Filename).Msg("HTML artifact missing, skipping page")
			continue
		}

		changed := false
		for _, monitor := range p.config.Monitors {
			rawPath, shotPath := p.screenshotPaths(monitor.Name, doc.Filename)
			if fileExists(rawPath) && fileExists(shotPath) {
				skipped++
				continue
			}

			if err := p.captureOne(browserCtx, htmlPath, monitor, rawPath, shotPath); err != nil {
				return nil, fmt.Errorf("render %s on %s: %w", doc.Filename, monitor.Name, err)
			}
			rendered++

			doc.RawScreenshots = appendUnique(doc.RawScreenshots, screenshotName(monitor.Name, doc.Filename))
			doc.Screenshots = appendUnique(doc.Screenshots, screenshotName(monitor.Name, doc.Filename))
			changed = true
		}

		if changed {
			if err := p.docs.SavePage(doc); err != nil {
				p.logger.Warn().Err(err).Str("file", doc.Filename).Msg("Failed to update page document")
			}
		}
	}

	p.logger.Info().
		Int("rendered", rendered).
		Int("skipped", skipped).
		Msg("Render phase finished")
	return map[string]int{"rendered": rendered, "skipped": skipped}, nil
}

// captureOne renders the page at the monitor's resolution and writes both
// screenshot variants.
func (p *RenderPhase) captureOne(browserCtx context.Context, htmlPath string, monitor common.MonitorSpec, rawPath, shotPath string) error {
	absPath, err := filepath.Abs(htmlPath)
	if err != nil {
		return err
	}
	pageURL := "file://" + filepath.ToSlash(absPath)

	tabCtx, cancel := context.WithTimeout(browserCtx, p.config.PageTimeout)
	defer cancel()

	var raw []byte
	err = chromedp.Run(tabCtx,
		chromedp.EmulateViewport(int64(monitor.Width), int64(monitor.Height)),
		chromedp.Navigate(pageURL),
		chromedp.Sleep(p.config.SettleTime),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var captureErr error
			raw, captureErr = page.CaptureScreenshot().
				WithFormat(page.CaptureScreenshotFormatPng).
				Do(ctx)
			return captureErr
		}),
	)
	if err != nil {
		return fmt.Errorf("screenshot capture failed: %w", err)
	}

	if err := writeFileAtomic(rawPath, raw); err != nil {
		return err
	}

	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to decode capture: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, applyGamma(img, monitor.Gamma)); err != nil {
		return fmt.Errorf("failed to encode transformed capture: %w", err)
	}
	return writeFileAtomic(shotPath, buf.Bytes())
}

func (p *RenderPhase) screenshotPaths(monitorName, filename string) (rawPath, shotPath string) {
	name := screenshotName(monitorName, filename)
	rawPath = filepath.Join(p.dataDir, "screenshots_raw", filepath.FromSlash(name))
	shotPath = filepath.Join(p.dataDir, "screenshots", filepath.FromSlash(name))
	return rawPath, shotPath
}

// screenshotName maps "Blog/blog_real_3.html" on "iMac_M1_24" to
// "iMac_M1_24/Blog/blog_real_3.png".
func screenshotName(monitorName, filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	return monitorName + "/" + base + ".png"
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
