package phases

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"html/template"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// SynthesizePhase generates self-contained synthetic HTML pages per category
// to pad out the dataset where crawling cannot. Generation is deterministic:
// the same category and index always yield the same page, so a re-run after
// a partial failure fills exactly the missing files.
type SynthesizePhase struct {
	categories       []string
	pagesPerCategory int
	dataDir          string
	docs             interfaces.DocumentStorage
	logger           arbor.ILogger
}

func NewSynthesizePhase(categories []string, pagesPerCategory int, dataDir string, docs interfaces.DocumentStorage, logger arbor.ILogger) *SynthesizePhase {
	return &SynthesizePhase{
		categories:       categories,
		pagesPerCategory: pagesPerCategory,
		dataDir:          dataDir,
		docs:             docs,
		logger:           logger,
	}
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: {{.FontFamily}}; margin: 0; background: {{.Background}}; color: {{.TextColor}}; }
header { background: {{.AccentColor}}; color: #fff; padding: {{.HeaderPadding}}px 32px; }
nav a { color: #fff; margin-right: 18px; text-decoration: none; }
main { max-width: {{.ContentWidth}}px; margin: 0 auto; padding: 32px; }
section { margin-bottom: 28px; }
footer { border-top: 1px solid #ccc; padding: 18px 32px; font-size: 13px; }
</style>
</head>
<body>
<header>
<h1>{{.Title}}</h1>
<nav>{{range .NavItems}}<a href="#">{{.}}</a>{{end}}</nav>
</header>
<main>
{{range .Sections}}<section><h2>{{.Heading}}</h2><p>{{.Body}}</p></section>
{{end}}</main>
<footer>{{.Footer}}</footer>
</body>
</html>
`))

type pageSection struct {
	Heading string
	Body    string
}

type pageData struct {
	Title         string
	FontFamily    string
	Background    string
	TextColor     string
	AccentColor   string
	HeaderPadding int
	ContentWidth  int
	NavItems      []string
	Sections      []pageSection
	Footer        string
}

func (p *SynthesizePhase) Run(ctx context.Context) (any, error) {
	generated := 0
	skipped := 0

	for _, category := range p.categories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir := filepath.Join(p.dataDir, "raw_html", category)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create category directory: %w", err)
		}

		for i := 0; i < p.pagesPerCategory; i++ {
			name := fmt.Sprintf("%s_synth_%d.html", strings.ToLower(category), i)
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				skipped++
				continue
			}

			html, err := renderSyntheticPage(category, i)
			if err != nil {
				return nil, fmt.Errorf("failed to generate %s: %w", name, err)
			}
			if err := os.WriteFile(path, html, 0644); err != nil {
				return nil, fmt.Errorf("failed to write %s: %w", name, err)
			}
			generated++

			if err := p.docs.SavePage(&models.PageDocument{
				ID:          "page_" + uuid.New().String(),
				Category:    category,
				Filename:    relativeFilename(category, name),
				Source:      models.PageSourceSynthetic,
				CollectedAt: time.Now(),
			}); err != nil {
				p.logger.Warn().Err(err).Str("file", name).Msg("Failed to record page document")
			}
		}
	}

	p.logger.Info().
		Int("generated", generated).
		Int("skipped", skipped).
		Msg("Synthesize phase finished")

	return map[string]int{"generated": generated, "skipped": skipped}, nil
}

// renderSyntheticPage builds one page from the template, with layout choices
// drawn from a generator seeded by category and index.
func renderSyntheticPage(category string, index int) ([]byte, error) {
	rng := rand.New(rand.NewSource(pageSeed(category, index)))

	fonts := []string{"Arial, sans-serif", "Georgia, serif", "'Segoe UI', sans-serif", "Verdana, sans-serif"}
	backgrounds := []string{"#ffffff", "#f7f7f4", "#fafafa", "#f0f4f8"}
	accents := []string{"#1f6feb", "#2e7d32", "#7b1fa2", "#c62828", "#00695c"}
	navPool := []string{"Home", "About", "Services", "Products", "Contact", "Blog", "Support", "Pricing"}

	sectionCount := 2 + rng.Intn(4)
	sections := make([]pageSection, sectionCount)
	for s := range sections {
		sections[s] = pageSection{
			Heading: fmt.Sprintf("%s topic %d", category, s+1),
			Body:    fillerParagraph(rng, 30+rng.Intn(50)),
		}
	}

	navCount := 3 + rng.Intn(3)
	nav := make([]string, navCount)
	for n := range nav {
		nav[n] = navPool[rng.Intn(len(navPool))]
	}

	data := pageData{
		Title:         fmt.Sprintf("%s Example %d", category, index),
		FontFamily:    fonts[rng.Intn(len(fonts))],
		Background:    backgrounds[rng.Intn(len(backgrounds))],
		TextColor:     "#222222",
		AccentColor:   accents[rng.Intn(len(accents))],
		HeaderPadding: 16 + rng.Intn(24),
		ContentWidth:  720 + rng.Intn(480),
		NavItems:      nav,
		Sections:      sections,
		Footer:        fmt.Sprintf("Sample %s page %d", strings.ToLower(category), index),
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func pageSeed(category string, index int) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s/%d", category, index)
	return int64(h.Sum64())
}

var fillerWords = []string{
	"service", "quality", "design", "content", "update", "review", "product",
	"detail", "support", "feature", "release", "guide", "report", "summary",
	"overview", "insight", "process", "result", "option", "system",
}

func fillerParagraph(rng *rand.Rand, words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = fillerWords[rng.Intn(len(fillerWords))]
	}
	return strings.Join(parts, " ")
}
