package models

import (
	"time"
)

// Page sources
const (
	PageSourceCrawled   = "crawled"   // Downloaded from a live URL
	PageSourceSynthetic = "synthetic" // Generated locally
)

// PageDocument is one collected or generated HTML page and its derived
// artifacts, stored in the document store and aggregated by the metadata
// phase.
type PageDocument struct {
	// Identity
	ID       string `json:"id"`       // page_{uuid}
	Category string `json:"category"` // Blog, Commerce, ...
	Filename string `json:"filename"` // Relative to the raw HTML dir, e.g. "Blog/blog_real_3.html"

	// Provenance
	Source string `json:"source"` // "crawled" or "synthetic"
	URL    string `json:"url"`    // Origin URL for crawled pages, empty for synthetic

	// Derived artifacts (filenames within the screenshot dirs)
	Screenshots    []string `json:"screenshots"`     // Color-transformed captures, one per monitor
	RawScreenshots []string `json:"raw_screenshots"` // Untransformed captures, one per monitor

	// Timestamps
	CollectedAt time.Time `json:"collected_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
