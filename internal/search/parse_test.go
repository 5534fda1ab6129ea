package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractResultLinks(t *testing.T) {
	html := `<html><body>
		<a href="https://example.com/page">Example</a>
		<a href="https://www.google.com/preferences">Settings</a>
		<a href="/relative/path">Relative</a>
		<a href="javascript:void(0)">Script</a>
		<a href="https://another.org/doc.html">Another</a>
	</body></html>`

	links, err := extractResultLinks(html, googleSkipHosts)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.com/page",
		"https://another.org/doc.html",
	}, links)
}

func TestExtractResultLinks_SkipsEngineHosts(t *testing.T) {
	html := `<html><body>
		<a href="https://www.bing.com/images">Images</a>
		<a href="https://login.live.com/">Sign in</a>
		<a href="https://docs.example.com/intro">Docs</a>
	</body></html>`

	links, err := extractResultLinks(html, bingSkipHosts)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://docs.example.com/intro"}, links)
}

func TestParseDuckDuckGoResults(t *testing.T) {
	html := `<html><body>
		<div class="result">
			<a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fguide&amp;rut=abc">Guide</a>
		</div>
		<div class="result">
			<a class="result__a" href="https://direct.example.org/page">Direct</a>
		</div>
		<div class="result">
			<a class="other" href="https://ignored.example.net/">Not a result</a>
		</div>
	</body></html>`

	links, err := parseDuckDuckGoResults(html)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.com/guide",
		"https://direct.example.org/page",
	}, links)
}

func TestUnwrapDuckDuckGoLink(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{"wrapped", "//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fa%20b", "https://example.com/a b"},
		{"direct", "https://example.com/plain", "https://example.com/plain"},
		{"non-http target", "//duckduckgo.com/l/?uddg=ftp%3A%2F%2Fexample.com%2Ffile", ""},
		{"engine internal", "https://duckduckgo.com/settings", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, unwrapDuckDuckGoLink(tt.href))
		})
	}
}
