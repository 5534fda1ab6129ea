package phases

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
)

const urlMappingFile = "url_mapping.json"

// LoadURLMapping reads the flat filename-to-source-URL record kept alongside
// the raw HTML artifacts. A missing or corrupt file yields an empty mapping;
// the crawl phase rebuilds entries as it goes.
func LoadURLMapping(dataDir string, logger arbor.ILogger) map[string]string {
	path := filepath.Join(dataDir, urlMappingFile)
	mapping := map[string]string{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", path).Msg("Failed to read url mapping, starting empty")
		}
		return mapping
	}
	if err := json.Unmarshal(data, &mapping); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Corrupt url mapping, starting empty")
		return map[string]string{}
	}
	return mapping
}

// SaveURLMapping rewrites the whole mapping atomically. The file is small
// enough that a full rewrite is simpler than patching entries in place.
func SaveURLMapping(dataDir string, mapping map[string]string) error {
	path := filepath.Join(dataDir, urlMappingFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode url mapping: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write url mapping: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace url mapping: %w", err)
	}
	return nil
}
