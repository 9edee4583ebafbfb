package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/rx-timeline-engine/internal/domain"
)

// Load reads and validates a catalog document from a JSON file. Errors are
// fatal to engine startup; a malformed catalog must never be reasoned over.
func Load(path string, logger *logrus.Logger) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %v: %w", path, err, domain.ErrCatalogInvalid)
	}

	cat, err := New(&doc)
	if err != nil {
		return nil, fmt.Errorf("catalog file %s failed validation: %w", path, err)
	}

	logger.WithFields(logrus.Fields{
		"path":    path,
		"version": cat.Version(),
		"stats":   cat.Stats(),
	}).Info("Rule catalog loaded")

	return cat, nil
}

// FromConfig resolves the catalog source: a configured file path, or the
// compiled-in default when no path is set.
func FromConfig(cfg domain.CatalogConfig, logger *logrus.Logger) (*Catalog, error) {
	if cfg.Path != "" {
		return Load(cfg.Path, logger)
	}
	cat, err := Builtin()
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"version": cat.Version(),
		"stats":   cat.Stats(),
	}).Info("Using built-in rule catalog")
	return cat, nil
}
