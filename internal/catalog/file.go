package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/quovi/discover/internal/restaurant"
)

// FileSource serves a catalog loaded once from a YAML or JSON file of the
// form {"data": [...]}.
type FileSource struct {
	path        string
	restaurants []restaurant.Restaurant
}

// LoadFile reads and parses the catalog at path. The format follows the
// extension: .json is JSON, anything else YAML.
func LoadFile(path string, logger *zap.Logger) (*FileSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var env envelope
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, &env)
	default:
		err = yaml.Unmarshal(raw, &env)
	}
	if err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}

	restaurants := sanitize(env.Data, logger.Named("catalog"))
	logger.Info("catalog file loaded",
		zap.String("path", path),
		zap.Int("restaurants", len(restaurants)),
	)
	return &FileSource{path: path, restaurants: restaurants}, nil
}

// Name returns "file".
func (s *FileSource) Name() string { return "file" }

// Restaurants returns the loaded catalog.
func (s *FileSource) Restaurants(ctx context.Context) ([]restaurant.Restaurant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.restaurants, nil
}
