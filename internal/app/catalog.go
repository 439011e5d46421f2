package app

import (
	_ "embed"
	"fmt"
	"os"

	"dashboard/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed examples.yaml
var defaultCatalog []byte

// Catalog holds the demo examples in declaration order.
type Catalog struct {
	Text  []domain.DemoExample `yaml:"text"`
	Image []domain.DemoExample `yaml:"image"`
}

// ParseCatalog decodes a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i, ex := range c.Image {
		if ex.ImagePath == "" {
			return nil, fmt.Errorf("parse catalog: image example %d (%s) has no image_path", i, ex.Title)
		}
	}
	return &c, nil
}

// LoadCatalog reads the catalog at path, or the built-in one when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}
