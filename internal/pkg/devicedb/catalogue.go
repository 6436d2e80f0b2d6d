package devicedb

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/model"
)

//go:embed categories.yaml
var defaultCatalogue []byte

var ErrCatalogue = errors.New("devicedb: malformed category catalogue")

// Feature is one entry of a legacy category's feature list.
type Feature struct {
	Name     string          `yaml:"name"`
	DataType model.ValueType `yaml:"data_type"`
	Required bool            `yaml:"required"`
}

// Catalogue maps a legacy category to its ordered features.
type Catalogue map[model.Category][]Feature

func ParseCatalogue(data []byte) (Catalogue, error) {
	c := Catalogue{}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogue, err)
	}
	return c, nil
}

// LoadCatalogue returns the built-in catalogue with categories from path
// replacing the built-in ones. An empty or missing path yields the built-in
// catalogue.
func LoadCatalogue(path string) (Catalogue, error) {
	c, err := ParseCatalogue(defaultCatalogue)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	override, err := ParseCatalogue(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for category, features := range override {
		c[category] = features
	}
	return c, nil
}

// Features returns the features of category, falling back to relay.
func (c Catalogue) Features(category model.Category) []Feature {
	if f, ok := c[category]; ok {
		return f
	}
	return c[model.CategoryRelay]
}

func (f Feature) defaultValue() any {
	switch f.DataType {
	case model.ValueBool:
		return f.Name == model.FeatureOnline
	case model.ValueInteger:
		return 0
	case model.ValueEnum:
		return ""
	}
	return false
}
