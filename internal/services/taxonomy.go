package services

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Taxonomy maps preference tags to the keywords used when building
// shopping queries. Tags without an entry are used verbatim.
type Taxonomy struct {
	Styles        map[string]string `yaml:"styles"`
	ClothingTypes map[string]string `yaml:"clothing_types"`
}

func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy file: %w", err)
	}
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse taxonomy file: %w", err)
	}
	return &t, nil
}

func (t *Taxonomy) StyleKeyword(tag string) string {
	if t == nil {
		return tag
	}
	return t.lookup(t.Styles, tag)
}

func (t *Taxonomy) ClothingKeyword(tag string) string {
	if t == nil {
		return tag
	}
	return t.lookup(t.ClothingTypes, tag)
}

func (t *Taxonomy) lookup(m map[string]string, tag string) string {
	if m == nil {
		return tag
	}
	if kw, ok := m[strings.ToLower(strings.TrimSpace(tag))]; ok && kw != "" {
		return kw
	}
	return tag
}
