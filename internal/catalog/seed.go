package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile loads listings from a YAML document of the form
//
//	listings:
//	  - id: LAG-001
//	    title: 2-Bedroom Modern Apartment in Yaba
//	    ...
type SeedFile string

type seedDocument struct {
	Listings []Entry `yaml:"listings"`
}

// Load implements Loader.
func (f SeedFile) Load(_ context.Context) ([]Entry, error) {
	raw, err := os.ReadFile(string(f))
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(raw)
}

// ParseSeed decodes a seed document.
func ParseSeed(raw []byte) ([]Entry, error) {
	var doc seedDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return doc.Listings, nil
}
