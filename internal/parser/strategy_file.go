package parser

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"docparse/internal/domain"
)

// strategyFile is the on-disk shape of additional strategy registrations:
//
//	strategies:
//	  CREDIT_NOTE:
//	    hint: Also extract the referenced original invoice number.
//	    fields:
//	      originalInvoiceNumber: {type: string}
type strategyFile struct {
	Strategies map[string]SchemaExtension `yaml:"strategies"`
}

// LoadStrategies registers every extension declared in the YAML file at path.
// Types must belong to the detection taxonomy.
func LoadStrategies(s *StrategySelector, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading strategy file: %w", err)
	}
	return loadStrategies(s, raw)
}

func loadStrategies(s *StrategySelector, raw []byte) (int, error) {
	var file strategyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return 0, fmt.Errorf("parsing strategy file: %w", err)
	}

	count := 0
	for label, ext := range file.Strategies {
		t, ok := domain.DetectionTaxonomy.Lookup(label)
		if !ok {
			return count, fmt.Errorf("%w: unknown document type %q in strategy file", domain.ErrInvalidInput, strings.TrimSpace(label))
		}
		if err := s.Register(t, ext); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
