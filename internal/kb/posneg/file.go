package posneg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/celearn/internal/domain"
)

// ExamplesFile is the YAML layout of a learning problem:
//
//	positives: [stefan, markus]
//	negatives: [heinz, anna]
type ExamplesFile struct {
	Positives []string `yaml:"positives"`
	Negatives []string `yaml:"negatives"`
}

// LoadExamples reads positive and negative examples from a YAML file.
func LoadExamples(path string) (domain.ExampleSet, domain.ExampleSet, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, nil, fmt.Errorf("read examples: %w", err)
	}
	var f ExamplesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parse examples: %w: %w", domain.ErrInvalidInput, err)
	}
	return domain.NewExampleSet(f.Positives...), domain.NewExampleSet(f.Negatives...), nil
}
