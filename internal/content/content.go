package content

import (
	_ "embed"
	"fmt"

	"diver-exam-service/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed banks.yaml
var banksYAML []byte

type document struct {
	Exams map[string][]domain.Question `yaml:"exams"`
}

// Load parses the embedded static question table, keyed by exam identifier.
func Load() (map[string][]domain.Question, error) {
	return Parse(banksYAML)
}

// Parse decodes a question table in the banks.yaml layout.
func Parse(data []byte) (map[string][]domain.Question, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse question banks: %w", err)
	}
	if doc.Exams == nil {
		doc.Exams = make(map[string][]domain.Question)
	}
	return doc.Exams, nil
}
