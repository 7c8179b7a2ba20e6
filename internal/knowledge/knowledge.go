// Package knowledge loads the diagnosis knowledge base: the set of class
// names that mean a healthy plant, the remedy text per disease class and
// the confidence threshold above which the local classifier is trusted.
package knowledge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Base .
type Base struct {
	ConfidenceThreshold float64
	DefaultRemedy       string

	healthy  map[string]struct{}
	remedies map[string]string
}

type fileFormat struct {
	ConfidenceThreshold float64           `yaml:"confidence_threshold"`
	DefaultRemedy       string            `yaml:"default_remedy"`
	HealthyClasses      []string          `yaml:"healthy_classes"`
	Remedies            map[string]string `yaml:"remedies"`
}

// Load reads the knowledge base from a YAML file.
func Load(path string) (*Base, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge base: %w", err)
	}

	var raw fileFormat
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge base: %w", err)
	}

	return FromConfig(raw.ConfidenceThreshold, raw.DefaultRemedy, raw.HealthyClasses, raw.Remedies), nil
}

// FromConfig builds a Base from already loaded values. Tests use it with
// synthetic class sets.
func FromConfig(threshold float64, defaultRemedy string, healthyClasses []string, remedies map[string]string) *Base {
	healthy := make(map[string]struct{}, len(healthyClasses))
	for _, c := range healthyClasses {
		healthy[c] = struct{}{}
	}

	if threshold <= 0 {
		threshold = 0.50
	}
	if defaultRemedy == "" {
		defaultRemedy = "Consult a local agricultural expert for specific treatment options."
	}
	if remedies == nil {
		remedies = make(map[string]string)
	}

	return &Base{
		ConfidenceThreshold: threshold,
		DefaultRemedy:       defaultRemedy,
		healthy:             healthy,
		remedies:            remedies,
	}
}

// IsHealthy reports whether the class name denotes a healthy plant.
func (b *Base) IsHealthy(class string) bool {
	_, ok := b.healthy[class]

	return ok
}

// RemedyFor returns the remedy text for a disease class, falling back to
// the default remedy for classes not in the table.
func (b *Base) RemedyFor(class string) string {
	if r, ok := b.remedies[class]; ok {
		return r
	}

	return b.DefaultRemedy
}
