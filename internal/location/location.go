// Package location resolves city names mentioned in free-form text against
// a gazetteer file. It backs up the router when a weather tool call comes
// back without a location parameter.
package location

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var wordRe = regexp.MustCompile(`\w+`)

// Gazetteer is a loaded list of known city names.
type Gazetteer struct {
	cities map[string]struct{}
}

// Load reads a JSON array of city names.
func Load(path string) (*Gazetteer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read gazetteer: %w", err)
	}

	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return nil, fmt.Errorf("failed to parse gazetteer: %w", err)
	}

	return FromList(names), nil
}

// FromList builds a Gazetteer from an in-memory name list.
func FromList(names []string) *Gazetteer {
	cities := make(map[string]struct{}, len(names))
	for _, n := range names {
		cities[strings.ToLower(n)] = struct{}{}
	}

	return &Gazetteer{cities: cities}
}

// Extract returns the first known city mentioned in the text, capitalized,
// or "" when none matches. The match is per word, so "Indore" is found in
// "weather in indore tomorrow" but not inside longer words.
func (g *Gazetteer) Extract(text string) string {
	if g == nil {
		return ""
	}

	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if _, ok := g.cities[w]; ok {
			return capitalize(w)
		}
	}

	return ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
