package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader reads the subscriptions file (feed list plus host quirks).
type Loader struct {
	path string
}

func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load parses and validates the subscriptions file. A missing file yields an
// empty subscription set: feeds can still be added through the API.
func (l *Loader) Load() (*Subscriptions, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Subscriptions{}, nil
		}
		return nil, fmt.Errorf("failed to read subscriptions file: %w", err)
	}

	var subs Subscriptions
	if err := yaml.Unmarshal(data, &subs); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.setDefaults(&subs)

	if err := l.validate(&subs); err != nil {
		return nil, fmt.Errorf("invalid subscriptions file %s: %w", l.path, err)
	}

	return &subs, nil
}

func (l *Loader) setDefaults(subs *Subscriptions) {
	for i := range subs.Feeds {
		if subs.Feeds[i].Category == "" {
			subs.Feeds[i].Category = "Uncategorized"
		}
	}
}

func (l *Loader) validate(subs *Subscriptions) error {
	seen := make(map[string]bool, len(subs.Feeds))
	for i, f := range subs.Feeds {
		if f.URL == "" {
			return fmt.Errorf("feed at index %d has no URL", i)
		}
		if f.ID != "" {
			if seen[f.ID] {
				return fmt.Errorf("duplicate feed id %q", f.ID)
			}
			seen[f.ID] = true
		}
	}

	for i, q := range subs.Quirks {
		if q.Host == "" {
			return fmt.Errorf("quirk at index %d has no host", i)
		}
		if !q.SkipConditional && !q.ForceNoCache {
			return fmt.Errorf("quirk for %s enables no behavior", q.Host)
		}
	}

	return nil
}
