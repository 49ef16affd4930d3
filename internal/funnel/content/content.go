// Package content loads the funnel definition: the segmentation question
// and the per-path question lists, as YAML the content team can edit
// without touching the state machine or the recommendation rules.
package content

import (
	_ "embed"
	"fmt"
	"os"

	"quiz_funnel_backend/internal/funnel/domain"

	"gopkg.in/yaml.v3"
)

//go:embed funnel.yaml
var defaultYAML []byte

// Load returns the funnel definition. When path is empty the embedded
// default ships; otherwise the file at path overrides it entirely.
func Load(path string) (domain.Definition, error) {
	raw := defaultYAML
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.Definition{}, fmt.Errorf("read funnel content: %w", err)
		}
		raw = data
	}
	return parse(raw)
}

func parse(raw []byte) (domain.Definition, error) {
	var def domain.Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return domain.Definition{}, fmt.Errorf("parse funnel content: %w", err)
	}
	if err := validate(def); err != nil {
		return domain.Definition{}, fmt.Errorf("invalid funnel content: %w", err)
	}
	return def, nil
}

// validate rejects definitions the state machine cannot traverse safely:
// every known path must be declared (empty lists are fine), question and
// option IDs must be present and unique, and every question needs options.
func validate(def domain.Definition) error {
	if len(def.Segmentation.Options) == 0 {
		return fmt.Errorf("segmentation question has no options")
	}

	seen := map[string]bool{}
	check := func(q domain.Question) error {
		if q.ID == "" {
			return fmt.Errorf("question without an ID")
		}
		if seen[q.ID] {
			return fmt.Errorf("duplicate question ID %q", q.ID)
		}
		seen[q.ID] = true
		if len(q.Options) == 0 {
			return fmt.Errorf("question %q has no options", q.ID)
		}
		optSeen := map[string]bool{}
		for _, opt := range q.Options {
			if opt.ID == "" {
				return fmt.Errorf("question %q has an option without an ID", q.ID)
			}
			if optSeen[opt.ID] {
				return fmt.Errorf("question %q has duplicate option ID %q", q.ID, opt.ID)
			}
			optSeen[opt.ID] = true
		}
		return nil
	}

	if err := check(def.Segmentation); err != nil {
		return err
	}
	for _, path := range []domain.Path{domain.PathAdult, domain.PathChild, domain.PathFamily, domain.PathCompany} {
		qs, ok := def.Paths[path]
		if !ok {
			return fmt.Errorf("path %q is not declared", path)
		}
		for _, q := range qs {
			if err := check(q); err != nil {
				return err
			}
		}
	}
	return nil
}
