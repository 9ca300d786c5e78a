package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Drinks []Drink `yaml:"drinks"`
}

// LoadSeedFile reads a YAML catalog. Ids default to a slug of the name and
// ingredients and tags are lower-cased so they compare with user signals.
func LoadSeedFile(path string) ([]Drink, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog file: %w", err)
	}

	seen := make(map[string]bool, len(f.Drinks))
	for i := range f.Drinks {
		d := &f.Drinks[i]
		d.Name = strings.TrimSpace(d.Name)
		if d.Name == "" {
			return nil, fmt.Errorf("catalog entry %d has no name", i+1)
		}
		if d.ID == "" {
			d.ID = slug(d.Name)
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("duplicate drink id %q", d.ID)
		}
		seen[d.ID] = true
		d.Ingredients = lowerAll(d.Ingredients)
		d.Tags = lowerAll(d.Tags)
	}
	return f.Drinks, nil
}

// LoadSeedFiles loads every catalog file matching the given patterns, which
// may use ** globs. Files load in pattern order, and in lexical order within
// a pattern; a drink id may appear only once across all files.
func LoadSeedFiles(patterns ...string) ([]Drink, error) {
	var (
		all    []Drink
		loaded = make(map[string]bool)
		seen   = make(map[string]string)
	)
	for _, pattern := range patterns {
		paths, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad catalog pattern %q: %w", pattern, err)
		}
		if len(paths) == 0 {
			return nil, fmt.Errorf("no catalog files match %q", pattern)
		}
		sort.Strings(paths)

		for _, path := range paths {
			if loaded[path] {
				continue
			}
			loaded[path] = true

			drinks, err := LoadSeedFile(path)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			for _, d := range drinks {
				if prev, ok := seen[d.ID]; ok {
					return nil, fmt.Errorf("drink id %q in %s is already defined in %s", d.ID, path, prev)
				}
				seen[d.ID] = path
			}
			all = append(all, drinks...)
		}
	}
	return all, nil
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func slug(name string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			dash = false
		case !dash && sb.Len() > 0:
			sb.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}
