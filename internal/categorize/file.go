package categorize

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk rules format.
type File struct {
	Fallback   string     `yaml:"fallback"`
	Categories []Category `yaml:"categories"`
}

// LoadRules reads and compiles a YAML rules file.
func LoadRules(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	if f.Fallback == "" {
		f.Fallback = Fallback
	}
	rs, err := NewRuleset(f.Categories, f.Fallback)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// SaveRules writes rs as a YAML rules file.
func SaveRules(path string, rs *Ruleset) error {
	data, err := yaml.Marshal(File{Fallback: rs.Fallback(), Categories: rs.Categories()})
	if err != nil {
		return fmt.Errorf("marshaling rules: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}
	return nil
}
