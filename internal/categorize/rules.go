// Package categorize assigns each ledger record a category from its
// description using an ordered table of regular-expression rules.
package categorize

import (
	"fmt"
	"regexp"
	"strings"
)

// Category is a named, ordered list of patterns.
type Category struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

type rule struct {
	category string
	pattern  string
	re       *regexp.Regexp
}

// Ruleset is a compiled, read-only rule table. Categories are tried in
// declaration order and patterns in order within a category; the first match
// wins.
type Ruleset struct {
	rules    []rule
	names    []string
	fallback string
}

// NewRuleset compiles categories. Patterns match case-insensitively against
// the lowercased, trimmed description.
func NewRuleset(categories []Category, fallback string) (*Ruleset, error) {
	if strings.TrimSpace(fallback) == "" {
		return nil, fmt.Errorf("ruleset needs a fallback category")
	}
	rs := &Ruleset{fallback: fallback}
	seen := map[string]bool{fallback: true}
	for _, c := range categories {
		if c.Name == "" {
			return nil, fmt.Errorf("category with empty name")
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("duplicate category %q", c.Name)
		}
		seen[c.Name] = true
		rs.names = append(rs.names, c.Name)

		for _, p := range c.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("category %q pattern %q: %w", c.Name, p, err)
			}
			rs.rules = append(rs.rules, rule{category: c.Name, pattern: p, re: re})
		}
	}
	return rs, nil
}

// Match is the outcome of categorizing one description.
type Match struct {
	Category string
	Pattern  string // empty when the fallback was used
}

// Explain reports the category for desc and the pattern that selected it.
func (rs *Ruleset) Explain(desc string) Match {
	text := strings.ToLower(strings.TrimSpace(desc))
	for _, r := range rs.rules {
		if r.re.MatchString(text) {
			return Match{Category: r.category, Pattern: r.pattern}
		}
	}
	return Match{Category: rs.fallback}
}

// Assign returns the category for desc.
func (rs *Ruleset) Assign(desc string) string {
	return rs.Explain(desc).Category
}

// Fallback returns the catch-all category.
func (rs *Ruleset) Fallback() string { return rs.fallback }

// Vocabulary returns every category the ruleset can assign, in declaration
// order, ending with the fallback.
func (rs *Ruleset) Vocabulary() []string {
	out := append([]string(nil), rs.names...)
	return append(out, rs.fallback)
}

// Categories returns the source patterns in declaration order.
func (rs *Ruleset) Categories() []Category {
	var out []Category
	idx := make(map[string]int)
	for _, n := range rs.names {
		idx[n] = len(out)
		out = append(out, Category{Name: n})
	}
	for _, r := range rs.rules {
		c := &out[idx[r.category]]
		c.Patterns = append(c.Patterns, r.pattern)
	}
	return out
}
