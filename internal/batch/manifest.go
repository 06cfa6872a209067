// Package batch applies manifest-driven comment edits to many files,
// concurrently for explicit path lists and continuously for watched
// directories.
package batch

import (
	"fmt"
	"os"
	"slices"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/simonhull/vorbistag"
)

// Manifest mirrors the TOML rule file:
//
//	vendor = "my encoder"   # optional vendor override
//	clear = true            # drop existing entries first
//	del = ["COMMENT"]       # keys to delete
//
//	[set]                   # replace values
//	ALBUM = "Substrata"
//	GENRE = ["Ambient", "Electronic"]
//
//	[add]                   # append values
//	PERFORMER = "Biosphere"
//
// Set and Add values may be a single string or an array of strings.
type Manifest struct {
	Vendor *string        `toml:"vendor"`
	Clear  bool           `toml:"clear"`
	Set    map[string]any `toml:"set"`
	Add    map[string]any `toml:"add"`
	Del    []string       `toml:"del"`
}

// Rule is one key edit with its values in manifest order.
type Rule struct {
	Key    string
	Values []string
}

// Rules is a validated, deterministically ordered rendering of a
// Manifest, ready to apply.
type Rules struct {
	Vendor *string
	Clear  bool
	Set    []Rule
	Add    []Rule
	Del    []string
}

// LoadManifest reads and validates a TOML manifest file.
func LoadManifest(path string) (*Rules, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := toml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	rules, err := m.Rules()
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return rules, nil
}

// Rules validates the manifest and sorts its maps by key, so repeated
// runs apply the same edits in the same order.
func (m *Manifest) Rules() (*Rules, error) {
	rules := &Rules{Vendor: m.Vendor, Clear: m.Clear, Del: slices.Clone(m.Del)}

	var err error
	if rules.Set, err = toRules(m.Set); err != nil {
		return nil, fmt.Errorf("set: %w", err)
	}
	if rules.Add, err = toRules(m.Add); err != nil {
		return nil, fmt.Errorf("add: %w", err)
	}
	for _, key := range rules.Del {
		if !vorbistag.IsValidKey(key) {
			return nil, fmt.Errorf("del: invalid key %q", key)
		}
	}
	return rules, nil
}

func toRules(m map[string]any) ([]Rule, error) {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	rules := make([]Rule, 0, len(m))
	for _, key := range keys {
		if !vorbistag.IsValidKey(key) {
			return nil, fmt.Errorf("invalid key %q", key)
		}
		values, err := toValues(m[key])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		rules = append(rules, Rule{Key: key, Values: values})
	}
	return rules, nil
}

func toValues(v any) ([]string, error) {
	switch v := v.(type) {
	case string:
		return []string{v}, nil
	case []any:
		values := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("want string values, got %T", item)
			}
			values = append(values, s)
		}
		return values, nil
	default:
		return nil, fmt.Errorf("want a string or an array of strings, got %T", v)
	}
}

// Apply edits one comment block in place. Order: clear, deletes,
// replaces, appends, vendor override.
func (r *Rules) Apply(c *vorbistag.Comments) {
	if r.Clear {
		c.Clear()
	}
	for _, key := range r.Del {
		c.Del(key)
	}
	for _, rule := range r.Set {
		c.Set(rule.Key, rule.Values...)
	}
	for _, rule := range r.Add {
		for _, v := range rule.Values {
			c.Add(rule.Key, v)
		}
	}
	if r.Vendor != nil {
		c.Vendor = *r.Vendor
	}
}
