package geo

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed namemap.yaml
var defaultNameMap []byte

// NameMap reconciles geometry-source names with dataset entity names. It is
// applied to the geometry side only.
type NameMap struct {
	Version int               `yaml:"version"`
	Entries map[string]string `yaml:"entries"`
}

// DefaultNameMap returns the embedded map.
func DefaultNameMap() *NameMap {
	nm, err := ParseNameMap(defaultNameMap)
	if err != nil {
		panic(fmt.Sprintf("embedded name map: %v", err))
	}
	return nm
}

// ParseNameMap decodes a YAML name map document. Entries mapping a name to
// itself are dropped.
func ParseNameMap(b []byte) (*NameMap, error) {
	var nm NameMap
	if err := yaml.Unmarshal(b, &nm); err != nil {
		return nil, fmt.Errorf("parse name map: %w", err)
	}
	if nm.Entries == nil {
		nm.Entries = map[string]string{}
	}
	for k, v := range nm.Entries {
		if k == v {
			delete(nm.Entries, k)
		}
	}
	return &nm, nil
}

// LoadNameMap reads a YAML name map from path. An empty path yields the
// embedded default.
func LoadNameMap(path string) (*NameMap, error) {
	if path == "" {
		return DefaultNameMap(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read name map: %w", err)
	}
	return ParseNameMap(b)
}

// Normalize returns the dataset name for a geometry name. Names without an
// entry are returned unchanged.
func (m *NameMap) Normalize(name string) string {
	if m == nil {
		return name
	}
	if v, ok := m.Entries[name]; ok {
		return v
	}
	return name
}

// Dangling lists entries whose source name is not among names, sorted. These
// never match anything and usually mean the basemap changed its spelling.
func (m *NameMap) Dangling(names []string) []string {
	if m == nil {
		return nil
	}
	have := make(map[string]struct{}, len(names))
	for _, n := range names {
		have[n] = struct{}{}
	}
	var out []string
	for k := range m.Entries {
		if _, ok := have[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Keys returns the source names, sorted.
func (m *NameMap) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.Entries))
	for k := range m.Entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Marshal encodes the map back to YAML.
func (m *NameMap) Marshal() ([]byte, error) {
	b, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal name map: %w", err)
	}
	return b, nil
}
