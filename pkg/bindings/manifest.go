package bindings

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"scopetable/pkg/scope"
)

// Manifest represents the parsed contents of a bindings file: an ordered set
// of seed bindings for a scope table.
type Manifest struct {
	Path    string
	Name    string
	Entries []Entry
}

// Entry describes one seed binding.
type Entry struct {
	Name       string
	Value      any
	Visibility scope.Visibility
	Constant   bool
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "bindings: invalid manifest"
	}
	var b strings.Builder
	b.WriteString("bindings: manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Load parses a bindings file from disk, returning a validated manifest.
func Load(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("bindings: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("bindings: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("bindings: open %s: %w", absPath, err)
	}
	defer file.Close()

	manifest, err := Parse(file)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("bindings: %s is empty", absPath)
		}
		return nil, err
	}
	manifest.Path = absPath
	return manifest, nil
}

// Parse decodes a bindings document from a reader, returning a validated
// manifest. Binding order follows document order.
func Parse(r io.Reader) (*Manifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, err
		}
		return nil, fmt.Errorf("bindings: parse: %w", err)
	}
	if err := raw.validate(); err != nil {
		return nil, err
	}
	return raw.toManifest(), nil
}

// Apply adds every entry to the table in manifest order, setting visibility
// and locking constants.
func (m *Manifest) Apply(t *scope.Table[any]) error {
	for _, entry := range m.Entries {
		var (
			v   *scope.Variable[any]
			err error
		)
		if entry.Constant {
			v, err = t.AddConstant(entry.Name, entry.Value)
		} else {
			v, err = t.Add(entry.Name, entry.Value)
		}
		if err != nil {
			return fmt.Errorf("bindings: apply %q: %w", entry.Name, err)
		}
		v.SetVisibility(entry.Visibility)
	}
	return nil
}

// NewTable creates a fresh root table seeded from the manifest.
func (m *Manifest) NewTable() (*scope.Table[any], error) {
	t := scope.New[any](nil)
	if err := m.Apply(t); err != nil {
		return nil, err
	}
	return t, nil
}

type manifestFile struct {
	Name     string     `yaml:"name"`
	Bindings bindingMap `yaml:"bindings"`
}

func (f *manifestFile) validate() error {
	var errs ValidationError
	seen := make(map[string]struct{}, len(f.Bindings.items))
	for _, item := range f.Bindings.items {
		if _, exists := seen[item.name]; exists {
			errs.Issues = append(errs.Issues, fmt.Sprintf("binding %q defined more than once", item.name))
		}
		seen[item.name] = struct{}{}
		if item.visibility != "" {
			if _, err := scope.ParseVisibility(item.visibility); err != nil {
				errs.Issues = append(errs.Issues, fmt.Sprintf("binding %q has unknown visibility %q", item.name, item.visibility))
			}
		}
		if item.constant && !item.hasValue {
			errs.Issues = append(errs.Issues, fmt.Sprintf("binding %q is constant but carries no value", item.name))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func (f *manifestFile) toManifest() *Manifest {
	manifest := &Manifest{
		Name:    strings.TrimSpace(f.Name),
		Entries: make([]Entry, 0, len(f.Bindings.items)),
	}
	for _, item := range f.Bindings.items {
		visibility := scope.VisibilityPublic
		if item.visibility != "" {
			visibility, _ = scope.ParseVisibility(item.visibility)
		}
		manifest.Entries = append(manifest.Entries, Entry{
			Name:       item.name,
			Value:      item.value,
			Visibility: visibility,
			Constant:   item.constant,
		})
	}
	return manifest
}

type entrySpec struct {
	name       string
	value      any
	hasValue   bool
	visibility string
	constant   bool
}

type bindingMap struct {
	items []entrySpec
}

func (bm *bindingMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == 0 {
		bm.items = nil
		return nil
	}
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		bm.items = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("bindings: bindings must be a mapping")
	}
	items := make([]entrySpec, 0, len(value.Content)/2)
	for i := 0; i < len(value.Content); i += 2 {
		keyNode := value.Content[i]
		valueNode := value.Content[i+1]

		var key string
		if err := keyNode.Decode(&key); err != nil {
			return err
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("bindings: bindings must not use empty keys")
		}
		entry, err := decodeEntry(key, valueNode)
		if err != nil {
			return err
		}
		items = append(items, entry)
	}
	bm.items = items
	return nil
}

// decodeEntry accepts either the full entry mapping (value, visibility,
// constant) or a bare scalar/sequence as shorthand for just the value. A
// mapping-shaped value must use the full form with an explicit value key.
func decodeEntry(name string, node *yaml.Node) (entrySpec, error) {
	if node.Kind != yaml.MappingNode {
		var v any
		if err := node.Decode(&v); err != nil {
			return entrySpec{}, fmt.Errorf("bindings: binding %q: %w", name, err)
		}
		return entrySpec{name: name, value: v, hasValue: true}, nil
	}

	entry := entrySpec{name: name}
	for i := 0; i < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]

		var key string
		if err := keyNode.Decode(&key); err != nil {
			return entrySpec{}, err
		}
		switch key {
		case "value":
			if err := valueNode.Decode(&entry.value); err != nil {
				return entrySpec{}, fmt.Errorf("bindings: binding %q: value: %w", name, err)
			}
			entry.hasValue = true
		case "visibility":
			if err := valueNode.Decode(&entry.visibility); err != nil {
				return entrySpec{}, fmt.Errorf("bindings: binding %q: visibility: %w", name, err)
			}
		case "constant":
			if err := valueNode.Decode(&entry.constant); err != nil {
				return entrySpec{}, fmt.Errorf("bindings: binding %q: constant: %w", name, err)
			}
		default:
			return entrySpec{}, fmt.Errorf("bindings: binding %q: unknown field %q", name, key)
		}
	}
	return entry, nil
}
