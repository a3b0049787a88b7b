package bindings

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"scopetable/pkg/scope"
)

// Snapshot serializes every binding visible from the table into the manifest
// shape, preserving resolution order (most-descendant definitions first).
// Plain public bindings use the scalar shorthand; visibility and constant
// flags force the full entry form.
func Snapshot(t *scope.Table[any]) ([]byte, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, v := range t.AllVariables() {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Name()}
		valueNode, err := encodeVariable(v)
		if err != nil {
			return nil, err
		}
		mapping.Content = append(mapping.Content, keyNode, valueNode)
	}

	doc := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	doc.Content = append(doc.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "bindings"},
		mapping,
	)
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("bindings: snapshot: %w", err)
	}
	return out, nil
}

func encodeVariable(v *scope.Variable[any]) (*yaml.Node, error) {
	valueNode := new(yaml.Node)
	if err := valueNode.Encode(v.Value()); err != nil {
		return nil, fmt.Errorf("bindings: snapshot %q: %w", v.Name(), err)
	}

	plain := v.Visibility() == scope.VisibilityPublic && !v.Locked()
	if plain && valueNode.Kind != yaml.MappingNode {
		return valueNode, nil
	}

	entry := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	entry.Content = append(entry.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "value"},
		valueNode,
	)
	if v.Visibility() != scope.VisibilityPublic {
		entry.Content = append(entry.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "visibility"},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Visibility().String()},
		)
	}
	if v.Locked() {
		entry.Content = append(entry.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "constant"},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: "true"},
		)
	}
	return entry, nil
}
