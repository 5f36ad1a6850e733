package document

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes the first YAML document in data. It returns the value
// model together with the root node so callers can recover key positions.
// An empty document yields a null value and a nil node.
func ParseYAML(data []byte) (Value, *yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Value{}, nil, fmt.Errorf("%w: yaml: %w", ErrMalformed, err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return Null(), nil, nil
		}
		root = root.Content[0]
	}
	if root.Kind == 0 {
		return Null(), nil, nil
	}
	conv := yamlConverter{budget: maxYAMLNodes}
	v, err := conv.convert(root, 0)
	if err != nil {
		return Value{}, nil, fmt.Errorf("%w: yaml: %w", ErrMalformed, err)
	}
	return v, root, nil
}

const (
	// maxAliasDepth bounds alias chains so recursive anchors terminate.
	maxAliasDepth = 64
	// maxYAMLNodes bounds the expanded size of a document. Aliases can
	// multiply a few hundred bytes into billions of nodes.
	maxYAMLNodes = 1_000_000
)

var errYAMLTooLarge = errors.New("document expands beyond the node limit")

// yamlConverter turns a node tree into the value model, charging one unit
// of budget per node visited, aliases included.
type yamlConverter struct {
	budget int
}

func (c *yamlConverter) convert(n *yaml.Node, depth int) (Value, error) {
	if n == nil || depth > maxAliasDepth {
		return Null(), nil
	}
	c.budget--
	if c.budget < 0 {
		return Value{}, errYAMLTooLarge
	}
	switch n.Kind {
	case yaml.AliasNode:
		return c.convert(n.Alias, depth+1)
	case yaml.MappingNode:
		var m mappingBuilder
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			if key.Tag == "!!merge" {
				if err := c.merge(&m, val, depth+1); err != nil {
					return Value{}, err
				}
				continue
			}
			v, err := c.convert(val, depth)
			if err != nil {
				return Value{}, err
			}
			m.set(key.Value, v)
		}
		return m.value(), nil
	case yaml.SequenceNode:
		arr := Value{Kind: KindArray}
		for _, item := range n.Content {
			v, err := c.convert(item, depth)
			if err != nil {
				return Value{}, err
			}
			arr.Items = append(arr.Items, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return Null(), nil
		}
		return Scalar(n.Value), nil
	}
	return Null(), nil
}

// merge applies a "<<" merge key: merged entries never override keys
// already present in the mapping.
func (c *yamlConverter) merge(m *mappingBuilder, src *yaml.Node, depth int) error {
	merged, err := c.convert(src, depth)
	if err != nil {
		return err
	}
	var sources []Value
	switch merged.Kind {
	case KindMapping:
		sources = []Value{merged}
	case KindArray:
		sources = merged.Items
	}
	for _, s := range sources {
		for _, e := range s.Entries {
			m.setDefault(e.Key, e.Value)
		}
	}
	return nil
}
