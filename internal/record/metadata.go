package record

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Field is one named metadata value.
type Field struct {
	Key   string
	Value any
}

// Metadata is an insertion-ordered set of named fields. Stages add fields as a
// record moves through the pipeline; existing fields keep their position so
// files stay diffable across stages.
type Metadata []Field

// Get returns the value for key if present.
func (m Metadata) Get(key string) (any, bool) {
	for _, field := range m {
		if field.Key == key {
			return field.Value, true
		}
	}
	return nil, false
}

// GetString returns the value for key rendered as a string, or "" when absent.
func (m Metadata) GetString(key string) string {
	value, ok := m.Get(key)
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

// GetInt returns the value for key as an int. The second return reports
// whether the field exists and holds an integral value.
func (m Metadata) GetInt(key string) (int, bool) {
	value, ok := m.Get(key)
	if !ok {
		return 0, false
	}
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// Set replaces the value for key in place, or appends the field when absent.
func (m *Metadata) Set(key string, value any) {
	for i, field := range *m {
		if field.Key == key {
			(*m)[i].Value = value
			return
		}
	}
	*m = append(*m, Field{Key: key, Value: value})
}

// Has reports whether key is present.
func (m Metadata) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Clone returns an independent copy of the metadata.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	copy(out, m)
	return out
}

// Keys returns the field names in order.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for _, field := range m {
		keys = append(keys, field.Key)
	}
	return keys
}

// MarshalYAML renders the metadata as a mapping node that preserves field order.
func (m Metadata) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, field := range m {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: field.Key}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(field.Value); err != nil {
			return nil, fmt.Errorf("encode field %q: %w", field.Key, err)
		}
		node.Content = append(node.Content, keyNode, valueNode)
	}
	return node, nil
}

// UnmarshalYAML decodes a mapping node while retaining document order.
func (m *Metadata) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("metadata: expected mapping, got %s", nodeKind(node.Kind))
	}
	out := make(Metadata, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]
		var value any
		if err := valueNode.Decode(&value); err != nil {
			return fmt.Errorf("decode field %q: %w", keyNode.Value, err)
		}
		out = append(out, Field{Key: keyNode.Value, Value: value})
	}
	*m = out
	return nil
}

func nodeKind(kind yaml.Kind) string {
	switch kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
