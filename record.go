package fsmtemplate

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// KV is one entry of an OrderedMap.
type KV struct {
	Key   string
	Value string
}

// OrderedMap is an insertion-ordered string-to-string mapping. It is the
// shape a List value takes on when its regex has more than one capturing
// group: instead of a flat string, each accumulated entry is the set of
// named groups captured from that line, in the order they appear in the
// value's own regex.
type OrderedMap []KV

// Get returns the value for key and whether it was present.
func (m OrderedMap) Get(key string) (string, bool) {
	for _, kv := range m {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// MarshalYAML renders an OrderedMap as a YAML mapping with keys in
// insertion order, never alphabetized.
func (m OrderedMap) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, kv := range m {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: kv.Key}
		valNode := &yaml.Node{Kind: yaml.ScalarNode, Value: kv.Value}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

// Record is one emitted row, a fixed-width tuple aligned to a template's
// value-declaration order. A cell is nil, a string, or a []any of strings
// and/or OrderedMaps (produced by a List value).
//
// Record is a dedicated type rather than a map[string]any because Go map
// iteration order is undefined and the column order must survive
// serialization, not just in-process iteration.
type Record struct {
	names []string
	cells []any
}

// NewRecord builds a Record from parallel names and cells slices. names
// is not copied; callers constructing records outside this package
// should treat it as immutable afterward.
func NewRecord(names []string, cells []any) Record {
	return Record{names: names, cells: cells}
}

// Len returns the number of cells, equal to the owning template's value count.
func (r Record) Len() int { return len(r.cells) }

// Name returns the value name for column i.
func (r Record) Name(i int) string { return r.names[i] }

// Cell returns the cell at column i.
func (r Record) Cell(i int) any { return r.cells[i] }

// Get returns the cell for a given value name, and whether that name
// exists in this record's columns.
func (r Record) Get(name string) (any, bool) {
	for i, n := range r.names {
		if n == name {
			return r.cells[i], true
		}
	}
	return nil, false
}

// MarshalYAML renders a Record as a YAML mapping with keys in
// value-declaration order.
func (r Record) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for i, name := range r.names {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: name}
		valNode := &yaml.Node{}
		if err := valNode.Encode(r.cells[i]); err != nil {
			return nil, fmt.Errorf("encode cell %q: %w", name, err)
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

// Records is a parsed, ordered sequence of Record. It exists mainly to
// carry the ToYAML convenience without forcing every caller of
// Template.Parse / Table.Parse to import yaml.v3 themselves.
type Records []Record

// ToYAML renders the full sequence as a YAML document, one mapping per
// record, columns in value-declaration order.
func (rs Records) ToYAML() ([]byte, error) {
	return yaml.Marshal([]Record(rs))
}
