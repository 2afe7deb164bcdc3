package batchinput

import (
	"reflect"
	"sort"
)

// LineNumberKey is the reserved field that identifies a record's logical line.
const LineNumberKey = "line_number"

// DefaultDataInput is the dataset the default mapping reads from.
const DefaultDataInput = "data"

// Record is one loaded row: field name to arbitrary value.
type Record map[string]interface{}

// HasLineNumber reports whether the record carries the reserved line number field.
func (r Record) HasLineNumber() bool {
	_, ok := r[LineNumberKey]
	return ok
}

// NamedDataset pairs an input name with its ordered records.
type NamedDataset struct {
	Name    string
	Records []Record
}

// Datasets maps input names to their loaded records.
type Datasets map[string][]Record

// FromNamed builds Datasets from a list of named datasets. A later dataset
// with the same name replaces an earlier one.
func FromNamed(named ...NamedDataset) Datasets {
	ds := make(Datasets, len(named))
	for _, n := range named {
		ds[n.Name] = n.Records
	}
	return ds
}

// Names returns the dataset names in sorted order.
func (d Datasets) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsEmpty reports whether no dataset holds any record.
func (d Datasets) IsEmpty() bool {
	for _, records := range d {
		if len(records) > 0 {
			return false
		}
	}
	return true
}

// NoLineNumber marks a composite line that was not produced by MergeByLine
// and has no logical line number.
const NoLineNumber = -1

// CompositeLine holds the record of every dataset for one logical line.
type CompositeLine struct {
	LineNumber int
	Entries    map[string]Record
}

// NewCompositeLine builds a line without a line number, for resolving a single
// set of inputs outside a batch.
func NewCompositeLine(entries map[string]Record) CompositeLine {
	return CompositeLine{LineNumber: NoLineNumber, Entries: entries}
}

// HasLineNumber reports whether the line carries a logical line number.
func (l CompositeLine) HasLineNumber() bool {
	return l.LineNumber >= 0
}

// Lookup returns field of the entry named key.
func (l CompositeLine) Lookup(key, field string) (interface{}, bool) {
	entry, ok := l.Entries[key]
	if !ok {
		return nil, false
	}
	value, ok := entry[field]
	return value, ok
}

// MappingSpec maps a flow input name to a mapping expression. A string of the
// form "${key.field}" is a reference; anything else is a literal.
type MappingSpec map[string]interface{}

// Clone returns a shallow copy of the mapping.
func (m MappingSpec) Clone() MappingSpec {
	out := make(MappingSpec, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Keys returns the mapping's target names in sorted order.
func (m MappingSpec) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ResolvedInputRecord is the input record handed to the flow for one line.
type ResolvedInputRecord map[string]interface{}

// LineNumber returns the record's line number if it has one.
func (r ResolvedInputRecord) LineNumber() (int, bool) {
	n, ok := r[LineNumberKey].(int)
	return n, ok
}

// FlowInputDefinition describes one declared input of the flow.
type FlowInputDefinition struct {
	Type        string      `json:"type,omitempty"`
	Default     interface{} `json:"default,omitempty"`
	Description string      `json:"description,omitempty"`
}

// HasDefault reports whether the input declares a usable built-in default.
// Zero values (nil, "", false, 0, empty collections) do not count.
func (d FlowInputDefinition) HasDefault() bool {
	if d.Default == nil {
		return false
	}
	v := reflect.ValueOf(d.Default)
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		return v.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !v.IsNil()
	default:
		return !v.IsZero()
	}
}

// FlowInputs maps input names to their definitions.
type FlowInputs map[string]FlowInputDefinition
