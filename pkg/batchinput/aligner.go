package batchinput

import (
	"encoding/json"
	"math"
	"sort"
)

// Alignment describes how a dataset contributes records to lines.
type Alignment int

const (
	// AlignmentPositional datasets contribute record i to line i.
	AlignmentPositional Alignment = iota
	// AlignmentKeyed datasets contribute every record to the line named by its line_number.
	AlignmentKeyed
)

func (a Alignment) String() string {
	if a == AlignmentKeyed {
		return "keyed"
	}
	return "positional"
}

// ClassifyDataset decides how a dataset is aligned. Every record must either
// carry line_number or omit it; a mix is rejected.
func ClassifyDataset(input string, records []Record) (Alignment, error) {
	withKey := 0
	for _, record := range records {
		if record.HasLineNumber() {
			withKey++
		}
	}
	switch withKey {
	case 0:
		return AlignmentPositional, nil
	case len(records):
		return AlignmentKeyed, nil
	default:
		return AlignmentPositional, &MixedLineNumberError{
			Input:      input,
			WithKey:    withKey,
			WithoutKey: len(records) - withKey,
		}
	}
}

// MergeByLine aligns the named datasets into composite lines ordered by line
// number. A line is kept only if every dataset contributes a record to it.
func MergeByLine(datasets Datasets) ([]CompositeLine, error) {
	names := datasets.Names()

	for _, name := range names {
		if len(datasets[name]) == 0 {
			return nil, &EmptyDatasetError{Input: name}
		}
	}

	alignments := make(map[string]Alignment, len(names))
	positionalLengths := make(map[string]int)
	for _, name := range names {
		alignment, err := ClassifyDataset(name, datasets[name])
		if err != nil {
			return nil, err
		}
		alignments[name] = alignment
		if alignment == AlignmentPositional {
			positionalLengths[name] = len(datasets[name])
		}
	}

	if !sameLength(positionalLengths) {
		return nil, &MisalignedLengthsError{Lengths: positionalLengths}
	}

	// built fresh per call and discarded on return
	table := make(map[int]map[string]Record)
	slot := func(index int) map[string]Record {
		entries, ok := table[index]
		if !ok {
			entries = make(map[string]Record, len(names))
			table[index] = entries
		}
		return entries
	}

	for _, name := range names {
		records := datasets[name]
		if alignments[name] == AlignmentPositional {
			for index, record := range records {
				slot(index)[name] = record
			}
			continue
		}
		for position, record := range records {
			index, ok := toLineNumber(record[LineNumberKey])
			if !ok {
				return nil, &InvalidLineNumberError{
					Input:    name,
					Position: position,
					Value:    record[LineNumberKey],
				}
			}
			slot(index)[name] = record
		}
	}

	indices := make([]int, 0, len(table))
	for index, entries := range table {
		// incomplete lines are dropped silently
		if len(entries) == len(names) {
			indices = append(indices, index)
		}
	}
	sort.Ints(indices)

	if len(indices) == 0 {
		return nil, &NoCompleteLineError{}
	}

	lines := make([]CompositeLine, 0, len(indices))
	for _, index := range indices {
		lines = append(lines, CompositeLine{
			LineNumber: index,
			Entries:    table[index],
		})
	}
	return lines, nil
}

func sameLength(lengths map[string]int) bool {
	first := -1
	for _, n := range lengths {
		if first < 0 {
			first = n
			continue
		}
		if n != first {
			return false
		}
	}
	return true
}

// toLineNumber accepts the integer shapes a decoded line_number can take.
func toLineNumber(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, n >= 0
	case int8:
		return int(n), n >= 0
	case int16:
		return int(n), n >= 0
	case int32:
		return int(n), n >= 0
	case int64:
		return int(n), n >= 0
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), n <= math.MaxInt32
	case float32:
		return floatLineNumber(float64(n))
	case float64:
		return floatLineNumber(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return floatLineNumber(f)
		}
		return int(i), i >= 0
	default:
		return 0, false
	}
}

func floatLineNumber(f float64) (int, bool) {
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
