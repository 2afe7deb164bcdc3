package datasource

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/wehubfusion/batchinputs/pkg/batchinput"
)

// Format identifies how a file's records are encoded.
type Format string

const (
	FormatJSONL   Format = "jsonl"
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatUnknown Format = ""
)

// DetectFormat picks the format from the file extension.
func DetectFormat(name string) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".jsonl":
		return FormatJSONL
	case ".json":
		return FormatJSON
	case ".csv":
		return FormatCSV
	default:
		return FormatUnknown
	}
}

// Decode parses data in the given format into records.
func Decode(format Format, name string, data []byte) ([]batchinput.Record, error) {
	switch format {
	case FormatJSONL:
		return decodeJSONL(name, data)
	case FormatJSON:
		return decodeJSON(name, data)
	case FormatCSV:
		return decodeCSV(name, data)
	default:
		return nil, fmt.Errorf("unsupported format for %s", name)
	}
}

func decodeJSONL(name string, data []byte) ([]batchinput.Record, error) {
	var records []batchinput.Record
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !gjson.Valid(line) {
			return nil, fmt.Errorf("%s:%d: invalid JSON", name, i+1)
		}
		record, ok := toRecord(gjson.Parse(line))
		if !ok {
			return nil, fmt.Errorf("%s:%d: expected a JSON object", name, i+1)
		}
		records = append(records, record)
	}
	return records, nil
}

func decodeJSON(name string, data []byte) ([]batchinput.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%s: invalid JSON", name)
	}

	parsed := gjson.ParseBytes(data)
	if parsed.IsObject() {
		record, _ := toRecord(parsed)
		return []batchinput.Record{record}, nil
	}
	if !parsed.IsArray() {
		return nil, fmt.Errorf("%s: expected an array of objects or an object", name)
	}

	var records []batchinput.Record
	var decodeErr error
	parsed.ForEach(func(key, value gjson.Result) bool {
		record, ok := toRecord(value)
		if !ok {
			decodeErr = fmt.Errorf("%s[%d]: expected a JSON object", name, key.Int())
			return false
		}
		records = append(records, record)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return records, nil
}

func decodeCSV(name string, data []byte) ([]batchinput.Record, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read header: %w", name, err)
	}

	var records []batchinput.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		record := make(batchinput.Record, len(header))
		for i, column := range header {
			record[column] = row[i]
		}
		records = append(records, record)
	}
	return records, nil
}

func toRecord(result gjson.Result) (batchinput.Record, bool) {
	if !result.IsObject() {
		return nil, false
	}
	value, ok := result.Value().(map[string]interface{})
	if !ok {
		return nil, false
	}
	return batchinput.Record(value), true
}
