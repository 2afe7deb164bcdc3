package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/wehubfusion/batchinputs/pkg/batchinput"
)

const (
	sinkStdout = "stdout"
	sinkNATS   = "nats"
	sinkBlob   = "blob"

	sourceLocal = "local"
	sourceBlob  = "blob"
)

// inputFlag collects repeated -input name=path values
type inputFlag map[string]string

func (f inputFlag) String() string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+f[name])
	}
	return strings.Join(pairs, ",")
}

func (f inputFlag) Set(value string) error {
	name, path, ok := strings.Cut(value, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || path == "" {
		return fmt.Errorf("expected name=path, got %q", value)
	}
	if _, dup := f[name]; dup {
		return fmt.Errorf("input %q given more than once", name)
	}
	f[name] = path
	return nil
}

type options struct {
	inputs     inputFlag
	mapping    string
	flowInputs string
	flowID     string
	sink       string
	source     string
	verbose    bool
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{inputs: inputFlag{}}

	fs := flag.NewFlagSet("batchinputs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Var(opts.inputs, "input", "named input as name=path (repeatable)")
	fs.StringVar(&opts.mapping, "mapping", "", "JSON file with the inputs mapping")
	fs.StringVar(&opts.flowInputs, "flow-inputs", "", "JSON file with the flow input definitions")
	fs.StringVar(&opts.flowID, "flow", "", "flow id stamped on the run")
	fs.StringVar(&opts.sink, "sink", sinkStdout, "where resolved inputs go: stdout, nats or blob")
	fs.StringVar(&opts.source, "source", sourceLocal, "where inputs are read from: local or blob")
	fs.BoolVar(&opts.verbose, "v", false, "verbose logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if len(opts.inputs) == 0 {
		return nil, fmt.Errorf("at least one -input is required")
	}
	switch opts.sink {
	case sinkStdout, sinkNATS, sinkBlob:
	default:
		return nil, fmt.Errorf("unknown sink %q", opts.sink)
	}
	switch opts.source {
	case sourceLocal, sourceBlob:
	default:
		return nil, fmt.Errorf("unknown source %q", opts.source)
	}
	return opts, nil
}

// readJSONObject reads a JSON object file. An empty path yields nil.
func readJSONObject(path string) (gjson.Result, bool, error) {
	if path == "" {
		return gjson.Result{}, false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return gjson.Result{}, false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, false, fmt.Errorf("%s is not valid JSON", path)
	}
	result := gjson.ParseBytes(data)
	if !result.IsObject() {
		return gjson.Result{}, false, fmt.Errorf("%s must contain a JSON object", path)
	}
	return result, true, nil
}

// loadMapping reads the explicit mapping. No file means no explicit mapping.
func loadMapping(path string) (batchinput.MappingSpec, error) {
	result, ok, err := readJSONObject(path)
	if err != nil || !ok {
		return nil, err
	}
	mapping := batchinput.MappingSpec{}
	result.ForEach(func(key, value gjson.Result) bool {
		mapping[key.String()] = value.Value()
		return true
	})
	return mapping, nil
}

// loadFlowInputs reads flow input definitions keyed by input name
func loadFlowInputs(path string) (batchinput.FlowInputs, error) {
	result, ok, err := readJSONObject(path)
	if err != nil || !ok {
		return batchinput.FlowInputs{}, err
	}
	inputs := batchinput.FlowInputs{}
	result.ForEach(func(key, value gjson.Result) bool {
		inputs[key.String()] = batchinput.FlowInputDefinition{
			Type:        value.Get("type").String(),
			Default:     value.Get("default").Value(),
			Description: value.Get("description").String(),
		}
		return true
	})
	return inputs, nil
}
