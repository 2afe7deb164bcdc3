// Package batchinput prepares the per-line input records of a batch run.
//
// A batch run executes a flow once for every aligned line across one or more
// named datasets. This package merges the datasets into composite lines and
// projects every line into the flow's input record through a column mapping.
//
// # Key Components
//
// MergeByLine: aligns named datasets into CompositeLine values. Datasets
// without a line_number field are aligned by position and must all have the
// same length; datasets whose records carry line_number are aligned by that
// value. Lines missing from any dataset are dropped.
//
// CompleteMapping: derives the effective mapping. Every declared flow input
// defaults to "${data.<input>}" unless the input has its own default value;
// explicitly supplied entries always win.
//
// ApplyMapping: resolves one mapping against one composite line. References
// have the form "${key.field}" where key names a dataset and field names a
// field of that dataset's record. Every other value is a literal.
//
// Processor: runs the three steps above for a whole batch request.
//
// # Reference Resolution
//
// A reference path may contain dots in both the dataset name and the field
// name, so "${a.b.c}" can mean dataset "a" with field "b.c" or dataset "a.b"
// with field "c". Splits are tried with the shortest dataset name first and
// the first split that resolves wins:
//
//	${data.nested.field}  → try ("data", "nested.field"), then ("data.nested", "field")
//
// All references that resolve nowhere are reported together in one
// MappingNotFoundError.
//
// # Concurrency
//
// Everything in this package is a pure transformation over values built
// inside the call. Resolution of individual lines is independent, so the
// Processor can resolve lines in parallel through an iteration.Iterator while
// still returning them in line order.
package batchinput
