// Package datasource loads the named input datasets of a batch run.
//
// A Source turns a path into the ordered records of one dataset. A path may
// name a single file or a directory; directories are read recursively in
// lexical order. Supported formats are JSON Lines (.jsonl), JSON (.json, an
// array of objects or one object) and CSV (.csv, header row required). Files
// with other extensions are skipped.
//
// When MaxLines is set, reading stops once that many records are collected
// and any surplus is dropped with a warning.
package datasource
