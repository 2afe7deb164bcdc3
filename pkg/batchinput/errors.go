package batchinput

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/wehubfusion/batchinputs/pkg/errors"
)

// Error codes carried by the batch input errors.
const (
	CodeEmptyInputsData   = "EMPTY_INPUTS_DATA"
	CodeEmptyDataset      = "EMPTY_DATASET"
	CodeMisalignedLengths = "MISALIGNED_LENGTHS"
	CodeMixedLineNumbers  = "MIXED_LINE_NUMBERS"
	CodeInvalidLineNumber = "INVALID_LINE_NUMBER"
	CodeNoCompleteLine    = "NO_COMPLETE_LINE"
	CodeMappingNotFound   = "INPUT_MAPPING_NOT_FOUND"
	CodeUnexpected        = "UNEXPECTED_ERROR"
)

const inputIncorrect = "The input for batch run is incorrect."

// NoInputDataError is returned when every named input resolved to zero records.
type NoInputDataError struct {
	// Sources maps input name to the path it was loaded from
	Sources map[string]string
}

func (e *NoInputDataError) Error() string {
	names := make([]string, 0, len(e.Sources))
	for name := range e.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, name+": "+e.Sources[name])
	}
	return "Couldn't find any inputs data at the given input paths. " +
		"Please review the provided path and consider resubmitting.\n" + strings.Join(lines, "\n")
}

func (e *NoInputDataError) ErrorCode() string { return CodeEmptyInputsData }
func (e *NoInputDataError) Unwrap() error     { return apperrors.ErrEmptyInputsData }

// EmptyDatasetError is returned when one named dataset holds no records.
type EmptyDatasetError struct {
	Input string
}

func (e *EmptyDatasetError) Error() string {
	return fmt.Sprintf("%s Input from key '%s' is an empty list, "+
		"which means we cannot generate a single line input for the flow run. "+
		"Please rectify the input and try again.", inputIncorrect, e.Input)
}

func (e *EmptyDatasetError) ErrorCode() string { return CodeEmptyDataset }
func (e *EmptyDatasetError) Unwrap() error     { return apperrors.ErrInputMapping }

// MisalignedLengthsError is returned when positional datasets differ in length.
type MisalignedLengthsError struct {
	// Lengths maps every positional dataset to its record count
	Lengths map[string]int
}

func (e *MisalignedLengthsError) Error() string {
	names := make([]string, 0, len(e.Lengths))
	for name := range e.Lengths {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %d", name, e.Lengths[name]))
	}
	return fmt.Sprintf("%s Line numbers are not aligned. "+
		"Some lists have dictionaries missing the '%s' key, and the lengths of these lists are different. "+
		"List lengths are: {%s}. "+
		"Please make sure these lists have the same length or add '%s' key to each dictionary.",
		inputIncorrect, LineNumberKey, strings.Join(parts, ", "), LineNumberKey)
}

func (e *MisalignedLengthsError) ErrorCode() string { return CodeMisalignedLengths }
func (e *MisalignedLengthsError) Unwrap() error     { return apperrors.ErrInputMapping }

// MixedLineNumberError is returned when only some records of a dataset carry line_number.
type MixedLineNumberError struct {
	Input      string
	WithKey    int
	WithoutKey int
}

func (e *MixedLineNumberError) Error() string {
	return fmt.Sprintf("%s Input from key '%s' mixes records with and without the '%s' key "+
		"(%d with, %d without). All records in one input must uniformly carry or omit it.",
		inputIncorrect, e.Input, LineNumberKey, e.WithKey, e.WithoutKey)
}

func (e *MixedLineNumberError) ErrorCode() string { return CodeMixedLineNumbers }
func (e *MixedLineNumberError) Unwrap() error     { return apperrors.ErrInputMapping }

// InvalidLineNumberError is returned when a line_number is not a non-negative integer.
type InvalidLineNumberError struct {
	Input    string
	Position int
	Value    interface{}
}

func (e *InvalidLineNumberError) Error() string {
	return fmt.Sprintf("%s Record %d of input '%s' has an invalid '%s' value %v (%T); "+
		"it must be a non-negative integer.",
		inputIncorrect, e.Position, e.Input, LineNumberKey, e.Value, e.Value)
}

func (e *InvalidLineNumberError) ErrorCode() string { return CodeInvalidLineNumber }
func (e *InvalidLineNumberError) Unwrap() error     { return apperrors.ErrInputMapping }

// NoCompleteLineError is returned when no line has a record from every dataset.
type NoCompleteLineError struct{}

func (e *NoCompleteLineError) Error() string {
	return inputIncorrect + " Could not find one complete line on the provided input. " +
		"Please ensure that you supply data on the same line to resolve this issue."
}

func (e *NoCompleteLineError) ErrorCode() string { return CodeNoCompleteLine }
func (e *NoCompleteLineError) Unwrap() error     { return apperrors.ErrInputMapping }

// MappingNotFoundError lists every reference that matched nothing on a line.
type MappingNotFoundError struct {
	Relations []string
}

func (e *MappingNotFoundError) Error() string {
	return fmt.Sprintf("%s Couldn't find these mapping relations: %s. "+
		"Please make sure your input mapping keys and values match your YAML input section and input data.",
		inputIncorrect, strings.Join(e.Relations, ", "))
}

func (e *MappingNotFoundError) ErrorCode() string { return CodeMappingNotFound }
func (e *MappingNotFoundError) Unwrap() error     { return apperrors.ErrInputMapping }

// UnexpectedError signals a defect in the calling code, not bad user input.
type UnexpectedError struct {
	Message string
}

func (e *UnexpectedError) Error() string {
	return e.Message
}

func (e *UnexpectedError) ErrorCode() string { return CodeUnexpected }
func (e *UnexpectedError) Unwrap() error     { return apperrors.ErrUnexpected }
