package batchinput

const missingMappingMessage = "The input for batch run is incorrect. Please make sure to set up a proper " +
	"input mapping before proceeding. Resolution was invoked without any input mapping."

// ApplyMapping resolves mapping against one composite line.
//
// The line_number target is ignored. Non-string values and strings that are
// not references are copied as literals. References resolve through
// Reference.Resolve; every reference that resolves nowhere is collected and
// reported in a single MappingNotFoundError. When the line has a number it is
// copied into the result under LineNumberKey.
func ApplyMapping(line CompositeLine, mapping MappingSpec) (ResolvedInputRecord, error) {
	if mapping == nil {
		return nil, &UnexpectedError{Message: missingMappingMessage}
	}

	result := make(ResolvedInputRecord, len(mapping)+1)
	var notFound []string

	for _, target := range mapping.Keys() {
		if target == LineNumberKey {
			continue
		}
		expr := mapping[target]
		str, isString := expr.(string)
		if !isString {
			result[target] = expr
			continue
		}
		ref, isRef := ParseReference(str)
		if !isRef {
			result[target] = str
			continue
		}
		value, ok := ref.Resolve(line)
		if !ok {
			notFound = append(notFound, ref.Raw)
			continue
		}
		result[target] = value
	}

	if len(notFound) > 0 {
		return nil, &MappingNotFoundError{Relations: notFound}
	}

	if line.HasLineNumber() {
		result[LineNumberKey] = line.LineNumber
	}
	return result, nil
}
