package batchinput

import "go.uber.org/zap"

// DefaultMapping maps every declared flow input to the same-named field of the
// "data" dataset, skipping inputs that have their own default value. A new map
// is built on every call.
func DefaultMapping(inputs FlowInputs) MappingSpec {
	mapping := make(MappingSpec, len(inputs))
	for name, def := range inputs {
		if def.HasDefault() {
			continue
		}
		mapping[name] = "${" + DefaultDataInput + "." + name + "}"
	}
	return mapping
}

// CompleteMapping returns the effective mapping: the default mapping with the
// explicit entries laid over it. Neither argument is modified.
func CompleteMapping(explicit MappingSpec, inputs FlowInputs, logger *zap.Logger) MappingSpec {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(explicit) == 0 {
		logger.Warn("Starting run without column mapping may lead to unexpected results. " +
			"Please map every flow input explicitly, e.g. {\"question\": \"${data.question}\"}")
	}

	mapping := DefaultMapping(inputs)
	for key, expr := range explicit {
		mapping[key] = expr
	}

	logger.Debug("Completed input mapping",
		zap.Int("flow_inputs", len(inputs)),
		zap.Int("explicit_entries", len(explicit)),
		zap.Strings("targets", mapping.Keys()))
	return mapping
}
