package message

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Run identifies the batch run a line belongs to
type Run struct {
	RunID  string `json:"runId"`
	FlowID string `json:"flowId,omitempty"`
}

// LineMessage carries the resolved inputs of one line to the execution engine.
// Messages are serialized to JSON for transmission.
type LineMessage struct {
	// CorrelationID is a unique identifier for tracking this line across the system
	CorrelationID string `json:"correlationId"`

	// Run contains the batch run information
	Run *Run `json:"run,omitempty"`

	// LineNumber is the logical line; -1 when the inputs carried none
	LineNumber int `json:"lineNumber"`

	// Inputs are the resolved flow inputs, line_number included
	Inputs map[string]interface{} `json:"inputs"`

	// Metadata holds additional key-value pairs for the message
	Metadata map[string]string `json:"metadata,omitempty"`

	// CreatedAt is the timestamp when the message was created
	CreatedAt string `json:"createdAt"`
}

// NewLineMessage creates a message for one line of a run
func NewLineMessage(runID, flowID string, lineNumber int, inputs map[string]interface{}) *LineMessage {
	return &LineMessage{
		CorrelationID: uuid.NewString(),
		Run: &Run{
			RunID:  runID,
			FlowID: flowID,
		},
		LineNumber: lineNumber,
		Inputs:     inputs,
		Metadata:   make(map[string]string),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
}

// WithMetadata adds metadata to the message
func (m *LineMessage) WithMetadata(key, value string) *LineMessage {
	if m.Metadata == nil {
		m.Metadata = make(map[string]string)
	}
	m.Metadata[key] = value
	return m
}

// ToBytes serializes the message to JSON bytes
func (m *LineMessage) ToBytes() ([]byte, error) {
	return json.Marshal(m)
}

// FromBytes deserializes a message from JSON bytes
func FromBytes(data []byte) (*LineMessage, error) {
	var msg LineMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
