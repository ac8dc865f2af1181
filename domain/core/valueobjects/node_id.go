package valueobjects

import (
	"encoding/json"
	"errors"
)

// NodeID is a value object identifying a dream entry by its source location:
// the journal file path plus an optional block reference.
// Value objects are immutable and have no identity beyond their value.
type NodeID struct {
	value string
}

// NewNodeID builds a NodeID from a journal file path and block reference.
// The block reference may be empty for whole-file entries.
func NewNodeID(filePath, blockRef string) (NodeID, error) {
	if filePath == "" {
		return NodeID{}, errors.New("node ID requires a source file path")
	}
	if blockRef == "" {
		return NodeID{value: filePath}, nil
	}
	return NodeID{value: filePath + "#^" + blockRef}, nil
}

// NewNodeIDFromString creates a NodeID from an existing identifier string
func NewNodeIDFromString(id string) (NodeID, error) {
	if id == "" {
		return NodeID{}, errors.New("node ID cannot be empty")
	}
	return NodeID{value: id}, nil
}

// String returns the string representation of the NodeID
func (id NodeID) String() string {
	return id.value
}

// Equals checks if two NodeIDs are equal
func (id NodeID) Equals(other NodeID) bool {
	return id.value == other.value
}

// IsZero checks if the NodeID is the zero value
func (id NodeID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id NodeID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (id *NodeID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return errors.New("NodeID must be a string")
	}
	id.value = value
	return nil
}
