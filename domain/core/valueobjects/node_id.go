package valueobjects

import (
	"errors"
	"strconv"
	"strings"
)

// NodeID is a value object representing a unique node identifier.
// Identifiers take the form "<kind>-<sequence>" when minted by the factory,
// but any non-empty string restored from a snapshot is accepted.
type NodeID struct {
	value string
}

// NewNodeID builds a NodeID for a kind and a sequence number
func NewNodeID(kind NodeKind, seq int64) NodeID {
	return NodeID{value: string(kind) + "-" + strconv.FormatInt(seq, 10)}
}

// NewNodeIDFromString creates a NodeID from an existing string
func NewNodeIDFromString(id string) (NodeID, error) {
	if strings.TrimSpace(id) == "" {
		return NodeID{}, errors.New("node ID cannot be empty")
	}
	return NodeID{value: id}, nil
}

// MustNodeID is NewNodeIDFromString for literals known to be valid
func MustNodeID(id string) NodeID {
	nodeID, err := NewNodeIDFromString(id)
	if err != nil {
		panic(err)
	}
	return nodeID
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

// Sequence returns the numeric suffix of the identifier, if it has one
func (id NodeID) Sequence() (int64, bool) {
	idx := strings.LastIndexByte(id.value, '-')
	if idx < 0 || idx == len(id.value)-1 {
		return 0, false
	}
	seq, err := strconv.ParseInt(id.value[idx+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}

// MarshalJSON implements json.Marshaler
func (id NodeID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(id.value)), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *NodeID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	value, err := strconv.Unquote(string(data))
	if err != nil {
		return errors.New("NodeID must be a string")
	}
	id.value = value
	return nil
}

// MarshalText implements encoding.TextMarshaler so NodeIDs can key maps
func (id NodeID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (id *NodeID) UnmarshalText(data []byte) error {
	id.value = string(data)
	return nil
}
