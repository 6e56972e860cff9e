package commands

// Reasons a gesture had no effect
const (
	ReasonUnknownKind     = "unknown_kind"
	ReasonUnknownNode     = "unknown_node"
	ReasonUnknownEdge     = "unknown_edge"
	ReasonRejected        = "rejected"
	ReasonNothingSelected = "nothing_selected"
)

// Outcome reports what a command did to the flow. A gesture the flow
// refuses is a normal outcome with Applied false, never an error.
type Outcome struct {
	Applied bool   `json:"applied"`
	NodeID  string `json:"nodeId,omitempty"`
	EdgeID  string `json:"edgeId,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Applied builds a successful outcome
func Applied() Outcome {
	return Outcome{Applied: true}
}

// Ignored builds an outcome for a refused gesture
func Ignored(reason string) Outcome {
	return Outcome{Reason: reason}
}
