package valueobjects

// IssueClass names a kind of defect found by validation
type IssueClass string

const (
	// IssueDisconnected marks a non-entry node with no incoming edge
	IssueDisconnected IssueClass = "disconnected"
	// IssueEmptyContent marks a node whose content counts as empty
	IssueEmptyContent IssueClass = "empty_content"
)

// NodeIssues maps flagged nodes to the defects found on them
type NodeIssues map[NodeID][]IssueClass

// Has reports whether the node carries the given issue
func (ni NodeIssues) Has(id NodeID, class IssueClass) bool {
	for _, c := range ni[id] {
		if c == class {
			return true
		}
	}
	return false
}

// Add records an issue for a node, ignoring duplicates
func (ni NodeIssues) Add(id NodeID, class IssueClass) {
	if ni.Has(id, class) {
		return
	}
	ni[id] = append(ni[id], class)
}
