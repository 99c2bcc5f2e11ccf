package domain

// DependencyType classifies how strongly an edge constrains ordering.
type DependencyType string

const (
	// DependencyBlocks means the dependent task cannot start until the
	// dependency task completes.
	DependencyBlocks DependencyType = "blocks"
	// DependencyRequires means the dependency is needed but the constraint
	// is softer than a hard block.
	DependencyRequires DependencyType = "requires"
	// DependencySuggests is an advisory ordering hint.
	DependencySuggests DependencyType = "suggests"
)

// Weight returns the edge weight used when ranking dependency strength.
// Unknown types weigh as blocks.
func (d DependencyType) Weight() float64 {
	switch d {
	case DependencyRequires:
		return 0.8
	case DependencySuggests:
		return 0.3
	default:
		return 1.0
	}
}

// DependencyEdge is a directed edge: DependencyID must complete before
// DependentID may proceed.
type DependencyEdge struct {
	DependencyID string         `json:"dependency_task_id"`
	DependentID  string         `json:"dependent_task_id"`
	Type         DependencyType `json:"dependency_type"`
}
