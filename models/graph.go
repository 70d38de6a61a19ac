package models

type NodeType string

const (
	NodeAuthor   NodeType = "author"
	NodeBook     NodeType = "book"
	NodeMovement NodeType = "movement"
	NodeLocation NodeType = "location"
)

type EdgeType string

const (
	EdgeInfluencedBy EdgeType = "influenced_by"
	EdgeInfluenced   EdgeType = "influenced"
	EdgeStudentOf    EdgeType = "student_of"
	EdgeTeacherOf    EdgeType = "teacher_of"
	EdgeCoauthor     EdgeType = "coauthor"
	EdgeSameMovement EdgeType = "same_movement"
	EdgeAuthored     EdgeType = "authored"
)

// Symmetric meldet Kantentypen, die pro ungeordnetem Paar nur einmal vorkommen.
func (t EdgeType) Symmetric() bool {
	return t == EdgeCoauthor || t == EdgeSameMovement
}

// Valid meldet, ob t einer der bekannten Kantentypen ist.
func (t EdgeType) Valid() bool {
	switch t {
	case EdgeInfluencedBy, EdgeInfluenced, EdgeStudentOf, EdgeTeacherOf,
		EdgeCoauthor, EdgeSameMovement, EdgeAuthored:
		return true
	}
	return false
}

// GraphNode ist ein Knoten im Einflussnetzwerk. Centrality und Degree bleiben nil,
// bis sie berechnet wurden.
type GraphNode struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Type       NodeType       `json:"type"`
	Metadata   map[string]any `json:"metadata"`
	Centrality *float64       `json:"centrality"`
	Degree     *int           `json:"degree"`
}

type GraphEdge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Type   EdgeType `json:"type"`
	Weight float64  `json:"weight"`
	Label  string   `json:"label,omitempty"`
}

// GraphData ist das Ergebnis von BuildNetwork. CentralNodes enthält nur IDs aus Nodes.
type GraphData struct {
	Nodes        []GraphNode `json:"nodes"`
	Edges        []GraphEdge `json:"edges"`
	CentralNodes []string    `json:"central_nodes"`
}
