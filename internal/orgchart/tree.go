package orgchart

import "github.com/nneessen/commissionTracker-sub026/internal/types"

// Pure tree utilities. All four operate on an already-built tree value
// with no I/O, so they are unit-testable against hand-built fixtures.

// FlatNode is one entry of a flattened org chart.
type FlatNode struct {
	ID          types.ID   `json:"id"`
	ParentID    types.ID   `json:"parentId,omitempty"`
	Depth       int        `json:"depth"`
	Path        []types.ID `json:"path"` // root-to-node agent ids, inclusive
	HasChildren bool       `json:"hasChildren"`
	ChildCount  int        `json:"childCount"` // total descendants, not just direct
	Email       string     `json:"email,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

// Flatten returns the tree in pre-order: each parent before its children,
// siblings in tree order.
func Flatten(root *Node) []FlatNode {
	if root == nil {
		return []FlatNode{}
	}
	out := make([]FlatNode, 0, root.TotalDownline+1)
	flattenInto(root, "", 0, nil, &out)
	return out
}

func flattenInto(node *Node, parentID types.ID, depth int, prefix []types.ID, out *[]FlatNode) {
	path := make([]types.ID, len(prefix)+1)
	copy(path, prefix)
	path[len(prefix)] = node.Agent.ID

	*out = append(*out, FlatNode{
		ID:          node.Agent.ID,
		ParentID:    parentID,
		Depth:       depth,
		Path:        path,
		HasChildren: len(node.Children) > 0,
		ChildCount:  CountDescendants(node),
		Email:       node.Agent.Email,
		DisplayName: node.Agent.DisplayName,
	})

	for _, child := range node.Children {
		flattenInto(child, node.Agent.ID, depth+1, path, out)
	}
}

// FindNodeByID returns the first node with the given agent id in
// depth-first order, or nil.
func FindNodeByID(root *Node, id types.ID) *Node {
	if root == nil {
		return nil
	}
	if root.Agent.ID == id {
		return root
	}
	for _, child := range root.Children {
		if found := FindNodeByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

// PathToNode returns the root-to-target node path, or nil when the target
// is not in the tree.
func PathToNode(root *Node, targetID types.ID) []*Node {
	if root == nil {
		return nil
	}
	if root.Agent.ID == targetID {
		return []*Node{root}
	}
	for _, child := range root.Children {
		if path := PathToNode(child, targetID); path != nil {
			return append([]*Node{root}, path...)
		}
	}
	return nil
}

// CountDescendants returns the number of direct and indirect descendants
// of node.
func CountDescendants(node *Node) int {
	if node == nil {
		return 0
	}
	count := len(node.Children)
	for _, child := range node.Children {
		count += CountDescendants(child)
	}
	return count
}
