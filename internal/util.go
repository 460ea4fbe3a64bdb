package internal

// ReconstructPath rebuilds the path ending at goal by following parentOf
// until a node without a parent is reached. The walk stops after limit hops;
// ok is false in that case, which can only mean the parent links form a cycle.
func ReconstructPath[NodeType comparable](
	parentOf func(NodeType) (NodeType, bool),
	goal NodeType,
	limit int,
) (path []NodeType, ok bool) {
	path = []NodeType{goal}
	current := goal
	for hops := 0; ; hops++ {
		previousNode, exists := parentOf(current)
		if !exists {
			break
		}
		if hops >= limit {
			return nil, false
		}
		path = append(path, previousNode)
		current = previousNode
	}
	// reverse path
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path, true
}
