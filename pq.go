package astar

// searchNode is one ledger entry. It sits in exactly one of the open queue
// or the closed set.
type searchNode struct {
	pos    Point
	parent Point
	g      float64 // accumulated cost from the start
	h      float64 // heuristic estimate to the goal
	seq    uint64  // insertion order, breaks ties between equal f
	index  int     // position in nodeQueue, -1 once popped
}

func (n *searchNode) f() float64 { return n.g + n.h }

// nodeQueue is a min-heap on f, then on insertion order.
type nodeQueue []*searchNode

func (queue nodeQueue) Len() int { return len(queue) }
func (queue nodeQueue) Less(i, j int) bool {
	fi, fj := queue[i].f(), queue[j].f()
	if fi != fj {
		return fi < fj
	}
	return queue[i].seq < queue[j].seq
}
func (queue nodeQueue) Swap(i, j int) {
	queue[i], queue[j] = queue[j], queue[i]
	queue[i].index = i
	queue[j].index = j
}

func (queue *nodeQueue) Push(x any) {
	item := x.(*searchNode)
	item.index = len(*queue)
	*queue = append(*queue, item)
}

func (queue *nodeQueue) Pop() any {
	oldQueue := *queue
	n := len(oldQueue)
	item := oldQueue[n-1]
	oldQueue[n-1] = nil
	item.index = -1
	*queue = oldQueue[:n-1]
	return item
}
