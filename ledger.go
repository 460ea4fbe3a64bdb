package astar

import "container/heap"

// ledger holds the open and closed sets of a single search. Both are keyed
// by cell so membership and cost lookups are O(1).
type ledger struct {
	queue  nodeQueue
	open   map[Point]*searchNode
	closed map[Point]*searchNode
	seq    uint64
}

func newLedger(sizeHint int) *ledger {
	if sizeHint > 1024 {
		sizeHint = 1024
	}
	return &ledger{
		queue:  make(nodeQueue, 0, sizeHint),
		open:   make(map[Point]*searchNode, sizeHint),
		closed: make(map[Point]*searchNode, sizeHint),
	}
}

// offer inserts pos into the open set, or overwrites its open entry. An
// overwritten entry takes a fresh sequence number, as if newly discovered.
func (l *ledger) offer(pos, parent Point, g, h float64) {
	l.seq++
	if item, ok := l.open[pos]; ok {
		item.parent = parent
		item.g = g
		item.h = h
		item.seq = l.seq
		heap.Fix(&l.queue, item.index)
		return
	}
	item := &searchNode{pos: pos, parent: parent, g: g, h: h, seq: l.seq}
	heap.Push(&l.queue, item)
	l.open[pos] = item
}

// closeBest moves the open entry with the lowest f into the closed set and
// returns it. It returns nil when the open set is empty.
func (l *ledger) closeBest() *searchNode {
	if l.queue.Len() == 0 {
		return nil
	}
	item := heap.Pop(&l.queue).(*searchNode)
	delete(l.open, item.pos)
	l.closed[item.pos] = item
	return item
}

// reopen drops pos from the closed set so it can be offered again.
func (l *ledger) reopen(pos Point) {
	delete(l.closed, pos)
}

func (l *ledger) openLen() int { return l.queue.Len() }

// parentOf reports the parent link of a known cell. Closed entries win; an
// open entry only exists on the chain when a cell was reopened.
func (l *ledger) parentOf(pos Point) (Point, bool) {
	item, ok := l.closed[pos]
	if !ok {
		item, ok = l.open[pos]
	}
	if !ok || item.parent == None {
		return None, false
	}
	return item.parent, true
}
