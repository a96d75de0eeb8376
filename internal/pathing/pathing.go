// Package pathing searches the hex board: shortest paths for movement orders
// and bounded range searches for highlighting.
package pathing

import (
	"container/heap"

	"github.com/zyedidia/generic/mapset"

	"liquidsands.ai/internal/hexmap"
)

type node struct {
	field  *hexmap.Field
	weight int
	parent *node
	seq    int
	index  int
}

// openList orders by weight, then by insertion so equal-weight pops are stable.
type openList []*node

func (ol openList) Len() int { return len(ol) }
func (ol openList) Less(i, j int) bool {
	if ol[i].weight != ol[j].weight {
		return ol[i].weight < ol[j].weight
	}
	return ol[i].seq < ol[j].seq
}
func (ol openList) Swap(i, j int) {
	ol[i], ol[j] = ol[j], ol[i]
	ol[i].index = i
	ol[j].index = j
}
func (ol *openList) Push(x any) {
	n := x.(*node)
	n.index = len(*ol)
	*ol = append(*ol, n)
}
func (ol *openList) Pop() any {
	old := *ol
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*ol = old[:len(old)-1]
	return n
}

// stepWeight is the cost of one hop.
func stepWeight(from, to *hexmap.Field) int { return 1 }

// ShortestPath returns the fields from start (excluded) to end (included).
// Only unoccupied fields are expanded, so an occupied end is unreachable.
// ok is false when no path exists; start == end yields an empty path.
func ShortestPath(g *hexmap.Graph, start, end *hexmap.Field) ([]*hexmap.Field, bool) {
	return search(g, start, end, false)
}

// Toward is ShortestPath with the end field allowed to be occupied, for
// approaching another unit. The returned path still ends on end.
func Toward(g *hexmap.Graph, start, end *hexmap.Field) ([]*hexmap.Field, bool) {
	return search(g, start, end, true)
}

func search(g *hexmap.Graph, start, end *hexmap.Field, occupiedEnd bool) ([]*hexmap.Field, bool) {
	if start == nil || end == nil {
		return nil, false
	}
	settled := make(map[*hexmap.Field]bool)
	seq := 0
	ol := &openList{{field: start}}
	heap.Init(ol)
	for ol.Len() > 0 {
		cur := heap.Pop(ol).(*node)
		if settled[cur.field] {
			continue
		}
		settled[cur.field] = true
		if cur.field == end {
			return backtrack(cur), true
		}
		for _, f := range g.TerrainNeighbors(cur.field) {
			if settled[f] {
				continue
			}
			if !g.IsUsable(f) && !(occupiedEnd && f == end) {
				continue
			}
			seq++
			heap.Push(ol, &node{field: f, weight: cur.weight + stepWeight(cur.field, f), parent: cur, seq: seq})
		}
	}
	return nil, false
}

func backtrack(end *node) []*hexmap.Field {
	var path []*hexmap.Field
	for n := end; n.parent != nil; n = n.parent {
		path = append(path, n.field)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Range returns every field within budget hops of start over passable
// terrain. Occupancy is ignored. The budget is decremented before the
// search and a field is expanded only while its weight does not exceed it,
// so Range(0) holds just start and Range(1) adds its neighbours.
func Range(g *hexmap.Graph, start *hexmap.Field, budget int) mapset.Set[*hexmap.Field] {
	seen := mapset.New[*hexmap.Field]()
	if start == nil {
		return seen
	}
	budget--
	seq := 0
	ol := &openList{{field: start}}
	heap.Init(ol)
	for ol.Len() > 0 {
		cur := heap.Pop(ol).(*node)
		if seen.Has(cur.field) {
			continue
		}
		seen.Put(cur.field)
		if cur.weight > budget {
			continue
		}
		for _, f := range g.TerrainNeighbors(cur.field) {
			seq++
			heap.Push(ol, &node{field: f, weight: cur.weight + stepWeight(cur.field, f), parent: cur, seq: seq})
		}
	}
	return seen
}

// Reachable returns the unoccupied fields a unit at start could reach in at
// most k steps, start excluded, in breadth-first order.
func Reachable(g *hexmap.Graph, start *hexmap.Field, k int) []*hexmap.Field {
	if start == nil {
		return nil
	}
	seen := mapset.New[*hexmap.Field]()
	seen.Put(start)
	var all []*hexmap.Field
	last := []*hexmap.Field{start}
	for step := 0; step < k && len(last) > 0; step++ {
		var next []*hexmap.Field
		for _, f := range last {
			for _, n := range g.Neighbors(f) {
				if seen.Has(n) {
					continue
				}
				seen.Put(n)
				all = append(all, n)
				next = append(next, n)
			}
		}
		last = next
	}
	return all
}
