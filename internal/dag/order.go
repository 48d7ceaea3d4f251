package dag

import (
	"container/heap"
	"fmt"
	"slices"
)

// TopoSort returns the ids in dependency order, or an error naming the
// first node of a cycle.
func (g *Graph) TopoSort() ([]string, error) {
	blocks := g.Blocks()
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if len(b) > 1 {
			return nil, fmt.Errorf("cycle detected involving node '%s'", b[0])
		}
		out = append(out, b[0])
	}
	return out, nil
}

// Blocks returns the strongly connected components of the graph in
// dependency order, each listed in insertion order. A block with more than
// one member is a cycle. Among blocks that become ready together, the one
// holding the earliest-added node comes first.
func (g *Graph) Blocks() [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	comps := g.components()
	compOf := make([]int, len(g.ids))
	for ci, c := range comps {
		for _, i := range c {
			compOf[i] = ci
		}
	}

	indeg := make([]int, len(comps))
	succ := make([]map[int]struct{}, len(comps))
	for ci := range comps {
		succ[ci] = make(map[int]struct{})
	}
	for from := range g.ids {
		for to := range g.out[from] {
			a, b := compOf[from], compOf[to]
			if a == b {
				continue
			}
			if _, seen := succ[a][b]; !seen {
				succ[a][b] = struct{}{}
				indeg[b]++
			}
		}
	}

	// comps[ci][0] is the earliest-added member since components are sorted.
	ready := &readyQueue{first: func(ci int) int { return comps[ci][0] }}
	for ci := range comps {
		if indeg[ci] == 0 {
			heap.Push(ready, ci)
		}
	}

	out := make([][]string, 0, len(comps))
	for ready.Len() > 0 {
		ci := heap.Pop(ready).(int)
		out = append(out, g.names(comps[ci]))
		for next := range succ[ci] {
			if indeg[next]--; indeg[next] == 0 {
				heap.Push(ready, next)
			}
		}
	}
	return out
}

// components is Tarjan's algorithm over node indices.
func (g *Graph) components() [][]int {
	n := len(g.ids)
	disc := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range disc {
		disc[i] = -1
	}
	var (
		stack []int
		comps [][]int
		clock int
	)

	var visit func(v int)
	visit = func(v int) {
		disc[v], low[v] = clock, clock
		clock++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range sortedKeys(g.out[v]) {
			switch {
			case disc[w] < 0:
				visit(w)
				low[v] = min(low[v], low[w])
			case onStack[w]:
				low[v] = min(low[v], disc[w])
			}
		}

		if low[v] != disc[v] {
			return
		}
		var comp []int
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			comp = append(comp, w)
			if w == v {
				break
			}
		}
		slices.Sort(comp)
		comps = append(comps, comp)
	}

	for v := range n {
		if disc[v] < 0 {
			visit(v)
		}
	}
	return comps
}

type readyQueue struct {
	items []int
	first func(ci int) int
}

func (q *readyQueue) Len() int           { return len(q.items) }
func (q *readyQueue) Less(i, j int) bool { return q.first(q.items[i]) < q.first(q.items[j]) }
func (q *readyQueue) Swap(i, j int)      { q.items[i], q.items[j] = q.items[j], q.items[i] }
func (q *readyQueue) Push(x any)         { q.items = append(q.items, x.(int)) }
func (q *readyQueue) Pop() any {
	last := q.items[len(q.items)-1]
	q.items = q.items[:len(q.items)-1]
	return last
}
