package dag

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Graph holds named nodes and producer -> consumer edges. Every ordering it
// returns breaks ties by the order in which nodes were added. It is safe
// for concurrent use.
type Graph struct {
	mu    sync.RWMutex
	ids   []string
	index map[string]int
	// in[i] are the producers feeding node i, out[i] the consumers of it.
	in  []map[int]struct{}
	out []map[int]struct{}
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{index: make(map[string]int)}
}

// AddNode registers id. Adding an existing id is a no-op.
func (g *Graph) AddNode(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.index[id]; ok {
		return
	}
	g.index[id] = len(g.ids)
	g.ids = append(g.ids, id)
	g.in = append(g.in, make(map[int]struct{}))
	g.out = append(g.out, make(map[int]struct{}))
}

// AddEdge records that consumer reads data produced by producer.
func (g *Graph) AddEdge(producer, consumer string) error {
	if producer == consumer {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", producer, consumer)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	from, ok := g.index[producer]
	if !ok {
		return fmt.Errorf("source node not found: %s", producer)
	}
	to, ok := g.index[consumer]
	if !ok {
		return fmt.Errorf("destination node not found: %s", consumer)
	}
	g.out[from][to] = struct{}{}
	g.in[to][from] = struct{}{}
	return nil
}

// Nodes returns every id in insertion order.
func (g *Graph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.ids)
}

// Producers returns the ids that id reads from, in insertion order.
func (g *Graph) Producers(id string) ([]string, error) {
	return g.neighbours(id, func(i int) map[int]struct{} { return g.in[i] })
}

// Consumers returns the ids that read from id, in insertion order.
func (g *Graph) Consumers(id string) ([]string, error) {
	return g.neighbours(id, func(i int) map[int]struct{} { return g.out[i] })
}

func (g *Graph) neighbours(id string, set func(int) map[int]struct{}) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	i, ok := g.index[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return g.names(sortedKeys(set(i))), nil
}

func (g *Graph) names(idx []int) []string {
	out := make([]string, len(idx))
	for k, i := range idx {
		out[k] = g.ids[i]
	}
	return out
}

func sortedKeys(set map[int]struct{}) []int {
	return slices.Sorted(maps.Keys(set))
}
