package compiler

import "github.com/agentpilot/pilotc/pkg/dsl"

// depGraph is the shared node+explicit-edge model behind both workflow
// representations. The tree and flat entry points are thin adapters that
// populate it; the flat validator runs cycle detection on it and the tree
// validator surfaces it through the normalized output.
type depGraph struct {
	nodes []string
	deps  map[string][]string // node -> nodes it depends on
	edges []dsl.Edge
	seen  map[dsl.Edge]bool
}

func newDepGraph() *depGraph {
	return &depGraph{
		deps: make(map[string][]string),
		seen: make(map[dsl.Edge]bool),
	}
}

func (g *depGraph) addNode(id string) {
	if _, ok := g.deps[id]; !ok {
		g.nodes = append(g.nodes, id)
		g.deps[id] = nil
	}
}

// addDep records that node depends on dep (dep must complete first).
func (g *depGraph) addDep(node, dep string) {
	g.deps[node] = append(g.deps[node], dep)
}

// addEdge records a producer->consumer edge for the normalized output.
func (g *depGraph) addEdge(from, to, kind string) {
	e := dsl.Edge{From: from, To: to, Kind: kind}
	if g.seen[e] {
		return
	}
	g.seen[e] = true
	g.edges = append(g.edges, e)
}

// cycle runs tri-color DFS over the dependency edges and returns the ids on
// the first cycle found (closing node repeated), or nil. Nodes are visited in
// insertion order so repeated runs report the same cycle.
func (g *depGraph) cycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		color[id] = gray
		stack = append(stack, id)
		for _, dep := range g.deps[id] {
			switch color[dep] {
			case gray:
				// Found the back edge; slice the stack from dep onward.
				for i, n := range stack {
					if n == dep {
						cycle := append([]string{}, stack[i:]...)
						return append(cycle, dep)
					}
				}
			case white:
				if found := visit(dep); found != nil {
					return found
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return nil
	}

	for _, id := range g.nodes {
		if color[id] == white {
			if found := visit(id); found != nil {
				return found
			}
		}
	}
	return nil
}

// Edge collection helpers used by the tree validator.

func (p *pass) addDataEdge(from, to string) {
	if from == to || from == "" || to == "" {
		return
	}
	p.graph.addEdge(from, to, dsl.EdgeData)
}

func (p *pass) addRoutingEdge(from, to string) {
	if from == to || from == "" || to == "" {
		return
	}
	p.graph.addEdge(from, to, dsl.EdgeRouting)
}
