package graph

import "fmt"

// dependencies returns the nodes b must render after: audio inputs and modulation sources
func (b *base) dependencies(visit func(*base)) {
	for _, in := range b.inputs {
		visit(in)
	}
	for _, p := range b.params {
		for _, m := range p.mods {
			visit(m.src)
		}
	}
}

// reaches reports whether a path from -> ... -> to already exists
func (g *Graph) reaches(from, to *base) bool {
	seen := make([]bool, len(g.nodes))
	stack := []*base{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == to {
			return true
		}
		if seen[n.id] {
			continue
		}
		seen[n.id] = true
		stack = append(stack, n.outputs...)
	}
	return false
}

// topologicalSort computes render order using Kahn's algorithm
// Returns error if a cycle is detected
func (g *Graph) topologicalSort() ([]Node, error) {
	inDegree := make([]int, len(g.nodes))
	for _, n := range g.nodes {
		b := n.node()
		b.dependencies(func(*base) { inDegree[b.id]++ })
	}

	var queue []int
	for id, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]Node, 0, len(g.nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := g.nodes[id]
		order = append(order, n)

		for _, dep := range n.node().outputs {
			inDegree[dep.id]--
			if inDegree[dep.id] == 0 {
				queue = append(queue, dep.id)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, fmt.Errorf("cycle among %d node(s)", len(g.nodes)-len(order))
	}
	return order, nil
}

// dangling returns nodes whose output never reaches the master, directly or through a modulated param
func (g *Graph) dangling() []Node {
	live := make([]bool, len(g.nodes))
	stack := []*base{&g.master.base}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if live[b.id] {
			continue
		}
		live[b.id] = true
		b.dependencies(func(dep *base) {
			if !live[dep.id] {
				stack = append(stack, dep)
			}
		})
	}

	var out []Node
	for id, ok := range live {
		if !ok {
			out = append(out, g.nodes[id])
		}
	}
	return out
}
