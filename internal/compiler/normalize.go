package compiler

import "github.com/agentpilot/pilotc/pkg/dsl"

// normalize builds the graph view of a valid tree-form workflow: every
// indexed step with defaults applied, plus the data and routing edges
// discovered during validation.
func (p *pass) normalize() *dsl.NormalizedWorkflow {
	nw := &dsl.NormalizedWorkflow{
		Steps: make([]dsl.NormalizedStep, 0, len(p.order)),
		Edges: p.graph.edges,
	}
	for _, id := range p.order {
		s := p.index[id]
		ns := dsl.NormalizedStep{
			ID:         id,
			Type:       s.Kind(),
			Plugin:     s.Plugin,
			Action:     s.Action,
			OutputKeys: p.outputs[id],
		}
		if s.IsLoop() && s.Scatter != nil {
			ns.ItemVar = s.Scatter.ItemVar
			if ns.ItemVar == "" {
				ns.ItemVar = "item"
			}
		}
		nw.Steps = append(nw.Steps, ns)
	}
	return nw
}
