// Package dot renders parity games and transducers as Graphviz dot graphs
// for diagnostics (cmd/strix does not call it; -t/--trace only enables
// warning logging there), grounded on
// github.com/awalterschulze/gographviz, a dependency the teacher's go.mod
// already carries (pulled in transitively by gorgonia's own graph
// visualization) but never exercises directly from its own source — this
// package is its first direct caller in this repository.
package dot

import (
	"fmt"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"

	"github.com/strixeng/strix/internal/pgame"
	"github.com/strixeng/strix/internal/solver"
	"github.com/strixeng/strix/internal/transducer"
)

func newDirectedGraph(name string) (*gographviz.Graph, error) {
	g := gographviz.NewGraph()
	if err := g.SetName(name); err != nil {
		return nil, errors.Wrap(err, "dot: set name")
	}
	if err := g.SetDir(true); err != nil {
		return nil, errors.Wrap(err, "dot: set directed")
	}
	return g, nil
}

func nodeName(prefix string, i int) string {
	return fmt.Sprintf("%s%d", prefix, i)
}

func quoted(s string) string { return fmt.Sprintf("%q", s) }

// Game renders g's current (possibly partially explored) vertex arena,
// annotating each node with its owner/priority/expansion state and, if
// strategy is non-nil, bolding the edge it selects.
func Game(g *pgame.Game, strategy solver.Strategy) (string, error) {
	graph, err := newDirectedGraph("game")
	if err != nil {
		return "", err
	}
	for v := 0; v < g.NumVertices(); v++ {
		vd := g.Vertex(pgame.Vertex(v))
		shape := "ellipse"
		if vd.Owner == pgame.Environment {
			shape = "box"
		}
		label := fmt.Sprintf("%d: state=%d pr=%d", v, vd.State, vd.Priority)
		attrs := map[string]string{"shape": shape, "label": quoted(label)}
		if v == int(g.Initial()) {
			attrs["peripheries"] = "2"
		}
		if err := graph.AddNode("game", nodeName("v", v), attrs); err != nil {
			return "", errors.Wrap(err, "dot: add node")
		}
	}
	for v := 0; v < g.NumVertices(); v++ {
		vd := g.Vertex(pgame.Vertex(v))
		chosen := pgame.Invalid
		if strategy != nil {
			chosen = strategy[pgame.Vertex(v)]
		}
		for _, s := range vd.Successors {
			attrs := map[string]string{}
			if s == chosen {
				attrs["penwidth"] = "2"
			}
			if err := graph.AddEdge(nodeName("v", v), nodeName("v", int(s)), true, attrs); err != nil {
				return "", errors.Wrap(err, "dot: add edge")
			}
		}
	}
	return graph.String(), nil
}

// Transducer renders m's states and input/output-labelled transitions,
// using Manager.Factored (internal/bdd) to spell each guard/output BDD as a
// Boolean formula over the proposition names instead of a raw node id.
func Transducer(m *transducer.Machine, inputNames, outputNames []string) (string, error) {
	graph, err := newDirectedGraph("transducer")
	if err != nil {
		return "", err
	}
	for s := range m.States {
		attrs := map[string]string{"shape": "ellipse", "label": quoted(fmt.Sprintf("%d", s))}
		if s == int(m.Initial) {
			attrs["peripheries"] = "2"
		}
		if err := graph.AddNode("transducer", nodeName("s", s), attrs); err != nil {
			return "", errors.Wrap(err, "dot: add node")
		}
	}
	for s, transitions := range m.States {
		for _, t := range transitions {
			inLabel, err := m.Inputs.Factored(t.InputBDD, inputNames)
			if err != nil {
				return "", err
			}
			for _, o := range t.Outputs {
				outLabel, err := m.Outputs.Factored(o.OutputBDD, outputNames)
				if err != nil {
					return "", err
				}
				label := fmt.Sprintf("%s / %s", inLabel, outLabel)
				if err := graph.AddEdge(nodeName("s", s), nodeName("s", int(o.Next)), true, map[string]string{"label": quoted(label)}); err != nil {
					return "", errors.Wrap(err, "dot: add edge")
				}
			}
		}
	}
	return graph.String(), nil
}
