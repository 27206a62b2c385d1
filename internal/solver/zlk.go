package solver

import "github.com/strixeng/strix/internal/pgame"

// ZLK is the classic Zielonka recursive solver (spec.md §4.4.2). It never
// computes a strategy; per the source's open question (spec.md §9), ZLK is
// realizability-only and callers must route strategy requests to FPI or SI
// instead (internal/orchestrator enforces this before dispatch).
type ZLK struct{}

func (ZLK) Solve(g *pgame.Game, disabled Set, player pgame.Owner, wantStrategy bool) (Set, Strategy) {
	n := g.NumVertices()
	if disabled == nil {
		disabled = NewSet(n)
	}
	universe := NewSet(n)
	for v := 0; v < n; v++ {
		if !disabled.Has(pgame.Vertex(v)) {
			universe.Add(pgame.Vertex(v))
		}
	}
	winEven, winOdd := zielonka(g, disabled, universe)
	if player == pgame.System {
		return winEven, nil
	}
	return winOdd, nil
}

func complement(disabled, universe Set, n int) Set {
	out := NewSet(n)
	for v := 0; v < n; v++ {
		if !universe.Has(pgame.Vertex(v)) {
			out.Add(pgame.Vertex(v))
		}
	}
	out.Union(disabled)
	return out
}

func maxPriorityIn(g *pgame.Game, universe Set) (int, bool) {
	max := -1
	found := false
	for v, ok := range universe {
		if !ok {
			continue
		}
		if p := g.Vertex(pgame.Vertex(v)).Priority; p > max {
			max = p
			found = true
		}
	}
	return max, found
}

func verticesWithPriority(g *pgame.Game, universe Set, c int) Set {
	n := len(universe)
	out := NewSet(n)
	for v, ok := range universe {
		if ok && g.Vertex(pgame.Vertex(v)).Priority == c {
			out.Add(pgame.Vertex(v))
		}
	}
	return out
}

func subtract(a, b Set) Set {
	out := make(Set, len(a))
	for v, ok := range a {
		if ok && !b.Has(pgame.Vertex(v)) {
			out[v] = true
		}
	}
	return out
}

// zielonka returns (winSystem, winEnvironment) restricted to universe.
func zielonka(g *pgame.Game, disabled, universe Set) (Set, Set) {
	n := len(universe)
	if universe.Count() == 0 {
		return NewSet(n), NewSet(n)
	}
	c, _ := maxPriorityIn(g, universe)
	p := Parity(c)
	opp := p.Opponent()

	outside := complement(disabled, universe, n)
	seed := verticesWithPriority(g, universe, c)
	attr := Attract(g, outside, seed, p)

	rest := subtract(universe, attr)
	restEven, restOdd := zielonka(g, disabled, rest)

	var restP, restOpp Set
	if p == pgame.System {
		restP, restOpp = restEven, restOdd
	} else {
		restP, restOpp = restOdd, restEven
	}

	if restOpp.Count() == 0 {
		winP := universe.Clone()
		winOpp := NewSet(n)
		if p == pgame.System {
			return winP, winOpp
		}
		return winOpp, winP
	}

	oppAttr := Attract(g, outside, restOpp, opp)
	remainder := subtract(universe, oppAttr)
	remEven, remOdd := zielonka(g, disabled, remainder)

	var remP, remOpp Set
	if p == pgame.System {
		remP, remOpp = remEven, remOdd
	} else {
		remP, remOpp = remOdd, remEven
	}

	winOpp := oppAttr.Clone()
	winOpp.Union(remOpp)
	winP := remP

	if p == pgame.System {
		return winP, winOpp
	}
	return winOpp, winP
}
