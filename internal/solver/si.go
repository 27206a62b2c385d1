package solver

import "github.com/strixeng/strix/internal/pgame"

// SI is the strategy-improvement solver (spec.md §4.4.3). It fixes a
// positional strategy for System, evaluates it via lexicographic
// priority-indexed valuations (Bellman-Ford-style relaxation, Environment
// always taking the locally worst valuation for System since its optimal
// reply never needs iterative improvement), then repeatedly switches any
// System vertex to a strictly better active successor until no switch
// improves the valuation.
type SI struct{}

type valKind int8

const (
	valNegInf valKind = -1
	valFinite valKind = 0
	valPosInf valKind = 1
)

type valuation struct {
	kind valKind
	vec  []int
}

func negInf() valuation { return valuation{kind: valNegInf} }
func posInf() valuation { return valuation{kind: valPosInf} }

func (v valuation) step(priority int) valuation {
	if v.kind != valFinite {
		return v
	}
	nv := make([]int, len(v.vec))
	copy(nv, v.vec)
	if priority%2 == 0 {
		nv[priority]++
	} else {
		nv[priority]--
	}
	return valuation{kind: valFinite, vec: nv}
}

// compare returns -1, 0, or 1 as a<b, a==b, a>b in the valuation order used
// by strategy improvement, where greater favors System.
func compare(a, b valuation) int {
	if a.kind != b.kind {
		switch {
		case a.kind < b.kind:
			return -1
		default:
			return 1
		}
	}
	if a.kind != valFinite {
		return 0
	}
	for i := len(a.vec) - 1; i >= 0; i-- {
		if a.vec[i] != b.vec[i] {
			if a.vec[i] < b.vec[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (SI) Solve(g *pgame.Game, disabled Set, player pgame.Owner, wantStrategy bool) (Set, Strategy) {
	n := g.NumVertices()
	if disabled == nil {
		disabled = NewSet(n)
	}
	numColors := NumColors(g)
	if numColors == 0 {
		return NewSet(n), nil
	}

	active := func(v int) bool { return !disabled.Has(pgame.Vertex(v)) }

	strat := make([]pgame.Vertex, n)
	for v := range strat {
		strat[v] = pgame.Invalid
	}
	for v := 0; v < n; v++ {
		if !active(v) {
			continue
		}
		vd := g.Vertex(pgame.Vertex(v))
		if vd.Owner != pgame.System {
			continue
		}
		for _, s := range vd.Successors {
			if active(int(s)) {
				strat[v] = s
				break
			}
		}
	}

	val := make([]valuation, n)
	zero := make([]int, numColors)
	for v := 0; v < n; v++ {
		val[v] = valuation{kind: valFinite, vec: append([]int(nil), zero...)}
	}

	evaluate := func() {
		for iter := 0; iter < n+2; iter++ {
			changed := false
			for v := 0; v < n; v++ {
				if !active(v) {
					continue
				}
				vd := g.Vertex(pgame.Vertex(v))
				var succs []pgame.Vertex
				for _, s := range vd.Successors {
					if active(int(s)) {
						succs = append(succs, s)
					}
				}
				var nv valuation
				switch {
				case len(succs) == 0:
					if vd.Owner == pgame.System {
						nv = negInf()
					} else {
						nv = posInf()
					}
				case vd.Owner == pgame.System && strat[v] != pgame.Invalid:
					nv = val[strat[v]].step(vd.Priority)
				default:
					best := posInf()
					for _, s := range succs {
						cand := val[s].step(vd.Priority)
						if compare(cand, best) < 0 {
							best = cand
						}
					}
					nv = best
				}
				if compare(nv, val[v]) != 0 {
					val[v] = nv
					changed = true
				}
			}
			if !changed {
				return
			}
		}
	}

	for {
		evaluate()
		improved := false
		for v := 0; v < n; v++ {
			if !active(v) {
				continue
			}
			vd := g.Vertex(pgame.Vertex(v))
			if vd.Owner != pgame.System {
				continue
			}
			current := strat[v]
			var currentVal valuation
			if current == pgame.Invalid {
				currentVal = negInf()
			} else {
				currentVal = val[current].step(vd.Priority)
			}
			for _, s := range vd.Successors {
				if !active(int(s)) {
					continue
				}
				cand := val[s].step(vd.Priority)
				if compare(cand, currentVal) > 0 {
					strat[v] = s
					currentVal = cand
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}

	win := NewSet(n)
	for v := 0; v < n; v++ {
		if !active(v) {
			continue
		}
		favorsSystem := val[v].kind == valPosInf
		if (player == pgame.System) == favorsSystem && val[v].kind != valFinite {
			win.Add(pgame.Vertex(v))
		}
	}

	var strategy Strategy
	if wantStrategy {
		strategy = make(Strategy)
		for v := 0; v < n; v++ {
			if active(v) && win.Has(pgame.Vertex(v)) {
				vd := g.Vertex(pgame.Vertex(v))
				if vd.Owner == player && strat[v] != pgame.Invalid {
					strategy[pgame.Vertex(v)] = strat[v]
				}
			}
		}
	}
	return win, strategy
}
