package solver

import "github.com/strixeng/strix/internal/pgame"

// Attract computes the smallest superset of seed closed under player's
// forced moves into it, ignoring vertices in disabled (spec.md §4.4.4): a
// player-owned vertex joins once any of its active successors is already
// in, an opponent-owned vertex joins only once all of its active successors
// are in.
func Attract(g *pgame.Game, disabled Set, seed Set, player pgame.Owner) Set {
	n := g.NumVertices()
	if disabled == nil {
		disabled = NewSet(n)
	}
	in := seed.Grow(n).Clone()

	worklist := make([]pgame.Vertex, 0, n)
	for v := 0; v < n; v++ {
		if in.Has(pgame.Vertex(v)) {
			worklist = append(worklist, pgame.Vertex(v))
		}
	}

	for len(worklist) > 0 {
		v := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, p := range g.Vertex(v).Predecessors {
			if disabled.Has(p) || in.Has(p) {
				continue
			}
			if isAttracted(g, disabled, in, p, player) {
				in.Add(p)
				worklist = append(worklist, p)
			}
		}
	}
	return in
}

func isAttracted(g *pgame.Game, disabled, in Set, v pgame.Vertex, player pgame.Owner) bool {
	vd := g.Vertex(v)
	if vd.Owner == player {
		for _, s := range vd.Successors {
			if !disabled.Has(s) && in.Has(s) {
				return true
			}
		}
		return false
	}
	any := false
	for _, s := range vd.Successors {
		if disabled.Has(s) {
			continue
		}
		any = true
		if !in.Has(s) {
			return false
		}
	}
	return any
}

// AttractSeedVertices builds a Set from a small list of seed vertices, sized
// to fit game.
func AttractSeedVertices(g *pgame.Game, vs ...pgame.Vertex) Set {
	s := NewSet(g.NumVertices())
	for _, v := range vs {
		if int(v) < len(s) {
			s.Add(v)
		}
	}
	return s
}
