package solver

import "github.com/strixeng/strix/internal/pgame"

// FPI is the fixed-point iteration solver (Verver/van Dijk), spec.md
// §4.4.1: a priority-promotion sweep tracking, per vertex, a distraction bit
// (the one-step winner disagrees with the vertex's natural parity) and a
// freeze level (the vertex's bit is no longer reconsidered below that
// priority).
type FPI struct{}

type fpiVertexState struct {
	distraction bool
	frozen      bool
	frozenAt    int
}

func (FPI) Solve(g *pgame.Game, disabled Set, player pgame.Owner, wantStrategy bool) (Set, Strategy) {
	n := g.NumVertices()
	if disabled == nil {
		disabled = NewSet(n)
	}
	numColors := NumColors(g)
	st := make([]fpiVertexState, n)

	active := func(v int) bool { return !disabled.Has(pgame.Vertex(v)) }

	winner := func(v int) pgame.Owner {
		p := Parity(g.Vertex(pgame.Vertex(v)).Priority)
		if st[v].distraction {
			return p.Opponent()
		}
		return p
	}

	oneStepWinner := func(v int) pgame.Owner {
		vd := g.Vertex(pgame.Vertex(v))
		for _, s := range vd.Successors {
			if active(int(s)) && winner(int(s)) == pgame.System {
				return pgame.System
			}
		}
		return pgame.Environment
	}

	if numColors == 0 {
		// No active vertex carries a priority (an empty or fully disabled
		// game); there is nothing to win.
		return NewSet(n), nil
	}

	c := 0
	for c < numColors {
		changed := false
		for v := 0; v < n; v++ {
			if !active(v) || st[v].frozen || st[v].distraction {
				continue
			}
			if g.Vertex(pgame.Vertex(v)).Priority != c {
				continue
			}
			if ow := oneStepWinner(v); ow != winner(v) {
				st[v].distraction = true
				changed = true
			}
		}
		if !changed {
			c++
			continue
		}

		cParity := Parity(c)
		for v := 0; v < n; v++ {
			if !active(v) {
				continue
			}
			vd := g.Vertex(pgame.Vertex(v))
			if vd.Priority >= c {
				continue
			}
			if st[v].frozen && st[v].frozenAt >= c {
				continue
			}
			vParity := Parity(vd.Priority)
			switch {
			case st[v].frozen && vParity == cParity:
				st[v].frozenAt = c
			case st[v].frozen && vParity != cParity:
				st[v].frozen = false
				st[v].distraction = false
			case !st[v].frozen && st[v].distraction && vParity == cParity:
				st[v].frozen = true
				st[v].frozenAt = c
			case !st[v].frozen && st[v].distraction && vParity != cParity:
				st[v].distraction = false
			case !st[v].frozen && !st[v].distraction && vParity != cParity:
				st[v].frozen = true
				st[v].frozenAt = c
			}
		}
		c = 0
	}

	win := NewSet(n)
	for v := 0; v < n; v++ {
		if active(v) && winner(v) == player {
			win.Add(pgame.Vertex(v))
		}
	}

	var strat Strategy
	if wantStrategy {
		strat = make(Strategy)
		for v := 0; v < n; v++ {
			if !active(v) || !win.Has(pgame.Vertex(v)) {
				continue
			}
			vd := g.Vertex(pgame.Vertex(v))
			if vd.Owner != player {
				continue
			}
			for _, s := range vd.Successors {
				if active(int(s)) && winner(int(s)) == player {
					strat[pgame.Vertex(v)] = s
					break
				}
			}
		}
	}
	return win, strat
}
