// Package equeue implements the exploration queue abstraction (spec.md
// §4.2, component C2): a polymorphic worklist over game-vertex indices with
// two entry points, Push for sibling expansion within the tree currently
// being unrolled and PushScored for newly discovered automaton states, and
// five ordering modes selectable by CLI flag (spec.md §6.5's
// -e/--exploration).
package equeue

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Vertex is a pending work item: the vertex index to expand.
type Vertex int

// Mode selects the exploration discipline.
type Mode int

const (
	BFS Mode = iota
	DFS
	Min
	Max
	MinMax
)

// ParseMode maps a CLI token to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "bfs":
		return BFS, nil
	case "dfs":
		return DFS, nil
	case "min":
		return Min, nil
	case "max":
		return Max, nil
	case "minmax":
		return MinMax, nil
	default:
		return 0, fmt.Errorf("equeue: unknown exploration mode %q", s)
	}
}

type scoredItem struct {
	v     Vertex
	score float32
}

// sanitizeScore maps a non-finite heuristic score to 0, the same guard the
// teacher's arena.go (validPolicies) applies to a neural net's raw policy
// output before it drives a search decision.
func sanitizeScore(score float64) float32 {
	s := float32(score)
	if math32.IsInf(s, 0) || math32.IsNaN(s) {
		return 0
	}
	return s
}

// Queue is the exploration worklist. Unexpanded border vertices are never
// re-pushed (the caller, pgame.Constructor, is responsible for that
// invariant by only calling Push/PushScored once per freshly-interned
// vertex).
type Queue struct {
	mode Mode

	// siblings always behaves as a LIFO stack, drained before scored items,
	// matching "unscored items drain from a plain stack first".
	siblings []Vertex

	// scored backs BFS/DFS's fallback discipline and Min/Max/MinMax's
	// priority discipline, depending on mode.
	scored []scoredItem
	// fifoHead indexes into scored for the BFS mode's FIFO discipline.
	fifoHead int
	// minmaxWantMin alternates which extremum MinMax pops next.
	minmaxWantMin bool
}

// New creates a Queue in the given mode.
func New(mode Mode) *Queue {
	return &Queue{mode: mode, minmaxWantMin: true}
}

// Push enqueues a sibling-style vertex: always LIFO.
func (q *Queue) Push(v Vertex) {
	q.siblings = append(q.siblings, v)
}

// PushScored enqueues a newly discovered state, using the discipline its
// mode dictates for scored items.
func (q *Queue) PushScored(v Vertex, score float64) {
	q.scored = append(q.scored, scoredItem{v: v, score: sanitizeScore(score)})
}

// Len reports the number of pending items across both disciplines.
func (q *Queue) Len() int {
	return len(q.siblings) + (len(q.scored) - q.fifoHead)
}

// Pop removes and returns the next vertex to expand, draining the sibling
// stack before touching the scored collection.
func (q *Queue) Pop() (Vertex, bool) {
	if n := len(q.siblings); n > 0 {
		v := q.siblings[n-1]
		q.siblings = q.siblings[:n-1]
		return v, true
	}
	switch q.mode {
	case BFS:
		return q.popFIFO()
	case DFS:
		return q.popLIFOScored()
	case Min:
		return q.popExtreme(true)
	case Max:
		return q.popExtreme(false)
	case MinMax:
		wantMin := q.minmaxWantMin
		q.minmaxWantMin = !q.minmaxWantMin
		return q.popExtreme(wantMin)
	default:
		return 0, false
	}
}

func (q *Queue) popFIFO() (Vertex, bool) {
	if q.fifoHead >= len(q.scored) {
		q.scored = q.scored[:0]
		q.fifoHead = 0
		return 0, false
	}
	item := q.scored[q.fifoHead]
	q.fifoHead++
	if q.fifoHead == len(q.scored) {
		q.scored = q.scored[:0]
		q.fifoHead = 0
	}
	return item.v, true
}

func (q *Queue) popLIFOScored() (Vertex, bool) {
	n := len(q.scored)
	if n == 0 {
		return 0, false
	}
	item := q.scored[n-1]
	q.scored = q.scored[:n-1]
	return item.v, true
}

// popExtreme scans the scored slice for the item with the smallest (wantMin)
// or largest score and removes it. Linear scan is deliberate: exploration
// queues in this engine stay small relative to the solver's own state, and
// the teacher's own tie-breaking code (mcts/utils.go's byScore sort) favors
// simple, obviously-correct scans over a fancier heap.
func (q *Queue) popExtreme(wantMin bool) (Vertex, bool) {
	n := len(q.scored)
	if n == 0 {
		return 0, false
	}
	best := 0
	for i := 1; i < n; i++ {
		if wantMin {
			if q.scored[i].score < q.scored[best].score {
				best = i
			}
		} else {
			if q.scored[i].score > q.scored[best].score {
				best = i
			}
		}
	}
	item := q.scored[best]
	q.scored[best] = q.scored[n-1]
	q.scored = q.scored[:n-1]
	return item.v, true
}
