// Package edgetree decodes and caches the per-state edge trees handed back
// by the LTL-to-DPA translator (spec.md §4.1, component C1). Each automaton
// state is fetched from the translator at most once and kept in an
// in-memory arena, the same lazy-fetch-and-memoize idiom the teacher uses
// for neural-network inference caching (mcts/search.go's minPsaRatio
// bookkeeping) and for node reuse (mcts/tree.go's free list).
package edgetree

import (
	"github.com/pkg/errors"

	"github.com/strixeng/strix/internal/translator"
)

// TreeIndex addresses a node within one state's decoded edge tree.
type TreeIndex int

// Root is always the first node of a decoded tree.
const Root TreeIndex = 0

// Node is one decoded edge-tree node: either an Inner branch over a
// proposition, or a Leaf carrying the successor state, normalized priority
// and heuristic score.
type Node struct {
	IsLeaf bool

	// Inner node fields.
	Var   int
	Left  TreeIndex
	Right TreeIndex

	// Leaf fields.
	Successor int
	Priority  int
	Score     float64
}

// Tree is one state's fully decoded edge tree.
type Tree struct {
	Nodes      []Node
	InnerCount int
}

// Leaf count derived from Nodes/InnerCount.
func (t *Tree) leafCount() int { return len(t.Nodes) - t.InnerCount }

// decodeRef converts a packed tree-index field (spec.md §4.1) into the
// TreeIndex of the referenced node within the flat Nodes array: negative x
// addresses a leaf at (-x-1)+innerCount, non-negative x addresses the inner
// node whose three packed fields start at offset x (i.e. inner index x/3).
func decodeRef(x, innerCount int) TreeIndex {
	if x < 0 {
		return TreeIndex((-x - 1) + innerCount)
	}
	return TreeIndex(x / 3)
}

// Decode turns the oracle's packed arrays into a Tree, normalizing leaf
// priorities from kind/numColorsRaw to max-even via
// translator.NormalizeAcceptance. It returns the maximum normalized
// numColors it observed among this tree's leaves, so the caller (Store) can
// track the automaton-wide color count as more states are explored.
func Decode(data translator.EdgeTreeData, kind translator.AcceptanceKind, numColorsRaw int) (*Tree, int, error) {
	if len(data.Nodes)%3 != 0 {
		return nil, 0, errors.Errorf("edgetree: malformed inner-node array (len %d not a multiple of 3)", len(data.Nodes))
	}
	if len(data.Edges)%2 != 0 {
		return nil, 0, errors.Errorf("edgetree: malformed leaf array (len %d not a multiple of 2)", len(data.Edges))
	}
	innerCount := len(data.Nodes) / 3
	leafCount := len(data.Edges) / 2
	nodes := make([]Node, innerCount+leafCount)

	for i := 0; i < innerCount; i++ {
		v := data.Nodes[i*3]
		left := data.Nodes[i*3+1]
		right := data.Nodes[i*3+2]
		nodes[i] = Node{
			IsLeaf: false,
			Var:    v,
			Left:   decodeRef(left, innerCount),
			Right:  decodeRef(right, innerCount),
		}
	}

	maxColors := 0
	for i := 0; i < leafCount; i++ {
		successor := data.Edges[i*2]
		rawPriority := data.Edges[i*2+1]
		var score float64
		if i < len(data.Scores) {
			score = data.Scores[i]
		}
		priority, numColors := translator.NormalizeAcceptance(kind, numColorsRaw, rawPriority)
		if numColors > maxColors {
			maxColors = numColors
		}
		nodes[innerCount+i] = Node{
			IsLeaf:    true,
			Successor: successor,
			Priority:  priority,
			Score:     score,
		}
	}

	return &Tree{Nodes: nodes, InnerCount: innerCount}, maxColors, nil
}

// selfLoop builds the fixed trivial tree for a sentinel state: a single
// leaf that loops back to itself at the given priority (spec.md §3's TOP /
// BOTTOM invariant).
func selfLoop(state, priority int) *Tree {
	return &Tree{
		Nodes:      []Node{{IsLeaf: true, Successor: state, Priority: priority, Score: 0}},
		InnerCount: 0,
	}
}

// Store lazily fetches and memoizes edge trees, guaranteeing at-most-once
// translation per state index (spec.md §4.1's store guarantee), with the
// two sentinel states pre-seeded so they never reach the translator.
type Store struct {
	automaton translator.Automaton
	kind      translator.AcceptanceKind
	numRaw    int
	numColors int
	cache     map[int]*Tree
	fetches   int
}

// NewStore creates a store bound to automaton, pre-seeding the TOP/BOTTOM
// sentinels.
func NewStore(automaton translator.Automaton) *Store {
	kind, numRaw := automaton.Acceptance()
	s := &Store{
		automaton: automaton,
		kind:      kind,
		numRaw:    numRaw,
		cache:     make(map[int]*Tree),
	}
	s.cache[translator.Top] = selfLoop(translator.Top, 0)
	s.cache[translator.Bottom] = selfLoop(translator.Bottom, 1)
	if _, c := translator.NormalizeAcceptance(kind, numRaw, 0); c > s.numColors {
		s.numColors = c
	}
	return s
}

// Get returns the decoded tree for state, fetching and decoding it from the
// translator on first access only.
func (s *Store) Get(state int) (*Tree, error) {
	if t, ok := s.cache[state]; ok {
		return t, nil
	}
	raw, err := s.automaton.EdgeTree(state)
	if err != nil {
		return nil, translator.Wrap("edge_tree", err)
	}
	s.fetches++
	tree, numColors, err := Decode(raw, s.kind, s.numRaw)
	if err != nil {
		return nil, err
	}
	if numColors > s.numColors {
		s.numColors = numColors
	}
	s.cache[state] = tree
	return tree, nil
}

// NumColors returns the largest max-even color count observed so far across
// every state decoded to date. It grows monotonically as exploration visits
// new states.
func (s *Store) NumColors() int { return s.numColors }

// Fetches returns how many states were actually pulled from the translator
// (excludes cache hits and the pre-seeded sentinels).
func (s *Store) Fetches() int { return s.fetches }
