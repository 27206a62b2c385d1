// Package pgame builds a two-player parity game by unrolling a deterministic
// parity automaton's symbolic edge trees on the fly (spec.md §4.3,
// component C3). Vertices live in a single flat arena addressed by integer
// index, following the teacher's arena-of-nodes idiom (mcts/tree.go's
// Naughty-indexed node slice) rather than owning pointers, so the resulting
// graph's cycles never need a garbage collector smarter than "drop the
// arena".
package pgame

import (
	"time"

	"github.com/strixeng/strix/internal/edgetree"
	"github.com/strixeng/strix/internal/equeue"
	"github.com/strixeng/strix/internal/proposition"
	"github.com/strixeng/strix/internal/translator"
)

// Vertex is an arena index. The zero value is a valid vertex (the arena's
// first slot), so callers must use (Vertex, bool) or -1 to signal absence.
type Vertex int

// Invalid is used where "no vertex" must be represented.
const Invalid Vertex = -1

// Owner identifies which player controls a vertex's outgoing choice.
type Owner uint8

const (
	Environment Owner = iota
	System
)

func (o Owner) String() string {
	if o == Environment {
		return "Environment"
	}
	return "System"
}

// Opponent returns the other player.
func (o Owner) Opponent() Owner {
	if o == Environment {
		return System
	}
	return Environment
}

// VertexData is one arena slot: a border vertex until Expanded is set, after
// which Owner/Priority/Successors are final.
type VertexData struct {
	State    int
	Tree     edgetree.TreeIndex
	Owner    Owner // preliminary System until Expanded
	Priority int
	Expanded bool

	Successors   []Vertex
	Predecessors []Vertex
}

type label struct {
	state int
	tree  edgetree.TreeIndex
}

// Game is the vertex arena plus interning table. It is populated
// incrementally by Constructor.Explore and consumed by internal/solver and
// internal/transducer.
type Game struct {
	vertices []VertexData
	intern   map[label]Vertex
	initial  Vertex
}

// NumVertices returns the number of interned vertices, expanded or not.
func (g *Game) NumVertices() int { return len(g.vertices) }

// Vertex returns the data for v. Panics on an out-of-range index, matching
// the arena contract: callers never hold a Vertex that wasn't handed out by
// this Game.
func (g *Game) Vertex(v Vertex) *VertexData { return &g.vertices[v] }

// Initial returns the game's single initial vertex.
func (g *Game) Initial() Vertex { return g.initial }

// Find returns the vertex already interned for (state, tree), if any. Used
// by internal/transducer to recover, along its own edge-tree walk, the
// arena vertex a strategy was computed over.
func (g *Game) Find(state int, tree edgetree.TreeIndex) (Vertex, bool) {
	v, ok := g.intern[label{state: state, tree: tree}]
	return v, ok
}

func (g *Game) internVertex(state int, tree edgetree.TreeIndex) (Vertex, bool) {
	l := label{state: state, tree: tree}
	if v, ok := g.intern[l]; ok {
		return v, false
	}
	v := Vertex(len(g.vertices))
	g.vertices = append(g.vertices, VertexData{
		State: state,
		Tree:  tree,
		Owner: System,
	})
	g.intern[l] = v
	return v, true
}

func (g *Game) addEdge(from, to Vertex) {
	vd := &g.vertices[from]
	vd.Successors = append(vd.Successors, to)
	td := &g.vertices[to]
	td.Predecessors = append(td.Predecessors, from)
}

// LimitKind selects the resource Explore is bounded by (spec.md §4.3).
type LimitKind int

const (
	LimitNone LimitKind = iota
	LimitNodes
	LimitEdges
	LimitStates
	LimitDuration
)

// Limit bounds a single Explore call.
type Limit struct {
	Kind     LimitKind
	Count    int
	Duration time.Duration
}

// NoLimit explores until the queue is empty.
var NoLimit = Limit{Kind: LimitNone}

// Stats are the constructor's cumulative exploration counters (spec.md
// §4.3's stats() operation).
type Stats struct {
	Nodes    int
	Edges    int
	States   int
	Elapsed  time.Duration
}

// Constructor drives on-the-fly exploration of automaton via store, queue,
// and the input/output partition in props.
type Constructor struct {
	automaton translator.Automaton
	store     *edgetree.Store
	props     *proposition.Set
	queue     *equeue.Queue

	game  *Game
	stats Stats
}

// New creates a Constructor over automaton, interning the initial vertex
// and pushing it onto queue.
func New(automaton translator.Automaton, store *edgetree.Store, props *proposition.Set, queue *equeue.Queue) *Constructor {
	g := &Game{intern: make(map[label]Vertex)}
	c := &Constructor{
		automaton: automaton,
		store:     store,
		props:     props,
		queue:     queue,
		game:      g,
	}
	initial, _ := g.internVertex(automaton.Initial(), edgetree.Root)
	g.initial = initial
	c.queue.Push(equeue.Vertex(initial))
	return c
}

// Game returns the game built so far. Safe to call between Explore calls;
// the returned pointer remains valid as exploration continues.
func (c *Constructor) Game() *Game { return c.game }

// Exhausted reports whether every interned vertex has been expanded, i.e.
// a further Explore call would do no work. The orchestrator uses this to
// stop the explore/solve loop when a budgeted Explore call stops short of
// a verdict but the game is already fully built.
func (c *Constructor) Exhausted() bool { return c.queue.Len() == 0 }

// Stats returns the cumulative counters.
func (c *Constructor) Stats() Stats { return c.stats }

// Explore pops and expands vertices until limit is reached or the queue
// empties (spec.md §4.3).
func (c *Constructor) Explore(limit Limit) error {
	start := time.Now()
	base := c.stats
	count := 0
	for {
		if limit.Kind == LimitDuration && time.Since(start) >= limit.Duration {
			break
		}
		if (limit.Kind == LimitNodes || limit.Kind == LimitEdges || limit.Kind == LimitStates) && count >= limit.Count {
			break
		}
		vi, ok := c.queue.Pop()
		if !ok {
			break
		}
		v := Vertex(vi)
		if c.game.vertices[v].Expanded {
			continue
		}
		if err := c.expand(v); err != nil {
			return err
		}
		c.stats.Nodes++
		switch limit.Kind {
		case LimitNodes:
			count = c.stats.Nodes - base.Nodes
		case LimitEdges:
			count = c.stats.Edges - base.Edges
		case LimitStates:
			count = c.stats.States - base.States
		}
	}
	c.stats.Elapsed += time.Since(start)
	return nil
}

func (c *Constructor) expand(v Vertex) error {
	vd := &c.game.vertices[v]
	if vd.Tree == edgetree.Root {
		c.stats.States++
	}
	tree, err := c.store.Get(vd.State)
	if err != nil {
		return err
	}
	node := tree.Nodes[vd.Tree]

	if node.IsLeaf {
		c.stats.Edges++
		succVertex, created := c.game.internVertex(node.Successor, edgetree.Root)
		c.game.addEdge(v, succVertex)
		vd = &c.game.vertices[v] // addEdge may have reallocated the slice
		vd.Owner = System
		vd.Priority = node.Priority
		vd.Expanded = true
		if created {
			c.queue.PushScored(equeue.Vertex(succVertex), node.Score)
		}
		return nil
	}

	owner := System
	if c.props.IsInput(node.Var) {
		owner = Environment
	}
	var children []edgetree.TreeIndex
	if node.Left == node.Right {
		children = []edgetree.TreeIndex{node.Left}
	} else {
		children = []edgetree.TreeIndex{node.Left, node.Right}
	}
	for _, childIdx := range children {
		childVertex, created := c.game.internVertex(vd.State, childIdx)
		c.game.addEdge(v, childVertex)
		vd = &c.game.vertices[v]
		if created {
			c.queue.Push(equeue.Vertex(childVertex))
		}
	}
	vd.Owner = owner
	vd.Priority = 0
	vd.Expanded = true
	return nil
}
