package graph

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/zabal/bonfires/pkg/logger"

	"golang.org/x/sync/errgroup"
)

type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StateReady     State = "ready"
	StateExpanding State = "expanding"
	StateFailed    State = "failed"
)

var (
	// ErrStaleContext is returned when a fetch finishes after Select switched
	// the explorer to another bonfire or agent, or after a newer Load started.
	// Its result is discarded.
	ErrStaleContext = errors.New("graph context changed while request was in flight")
	ErrNoBonfire    = errors.New("no bonfire selected")
	ErrNotLoaded    = errors.New("graph not loaded")
)

// Source fetches decoded graphs, typically backed by the Bonfires API.
type Source interface {
	Graph(ctx context.Context, bonfireID, agentID string) (*Data, error)
	Expand(ctx context.Context, bonfireID, nodeUUID string) (*Data, error)
}

// Explorer holds the graph a user is browsing: the initial load for a
// bonfire plus every neighborhood expanded since. It is safe for concurrent
// use.
type Explorer struct {
	source Source

	mu         sync.Mutex
	bonfireID  string
	agentID    string
	state      State
	data       *Data
	expanded   map[string]struct{}
	selected   string
	err        error
	generation uint64
	pending    int
}

// Snapshot is a point-in-time view of an Explorer. Data is shared with the
// explorer and must be treated as read-only.
type Snapshot struct {
	State     State
	BonfireID string
	AgentID   string
	Data      *Data
	Selected  string
	Expanded  []string
	Err       error
}

func NewExplorer(source Source) *Explorer {
	return &Explorer{
		source:   source,
		state:    StateIdle,
		expanded: make(map[string]struct{}),
	}
}

// Select switches to another bonfire and agent. Current data, the expanded
// set and the selection are dropped, and results of requests still in flight
// will be discarded.
func (e *Explorer) Select(bonfireID, agentID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.generation++
	e.bonfireID = bonfireID
	e.agentID = agentID
	e.state = StateIdle
	e.data = nil
	e.expanded = make(map[string]struct{})
	e.selected = ""
	e.err = nil
	e.pending = 0
}

// Load fetches the initial graph for the selected bonfire and replaces the
// current data with it. Expansions still in flight are discarded, and no new
// expansion starts until the load finished.
func (e *Explorer) Load(ctx context.Context) error {
	e.mu.Lock()
	if e.bonfireID == "" {
		e.mu.Unlock()
		return ErrNoBonfire
	}
	e.generation++
	gen := e.generation
	bonfireID, agentID := e.bonfireID, e.agentID
	e.state = StateLoading
	e.err = nil
	e.expanded = make(map[string]struct{})
	e.pending = 0
	e.mu.Unlock()

	data, err := e.source.Graph(ctx, bonfireID, agentID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation {
		logger.Debug("Discarding stale graph load", "bonfire_id", bonfireID)
		return ErrStaleContext
	}
	if err != nil {
		e.state = StateFailed
		e.err = err
		return fmt.Errorf("failed to load graph for bonfire %s: %w", bonfireID, err)
	}
	if data == nil {
		data = &Data{}
	}

	e.data = data
	e.state = StateReady
	return nil
}

// Expand fetches the neighborhood of nodeUUID and merges it into the current
// data. Expanding a node twice is a no-op.
func (e *Explorer) Expand(ctx context.Context, nodeUUID string) error {
	return e.ExpandMany(ctx, []string{nodeUUID}, 1)
}

// ExpandMany expands several nodes with at most limit requests at a time
// (unbounded when limit <= 0). Results are merged in argument order once all
// of them arrived; if any request fails nothing is merged.
func (e *Explorer) ExpandMany(ctx context.Context, nodeUUIDs []string, limit int) error {
	e.mu.Lock()
	if e.data == nil || e.state == StateLoading {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	var todo []string
	for _, u := range nodeUUIDs {
		id := StripPrefix(u)
		if id == "" {
			continue
		}
		if _, ok := e.expanded[id]; ok {
			continue
		}
		e.expanded[id] = struct{}{}
		todo = append(todo, id)
	}
	if len(todo) == 0 {
		e.mu.Unlock()
		return nil
	}
	gen := e.generation
	bonfireID := e.bonfireID
	e.pending++
	e.state = StateExpanding
	e.mu.Unlock()

	results := make([]*Data, len(todo))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, id := range todo {
		g.Go(func() error {
			d, err := e.source.Expand(gctx, bonfireID, id)
			if err != nil {
				return fmt.Errorf("failed to expand node %s: %w", id, err)
			}
			results[i] = d
			return nil
		})
	}
	err := g.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation {
		logger.Debug("Discarding stale graph expansion", "bonfire_id", bonfireID, "nodes", len(todo))
		return ErrStaleContext
	}

	e.pending--
	if e.pending == 0 {
		e.state = StateReady
	}
	if err != nil {
		for _, id := range todo {
			delete(e.expanded, id)
		}
		e.err = err
		return err
	}

	data := e.data
	for _, d := range results {
		data = Merge(data, d)
	}
	e.data = data
	return nil
}

// SelectNode marks a node of the current data as selected. An empty uuid
// clears the selection. It reports false when the node is unknown.
func (e *Explorer) SelectNode(uuid string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if uuid == "" {
		e.selected = ""
		return true
	}
	n, ok := e.data.Node(uuid)
	if !ok {
		return false
	}
	e.selected = n.UUID
	return true
}

func (e *Explorer) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	expanded := make([]string, 0, len(e.expanded))
	for id := range e.expanded {
		expanded = append(expanded, id)
	}
	slices.Sort(expanded)

	return Snapshot{
		State:     e.state,
		BonfireID: e.bonfireID,
		AgentID:   e.agentID,
		Data:      e.data,
		Selected:  e.selected,
		Expanded:  expanded,
		Err:       e.err,
	}
}
