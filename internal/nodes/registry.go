// Package nodes defines the node interface the pack exposes to the host
// and the registry the daemon serves it from. Concrete nodes live in the
// per-domain subpackages and are registered at daemon start.
package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/geomnodes/geomnodes/internal/logger"
)

var log = logger.ForComponent("nodes")

// Node is one named operation with a declared JSON input schema. Mesh
// inputs and outputs travel as mesh ids referencing the process-wide
// store; Execute returns a JSON-marshalable payload.
type Node interface {
	Name() string
	Description() string
	Category() string
	Schema() json.RawMessage
	Execute(ctx context.Context, input json.RawMessage) (interface{}, error)
}

// AnnotatedNode optionally declares behavior hints for the host UI.
type AnnotatedNode interface {
	Node
	Annotations() map[string]bool
}

// Definition is the discovery payload for one node.
type Definition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	InputSchema json.RawMessage `json:"input_schema"`
	Annotations map[string]bool `json:"annotations,omitempty"`
}

type Registry struct {
	mu    sync.RWMutex
	nodes map[string]Node
}

func NewRegistry() *Registry {
	return &Registry{
		nodes: make(map[string]Node),
	}
}

func (r *Registry) Register(node Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := node.Name()
	if name == "" {
		return fmt.Errorf("node name cannot be empty")
	}
	if _, exists := r.nodes[name]; exists {
		return fmt.Errorf("node already registered: %s", name)
	}

	r.nodes[name] = node
	return nil
}

// RegisterAll registers a batch, stopping at the first failure.
func (r *Registry) RegisterAll(batch []Node) error {
	for _, node := range batch {
		if err := r.Register(node); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) Get(name string) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	node, ok := r.nodes[name]
	return node, ok
}

// Execute runs a node by name. Panics inside a node are recovered and
// surfaced as execution errors so one bad mesh cannot take the daemon
// down.
func (r *Registry) Execute(ctx context.Context, name string, input json.RawMessage) (result interface{}, err error) {
	node, ok := r.Get(name)
	if !ok {
		return nil, NewNodeNotFoundError(name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("node panicked", "node", name, "panic", rec, "stack", string(debug.Stack()))
			result = nil
			err = NewNodeExecutionError(name, fmt.Errorf("panic: %v", rec))
		}
	}()

	result, err = node.Execute(ctx, input)
	if err != nil {
		return nil, NewNodeExecutionError(name, err)
	}
	return result, nil
}

// ExecuteWithTimeout runs a node under a deadline. Engine nodes pass
// the context down to their subprocess, so hitting the deadline kills
// the external process too.
func (r *Registry) ExecuteWithTimeout(ctx context.Context, name string, input json.RawMessage, timeout time.Duration) (interface{}, error) {
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return r.Execute(execCtx, name, input)
}

func (r *Registry) List() []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Node, 0, len(r.nodes))
	for _, node := range r.nodes {
		result = append(result, node)
	}
	return result
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.nodes))
	for name := range r.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

// Definitions returns the discovery payload for every node, sorted by
// name for stable output.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.nodes))
	for _, node := range r.nodes {
		def := Definition{
			Name:        node.Name(),
			Description: node.Description(),
			Category:    node.Category(),
			InputSchema: node.Schema(),
		}
		if annotated, ok := node.(AnnotatedNode); ok {
			def.Annotations = annotated.Annotations()
		}
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
