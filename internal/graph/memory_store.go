package graph

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store implementation with the same uniqueness
// rules as the Postgres schema: one node per (label, version property) and one
// outgoing edge per (source, rel_type). Transactions are serialized under a
// single lock and staged writes become visible only on commit.
type MemoryStore struct {
	mu        sync.RWMutex
	nodes     map[uuid.UUID]Node
	edges     map[uuid.UUID]Edge
	nodeOrder []uuid.UUID
	edgeOrder []uuid.UUID
	scripts   []string
}

// NewMemoryStore creates an empty in-memory graph store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes: make(map[uuid.UUID]Node),
		edges: make(map[uuid.UUID]Edge),
	}
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}

	for _, node := range tx.nodes {
		s.nodes[node.ID] = node
		s.nodeOrder = append(s.nodeOrder, node.ID)
	}
	for _, edge := range tx.edges {
		s.edges[edge.ID] = edge
		s.edgeOrder = append(s.edgeOrder, edge.ID)
	}
	return nil
}

func (s *MemoryStore) GetNode(ctx context.Context, id uuid.UUID) (Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[id]
	if !ok {
		return Node{}, fmt.Errorf("get node %s: %w", id, ErrNotFound)
	}
	return copyNode(node), nil
}

func (s *MemoryStore) GetNodeByProperty(ctx context.Context, label, key, value string) (Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.nodeOrder {
		node := s.nodes[id]
		if node.Label == label && propertyEquals(node.Properties, key, value) {
			return copyNode(node), nil
		}
	}
	return Node{}, fmt.Errorf("get node by %s=%s: %w", key, value, ErrNotFound)
}

func (s *MemoryStore) ListNodes(ctx context.Context, label string) ([]Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var nodes []Node
	for _, id := range s.nodeOrder {
		if node := s.nodes[id]; node.Label == label {
			nodes = append(nodes, copyNode(node))
		}
	}
	return nodes, nil
}

func (s *MemoryStore) ListNodesByProperty(ctx context.Context, label, key string, values []string) ([]Node, error) {
	if len(values) == 0 {
		return nil, nil
	}

	wanted := make(map[string]struct{}, len(values))
	for _, v := range values {
		wanted[v] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var nodes []Node
	for _, id := range s.nodeOrder {
		node := s.nodes[id]
		if node.Label != label {
			continue
		}
		value, ok := propertyText(node.Properties[key])
		if !ok {
			continue
		}
		if _, ok := wanted[value]; ok {
			nodes = append(nodes, copyNode(node))
		}
	}
	return nodes, nil
}

func (s *MemoryStore) OutgoingEdge(ctx context.Context, sourceID uuid.UUID, relType string) (Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.edgeOrder {
		edge := s.edges[id]
		if edge.SourceID == sourceID && edge.RelType == relType {
			return edge, nil
		}
	}
	return Edge{}, fmt.Errorf("outgoing edge of %s: %w", sourceID, ErrNotFound)
}

func (s *MemoryStore) ListEdges(ctx context.Context, relType string) ([]Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var edges []Edge
	for _, id := range s.edgeOrder {
		if edge := s.edges[id]; edge.RelType == relType {
			edges = append(edges, edge)
		}
	}
	return edges, nil
}

// ExecScript records the script instead of executing it, so tests can assert
// which scripts ran and in what order.
func (s *MemoryStore) ExecScript(ctx context.Context, script string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts = append(s.scripts, script)
	return nil
}

// AppliedScripts returns the scripts passed to ExecScript, in order.
func (s *MemoryStore) AppliedScripts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scripts := make([]string, len(s.scripts))
	copy(scripts, s.scripts)
	return scripts
}

type memoryTx struct {
	store *MemoryStore
	nodes []Node
	edges []Edge
}

func (t *memoryTx) FindNodeByProperty(ctx context.Context, label, key, value string) (*Node, error) {
	for _, id := range t.store.nodeOrder {
		node := t.store.nodes[id]
		if node.Label == label && propertyEquals(node.Properties, key, value) {
			found := copyNode(node)
			return &found, nil
		}
	}
	for _, node := range t.nodes {
		if node.Label == label && propertyEquals(node.Properties, key, value) {
			found := copyNode(node)
			return &found, nil
		}
	}
	return nil, nil
}

func (t *memoryTx) CreateNode(ctx context.Context, label string, properties map[string]any) (Node, error) {
	if properties == nil {
		properties = map[string]any{}
	}

	// Mirrors the partial unique index on (label, properties->>'version'):
	// only nodes carrying a version property conflict, compared in text form.
	if version, ok := propertyText(properties["version"]); ok {
		for _, id := range t.store.nodeOrder {
			existing := t.store.nodes[id]
			if existing.Label == label && propertyEquals(existing.Properties, "version", version) {
				return Node{}, fmt.Errorf("create node: %w", ErrWriteConflict)
			}
		}
		for _, staged := range t.nodes {
			if staged.Label == label && propertyEquals(staged.Properties, "version", version) {
				return Node{}, fmt.Errorf("create node: %w", ErrWriteConflict)
			}
		}
	}

	node := Node{
		ID:         uuid.New(),
		Label:      label,
		Properties: copyNodeProperties(properties),
		CreatedAt:  time.Now(),
	}
	t.nodes = append(t.nodes, node)
	return copyNode(node), nil
}

func (t *memoryTx) CreateEdge(ctx context.Context, sourceID, targetID uuid.UUID, relType string) (Edge, error) {
	if !t.nodeExists(sourceID) || !t.nodeExists(targetID) {
		return Edge{}, fmt.Errorf("create edge: both endpoints must exist")
	}

	// Mirrors the unique constraint on (source_id, rel_type).
	for _, id := range t.store.edgeOrder {
		existing := t.store.edges[id]
		if existing.SourceID == sourceID && existing.RelType == relType {
			return Edge{}, fmt.Errorf("create edge: %w", ErrWriteConflict)
		}
	}
	for _, staged := range t.edges {
		if staged.SourceID == sourceID && staged.RelType == relType {
			return Edge{}, fmt.Errorf("create edge: %w", ErrWriteConflict)
		}
	}

	edge := Edge{
		ID:        uuid.New(),
		SourceID:  sourceID,
		TargetID:  targetID,
		RelType:   relType,
		CreatedAt: time.Now(),
	}
	t.edges = append(t.edges, edge)
	return edge, nil
}

func (t *memoryTx) nodeExists(id uuid.UUID) bool {
	if _, ok := t.store.nodes[id]; ok {
		return true
	}
	for _, staged := range t.nodes {
		if staged.ID == id {
			return true
		}
	}
	return false
}

func propertyEquals(properties map[string]any, key, value string) bool {
	v, ok := propertyText(properties[key])
	return ok && v == value
}

// propertyText renders a scalar property value the way the Postgres ->>
// operator would, so numeric property values match their text form in
// lookups and in the version uniqueness check.
func propertyText(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

func copyNode(node Node) Node {
	node.Properties = copyNodeProperties(node.Properties)
	return node
}

func copyNodeProperties(properties map[string]any) map[string]any {
	copied := make(map[string]any, len(properties))
	for k, v := range properties {
		copied[k] = v
	}
	return copied
}
