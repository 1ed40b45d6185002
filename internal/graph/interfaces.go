package graph

import (
	"context"

	"github.com/google/uuid"
)

// Tx exposes the write operations available inside a single transaction.
// FindNodeByProperty uses optional-match semantics: a missing node is
// reported as (nil, nil), never as an error.
type Tx interface {
	FindNodeByProperty(ctx context.Context, label, key, value string) (*Node, error)
	CreateNode(ctx context.Context, label string, properties map[string]any) (Node, error)
	CreateEdge(ctx context.Context, sourceID, targetID uuid.UUID, relType string) (Edge, error)
}

// Store defines the graph operations backing the migration chain
type Store interface {
	// WithTx executes fn inside one transaction. The transaction commits only
	// when fn returns nil; any error rolls back every staged write.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	GetNode(ctx context.Context, id uuid.UUID) (Node, error)
	GetNodeByProperty(ctx context.Context, label, key, value string) (Node, error)
	ListNodes(ctx context.Context, label string) ([]Node, error)
	ListNodesByProperty(ctx context.Context, label, key string, values []string) ([]Node, error)

	// OutgoingEdge returns the single edge of relType leaving sourceID, or
	// ErrNotFound when the node has none.
	OutgoingEdge(ctx context.Context, sourceID uuid.UUID, relType string) (Edge, error)
	ListEdges(ctx context.Context, relType string) ([]Edge, error)

	// ExecScript runs a raw migration script against the backing database
	// inside its own transaction.
	ExecScript(ctx context.Context, script string) error
}
