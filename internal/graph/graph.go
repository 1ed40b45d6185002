package graph

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors surfaced by every Store implementation.
var (
	// ErrWriteConflict indicates an identity/uniqueness violation, such as two
	// nodes claiming the same version or a second outgoing edge of one type.
	ErrWriteConflict = errors.New("graph: write conflict")

	// ErrStorageUnavailable indicates the backing store cannot be reached.
	ErrStorageUnavailable = errors.New("graph: storage unavailable")

	// ErrNotFound indicates a lookup matched no node or edge.
	ErrNotFound = errors.New("graph: not found")
)

// Node represents a labeled vertex with a free-form property map
type Node struct {
	ID         uuid.UUID      `json:"id"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Edge represents a directed, typed edge between two nodes
type Edge struct {
	ID        uuid.UUID `json:"id"`
	SourceID  uuid.UUID `json:"source_id"`
	TargetID  uuid.UUID `json:"target_id"`
	RelType   string    `json:"rel_type"`
	CreatedAt time.Time `json:"created_at"`
}
