package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/imthatgin/querylib/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolationCode      = "23505"
	connectionExceptionClass = "08"
)

type postgresStore struct {
	conn *db.Connection
}

// NewPostgresStore creates a Store backed by the shared Postgres connection pool
func NewPostgresStore(conn *db.Connection) Store {
	return &postgresStore{conn: conn}
}

func (s *postgresStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	err := s.conn.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(&postgresTx{tx: tx})
	})
	return mapStoreError("graph transaction", err)
}

func (s *postgresStore) GetNode(ctx context.Context, id uuid.UUID) (Node, error) {
	const q = `
		SELECT id, label, properties, created_at
		FROM graph_nodes
		WHERE id = $1`

	node, err := scanNode(s.conn.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Node{}, fmt.Errorf("get node %s: %w", id, ErrNotFound)
		}
		return Node{}, mapStoreError("get node", err)
	}
	return node, nil
}

func (s *postgresStore) GetNodeByProperty(ctx context.Context, label, key, value string) (Node, error) {
	const q = `
		SELECT id, label, properties, created_at
		FROM graph_nodes
		WHERE label = $1 AND properties->>$2 = $3
		LIMIT 1`

	node, err := scanNode(s.conn.Pool.QueryRow(ctx, q, label, key, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Node{}, fmt.Errorf("get node by %s=%s: %w", key, value, ErrNotFound)
		}
		return Node{}, mapStoreError("get node by property", err)
	}
	return node, nil
}

func (s *postgresStore) ListNodes(ctx context.Context, label string) ([]Node, error) {
	const q = `
		SELECT id, label, properties, created_at
		FROM graph_nodes
		WHERE label = $1
		ORDER BY created_at, id`

	rows, err := s.conn.Pool.Query(ctx, q, label)
	if err != nil {
		return nil, mapStoreError("list nodes", err)
	}
	defer rows.Close()

	return collectNodes(rows)
}

func (s *postgresStore) ListNodesByProperty(ctx context.Context, label, key string, values []string) ([]Node, error) {
	if len(values) == 0 {
		return nil, nil
	}

	const q = `
		SELECT id, label, properties, created_at
		FROM graph_nodes
		WHERE label = $1 AND properties->>$2 = ANY($3)
		ORDER BY created_at, id`

	rows, err := s.conn.Pool.Query(ctx, q, label, key, values)
	if err != nil {
		return nil, mapStoreError("list nodes by property", err)
	}
	defer rows.Close()

	return collectNodes(rows)
}

func (s *postgresStore) OutgoingEdge(ctx context.Context, sourceID uuid.UUID, relType string) (Edge, error) {
	const q = `
		SELECT id, source_id, target_id, rel_type, created_at
		FROM graph_edges
		WHERE source_id = $1 AND rel_type = $2`

	var edge Edge
	err := s.conn.Pool.QueryRow(ctx, q, sourceID, relType).
		Scan(&edge.ID, &edge.SourceID, &edge.TargetID, &edge.RelType, &edge.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Edge{}, fmt.Errorf("outgoing edge of %s: %w", sourceID, ErrNotFound)
		}
		return Edge{}, mapStoreError("outgoing edge", err)
	}
	return edge, nil
}

func (s *postgresStore) ListEdges(ctx context.Context, relType string) ([]Edge, error) {
	const q = `
		SELECT id, source_id, target_id, rel_type, created_at
		FROM graph_edges
		WHERE rel_type = $1
		ORDER BY created_at, id`

	rows, err := s.conn.Pool.Query(ctx, q, relType)
	if err != nil {
		return nil, mapStoreError("list edges", err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var edge Edge
		if err := rows.Scan(&edge.ID, &edge.SourceID, &edge.TargetID, &edge.RelType, &edge.CreatedAt); err != nil {
			return nil, mapStoreError("scan edge", err)
		}
		edges = append(edges, edge)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStoreError("list edges", err)
	}

	return edges, nil
}

func (s *postgresStore) ExecScript(ctx context.Context, script string) error {
	err := s.conn.WithTx(ctx, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, script)
		return execErr
	})
	return mapStoreError("exec script", err)
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) FindNodeByProperty(ctx context.Context, label, key, value string) (*Node, error) {
	const q = `
		SELECT id, label, properties, created_at
		FROM graph_nodes
		WHERE label = $1 AND properties->>$2 = $3
		LIMIT 1`

	node, err := scanNode(t.tx.QueryRow(ctx, q, label, key, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapStoreError("find node", err)
	}
	return &node, nil
}

func (t *postgresTx) CreateNode(ctx context.Context, label string, properties map[string]any) (Node, error) {
	if properties == nil {
		properties = map[string]any{}
	}

	propertiesJSON, err := json.Marshal(properties)
	if err != nil {
		return Node{}, fmt.Errorf("marshal node properties: %w", err)
	}

	const q = `
		INSERT INTO graph_nodes (id, label, properties)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	node := Node{ID: uuid.New(), Label: label, Properties: properties}
	if err := t.tx.QueryRow(ctx, q, node.ID, label, propertiesJSON).Scan(&node.CreatedAt); err != nil {
		return Node{}, mapStoreError("create node", err)
	}
	return node, nil
}

func (t *postgresTx) CreateEdge(ctx context.Context, sourceID, targetID uuid.UUID, relType string) (Edge, error) {
	const q = `
		INSERT INTO graph_edges (id, source_id, target_id, rel_type)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	edge := Edge{ID: uuid.New(), SourceID: sourceID, TargetID: targetID, RelType: relType}
	if err := t.tx.QueryRow(ctx, q, edge.ID, sourceID, targetID, relType).Scan(&edge.CreatedAt); err != nil {
		return Edge{}, mapStoreError("create edge", err)
	}
	return edge, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (Node, error) {
	var node Node
	var propertiesJSON []byte
	if err := row.Scan(&node.ID, &node.Label, &propertiesJSON, &node.CreatedAt); err != nil {
		return Node{}, err
	}
	if err := json.Unmarshal(propertiesJSON, &node.Properties); err != nil {
		return Node{}, fmt.Errorf("unmarshal node properties: %w", err)
	}
	return node, nil
}

func collectNodes(rows pgx.Rows) ([]Node, error) {
	var nodes []Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, mapStoreError("scan node", err)
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStoreError("list nodes", err)
	}
	return nodes, nil
}

// mapStoreError translates driver failures into the store's sentinel errors.
// Uniqueness violations become ErrWriteConflict; connection-class failures
// become ErrStorageUnavailable. Already-mapped errors pass through unchanged.
func mapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrWriteConflict) || errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrNotFound) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("%s: %w", op, ErrWriteConflict)
		}
		if strings.HasPrefix(pgErr.Code, connectionExceptionClass) {
			return fmt.Errorf("%s: %w", op, ErrStorageUnavailable)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return fmt.Errorf("%s: %w", op, ErrStorageUnavailable)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%s: %w", op, ErrStorageUnavailable)
	}

	return fmt.Errorf("%s: %w", op, err)
}
