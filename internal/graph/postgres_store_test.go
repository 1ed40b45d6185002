package graph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapStoreErrorNil(t *testing.T) {
	if err := mapStoreError("op", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestMapStoreErrorUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "graph_nodes_label_version_key"}

	err := mapStoreError("create node", pgErr)
	if !errors.Is(err, ErrWriteConflict) {
		t.Fatalf("expected ErrWriteConflict, got %v", err)
	}
}

func TestMapStoreErrorConnectionClass(t *testing.T) {
	codes := []string{"08000", "08003", "08006"}
	for _, code := range codes {
		err := mapStoreError("list nodes", &pgconn.PgError{Code: code})
		if !errors.Is(err, ErrStorageUnavailable) {
			t.Errorf("code %s: expected ErrStorageUnavailable, got %v", code, err)
		}
	}
}

func TestMapStoreErrorWrappedPgError(t *testing.T) {
	wrapped := fmt.Errorf("failed to commit transaction: %w", &pgconn.PgError{Code: "23505"})

	err := mapStoreError("graph transaction", wrapped)
	if !errors.Is(err, ErrWriteConflict) {
		t.Fatalf("expected ErrWriteConflict through wrapping, got %v", err)
	}
}

func TestMapStoreErrorPassesThroughSentinels(t *testing.T) {
	for _, sentinel := range []error{ErrWriteConflict, ErrStorageUnavailable, ErrNotFound} {
		already := fmt.Errorf("create node: %w", sentinel)
		if got := mapStoreError("graph transaction", already); got != already {
			t.Errorf("sentinel %v was rewrapped: %v", sentinel, got)
		}
	}
}

func TestMapStoreErrorOtherPgError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503"}

	err := mapStoreError("create edge", pgErr)
	if errors.Is(err, ErrWriteConflict) || errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("foreign key violation must not map to a sentinel: %v", err)
	}
	if !errors.As(err, new(*pgconn.PgError)) {
		t.Errorf("original error should remain in the chain: %v", err)
	}
}
