package migration

import (
	"context"
	"fmt"

	"github.com/imthatgin/querylib/internal/domain"
	"github.com/imthatgin/querylib/internal/graph"
)

// Linker attaches new migration records to their predecessor in the version
// chain. Each call runs as one transaction: the predecessor lookup, the node
// creation and the conditional edge creation commit or roll back together.
type Linker struct {
	store graph.Store
}

// NewLinker creates a chain linker backed by the given store
func NewLinker(store graph.Store) *Linker {
	return &Linker{store: store}
}

// LinkMigration records a new migration node populated from newRecordData and,
// when previousVersion names an existing record, links the new node to it via
// a PREVIOUS_MIGRATION edge. The node is always created; only the edge is
// conditional. A previousVersion that matches nothing is not an error, it just
// leaves the new record without a predecessor.
//
// Uniqueness violations surface as graph.ErrWriteConflict and unreachable
// storage as graph.ErrStorageUnavailable, both unmodified from the store.
func (l *Linker) LinkMigration(ctx context.Context, newRecordData map[string]any, previousVersion *string) (domain.MigrationRecord, error) {
	if domain.VersionFromProperties(newRecordData) == "" {
		return domain.MigrationRecord{}, fmt.Errorf("new record data must carry a non-empty %q property", domain.PropertyVersion)
	}

	var record domain.MigrationRecord

	err := l.store.WithTx(ctx, func(tx graph.Tx) error {
		var predecessor *graph.Node
		if previousVersion != nil {
			var err error
			predecessor, err = tx.FindNodeByProperty(ctx, domain.MigrationLabel, domain.PropertyVersion, *previousVersion)
			if err != nil {
				return err
			}
		}

		node, err := tx.CreateNode(ctx, domain.MigrationLabel, newRecordData)
		if err != nil {
			return err
		}
		record = domain.NewMigrationRecord(node.ID, node.Properties, node.CreatedAt)

		if predecessor != nil {
			if _, err := tx.CreateEdge(ctx, node.ID, predecessor.ID, domain.PreviousMigrationRel); err != nil {
				return err
			}
			record = record.WithPreviousVersion(*previousVersion)
		}

		return nil
	})
	if err != nil {
		return domain.MigrationRecord{}, err
	}

	return record, nil
}
