package recordloader

import (
	"context"
	"time"

	"github.com/imthatgin/querylib/internal/domain"
	"github.com/imthatgin/querylib/internal/graph"

	"github.com/graph-gophers/dataloader"
)

// RecordLoader batches migration record lookups by file name, so checking a
// whole directory of scripts against the chain costs one store query.
type RecordLoader struct {
	Loader *dataloader.Loader
}

func NewRecordLoader(store graph.Store) *RecordLoader {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}

		// Fetch all requested records in one batch
		nodes, err := store.ListNodesByProperty(ctx, domain.MigrationLabel, domain.PropertyFileName, names)
		if err != nil {
			results := make([]*dataloader.Result, len(keys))
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		// Map file name -> record for ordering
		recordMap := make(map[string]domain.MigrationRecord, len(nodes))
		for _, node := range nodes {
			record := domain.NewMigrationRecord(node.ID, node.Properties, node.CreatedAt)
			recordMap[record.FileName()] = record
		}

		// Build results in the same order as keys
		results := make([]*dataloader.Result, len(keys))
		for i, name := range names {
			if record, ok := recordMap[name]; ok {
				results[i] = &dataloader.Result{Data: record}
			} else {
				results[i] = &dataloader.Result{Data: nil}
			}
		}

		return results
	}

	loader := dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(5*time.Millisecond))

	return &RecordLoader{Loader: loader}
}
