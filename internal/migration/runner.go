package migration

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/imthatgin/querylib/internal/domain"
	"github.com/imthatgin/querylib/internal/graph"
	"github.com/imthatgin/querylib/internal/logger"
)

// ErrChecksumMismatch indicates that an already recorded migration's script
// changed on disk after it was applied.
var ErrChecksumMismatch = errors.New("migration checksum was mismatched")

// Summary reports what a migration run did.
type Summary struct {
	Scanned int `json:"scanned"`
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}

// Runner applies pending migration scripts and records each one in the version
// chain. Scripts run in their own transaction first; the chain record is
// written in a second transaction, matching the two-phase shape of the store.
type Runner struct {
	store  graph.Store
	linker *Linker
	log    logger.Logger

	// Serializes runs triggered from the apply endpoint and boot.
	mu sync.Mutex
}

// NewRunner creates a migration runner
func NewRunner(store graph.Store, linker *Linker, log logger.Logger) *Runner {
	return &Runner{
		store:  store,
		linker: linker,
		log:    log,
	}
}

// Run walks migrations in order, skipping the ones already recorded with a
// matching checksum and applying the rest. The previous version advances over
// skipped files, so a new script always links to the file right before it.
func (r *Runner) Run(ctx context.Context, migrations []domain.FileMigration) (Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary := Summary{Scanned: len(migrations)}
	r.log.LogInfo(fmt.Sprintf("Running migrations for %d files", len(migrations)), nil)

	var previousVersion *string
	for _, migration := range migrations {
		applied, err := r.upMigration(ctx, migration, previousVersion)
		if err != nil {
			return summary, err
		}

		if applied {
			summary.Applied++
		} else {
			summary.Skipped++
		}

		version := migration.Version
		previousVersion = &version
	}

	return summary, nil
}

func (r *Runner) upMigration(ctx context.Context, migration domain.FileMigration, previousVersion *string) (bool, error) {
	existing, err := r.store.GetNodeByProperty(ctx, domain.MigrationLabel, domain.PropertyFileName, migration.FileName)
	if err == nil {
		recorded := domain.NewMigrationRecord(existing.ID, existing.Properties, existing.CreatedAt)
		if recorded.Checksum() != migration.Checksum {
			mismatch := fmt.Errorf("%s: recorded checksum %s, computed %s: %w",
				migration.FileName, recorded.Checksum(), migration.Checksum, ErrChecksumMismatch)
			return false, r.log.LogError(mismatch, fmt.Sprintf("[%s] CHECKSUM MISMATCH - wrong checksum", migration.FileName))
		}
		r.log.LogInfo(fmt.Sprintf("[%s] SKIP - up to date", migration.FileName), nil)
		return false, nil
	}
	if !errors.Is(err, graph.ErrNotFound) {
		return false, err
	}

	if err := r.store.ExecScript(ctx, migration.Script); err != nil {
		return false, fmt.Errorf("failed to apply %s: %w", migration.FileName, err)
	}

	if _, err := r.linker.LinkMigration(ctx, migration.Properties(), previousVersion); err != nil {
		return false, fmt.Errorf("failed to record %s: %w", migration.FileName, err)
	}

	r.log.LogInfo(fmt.Sprintf("[%s] DONE - migrated", migration.FileName), nil)
	return true, nil
}
