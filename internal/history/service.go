package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/imthatgin/querylib/internal/domain"
	"github.com/imthatgin/querylib/internal/graph"
	"github.com/imthatgin/querylib/internal/logger"
	"github.com/imthatgin/querylib/internal/middleware"
	"github.com/imthatgin/querylib/internal/recordloader"

	"github.com/google/uuid"
	"github.com/graph-gophers/dataloader"
)

// MigrationState classifies a script on disk relative to the recorded chain.
type MigrationState string

const (
	StateApplied MigrationState = "applied"
	StatePending MigrationState = "pending"
	StateDrifted MigrationState = "drifted"
)

// MigrationStatus pairs a discovered script with its recorded state.
type MigrationStatus struct {
	FileName  string         `json:"file_name"`
	Version   string         `json:"version"`
	State     MigrationState `json:"state"`
	AppliedAt *time.Time     `json:"applied_at,omitempty"`
}

// Service reads the recorded migration chain
type Service struct {
	store graph.Store
	log   logger.Logger
}

// NewService creates a history service over the given store
func NewService(store graph.Store, log logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// List returns every recorded migration ordered by version. Previous versions
// are resolved from the chain edges in one pass rather than per record.
func (s *Service) List(ctx context.Context) ([]domain.MigrationRecord, error) {
	nodes, err := s.store.ListNodes(ctx, domain.MigrationLabel)
	if err != nil {
		return nil, s.log.LogError(err, "failed to list migration records")
	}
	edges, err := s.store.ListEdges(ctx, domain.PreviousMigrationRel)
	if err != nil {
		return nil, s.log.LogError(err, "failed to list migration edges")
	}

	versionByID := make(map[uuid.UUID]string, len(nodes))
	for _, node := range nodes {
		versionByID[node.ID] = domain.VersionFromProperties(node.Properties)
	}
	predecessorByID := make(map[uuid.UUID]uuid.UUID, len(edges))
	for _, edge := range edges {
		predecessorByID[edge.SourceID] = edge.TargetID
	}

	records := make([]domain.MigrationRecord, 0, len(nodes))
	for _, node := range nodes {
		record := domain.NewMigrationRecord(node.ID, node.Properties, node.CreatedAt)
		if targetID, ok := predecessorByID[node.ID]; ok {
			record = record.WithPreviousVersion(versionByID[targetID])
		}
		records = append(records, record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return lessVersion(records[i].Version, records[j].Version)
	})

	return records, nil
}

// GetByVersion returns the record for one version, with its previous version
// resolved. Unknown versions surface graph.ErrNotFound.
func (s *Service) GetByVersion(ctx context.Context, version string) (domain.MigrationRecord, error) {
	node, err := s.store.GetNodeByProperty(ctx, domain.MigrationLabel, domain.PropertyVersion, version)
	if err != nil {
		return domain.MigrationRecord{}, err
	}

	record := domain.NewMigrationRecord(node.ID, node.Properties, node.CreatedAt)

	edge, err := s.store.OutgoingEdge(ctx, node.ID, domain.PreviousMigrationRel)
	if err != nil {
		if errors.Is(err, graph.ErrNotFound) {
			return record, nil
		}
		return domain.MigrationRecord{}, err
	}

	predecessor, err := s.store.GetNode(ctx, edge.TargetID)
	if err != nil {
		return domain.MigrationRecord{}, err
	}

	return record.WithPreviousVersion(domain.VersionFromProperties(predecessor.Properties)), nil
}

// Lineage walks the predecessor chain starting at version, newest first. A
// cycle in the stored edges aborts the walk instead of looping forever.
func (s *Service) Lineage(ctx context.Context, version string) ([]domain.MigrationRecord, error) {
	node, err := s.store.GetNodeByProperty(ctx, domain.MigrationLabel, domain.PropertyVersion, version)
	if err != nil {
		return nil, err
	}

	var lineage []domain.MigrationRecord
	seen := make(map[uuid.UUID]bool)

	for {
		if seen[node.ID] {
			s.log.LogWarn("migration lineage contains a cycle", map[string]interface{}{
				"version": version,
			})
			return nil, fmt.Errorf("lineage of version %s contains a cycle", version)
		}
		seen[node.ID] = true

		edge, err := s.store.OutgoingEdge(ctx, node.ID, domain.PreviousMigrationRel)
		if err != nil {
			if errors.Is(err, graph.ErrNotFound) {
				lineage = append(lineage, domain.NewMigrationRecord(node.ID, node.Properties, node.CreatedAt))
				return lineage, nil
			}
			return nil, err
		}

		predecessor, err := s.store.GetNode(ctx, edge.TargetID)
		if err != nil {
			return nil, err
		}

		record := domain.NewMigrationRecord(node.ID, node.Properties, node.CreatedAt).
			WithPreviousVersion(domain.VersionFromProperties(predecessor.Properties))
		lineage = append(lineage, record)
		node = predecessor
	}
}

// Status reports, for each script, whether the chain has recorded it with a
// matching checksum (applied), not at all (pending), or with a different
// checksum (drifted). Lookups go through the batching record loader.
func (s *Service) Status(ctx context.Context, migrations []domain.FileMigration) ([]MigrationStatus, error) {
	loader := middleware.RecordLoaderFromContext(ctx)
	if loader == nil {
		loader = recordloader.NewRecordLoader(s.store).Loader
	}

	thunks := make([]dataloader.Thunk, len(migrations))
	for i, migration := range migrations {
		thunks[i] = loader.Load(ctx, dataloader.StringKey(migration.FileName))
	}

	statuses := make([]MigrationStatus, 0, len(migrations))
	for i, migration := range migrations {
		data, err := thunks[i]()
		if err != nil {
			return nil, s.log.LogError(err, "failed to load migration records")
		}

		status := MigrationStatus{
			FileName: migration.FileName,
			Version:  migration.Version,
			State:    StatePending,
		}
		if record, ok := data.(domain.MigrationRecord); ok {
			appliedAt := record.AppliedAt
			status.AppliedAt = &appliedAt
			if record.Checksum() == migration.Checksum {
				status.State = StateApplied
			} else {
				status.State = StateDrifted
			}
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}

// lessVersion orders versions numerically when both sides parse as integers,
// falling back to lexical order for opaque identifiers.
func lessVersion(a, b string) bool {
	ai, aErr := strconv.ParseUint(a, 10, 64)
	bi, bErr := strconv.ParseUint(b, 10, 64)
	if aErr == nil && bErr == nil {
		return ai < bi
	}
	return a < b
}
