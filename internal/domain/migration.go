package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Graph vocabulary for migration records.
const (
	// MigrationLabel is the node label under which migration records are stored.
	MigrationLabel = "DataModelMigration"
	// PreviousMigrationRel is the edge type from a migration to its immediate predecessor.
	PreviousMigrationRel = "PREVIOUS_MIGRATION"
)

// Property keys stored on migration nodes.
const (
	PropertyVersion  = "version"
	PropertyFileName = "file_name"
	PropertyChecksum = "checksum"
	PropertyScript   = "script"
)

// MigrationRecord represents one recorded data model migration version
type MigrationRecord struct {
	ID              uuid.UUID      `json:"id"`
	Version         string         `json:"version"`
	Properties      map[string]any `json:"properties"`
	AppliedAt       time.Time      `json:"applied_at"`
	PreviousVersion *string        `json:"previous_version,omitempty"`
}

// NewMigrationRecord creates a migration record from stored node data
func NewMigrationRecord(id uuid.UUID, properties map[string]any, appliedAt time.Time) MigrationRecord {
	return MigrationRecord{
		ID:         id,
		Version:    VersionFromProperties(properties),
		Properties: copyProperties(properties), // Deep copy to ensure immutability
		AppliedAt:  appliedAt,
	}
}

// WithPreviousVersion returns a new record linked to the given predecessor version
func (m MigrationRecord) WithPreviousVersion(version string) MigrationRecord {
	prev := version
	return MigrationRecord{
		ID:              m.ID,
		Version:         m.Version,
		Properties:      copyProperties(m.Properties),
		AppliedAt:       m.AppliedAt,
		PreviousVersion: &prev,
	}
}

// FileName returns the file_name property, or "" when absent.
func (m MigrationRecord) FileName() string {
	return stringProperty(m.Properties, PropertyFileName)
}

// Checksum returns the checksum property, or "" when absent.
func (m MigrationRecord) Checksum() string {
	return stringProperty(m.Properties, PropertyChecksum)
}

// VersionFromProperties extracts the version identifier from a raw property map.
// Versions are stored as strings but numeric payloads survive JSON round trips
// as float64, so both are accepted.
func VersionFromProperties(properties map[string]any) string {
	switch v := properties[PropertyVersion].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	default:
		return ""
	}
}

func stringProperty(properties map[string]any, key string) string {
	if v, ok := properties[key].(string); ok {
		return v
	}
	return ""
}

// copyProperties creates a copy of the properties map to ensure immutability
func copyProperties(properties map[string]any) map[string]any {
	newProperties := make(map[string]any, len(properties))
	for k, v := range properties {
		newProperties[k] = v
	}
	return newProperties
}
