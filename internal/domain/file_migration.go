package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// FileMigration represents a migration script discovered on disk, before it is
// known whether the store has already recorded it.
type FileMigration struct {
	Sequence uint64 `json:"sequence"`
	Version  string `json:"version"`
	FileName string `json:"file_name"`
	Checksum string `json:"checksum"`
	Script   string `json:"script"`
}

// NewFileMigration builds a FileMigration from a script file's name and contents.
// File names follow the NNN_title.sql convention; the numeric prefix orders the
// chain and becomes the migration's version.
func NewFileMigration(fileName, script string) (FileMigration, error) {
	sequence, err := parseSequence(fileName)
	if err != nil {
		return FileMigration{}, err
	}

	return FileMigration{
		Sequence: sequence,
		Version:  strconv.FormatUint(sequence, 10),
		FileName: fileName,
		Checksum: Checksum(script),
		Script:   script,
	}, nil
}

// Properties returns the node property payload recorded for this migration.
func (f FileMigration) Properties() map[string]any {
	return map[string]any{
		PropertyVersion:  f.Version,
		PropertyFileName: f.FileName,
		PropertyChecksum: f.Checksum,
		PropertyScript:   f.Script,
	}
}

// Checksum computes the hex-encoded SHA-256 digest of a migration script.
func Checksum(script string) string {
	sum := sha256.Sum256([]byte(script))
	return hex.EncodeToString(sum[:])
}

func parseSequence(fileName string) (uint64, error) {
	idx := strings.IndexByte(fileName, '_')
	if idx <= 0 {
		return 0, fmt.Errorf("migration file %q has no numeric prefix", fileName)
	}

	sequence, err := strconv.ParseUint(fileName[:idx], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("migration file %q has no numeric prefix: %w", fileName, err)
	}
	return sequence, nil
}
