package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/imthatgin/querylib/internal/domain"
)

// Source discovers migration scripts in a directory
type Source struct {
	dir string
}

// NewSource creates a source reading .sql scripts from dir
func NewSource(dir string) *Source {
	return &Source{dir: dir}
}

// Load reads every .sql script in the source directory and returns them
// ordered by numeric prefix. A directory that cannot be read is an error, as
// is a pair of scripts sharing the same sequence number.
func (s *Source) Load() ([]domain.FileMigration, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var migrations []domain.FileMigration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		migration, err := domain.NewFileMigration(entry.Name(), string(content))
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, migration)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Sequence < migrations[j].Sequence
	})

	for i := 1; i < len(migrations); i++ {
		if migrations[i].Sequence == migrations[i-1].Sequence {
			return nil, fmt.Errorf("duplicate migration sequence %d: %s and %s",
				migrations[i].Sequence, migrations[i-1].FileName, migrations[i].FileName)
		}
	}

	return migrations, nil
}
