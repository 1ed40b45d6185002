package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/imthatgin/querylib/internal/domain"
	"github.com/imthatgin/querylib/internal/history"

	"github.com/xuri/excelize/v2"
)

// Format selects the output encoding for a history export.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat resolves a raw query value to a Format. An empty value means CSV.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(FormatCSV):
		return FormatCSV, nil
	case string(FormatXLSX):
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type served for a format.
func ContentType(format Format) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// FileName returns the attachment name for a format.
func FileName(format Format) string {
	return fmt.Sprintf("migration-history.%s", format)
}

var exportHeaders = []string{"version", "file_name", "checksum", "previous_version", "applied_at"}

// Service renders the recorded migration chain as a spreadsheet
type Service struct {
	history   *history.Service
	sheetName string
}

type Option func(*Service)

// WithSheetName overrides the worksheet name used for xlsx exports.
func WithSheetName(name string) Option {
	return func(s *Service) {
		if strings.TrimSpace(name) != "" {
			s.sheetName = name
		}
	}
}

// NewService creates an export service over the migration history
func NewService(historyService *history.Service, opts ...Option) *Service {
	service := &Service{
		history:   historyService,
		sheetName: "Migrations",
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Export writes the full migration history to w in the requested format.
func (s *Service) Export(ctx context.Context, w io.Writer, format Format) error {
	records, err := s.history.List(ctx)
	if err != nil {
		return fmt.Errorf("load migration history: %w", err)
	}

	if format == FormatXLSX {
		return s.writeXLSX(w, records)
	}
	return s.writeCSV(w, records)
}

func (s *Service) writeCSV(w io.Writer, records []domain.MigrationRecord) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(exportHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(exportHeaders))
	for _, record := range records {
		for i, value := range rowValues(record) {
			row[i] = formatValue(value)
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("write record row: %w", err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("flush rows: %w", err)
	}
	return nil
}

func (s *Service) writeXLSX(w io.Writer, records []domain.MigrationRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", s.sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for col, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(s.sheetName, cell, header); err != nil {
			return fmt.Errorf("write header cell: %w", err)
		}
	}

	for i, record := range records {
		for col, value := range rowValues(record) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("record cell: %w", err)
			}
			if err := f.SetCellValue(s.sheetName, cell, formatValue(value)); err != nil {
				return fmt.Errorf("write record cell: %w", err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// rowValues orders a record's fields to match exportHeaders. The script body
// is deliberately left out of exports.
func rowValues(record domain.MigrationRecord) []any {
	return []any{
		record.Version,
		record.FileName(),
		record.Checksum(),
		record.PreviousVersion,
		record.AppliedAt,
	}
}

func formatValue(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.UTC().Format(time.RFC3339)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	default:
		return fmt.Sprintf("%v", v)
	}
}
