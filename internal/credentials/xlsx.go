package credentials

import (
	"fmt"

	"github.com/natefinch/atomic"
	"github.com/xuri/excelize/v2"

	"github.com/fmuoria/career-bot/internal/models"
)

const credentialsSheet = "Credentials"

// NewXLSXStore returns a FileStore that keeps the two-column table in the
// Credentials sheet of an xlsx workbook.
func NewXLSXStore(path string) *FileStore {
	return &FileStore{path: path, table: xlsxTable{}}
}

type xlsxTable struct{}

func (xlsxTable) read(path string) ([]models.Credential, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(credentialsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", credentialsSheet, err)
	}

	records := make([]models.Credential, 0, len(rows))
	for i, row := range rows {
		// GetRows drops trailing empty cells.
		for len(row) < 2 {
			row = append(row, "")
		}
		if i == 0 && row[0] == csvHeader[0] && row[1] == csvHeader[1] {
			continue
		}
		records = append(records, models.Credential{Identifier: row[0], Password: row[1]})
	}
	return records, nil
}

func (xlsxTable) write(path string, records []models.Credential) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", credentialsSheet); err != nil {
		return err
	}
	f.SetColWidth(credentialsSheet, "A", "B", 30)

	if err := f.SetSheetRow(credentialsSheet, "A1", &csvHeader); err != nil {
		return err
	}
	for i, r := range records {
		cell := fmt.Sprintf("A%d", i+2)
		row := []string{r.Identifier, r.Password}
		if err := f.SetSheetRow(credentialsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("failed to encode workbook: %w", err)
	}
	return atomic.WriteFile(path, buf)
}
