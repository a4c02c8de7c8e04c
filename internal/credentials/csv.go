package credentials

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/natefinch/atomic"

	"github.com/fmuoria/career-bot/internal/models"
)

var csvHeader = []string{"identifier", "password"}

// NewCSVStore returns a FileStore backed by a two-column CSV file with a
// header row.
func NewCSVStore(path string) *FileStore {
	return &FileStore{path: path, table: csvTable{}}
}

type csvTable struct{}

func (csvTable) read(path string) ([]models.Credential, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	records := make([]models.Credential, 0, len(rows))
	for i, row := range rows {
		if i == 0 && row[0] == csvHeader[0] && row[1] == csvHeader[1] {
			continue
		}
		records = append(records, models.Credential{Identifier: row[0], Password: row[1]})
	}
	return records, nil
}

func (csvTable) write(path string, records []models.Credential) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := w.Write([]string{r.Identifier, r.Password}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to encode csv: %w", err)
	}

	return atomic.WriteFile(path, &buf)
}
