package ingestion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fmuoria/career-bot/internal/models"
)

// ErrSampleNotFound is returned when a requested sample does not exist
var ErrSampleNotFound = errors.New("sample not found")

// ErrInvalidSampleName is returned for names that could escape the library
var ErrInvalidSampleName = errors.New("invalid sample name")

// SampleLibrary lists and serves example résumé documents
type SampleLibrary interface {
	List(ctx context.Context) ([]models.SampleDocument, error)
	Open(ctx context.Context, name string) ([]byte, error)
}

// DirLibrary serves samples from a local directory
type DirLibrary struct {
	dir string
}

// NewDirLibrary creates a library rooted at dir
func NewDirLibrary(dir string) *DirLibrary {
	return &DirLibrary{dir: dir}
}

// Dir returns the library directory
func (l *DirLibrary) Dir() string {
	return l.dir
}

// List returns the .pdf and .docx files in the directory sorted by name.
// The directory is created when missing.
func (l *DirLibrary) List(ctx context.Context) ([]models.SampleDocument, error) {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create samples directory: %w", err)
	}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read samples directory: %w", err)
	}

	samples := make([]models.SampleDocument, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsSampleName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat sample %s: %w", entry.Name(), err)
		}
		samples = append(samples, models.SampleDocument{
			Name: entry.Name(),
			Size: info.Size(),
		})
	}

	sortSamples(samples)
	return samples, nil
}

// Open returns the content of one sample
func (l *DirLibrary) Open(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateSampleName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(l.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSampleNotFound, name)
		}
		return nil, fmt.Errorf("failed to read sample %s: %w", name, err)
	}
	return data, nil
}

// IsSampleName reports whether name has an extension the library serves.
// The match is case-sensitive.
func IsSampleName(name string) bool {
	return strings.HasSuffix(name, ".pdf") || strings.HasSuffix(name, ".docx")
}

// ValidateSampleName rejects names that are not plain .pdf/.docx file names
func ValidateSampleName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidSampleName, name)
	}
	if !IsSampleName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidSampleName, name)
	}
	return nil
}

func sortSamples(samples []models.SampleDocument) {
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Name < samples[j].Name
	})
}
