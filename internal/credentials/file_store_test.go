package credentials

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVStore_FileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.csv")
	store := NewCSVStore(path)
	ctx := context.Background()

	_, err := store.PutIfAbsent(ctx, "a@x.com", "p1")
	require.NoError(t, err)
	_, err = store.PutIfAbsent(ctx, "0712345678", "pass,with,commas")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "identifier,password\na@x.com,p1\n0712345678,\"pass,with,commas\"\n", string(data))
}

func TestCSVStore_ReadsFileWithoutHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.csv")
	require.NoError(t, os.WriteFile(path, []byte("a@x.com,p1\n"), 0600))

	ok, err := NewCSVStore(path).Verify(context.Background(), "a@x.com", "p1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCSVStore_MalformedFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.csv")
	require.NoError(t, os.WriteFile(path, []byte("identifier,password\na@x.com\n"), 0600))

	_, err := NewCSVStore(path).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read credential file")
}

func TestFileStore_UnwritableLocation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "users.csv")

	_, err := NewCSVStore(path).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create credential file")
}

func TestFileStore_ConcurrentRegistrationsInProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.csv")
	store := NewCSVStore(path)
	ctx := context.Background()

	var wg sync.WaitGroup
	inserted := make(chan bool, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := store.PutIfAbsent(ctx, "same@x.com", "p")
			assert.NoError(t, err)
			inserted <- ok
		}(i)
	}
	wg.Wait()
	close(inserted)

	wins := 0
	for ok := range inserted {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins)

	records, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestXLSXStore_HeaderRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.xlsx")
	store := NewXLSXStore(path)
	ctx := context.Background()

	_, err := store.PutIfAbsent(ctx, "a@x.com", "0123")
	require.NoError(t, err)

	password, found, err := store.Get(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "0123", password, "numeric-looking passwords stay strings")
	assert.Equal(t, path, store.Path())
}
