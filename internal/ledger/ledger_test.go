package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "attendance.xlsx")
}

func TestOpenCreatesWorkbook(t *testing.T) {
	path := tempPath(t)

	s, err := Open(path)
	require.NoError(t, err)
	assert.Empty(t, s.ListAll())

	// The file must exist immediately, not lazily on first append.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestOpenFailsWhenDirMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-such-dir", "attendance.xlsx")

	_, err := Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageInit)
}

func TestAppendAndListAll(t *testing.T) {
	s, err := Open(tempPath(t))
	require.NoError(t, err)

	first := Record{Timestamp: "2026-08-28T09:00:00Z", DeviceID: "D1", Token: "ABC123", Method: "qr"}
	second := Record{Timestamp: "2026-08-28T09:00:05Z", DeviceID: "D1", Token: "4711", PIN: "4711", Method: "pin"}

	require.NoError(t, s.Append(first))
	require.NoError(t, s.Append(second))

	got := s.ListAll()
	require.Len(t, got, 2)
	assert.Equal(t, first, got[0])
	assert.Equal(t, second, got[1])
	assert.Equal(t, 2, s.Len())
}

func TestListAllReturnsSnapshot(t *testing.T) {
	s, err := Open(tempPath(t))
	require.NoError(t, err)
	require.NoError(t, s.Append(Record{Timestamp: "2026-08-28T09:00:00Z", DeviceID: "D1"}))

	got := s.ListAll()
	got[0].DeviceID = "mutated"

	assert.Equal(t, "D1", s.ListAll()[0].DeviceID)
}

func TestReopenRoundTrip(t *testing.T) {
	path := tempPath(t)

	s, err := Open(path)
	require.NoError(t, err)

	want := []Record{
		{Timestamp: "2026-08-28T09:00:00Z", DeviceID: "D1", Token: "ABC123", Method: "qr"},
		{Timestamp: "2026-08-28T09:01:00Z", DeviceID: "D2", Token: "9999", PIN: "9999", Method: "pin"},
		{Timestamp: "2026-08-28T09:02:00Z", DeviceID: "D1", Token: "XYZ", Method: "qr"},
	}
	for _, rec := range want {
		require.NoError(t, s.Append(rec))
	}

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, want, reopened.ListAll())
}

// The store's mutex serializes the read-modify-write cycle: every append
// from every goroutine must land in memory and survive a reopen.
func TestConcurrentAppends(t *testing.T) {
	path := tempPath(t)
	s, err := Open(path)
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.Append(Record{
				Timestamp: "2026-08-28T09:00:00Z",
				DeviceID:  fmt.Sprintf("D%d", i),
				Token:     "ABC123",
				Method:    "qr",
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, n, s.Len())

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Len(t, reopened.ListAll(), n)
}

func TestAppendFailureKeepsMemory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "attendance.xlsx")

	s, err := Open(path)
	require.NoError(t, err)

	// Replace the target with a directory so the rewrite cannot land.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o755))

	err = s.Append(Record{Timestamp: "2026-08-28T09:00:00Z", DeviceID: "D1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersist)

	// Memory is now ahead of disk; that gap is the documented behavior.
	assert.Equal(t, 1, s.Len())
}
