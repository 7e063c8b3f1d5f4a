package voice

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveGeneratesName(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "voices"))
	require.NoError(t, err)

	name, err := s.Save("S42", KindEnroll, []byte("fake audio"))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^S42_enroll_\d+\.webm$`), name)

	blob, err := os.ReadFile(filepath.Join(s.Dir(), name))
	require.NoError(t, err)
	assert.Equal(t, []byte("fake audio"), blob)
}

func TestSaveDefaults(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "voices"))
	require.NoError(t, err)

	name, err := s.Save("", "", []byte("x"))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^unknown_check_\d+\.webm$`), name)
}

func TestSaveStripsPathComponents(t *testing.T) {
	root := t.TempDir()
	s, err := Open(filepath.Join(root, "voices"))
	require.NoError(t, err)

	name, err := s.Save("../../escape", KindEnroll, []byte("x"))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^escape_enroll_\d+\.webm$`), name)

	// The blob must land inside the store, not two levels up.
	_, err = os.Stat(filepath.Join(s.Dir(), name))
	require.NoError(t, err)
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1) // only the voices dir itself

	name, err = s.Save("..", KindEnroll, []byte("x"))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^unknown_enroll_\d+\.webm$`), name)
}

func TestListAllParsesFilenames(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "voices")
	s, err := Open(dir)
	require.NoError(t, err)

	files := []string{
		"S42_enroll_1700000000000.webm",
		"S7_check_notanumber.webm", // timestamp segment not numeric
		"orphan.webm",              // single segment
		"notes.txt",                // wrong extension, skipped
	}
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o644))
	}

	samples, err := s.ListAll()
	require.NoError(t, err)
	require.Len(t, samples, 3)

	byName := map[string]Sample{}
	for _, sm := range samples {
		byName[sm.Filename] = sm
	}

	full := byName["S42_enroll_1700000000000.webm"]
	assert.Equal(t, "S42", full.StudentID)
	assert.Equal(t, "enroll", full.Kind)
	require.NotNil(t, full.Timestamp)
	assert.Equal(t, int64(1700000000000), *full.Timestamp)

	badTS := byName["S7_check_notanumber.webm"]
	assert.Equal(t, "S7", badTS.StudentID)
	assert.Equal(t, "check", badTS.Kind)
	assert.Nil(t, badTS.Timestamp)

	orphan := byName["orphan.webm"]
	assert.Equal(t, "orphan", orphan.StudentID)
	assert.Equal(t, "unknown", orphan.Kind)
	assert.Nil(t, orphan.Timestamp)
}

func TestListAllMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "voices")
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	samples, err := s.ListAll()
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestSaveRoundTripThroughListing(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "voices"))
	require.NoError(t, err)

	name, err := s.Save("S1", KindCheck, []byte("y"))
	require.NoError(t, err)

	samples, err := s.ListAll()
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, name, samples[0].Filename)
	assert.Equal(t, "S1", samples[0].StudentID)
	assert.Equal(t, KindCheck, samples[0].Kind)
	assert.NotNil(t, samples[0].Timestamp)
}
