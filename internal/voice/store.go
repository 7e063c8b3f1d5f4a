// Package voice stores uploaded audio samples as files whose names carry all
// of their metadata: {studentID}_{kind}_{epochMillis}.webm. There is no
// sidecar index; the directory listing is the database.
package voice

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrWrite reports a failed blob write.
var ErrWrite = errors.New("voice: write failed")

// Ext is the extension every stored sample carries.
const Ext = ".webm"

// Recognized sample kinds. The set is open; these are the two the device
// app sends today.
const (
	KindEnroll = "enroll"
	KindCheck  = "check"
)

// Sample describes one stored audio file, reconstructed from its filename.
type Sample struct {
	StudentID string
	Kind      string
	Filename  string
	// Timestamp is epoch milliseconds, nil when the filename's third
	// segment is missing or not numeric.
	Timestamp *int64
}

// Store is a directory of audio blobs.
type Store struct {
	dir string
}

// Open ensures dir exists and returns a store rooted at it.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("voice: create dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory the store writes into.
func (s *Store) Dir() string { return s.dir }

// Save writes blob under a generated name and returns that name. Empty
// studentID and kind fall back to "unknown" and "check". Two saves for the
// same student and kind within the same millisecond collide; the later one
// wins silently.
func (s *Store) Save(studentID, kind string, blob []byte) (string, error) {
	// The id comes from an unauthenticated form field and ends up in a
	// path; strip any directory components before it does.
	studentID = filepath.Base(studentID)
	if studentID == "" || studentID == "." || studentID == ".." || studentID == "/" {
		studentID = "unknown"
	}
	if kind == "" {
		kind = KindCheck
	}
	name := fmt.Sprintf("%s_%s_%d%s", studentID, kind, time.Now().UnixMilli(), Ext)
	if err := os.WriteFile(filepath.Join(s.dir, name), blob, 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return name, nil
}

// ListAll enumerates every sample in the directory, in whatever order the
// filesystem returns entries. A missing directory yields an empty list.
// Malformed names never fail the listing; missing segments default to
// "unknown" and a non-numeric timestamp segment yields a nil Timestamp.
func (s *Store) ListAll() ([]Sample, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Sample{}, nil
		}
		return nil, fmt.Errorf("voice: read dir %s: %w", s.dir, err)
	}

	samples := make([]Sample, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Ext) {
			continue
		}
		samples = append(samples, parseName(e.Name()))
	}
	return samples, nil
}

func parseName(name string) Sample {
	base := strings.TrimSuffix(name, Ext)
	parts := strings.SplitN(base, "_", 3)

	sm := Sample{StudentID: "unknown", Kind: "unknown", Filename: name}
	if len(parts) > 0 && parts[0] != "" {
		sm.StudentID = parts[0]
	}
	if len(parts) > 1 && parts[1] != "" {
		sm.Kind = parts[1]
	}
	if len(parts) > 2 {
		if ms, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
			sm.Timestamp = &ms
		}
	}
	return sm
}
