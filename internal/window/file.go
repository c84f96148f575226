package window

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// FileStore persists one JSON record per key under a directory, holding an
// exclusive flock across the whole read-check-increment-write sequence so
// concurrent workers never both observe the pre-increment count. Suitable
// for IP-based throttling shared between processes on one host.
type FileStore struct {
	dir string
	now func() time.Time
}

// NewFileStore describes the newfilestore operation and its observable behavior.
//
// NewFileStore may return an error when input validation, dependency calls, or security checks fail.
// NewFileStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewFileStore(dir string, now func() time.Time) (*FileStore, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "gogate-windows")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if now == nil {
		now = time.Now
	}
	return &FileStore{dir: dir, now: now}, nil
}

// Dir describes the dir operation and its observable behavior.
//
// Dir does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *FileStore) Dir() string {
	return s.dir
}

// Keys are hex digests, so they are filename-safe without escaping.
func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Admit describes the admit operation and its observable behavior.
//
// Admit may return an error when input validation, dependency calls, or security checks fail.
// Admit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *FileStore) Admit(_ context.Context, key string, maxAttempts int, decay time.Duration) (Result, error) {
	f, err := os.OpenFile(s.path(key), os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return Result{}, fmt.Errorf("%w: flock: %v", ErrUnavailable, err)
	}
	defer func() { _ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN) }()

	state, err := readState(f)
	if err != nil {
		return Result{}, err
	}

	next, result := step(state, s.now(), maxAttempts, decay)

	if err := writeState(f, next); err != nil {
		return Result{}, err
	}
	return result, nil
}

// Clear describes the clear operation and its observable behavior.
//
// Clear may return an error when input validation, dependency calls, or security checks fail.
// Clear does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *FileStore) Clear(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func readState(f *os.File) (State, error) {
	blob, err := io.ReadAll(f)
	if err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(blob) == 0 {
		return State{}, nil
	}

	var state State
	if err := json.Unmarshal(blob, &state); err != nil {
		// A torn or hand-edited record counts as a fresh window rather than
		// a hard failure; the lock prevents torn writes from this process.
		return State{}, nil
	}
	return state, nil
}

func writeState(f *os.File, state State) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if _, err := f.WriteAt(blob, 0); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
