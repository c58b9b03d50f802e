package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// CounterKey names the persisted "last used order id".
const CounterKey = "lastPedidoId"

// CounterStore persists the last order id that was published successfully.
type CounterStore interface {
	// Load returns the last persisted id; ok is false when none exists.
	Load(ctx context.Context) (last int, ok bool, err error)
	Save(ctx context.Context, last int) error
}

// FileCounter keeps the counter in a small JSON document on local disk.
type FileCounter struct {
	path string
	mu   sync.Mutex
}

func NewFileCounter(path string) *FileCounter { return &FileCounter{path: path} }

func (f *FileCounter) Load(_ context.Context) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read counter %s: %w", f.path, err)
	}
	doc := map[string]int{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return 0, false, fmt.Errorf("decode counter %s: %w", f.path, err)
	}
	last, ok := doc[CounterKey]
	return last, ok, nil
}

// Save writes through a temp file and rename so a crash never leaves a
// truncated counter behind.
func (f *FileCounter) Save(_ context.Context, last int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create counter dir: %w", err)
		}
	}
	b, err := json.Marshal(map[string]int{CounterKey: last})
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write counter: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace counter: %w", err)
	}
	return nil
}

// MemoryCounter lives for the process only.
type MemoryCounter struct {
	mu   sync.Mutex
	last int
	set  bool
	err  error
}

func NewMemoryCounter() *MemoryCounter { return &MemoryCounter{} }

func (m *MemoryCounter) Load(context.Context) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.set, nil
}

func (m *MemoryCounter) Save(_ context.Context, last int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.last, m.set = last, true
	return nil
}

// FailSaves makes Save return err until called with nil.
func (m *MemoryCounter) FailSaves(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}
