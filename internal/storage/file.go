package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileKV implements KV as a single JSON object file. Every Set rewrites the file
// through a temp file and rename so a crash never leaves a half-written document.
type FileKV struct {
	mu   sync.Mutex
	path string
}

// NewFileKV returns a FileKV rooted at path, creating the parent directory if needed.
// The file itself is created on first Set.
func NewFileKV(path string) (*FileKV, error) {
	if path == "" {
		return nil, fmt.Errorf("file storage: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("file storage: create directory: %w", err)
	}
	return &FileKV{path: path}, nil
}

// Get reads key from the document. A missing file is a miss. A document that is not a
// JSON object is an error so callers can decide how to recover.
func (s *FileKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if ctx.Err() != nil {
		return nil, false, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, false, err
	}
	v, ok := doc[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

// Set stores value under key. An unreadable existing document is replaced.
func (s *FileKV) Set(ctx context.Context, key string, value []byte) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		doc = make(map[string]string)
	}
	doc[key] = string(value)

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("file storage: encode: %w", err)
	}
	return s.writeAtomic(raw)
}

func (s *FileKV) read() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("file storage: read: %w", err)
	}
	doc := make(map[string]string)
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("file storage: parse %s: %w", s.path, err)
	}
	return doc, nil
}

func (s *FileKV) writeAtomic(raw []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("file storage: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("file storage: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file storage: close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file storage: rename: %w", err)
	}
	return nil
}
