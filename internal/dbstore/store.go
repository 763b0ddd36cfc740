package dbstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pixellobby/arcade/pkg/metrics"
)

// Store is the single-writer JSON document store. All mutating and reading
// actions hold mu for the duration of the call, giving every read a
// consistent snapshot of the document under concurrent writers.
type Store struct {
	mu      sync.Mutex
	path    string
	doc     *Document
	log     *slog.Logger
	metrics *metrics.DBServiceMetrics
}

// SetMetrics attaches a metrics set; subsequent saves are instrumented.
func (s *Store) SetMetrics(m *metrics.DBServiceMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
}

// Open loads path into memory: an absent or empty file initialises an empty
// document and writes it; a present file is loaded and has any missing
// collections injected; a malformed file is logged and the process
// continues with an empty in-memory document without touching the file on
// disk until the next mutation.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{path: path, log: log}

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		s.doc = newDocument()
		if err := s.saveLocked(); err != nil {
			return nil, fmt.Errorf("dbstore: initialising %s: %w", path, err)
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("dbstore: reading %s: %w", path, err)
	}

	if len(raw) == 0 {
		s.doc = newDocument()
		if err := s.saveLocked(); err != nil {
			return nil, fmt.Errorf("dbstore: initialising %s: %w", path, err)
		}
		return s, nil
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		log.Error("dbstore: malformed document file, starting from empty in-memory state",
			"path", path, "error", err)
		s.doc = newDocument()
		return s, nil
	}

	doc.ensureCollections()
	s.doc = &doc
	return s, nil
}

// saveLocked serialises the document to a sibling temp file, flushes,
// fsyncs, and renames it over path. Caller must hold mu. The canonical file
// is never partially written; an I/O failure is returned to the caller
// (persist logs and swallows it, leaving the in-memory mutation intact for
// the next attempt).
func (s *Store) saveLocked() error {
	start := time.Now()
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("dbstore: marshalling document: %w", err)
	}
	if s.metrics != nil {
		defer func() { s.metrics.SaveDuration.Observe(time.Since(start).Seconds()) }()
		s.metrics.DocumentBytes.Set(float64(len(data)))
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".dbstore-*.tmp")
	if err != nil {
		return fmt.Errorf("dbstore: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once rename succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("dbstore: writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("dbstore: fsyncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("dbstore: closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("dbstore: renaming into place: %w", err)
	}
	return nil
}

// persist saves the document, logging (not returning) any failure so a
// transient I/O error on one save doesn't abort the action that triggered
// it. Caller must hold mu.
func (s *Store) persist() {
	if err := s.saveLocked(); err != nil {
		s.log.Error("dbstore: failed to persist document, retaining in-memory state", "error", err)
		if s.metrics != nil {
			s.metrics.SaveErrorsTotal.Inc()
		}
	}
}
