package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MemoryStore holds collections in process memory and, when a snapshot file
// is configured, rewrites the whole snapshot after every mutation.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection

	snapshotFile string
	persistMu    sync.Mutex
	logger       *slog.Logger
}

type memoryCollection struct {
	order []string
	docs  map[string]map[string]any
}

type MemoryOptions struct {
	SnapshotFile string
	Logger       *slog.Logger
}

func NewMemory() *MemoryStore {
	return NewMemoryWithOptions(MemoryOptions{})
}

func NewMemoryWithOptions(opts MemoryOptions) *MemoryStore {
	s := &MemoryStore{
		collections:  make(map[string]*memoryCollection),
		snapshotFile: opts.SnapshotFile,
		logger:       opts.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	if s.snapshotFile != "" {
		if err := s.loadSnapshot(s.snapshotFile); err != nil {
			s.logger.Error("snapshot load failed", "file", s.snapshotFile, "error", err)
		}
	}
	return s
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) Collection(name string) Collection {
	return &memoryHandle{store: s, name: name}
}

type persistedSnapshot struct {
	Version     int                   `json:"version"`
	Collections map[string][]Document `json:"collections"`
	SavedAt     int64                 `json:"savedAt"`
}

func (s *MemoryStore) loadSnapshot(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}

	var file persistedSnapshot
	if err := json.Unmarshal(data, &file); err != nil {
		return err
	}
	if file.Version != 1 {
		return errors.New("unsupported snapshot version")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for name, docs := range file.Collections {
		coll := s.collectionLocked(name)
		for _, doc := range docs {
			if doc.ID == "" {
				continue
			}
			if _, exists := coll.docs[doc.ID]; !exists {
				coll.order = append(coll.order, doc.ID)
			}
			coll.docs[doc.ID] = cloneFields(doc.Fields)
		}
	}
	return nil
}

func (s *MemoryStore) collectionLocked(name string) *memoryCollection {
	coll, ok := s.collections[name]
	if !ok {
		coll = &memoryCollection{docs: make(map[string]map[string]any)}
		s.collections[name] = coll
	}
	return coll
}

func (s *MemoryStore) snapshotLocked() map[string][]Document {
	out := make(map[string][]Document, len(s.collections))
	for name, coll := range s.collections {
		docs := make([]Document, 0, len(coll.order))
		for _, id := range coll.order {
			docs = append(docs, Document{ID: id, Fields: cloneFields(coll.docs[id])})
		}
		out[name] = docs
	}
	return out
}

func (s *MemoryStore) persist(collections map[string][]Document) {
	path := s.snapshotFile
	if path == "" {
		return
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		s.logger.Error("snapshot mkdir failed", "dir", dir, "error", err)
		return
	}

	file := persistedSnapshot{Version: 1, Collections: collections, SavedAt: time.Now().UnixMilli()}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		s.logger.Error("snapshot marshal failed", "error", err)
		return
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		s.logger.Error("snapshot create temp failed", "error", err)
		return
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		s.logger.Error("snapshot chmod temp failed", "error", err)
		return
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		s.logger.Error("snapshot write temp failed", "error", err)
		return
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		s.logger.Error("snapshot sync temp failed", "error", err)
		return
	}
	if err := tmp.Close(); err != nil {
		s.logger.Error("snapshot close temp failed", "error", err)
		return
	}
	if err := os.Rename(tmpName, path); err != nil {
		s.logger.Error("snapshot rename failed", "error", err)
	}
}

type memoryHandle struct {
	store *MemoryStore
	name  string
}

func (h *memoryHandle) ListAll(ctx context.Context) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()

	coll, ok := h.store.collections[h.name]
	if !ok {
		return []Document{}, nil
	}
	docs := make([]Document, 0, len(coll.order))
	for _, id := range coll.order {
		docs = append(docs, Document{ID: id, Fields: cloneFields(coll.docs[id])})
	}
	return docs, nil
}

func (h *memoryHandle) Insert(ctx context.Context, fields map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id, err := newDocumentID()
	if err != nil {
		return "", err
	}

	h.store.mu.Lock()
	coll := h.store.collectionLocked(h.name)
	coll.docs[id] = cloneFields(fields)
	coll.order = append(coll.order, id)
	snapshot := h.store.snapshotForPersistLocked()
	h.store.mu.Unlock()

	h.store.persist(snapshot)
	return id, nil
}

func (h *memoryHandle) Get(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()

	coll, ok := h.store.collections[h.name]
	if !ok {
		return Document{}, ErrNotFound
	}
	fields, ok := coll.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Fields: cloneFields(fields)}, nil
}

func (h *memoryHandle) Replace(ctx context.Context, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.store.mu.Lock()
	coll, ok := h.store.collections[h.name]
	if !ok || coll.docs[id] == nil {
		h.store.mu.Unlock()
		return ErrNotFound
	}
	coll.docs[id] = cloneFields(fields)
	snapshot := h.store.snapshotForPersistLocked()
	h.store.mu.Unlock()

	h.store.persist(snapshot)
	return nil
}

func (h *memoryHandle) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.store.mu.Lock()
	coll, ok := h.store.collections[h.name]
	if !ok || coll.docs[id] == nil {
		h.store.mu.Unlock()
		return ErrNotFound
	}
	delete(coll.docs, id)
	for i, existing := range coll.order {
		if existing == id {
			coll.order = append(coll.order[:i], coll.order[i+1:]...)
			break
		}
	}
	snapshot := h.store.snapshotForPersistLocked()
	h.store.mu.Unlock()

	h.store.persist(snapshot)
	return nil
}

// snapshotForPersistLocked skips the copy entirely when persistence is off.
func (s *MemoryStore) snapshotForPersistLocked() map[string][]Document {
	if s.snapshotFile == "" {
		return nil
	}
	return s.snapshotLocked()
}
