package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

// BoltStore keeps one bucket per collection. Keys are UUIDv7 ids, so the
// cursor order of a bucket is creation order.
type BoltStore struct {
	db *bbolt.DB
}

type boltCollection struct {
	db     *bbolt.DB
	bucket []byte
}

// OpenBolt opens a bbolt-backed store at the provided path.
func OpenBolt(path string) (*BoltStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BoltStore) Collection(name string) Collection {
	return &boltCollection{db: s.db, bucket: []byte(name)}
}

func (c *boltCollection) ListAll(ctx context.Context) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs := make([]Document, 0)
	err := c.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(c.bucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			var fields map[string]any
			if err := json.Unmarshal(v, &fields); err != nil {
				return fmt.Errorf("unmarshal document %s: %w", k, err)
			}
			docs = append(docs, Document{ID: string(k), Fields: fields})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *boltCollection) Insert(ctx context.Context, fields map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id, err := newDocumentID()
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	err = c.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(c.bucket)
		if err != nil {
			return fmt.Errorf("create %s bucket: %w", c.bucket, err)
		}
		return bucket.Put([]byte(id), payload)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (c *boltCollection) Get(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if strings.TrimSpace(id) == "" {
		return Document{}, ErrNotFound
	}

	var doc Document
	err := c.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(c.bucket)
		if bucket == nil {
			return ErrNotFound
		}
		payload := bucket.Get([]byte(id))
		if payload == nil {
			return ErrNotFound
		}
		var fields map[string]any
		if err := json.Unmarshal(payload, &fields); err != nil {
			return fmt.Errorf("unmarshal document %s: %w", id, err)
		}
		doc = Document{ID: id, Fields: fields}
		return nil
	})
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (c *boltCollection) Replace(ctx context.Context, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(c.bucket)
		if bucket == nil || bucket.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		return bucket.Put([]byte(id), payload)
	})
}

func (c *boltCollection) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(c.bucket)
		if bucket == nil || bucket.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		return bucket.Delete([]byte(id))
	})
}
