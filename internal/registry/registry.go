// Package registry remembers which corpus is active across restarts: the
// index id, the chunk texts in ordinal order and the files ingested so far.
package registry

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketMeta   = []byte("meta")
	bucketChunks = []byte("chunks")
	bucketFiles  = []byte("files")

	keyManifest = []byte("manifest")
)

var ErrCorrupt = errors.New("registry is inconsistent")

// Manifest describes the published corpus.
type Manifest struct {
	IndexID    string    `json:"index_id"`
	Source     string    `json:"source"`
	DataPath   string    `json:"data_path"`
	ChunkCount int       `json:"chunk_count"`
	BuiltAt    time.Time `json:"built_at"`
}

// FileInfo records one ingested file.
type FileInfo struct {
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	Chunks       int       `json:"chunks"`
	IngestedAt   time.Time `json:"ingested_at"`
}

type Registry struct {
	db *bbolt.DB
}

func Open(path string) (*Registry, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		return createBuckets(tx)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init registry: %w", err)
	}

	return &Registry{db: db}, nil
}

func createBuckets(tx *bbolt.Tx) error {
	for _, name := range [][]byte{bucketMeta, bucketChunks, bucketFiles} {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) Close() error {
	return r.db.Close()
}

// Publish replaces the active manifest and chunk texts in one transaction.
// file, when given, is added to the ingested files list.
func (r *Registry) Publish(m Manifest, chunks []string, file *FileInfo) error {
	m.ChunkCount = len(chunks)
	return r.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketChunks); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		cb, err := tx.CreateBucket(bucketChunks)
		if err != nil {
			return err
		}
		for i, text := range chunks {
			if err := cb.Put(ordinalKey(i), []byte(text)); err != nil {
				return err
			}
		}

		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketMeta).Put(keyManifest, data); err != nil {
			return err
		}

		if file != nil {
			data, err := json.Marshal(file)
			if err != nil {
				return err
			}
			if err := tx.Bucket(bucketFiles).Put([]byte(file.Path), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Active returns the published manifest and its chunk texts, or a nil
// manifest if nothing was published.
func (r *Registry) Active() (*Manifest, []string, error) {
	var (
		m      *Manifest
		chunks []string
	)
	err := r.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keyManifest)
		if data == nil {
			return nil
		}
		m = &Manifest{}
		if err := json.Unmarshal(data, m); err != nil {
			return err
		}

		chunks = make([]string, 0, m.ChunkCount)
		// keys are big-endian, so the cursor walks in ordinal order
		err := tx.Bucket(bucketChunks).ForEach(func(k, v []byte) error {
			if len(k) != 8 || binary.BigEndian.Uint64(k) != uint64(len(chunks)) {
				return fmt.Errorf("%w: unexpected chunk key %x", ErrCorrupt, k)
			}
			chunks = append(chunks, string(v))
			return nil
		})
		if err != nil {
			return err
		}
		if len(chunks) != m.ChunkCount {
			return fmt.Errorf("%w: manifest lists %d chunks, found %d", ErrCorrupt, m.ChunkCount, len(chunks))
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return m, chunks, nil
}

// Files lists ingested files ordered by path.
func (r *Registry) Files() ([]FileInfo, error) {
	var files []FileInfo
	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFiles).ForEach(func(_, v []byte) error {
			var fi FileInfo
			if err := json.Unmarshal(v, &fi); err != nil {
				return err
			}
			files = append(files, fi)
			return nil
		})
	})
	return files, err
}

// Reset forgets everything.
func (r *Registry) Reset() error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketMeta, bucketChunks, bucketFiles} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return err
			}
		}
		return createBuckets(tx)
	})
}

func ordinalKey(i int) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(i))
	return k
}
