package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

const indexVersion = "2"

// cacheIndex records metadata for every checkout, keyed by
// "<ident>/<reference>". It is persisted as JSON.
type cacheIndex struct {
	Version   string                       `json:"version"`
	Checkouts map[string]*CheckoutMetadata `json:"checkouts"`
	mu        sync.RWMutex
}

func newIndex() *cacheIndex {
	return &cacheIndex{
		Version:   indexVersion,
		Checkouts: make(map[string]*CheckoutMetadata),
	}
}

// loadOrCreateIndex loads an existing index from disk or creates a new one.
// A corrupted file or an unknown version is an error.
func loadOrCreateIndex(fs billy.Filesystem, path string) (*cacheIndex, error) {
	if _, err := fs.Stat(path); os.IsNotExist(err) {
		return newIndex(), nil
	}

	data, err := util.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}

	var index cacheIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse index file: %w", err)
	}

	if index.Version != indexVersion {
		return nil, fmt.Errorf("unsupported index version: %s (expected %s)", index.Version, indexVersion)
	}

	if index.Checkouts == nil {
		index.Checkouts = make(map[string]*CheckoutMetadata)
	}

	return &index, nil
}

// save writes the index to disk atomically via write-to-temp + rename.
func (idx *cacheIndex) save(fs billy.Filesystem, path string) error {
	idx.mu.RLock()
	data, err := json.MarshalIndent(idx, "", "  ")
	idx.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	tmpPath := path + ".tmp"
	tmpFile, err := fs.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary index file: %w", err)
	}

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		_ = fs.Remove(tmpPath)
		return fmt.Errorf("failed to write temporary index file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		_ = fs.Remove(tmpPath)
		return fmt.Errorf("failed to close temporary index file: %w", err)
	}

	if err := fs.Rename(tmpPath, path); err != nil {
		_ = fs.Remove(tmpPath)
		return fmt.Errorf("failed to rename index file: %w", err)
	}

	return nil
}

func indexKey(ident, reference string) string {
	return ident + "/" + reference
}

// get retrieves checkout metadata by key. Returns nil if absent.
func (idx *cacheIndex) get(key string) *CheckoutMetadata {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.Checkouts[key]
}

// record stores metadata for a materialized checkout. CreatedAt is kept when
// the checkout already existed at the same revision.
func (idx *cacheIndex) record(key string, metadata *CheckoutMetadata) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	now := time.Now()
	metadata.LastAccess = now
	if prev, ok := idx.Checkouts[key]; ok && prev.Revision == metadata.Revision {
		metadata.CreatedAt = prev.CreatedAt
	} else {
		metadata.CreatedAt = now
	}
	idx.Checkouts[key] = metadata
}

// delete removes checkout metadata by key.
func (idx *cacheIndex) delete(key string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.Checkouts, key)
}

// list returns a shallow copy of all checkout metadata.
func (idx *cacheIndex) list() map[string]*CheckoutMetadata {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	result := make(map[string]*CheckoutMetadata, len(idx.Checkouts))
	for key, metadata := range idx.Checkouts {
		result[key] = metadata
	}
	return result
}
