package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-git/go-billy/v5/util"
)

// Prune removes checkouts selected by any of the strategies (OR logic) and
// returns the metadata of what was removed. Databases are never removed.
//
// With no strategies, Prune removes nothing.
//
// Examples:
//
//	// Remove checkouts not accessed in 7 days
//	removed, err := cache.Prune(PruneOlderThan(7*24*time.Hour))
//
//	// Drop orphans, then trim to 5GB
//	removed, err := cache.Prune(PruneOrphaned(), PruneToSize(5<<30))
func (c *RepositoryCache) Prune(strategies ...PruneStrategy) ([]CheckoutMetadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var sizeStrategy *pruneToSize
	var orphaned bool
	var otherStrategies []PruneStrategy
	for _, strategy := range strategies {
		switch s := strategy.(type) {
		case *pruneToSize:
			sizeStrategy = s
		case *pruneOrphaned:
			orphaned = true
		default:
			otherStrategies = append(otherStrategies, strategy)
		}
	}

	allMetadata := c.index.list()
	marked := make(map[string]bool)

	for key, metadata := range allMetadata {
		if orphaned && !c.exists(c.DatabasePath(metadata.Ident)) {
			marked[key] = true
			continue
		}
		for _, strategy := range otherStrategies {
			if strategy.ShouldPrune(metadata) {
				marked[key] = true
				break
			}
		}
	}

	if sizeStrategy != nil {
		for _, key := range c.applySizeStrategy(sizeStrategy, allMetadata, marked) {
			marked[key] = true
		}
	}

	keys := make([]string, 0, len(marked))
	for key := range marked {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	removed := make([]CheckoutMetadata, 0, len(keys))
	for _, key := range keys {
		metadata := allMetadata[key]
		path := filepath.Join(c.checkoutDir, metadata.Path)
		if err := util.RemoveAll(c.fs, path); err != nil {
			c.log.WithError(err).WithField("path", path).Warn("failed to remove checkout")
			continue
		}
		c.index.delete(key)
		removed = append(removed, *metadata)
	}

	if err := c.index.save(c.fs, c.indexPath); err != nil {
		return removed, fmt.Errorf("failed to save index: %w", err)
	}

	return removed, nil
}

// applySizeStrategy picks least recently accessed checkouts until the
// checkouts that remain fit in strategy.maxBytes.
func (c *RepositoryCache) applySizeStrategy(strategy *pruneToSize, allMetadata map[string]*CheckoutMetadata, marked map[string]bool) []string {
	type candidate struct {
		key        string
		size       int64
		lastAccess time.Time
	}

	var total int64
	var candidates []candidate
	for key, metadata := range allMetadata {
		size, err := c.calculateDirSize(filepath.Join(c.checkoutDir, metadata.Path))
		if err != nil {
			continue
		}
		if marked[key] {
			continue
		}
		total += size
		candidates = append(candidates, candidate{
			key:        key,
			size:       size,
			lastAccess: metadata.LastAccess,
		})
	}

	if total <= strategy.maxBytes {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].lastAccess.Before(candidates[j].lastAccess)
	})

	var toRemove []string
	for _, cand := range candidates {
		if total <= strategy.maxBytes {
			break
		}
		toRemove = append(toRemove, cand.key)
		total -= cand.size
	}

	return toRemove
}

// calculateDirSize calculates the disk usage of a directory recursively.
func (c *RepositoryCache) calculateDirSize(path string) (int64, error) {
	info, err := c.fs.Lstat(path)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}

	var size int64
	err = util.Walk(c.fs, path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.Mode().IsRegular() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

func (c *RepositoryCache) exists(path string) bool {
	_, err := c.fs.Stat(path)
	return err == nil
}
