package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/deusflow/haulnews/internal/logger"
	"github.com/deusflow/haulnews/internal/news"
	"github.com/deusflow/haulnews/internal/rank"
)

// FileStore keeps the archive in a single JSON file.
type FileStore struct {
	filePath string
	items    []news.Article
	byHash   map[string]int
	mu       sync.RWMutex
	now      func() time.Time
}

// NewFileStore opens the archive at filePath, creating it on first save.
func NewFileStore(filePath string) (*FileStore, error) {
	fs := &FileStore{
		filePath: filePath,
		byHash:   make(map[string]int),
		now:      func() time.Time { return time.Now().UTC() },
	}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileStore) load() error {
	data, err := os.ReadFile(fs.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read archive file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var items []news.Article
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to unmarshal archive: %w", err)
	}
	for _, a := range items {
		if _, dup := fs.byHash[a.ContentHash]; dup {
			continue
		}
		fs.byHash[a.ContentHash] = len(fs.items)
		fs.items = append(fs.items, a)
	}
	logger.Debug("archive loaded", "path", fs.filePath, "articles", len(fs.items))
	return nil
}

// flush must be called with fs.mu held.
func (fs *FileStore) flush() error {
	data, err := json.MarshalIndent(fs.items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal archive: %w", err)
	}
	if err := os.WriteFile(fs.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write archive file: %w", err)
	}
	return nil
}

func (fs *FileStore) GetExistingHashes(_ context.Context) ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	hashes := make([]string, 0, len(fs.items))
	for _, a := range fs.items {
		hashes = append(hashes, a.ContentHash)
	}
	return hashes, nil
}

func (fs *FileStore) SaveArticles(_ context.Context, articles []news.Article) ([]news.Article, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	now := fs.now()
	prev := len(fs.items)
	saved := make([]news.Article, 0, len(articles))
	for _, a := range articles {
		a = prepare(a, now)
		if _, dup := fs.byHash[a.ContentHash]; dup {
			continue
		}
		fs.byHash[a.ContentHash] = len(fs.items)
		fs.items = append(fs.items, a)
		saved = append(saved, a)
	}
	if len(saved) == 0 {
		return saved, nil
	}
	if err := fs.flush(); err != nil {
		for _, a := range saved {
			delete(fs.byHash, a.ContentHash)
		}
		fs.items = fs.items[:prev]
		return nil, err
	}
	return saved, nil
}

func (fs *FileStore) GetRecentArticles(_ context.Context, days int, segment news.Segment) ([]news.Article, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	since := cutoff(fs.now(), days)
	var out []news.Article
	for _, a := range fs.items {
		if a.UsedInIssue != "" || a.CollectedAt.Before(since) {
			continue
		}
		if !rank.MatchesSegment(a.Segment, segment, true) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CollectedAt.After(out[j].CollectedAt)
	})
	return out, nil
}

// MarkArticlesAsUsed stamps articles that are not yet part of an issue.
// Articles already used keep their first issue and are not counted.
func (fs *FileStore) MarkArticlesAsUsed(_ context.Context, ids []string, issueID string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	var marked []int
	for i := range fs.items {
		if _, ok := want[fs.items[i].ID]; !ok || fs.items[i].UsedInIssue != "" {
			continue
		}
		fs.items[i].UsedInIssue = issueID
		marked = append(marked, i)
	}
	if len(marked) == 0 {
		return 0, nil
	}
	if err := fs.flush(); err != nil {
		for _, i := range marked {
			fs.items[i].UsedInIssue = ""
		}
		return 0, err
	}
	return len(marked), nil
}

func (fs *FileStore) Close() error { return nil }
