package rewrite

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/deusflow/haulnews/internal/cache"
	"github.com/deusflow/haulnews/internal/logger"
	"github.com/deusflow/haulnews/internal/ratelimit"
)

type state struct {
	Budget ratelimit.State              `json:"budget"`
	Items  map[string]cache.Entry[Item] `json:"items"`
}

// Persist loads memoized rewrites and budget counters from path when the file
// exists, and writes them back after every Rewrite call.
func (c *Cached) Persist(path string) error {
	c.path = path

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read rewrite state: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("failed to unmarshal rewrite state: %w", err)
	}
	kept := c.cache.Restore(st.Items)
	c.budget.Restore(st.Budget)
	logger.Debug("rewrite state loaded", "path", path, "items", kept, "used", st.Budget.Used)
	return nil
}

func (c *Cached) save() error {
	if c.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(state{Budget: c.budget.State(), Items: c.cache.Snapshot()}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rewrite state: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write rewrite state: %w", err)
	}
	return nil
}
