package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"REQUEST_TIMEOUT", "SOURCE_DELAY", "STORE_DRIVER", "ARCHIVE_DEDUP_MODE", "MIN_ARTICLES", "RETRY_ATTEMPTS", "REWRITE_STATE_PATH"} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3*time.Second, cfg.SourceDelay)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 20, cfg.MaxArticlesPerSource)
	assert.Equal(t, 3, cfg.MinArticles)
	assert.Equal(t, "hash", cfg.ArchiveDedupMode)
	assert.Equal(t, "file", cfg.StoreDriver)
	assert.Equal(t, "rewrite_state.json", cfg.RewriteStatePath)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "10s")
	t.Setenv("SOURCE_DELAY", "0")
	t.Setenv("ARCHIVE_DEDUP_MODE", "fuzzy")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("STORE_DSN", "file:archive.db")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Zero(t, cfg.SourceDelay)
	assert.Equal(t, "fuzzy", cfg.ArchiveDedupMode)
	assert.Equal(t, "file:archive.db", cfg.StoreDSN)
}

func TestValidate(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("STORE_DSN", "")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "STORE_DSN")

	t.Setenv("STORE_DRIVER", "file")
	t.Setenv("ARCHIVE_DEDUP_MODE", "semantic")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "ARCHIVE_DEDUP_MODE")
}

func TestLoadSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sources:
  - name: NHVR
    url: https://www.nhvr.gov.au/news-events
    priority: 10
    category: regulatory
    selectors:
      container: .views-row
      title: h3
  - name: Old Feed
    url: https://example.com/feed
    kind: feed
    enabled: false
  - name: Big Rigs
    url: https://bigrigs.com.au/category/news/
    kind: feed
    priority: 6
    category: industry
`), 0644))

	sources, err := LoadSources(path)
	require.NoError(t, err)
	require.Len(t, sources, 2)

	assert.Equal(t, "NHVR", sources[0].Name)
	assert.Equal(t, "html", sources[0].Kind)
	assert.True(t, sources[0].Enabled)
	assert.Equal(t, 10, sources[0].Priority)
	assert.Equal(t, ".views-row", sources[0].Selector.Container)
	assert.Equal(t, "h3", sources[0].Selector.Title)

	assert.Equal(t, "Big Rigs", sources[1].Name)
	assert.True(t, sources[1].IsFeed())
}

func TestLoadSourcesRequiresNameAndURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources:\n  - name: nameless\n"), 0644))

	_, err := LoadSources(path)
	assert.Error(t, err)
}
