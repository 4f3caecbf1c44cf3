package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dataforge/internal/config"
	"github.com/sells-group/dataforge/internal/scrape"
	"github.com/sells-group/dataforge/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Store:           config.StoreConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "env.db")},
		Anthropic:       config.AnthropicConfig{Model: "claude-haiku-4-5-20251001", MaxTokens: 300},
		Icypeas:         config.IcypeasConfig{RateLimit: 5},
		MillionVerifier: config.MillionVerifierConfig{RateLimit: 10},
		Scrape:          config.ScrapeConfig{TimeoutSecs: 5, MaxSubPages: 1, MaxTextLength: 1000},
		Cleanup:         config.CleanupConfig{BatchSize: 50},
	}
}

func TestBuildCollaborators_LocalOnly(t *testing.T) {
	c := buildCollaborators(testConfig(t))

	chain, ok := c.Extractor.(*scrape.Chain)
	require.True(t, ok)
	assert.Equal(t, 1, chain.Len())
	assert.NotNil(t, c.Inferrer)
	assert.NotNil(t, c.Finder)
	assert.NotNil(t, c.Verifier)
}

func TestBuildCollaborators_Fallbacks(t *testing.T) {
	c := testConfig(t)
	c.Jina.Key = "jina-test"
	c.Firecrawl.Key = "fc-test"

	chain, ok := buildCollaborators(c).Extractor.(*scrape.Chain)
	require.True(t, ok)
	assert.Equal(t, 3, chain.Len())
}

func TestInitStore_SQLite(t *testing.T) {
	st, err := initStore(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	l, err := st.CreateList(context.Background(), "smoke", []string{"Name"})
	require.NoError(t, err)
	assert.NotEmpty(t, l.ID)
	assert.IsType(t, &store.SQLiteStore{}, st)
}

func TestInitStore_UnknownDriver(t *testing.T) {
	c := testConfig(t)
	c.Store.Driver = "mysql"

	_, err := initStore(context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}
