package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/clinic-phone/internal/config"
	"github.com/sells-group/clinic-phone/internal/scrape"
	"github.com/sells-group/clinic-phone/internal/search"
	"github.com/sells-group/clinic-phone/internal/sink"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	c := &config.Config{}
	c.Server.Port = 8080
	c.Pipeline.Engine = "local"
	c.Pipeline.MaxPages = 3
	c.Pipeline.RequestTimeoutSecs = 60
	c.Pipeline.LLMExtraction = true
	c.Pipeline.DirectKnowledge = true
	c.Scrape.FetchTimeoutSecs = 5
	c.Scrape.UserAgent = scrape.DefaultUserAgent
	c.Search.Provider = "duckduckgo"
	c.Search.Region = "it-it"
	c.Search.SafeSearch = "off"
	c.LLM.Provider = "openai"
	c.LLM.TimeoutSecs = 20
	c.Perplexity.BaseURL = "https://api.perplexity.ai"
	c.Perplexity.Model = "sonar-pro"
	c.Jina.BaseURL = "https://r.jina.ai"
	c.Sink.Drivers = []string{"xlsx", "sqlite"}
	c.Sink.XLSXPath = filepath.Join(dir, "results.xlsx")
	c.Sink.SQLitePath = filepath.Join(dir, "results.db")
	c.Batch.Concurrency = 2
	return c
}

func TestBuildLLM(t *testing.T) {
	c := testConfig(t)
	assert.Nil(t, buildLLM(c))

	c.OpenAI.APIKey = "sk-test"
	client := buildLLM(c)
	require.NotNil(t, client)
	assert.Equal(t, "openai", client.Name())

	c.LLM.Provider = "anthropic"
	assert.Nil(t, buildLLM(c))

	c.Anthropic.Key = "sk-ant-test"
	client = buildLLM(c)
	require.NotNil(t, client)
	assert.Equal(t, "anthropic", client.Name())
}

func TestBuildWebSearcher(t *testing.T) {
	c := testConfig(t)
	assert.Nil(t, buildWebSearcher(c))

	c.Perplexity.Key = "pplx-test"
	s := buildWebSearcher(c)
	require.NotNil(t, s)
	assert.Equal(t, "perplexity", s.Name())
}

func TestBuildSearchProvider(t *testing.T) {
	c := testConfig(t)
	assert.IsType(t, &search.DuckDuckGo{}, buildSearchProvider(c))

	c.Search.Provider = "jina"
	assert.IsType(t, &search.Jina{}, buildSearchProvider(c))
}

func TestBuildScraper(t *testing.T) {
	c := testConfig(t)
	s := buildScraper(c)
	assert.Equal(t, "chain", s.Name())
	assert.False(t, s.Supports("https://studiorossi.it/brochure.pdf"))
	assert.True(t, s.Supports("https://studiorossi.it/contatti"))
}

func TestOpenSinks(t *testing.T) {
	c := testConfig(t)
	c.Sink.Drivers = []string{"xlsx", "sqlite", "log"}

	sinks, closers, err := openSinks(context.Background(), c)
	require.NoError(t, err)
	t.Cleanup(func() {
		for _, cl := range closers {
			_ = cl()
		}
	})
	require.Len(t, sinks, 3)
	assert.IsType(t, &sink.XLSX{}, sinks[0])
	assert.IsType(t, &sink.SQLite{}, sinks[1])
	assert.IsType(t, sink.Log{}, sinks[2])
	assert.Len(t, closers, 1)
}

func TestOpenSinks_Errors(t *testing.T) {
	c := testConfig(t)
	c.Sink.Drivers = []string{"csv"}
	_, _, err := openSinks(context.Background(), c)
	assert.ErrorContains(t, err, "unknown sink driver")

	c.Sink.Drivers = []string{"postgres"}
	c.Sink.DatabaseURL = "not a url ::"
	_, _, err = openSinks(context.Background(), c)
	assert.Error(t, err)
}

func TestInitLookup(t *testing.T) {
	c := testConfig(t)

	env, err := initLookup(context.Background(), c, "search")
	require.NoError(t, err)
	t.Cleanup(env.Close)

	assert.NotNil(t, env.Orchestrator)
	assert.NotNil(t, env.Lister())
}

func TestInitLookup_InvalidConfig(t *testing.T) {
	c := testConfig(t)
	c.Pipeline.Engine = "google"

	_, err := initLookup(context.Background(), c, "search")
	assert.ErrorContains(t, err, "pipeline.engine")
}

func TestInitLookup_NoLLMStillServesDeepSearch(t *testing.T) {
	c := testConfig(t)
	c.Sink.Drivers = []string{"sqlite"}

	env, err := initLookup(context.Background(), c, "search")
	require.NoError(t, err)
	t.Cleanup(env.Close)

	// No perplexity key: deepsearch has no evidence and persists Not Found.
	res := env.Orchestrator.SearchClinic(context.Background(), "Studio Medico Rossi Milano", "deepsearch")
	assert.Equal(t, "Not Found", res.PhoneNumber)

	entries, err := env.Lister().List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Studio Medico Rossi Milano", entries[0].Query)
}
