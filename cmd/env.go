package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/clinic-phone/internal/config"
	"github.com/sells-group/clinic-phone/internal/llm"
	"github.com/sells-group/clinic-phone/internal/model"
	"github.com/sells-group/clinic-phone/internal/pipeline"
	"github.com/sells-group/clinic-phone/internal/scrape"
	"github.com/sells-group/clinic-phone/internal/search"
	"github.com/sells-group/clinic-phone/internal/sink"
	anthropicpkg "github.com/sells-group/clinic-phone/pkg/anthropic"
	"github.com/sells-group/clinic-phone/pkg/jina"
	"github.com/sells-group/clinic-phone/pkg/perplexity"
)

// lookupEnv holds the capability handles and the orchestrator shared by the
// search, batch and serve commands.
type lookupEnv struct {
	Orchestrator *pipeline.Orchestrator
	Sink         sink.Multi
	closers      []func() error
}

// Close releases resources held by the environment.
func (e *lookupEnv) Close() {
	for _, c := range e.closers {
		if err := c(); err != nil {
			zap.L().Warn("close resource", zap.Error(err))
		}
	}
}

// Lister returns the sink able to list results, or nil.
func (e *lookupEnv) Lister() sink.Lister {
	for _, s := range e.Sink {
		if l, ok := s.(sink.Lister); ok {
			return l
		}
	}
	return nil
}

// initLookup builds every provider once and wires them into an
// orchestrator. Callers should defer env.Close().
func initLookup(ctx context.Context, c *config.Config, mode string) (*lookupEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	sinks, closers, err := openSinks(ctx, c)
	if err != nil {
		return nil, err
	}
	env := &lookupEnv{Sink: sinks, closers: closers}

	completer := buildLLM(c)
	var extractor, fallback llm.Client
	if c.Pipeline.LLMExtraction {
		extractor = completer
	}
	if c.Pipeline.DirectKnowledge {
		fallback = completer
	}

	locator := search.NewLocator(buildSearchProvider(c), c.Search.Region, c.Search.SafeSearch)
	fetcher := scrape.NewFetcher(buildScraper(c), c.Scrape.FetchTimeout())
	engine, _ := model.ParseEngine(c.Pipeline.Engine)

	env.Orchestrator = pipeline.NewOrchestrator(pipeline.Options{
		Gate: pipeline.NewGate(completer),
		Strategies: []pipeline.Strategy{
			pipeline.NewLocalStrategy(
				pipeline.NewCollector(locator, fetcher, extractor).WithTaskTimeout(c.Scrape.FetchTimeout()),
				c.Pipeline.MaxPages,
			),
			pipeline.NewDeepSearchStrategy(buildWebSearcher(c)),
		},
		Fallback:       pipeline.NewDirectKnowledge(fallback),
		Sink:           sinks,
		DefaultEngine:  engine,
		RequestTimeout: c.Pipeline.RequestTimeout(),
	})

	zap.L().Info("lookup environment ready",
		zap.String("engine", string(engine)),
		zap.String("search", c.Search.Provider),
		zap.Bool("llm", completer != nil),
		zap.Int("sinks", len(sinks)),
	)
	return env, nil
}

// buildLLM returns the configured completion client, or nil when its key is
// missing.
func buildLLM(c *config.Config) llm.Client {
	timeout := time.Duration(c.LLM.TimeoutSecs) * time.Second
	switch c.LLM.Provider {
	case "anthropic":
		if c.Anthropic.Key == "" {
			zap.L().Warn("anthropic key not set, llm features disabled")
			return nil
		}
		client := anthropicpkg.NewClient(c.Anthropic.Key, anthropicpkg.WithHTTPClient(&http.Client{Timeout: timeout}))
		return llm.NewAnthropic(client, c.Anthropic.Model)
	default:
		if c.OpenAI.APIKey == "" {
			zap.L().Warn("openai key not set, llm features disabled")
			return nil
		}
		return llm.NewOpenAI(llm.OpenAIConfig{
			APIKey:  c.OpenAI.APIKey,
			Model:   c.OpenAI.Model,
			BaseURL: c.OpenAI.BaseURL,
			Timeout: timeout,
		})
	}
}

// buildWebSearcher returns the deepsearch capability, or nil when no key is
// configured.
func buildWebSearcher(c *config.Config) llm.WebSearcher {
	if c.Perplexity.Key == "" {
		zap.L().Debug("perplexity key not set, deepsearch returns Not Found")
		return nil
	}
	client := perplexity.NewClient(c.Perplexity.Key,
		perplexity.WithBaseURL(c.Perplexity.BaseURL),
		perplexity.WithModel(c.Perplexity.Model),
		perplexity.WithHTTPClient(&http.Client{Timeout: time.Duration(c.LLM.TimeoutSecs) * time.Second}),
	)
	return llm.NewPerplexitySearcher(client, c.Perplexity.Country)
}

func buildSearchProvider(c *config.Config) search.Provider {
	if c.Search.Provider == "jina" {
		return search.NewJina(newJinaClient(c))
	}
	return search.NewDuckDuckGo(c.Scrape.UserAgent, search.WithRateLimit(c.Search.RatePerSec))
}

func buildScraper(c *config.Config) scrape.Scraper {
	scrapers := []scrape.Scraper{scrape.NewLocalScraper(c.Scrape.UserAgent)}
	if c.Scrape.JinaFallback {
		scrapers = append(scrapers, scrape.NewJinaAdapter(newJinaClient(c)))
	}
	return scrape.NewChain(scrape.NewPathMatcher(c.Scrape.ExcludePatterns), scrapers...)
}

func newJinaClient(c *config.Config) jina.Client {
	opts := []jina.Option{jina.WithBaseURL(c.Jina.BaseURL)}
	if c.Jina.SearchBaseURL != "" {
		opts = append(opts, jina.WithSearchBaseURL(c.Jina.SearchBaseURL))
	}
	return jina.NewClient(c.Jina.Key, opts...)
}

// openSinks opens every configured sink. On error, sinks opened so far are
// closed.
func openSinks(ctx context.Context, c *config.Config) (sink.Multi, []func() error, error) {
	var (
		sinks   sink.Multi
		closers []func() error
	)
	fail := func(err error) (sink.Multi, []func() error, error) {
		for _, cl := range closers {
			_ = cl()
		}
		return nil, nil, err
	}

	for _, driver := range c.Sink.Drivers {
		switch strings.ToLower(driver) {
		case sink.DriverXLSX:
			sinks = append(sinks, sink.NewXLSX(c.Sink.XLSXPath))
		case sink.DriverSQLite:
			st, err := sink.NewSQLite(c.Sink.SQLitePath)
			if err != nil {
				return fail(err)
			}
			closers = append(closers, st.Close)
			if err := st.Migrate(ctx); err != nil {
				return fail(eris.Wrap(err, "migrate sqlite sink"))
			}
			sinks = append(sinks, st)
		case sink.DriverPostgres:
			pg, err := sink.NewPostgres(ctx, c.Sink.DatabaseURL, &c.Sink.Pool)
			if err != nil {
				return fail(err)
			}
			closers = append(closers, pg.Close)
			if err := pg.Migrate(ctx); err != nil {
				return fail(eris.Wrap(err, "migrate postgres sink"))
			}
			sinks = append(sinks, pg)
		case sink.DriverLog:
			sinks = append(sinks, sink.Log{})
		default:
			return fail(eris.Errorf("unknown sink driver %q", driver))
		}
	}
	return sinks, closers, nil
}
