// Package pipeline turns a clinic query into a phone number: it gates the
// query, gathers evidence with the selected engine, votes and records the
// result.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/clinic-phone/internal/llm"
	"github.com/sells-group/clinic-phone/internal/metrics"
	"github.com/sells-group/clinic-phone/internal/model"
	"github.com/sells-group/clinic-phone/internal/phone"
)

// SourceLocator finds candidate URLs for a query. It never fails; a provider
// error yields no URLs.
type SourceLocator interface {
	Locate(ctx context.Context, query string, maxResults int) []string
}

// PageFetcher returns the visible text of a page, or "" on any failure.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) string
}

// Collector gathers phone evidence from the top search results for a query.
type Collector struct {
	locator     SourceLocator
	fetcher     PageFetcher
	llm         llm.Client
	taskTimeout time.Duration
}

// NewCollector builds a collector. extractor may be nil, in which case only
// the regex extractor runs.
func NewCollector(locator SourceLocator, fetcher PageFetcher, extractor llm.Client) *Collector {
	return &Collector{locator: locator, fetcher: fetcher, llm: extractor}
}

// WithTaskTimeout bounds each per-URL fetch-and-extract task. Zero leaves
// tasks bounded only by the request deadline.
func (c *Collector) WithTaskTimeout(d time.Duration) *Collector {
	c.taskTimeout = d
	return c
}

// Collect fetches up to maxPages result pages concurrently and extracts at
// most one phone candidate per page. Records come back in URL order. Every
// page is visited; a failing page contributes nothing.
func (c *Collector) Collect(ctx context.Context, query string, maxPages int) []model.EvidenceRecord {
	if maxPages <= 0 {
		return nil
	}
	log := zap.L().With(zap.String("query", query))

	start := time.Now()
	urls := c.locator.Locate(ctx, query, maxPages)
	metrics.ObserveStage("locate", start)
	if len(urls) > maxPages {
		urls = urls[:maxPages]
	}
	if len(urls) == 0 {
		log.Info("collect: no candidate urls")
		return nil
	}

	slots := make([]*model.EvidenceRecord, len(urls))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxPages)
	for i, u := range urls {
		g.Go(func() error {
			taskCtx := gCtx
			if c.taskTimeout > 0 {
				var cancel context.CancelFunc
				taskCtx, cancel = context.WithTimeout(gCtx, c.taskTimeout)
				defer cancel()
			}
			slots[i] = c.extract(taskCtx, query, u)
			return nil
		})
	}
	_ = g.Wait()

	evidence := make([]model.EvidenceRecord, 0, len(urls))
	for _, rec := range slots {
		if rec == nil {
			continue
		}
		metrics.EvidenceTotal.WithLabelValues(string(rec.ExtractionMethod)).Inc()
		evidence = append(evidence, *rec)
	}

	log.Info("collect: finished",
		zap.Int("urls", len(urls)),
		zap.Int("evidence", len(evidence)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return evidence
}

func (c *Collector) extract(ctx context.Context, query, url string) *model.EvidenceRecord {
	text := c.fetcher.Fetch(ctx, url)
	if text == "" {
		return nil
	}

	if p, ok := phone.ExtractPage(text); ok {
		zap.L().Debug("collect: regex match", zap.String("url", url), zap.String("phone", p))
		return &model.EvidenceRecord{SourceURL: url, PhoneCandidate: p, ExtractionMethod: model.MethodRegex}
	}

	if c.llm == nil {
		return nil
	}

	reply, err := c.llm.Complete(ctx, extractionPrompt(query, text))
	if err != nil {
		metrics.ProviderFailed(c.llm.Name())
		zap.L().Warn("collect: llm extraction failed",
			zap.String("url", url),
			zap.String("provider", c.llm.Name()),
			zap.Error(err),
		)
		return nil
	}
	if phone.IsNotFound(reply) {
		return nil
	}
	p, ok := phone.Extract(reply)
	if !ok {
		zap.L().Debug("collect: llm reply has no phone", zap.String("url", url), zap.String("reply", reply))
		return nil
	}
	return &model.EvidenceRecord{SourceURL: url, PhoneCandidate: p, ExtractionMethod: model.MethodLLM}
}
