package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/clinic-phone/internal/llm"
	"github.com/sells-group/clinic-phone/internal/metrics"
	"github.com/sells-group/clinic-phone/internal/model"
	"github.com/sells-group/clinic-phone/internal/phone"
)

// Strategy gathers evidence for a query and reduces it to one phone number.
type Strategy interface {
	Engine() model.Engine
	Collect(ctx context.Context, query string) []model.EvidenceRecord
	Resolve(evidence []model.EvidenceRecord) Resolution
}

// LocalStrategy searches the web, scrapes the results and votes.
type LocalStrategy struct {
	collector *Collector
	maxPages  int
}

// NewLocalStrategy returns the local engine visiting at most maxPages pages.
func NewLocalStrategy(collector *Collector, maxPages int) *LocalStrategy {
	return &LocalStrategy{collector: collector, maxPages: maxPages}
}

func (s *LocalStrategy) Engine() model.Engine { return model.EngineLocal }

func (s *LocalStrategy) Collect(ctx context.Context, query string) []model.EvidenceRecord {
	return s.collector.Collect(ctx, query, s.maxPages)
}

func (s *LocalStrategy) Resolve(evidence []model.EvidenceRecord) Resolution {
	return Resolve(evidence)
}

// DeepSearchStrategy asks a web-searching model for one contact.
type DeepSearchStrategy struct {
	searcher llm.WebSearcher
}

// NewDeepSearchStrategy returns the deepsearch engine. A nil searcher yields
// no evidence.
func NewDeepSearchStrategy(searcher llm.WebSearcher) *DeepSearchStrategy {
	return &DeepSearchStrategy{searcher: searcher}
}

func (s *DeepSearchStrategy) Engine() model.Engine { return model.EngineDeepSearch }

func (s *DeepSearchStrategy) Collect(ctx context.Context, query string) []model.EvidenceRecord {
	if s.searcher == nil {
		zap.L().Warn("deepsearch: no web search provider configured", zap.String("query", query))
		return nil
	}
	defer metrics.ObserveStage("deepsearch", time.Now())

	contact, err := s.searcher.FindContact(ctx, query)
	if err != nil {
		metrics.ProviderFailed(s.searcher.Name())
		zap.L().Warn("deepsearch: web search failed",
			zap.String("query", query),
			zap.String("provider", s.searcher.Name()),
			zap.Error(err),
		)
		return nil
	}
	if phone.IsNotFound(contact.PhoneNumber) {
		return nil
	}

	source := strings.TrimSpace(contact.SourceURL)
	if source == "" {
		source = model.NotFound
	}
	metrics.EvidenceTotal.WithLabelValues(string(model.MethodLLMWebSearch)).Inc()
	return []model.EvidenceRecord{{
		SourceURL:        source,
		PhoneCandidate:   strings.TrimSpace(contact.PhoneNumber),
		ExtractionMethod: model.MethodLLMWebSearch,
	}}
}

func (s *DeepSearchStrategy) Resolve(evidence []model.EvidenceRecord) Resolution {
	if len(evidence) == 0 {
		return notFound()
	}
	return Resolution{Phone: evidence[0].PhoneCandidate, Label: model.LabelWebSearch, Count: 1, Total: 1}
}
