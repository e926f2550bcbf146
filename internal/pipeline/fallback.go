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

// DirectKnowledge asks a model for a phone number without web evidence.
type DirectKnowledge struct {
	llm llm.Client
}

// NewDirectKnowledge returns the fallback, or nil when client is nil.
func NewDirectKnowledge(client llm.Client) *DirectKnowledge {
	if client == nil {
		return nil
	}
	return &DirectKnowledge{llm: client}
}

// Lookup returns a synthetic evidence record holding the model's answer.
// A "Not Found" answer or an error is a miss.
func (d *DirectKnowledge) Lookup(ctx context.Context, query string) (model.EvidenceRecord, bool) {
	if d == nil {
		return model.EvidenceRecord{}, false
	}
	defer metrics.ObserveStage("direct_knowledge", time.Now())

	reply, err := d.llm.Complete(ctx, directKnowledgePrompt(query))
	if err != nil {
		metrics.ProviderFailed(d.llm.Name())
		zap.L().Warn("fallback: direct knowledge failed",
			zap.String("query", query),
			zap.String("provider", d.llm.Name()),
			zap.Error(err),
		)
		return model.EvidenceRecord{}, false
	}
	if phone.IsNotFound(reply) {
		return model.EvidenceRecord{}, false
	}

	metrics.EvidenceTotal.WithLabelValues(string(model.MethodLLMDirectKnowledge)).Inc()
	return model.EvidenceRecord{
		SourceURL:        model.DirectKnowledgeSource,
		PhoneCandidate:   strings.TrimSpace(reply),
		ExtractionMethod: model.MethodLLMDirectKnowledge,
	}, true
}
