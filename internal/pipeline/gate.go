package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/clinic-phone/internal/llm"
	"github.com/sells-group/clinic-phone/internal/metrics"
)

// Gate rejects queries that are not about healthcare providers.
type Gate struct {
	llm llm.Client
}

// NewGate returns a gate classifying with client. A nil client admits
// everything.
func NewGate(client llm.Client) *Gate {
	return &Gate{llm: client}
}

// Admit reports whether query is on topic. It fails open: a missing client
// or a classification error admits the query.
func (g *Gate) Admit(ctx context.Context, query string) bool {
	if g == nil || g.llm == nil {
		return true
	}
	defer metrics.ObserveStage("gate", time.Now())

	reply, err := g.llm.Complete(ctx, topicPrompt(query))
	if err != nil {
		metrics.ProviderFailed(g.llm.Name())
		zap.L().Warn("gate: classification failed, admitting query",
			zap.String("query", query),
			zap.String("provider", g.llm.Name()),
			zap.Error(err),
		)
		return true
	}
	return strings.Contains(strings.ToUpper(reply), "YES")
}
