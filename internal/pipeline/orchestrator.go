package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/clinic-phone/internal/metrics"
	"github.com/sells-group/clinic-phone/internal/model"
	"github.com/sells-group/clinic-phone/internal/sink"
)

const sinkTimeout = 10 * time.Second

// Options configures an Orchestrator.
type Options struct {
	Gate           *Gate
	Strategies     []Strategy
	Fallback       *DirectKnowledge
	Sink           sink.Sink
	DefaultEngine  model.Engine
	RequestTimeout time.Duration
}

// Orchestrator runs one lookup end to end.
type Orchestrator struct {
	gate           *Gate
	strategies     map[model.Engine]Strategy
	fallback       *DirectKnowledge
	sink           sink.Sink
	defaultEngine  model.Engine
	requestTimeout time.Duration
}

// NewOrchestrator builds an orchestrator from opts. A zero DefaultEngine
// means local; a nil Sink drops results.
func NewOrchestrator(opts Options) *Orchestrator {
	o := &Orchestrator{
		gate:           opts.Gate,
		strategies:     make(map[model.Engine]Strategy, len(opts.Strategies)),
		fallback:       opts.Fallback,
		sink:           opts.Sink,
		defaultEngine:  opts.DefaultEngine,
		requestTimeout: opts.RequestTimeout,
	}
	for _, s := range opts.Strategies {
		o.strategies[s.Engine()] = s
	}
	if o.defaultEngine == "" {
		o.defaultEngine = model.EngineLocal
	}
	return o
}

// SearchClinic looks up the phone number for query. engine overrides the
// default engine when it names a known one. The returned record is never
// nil; provider failures surface only as a "Not Found" phone number.
func (o *Orchestrator) SearchClinic(ctx context.Context, query, engine string) *model.ResultRecord {
	if o.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.requestTimeout)
		defer cancel()
	}

	start := time.Now()
	log := zap.L().With(zap.String("query", query))

	if !o.gate.Admit(ctx, query) {
		log.Info("pipeline: query rejected as off-topic")
		metrics.QueriesTotal.WithLabelValues(metrics.EngineNone, "off_topic").Inc()
		return &model.ResultRecord{
			Query:       query,
			PhoneNumber: model.OffTopic,
			SourceLabel: model.LabelInputValidation,
			Evidence:    []model.EvidenceRecord{},
		}
	}

	eng := o.selectEngine(engine)
	log = log.With(zap.String("engine", string(eng)))
	log.Info("pipeline: starting lookup")

	var (
		evidence []model.EvidenceRecord
		res      = notFound()
	)
	if strat, ok := o.strategies[eng]; ok {
		evidence = strat.Collect(ctx, query)
		res = strat.Resolve(evidence)
	} else {
		log.Warn("pipeline: no strategy registered for engine")
	}

	if !res.Found() && eng == model.EngineLocal && o.fallback != nil {
		if rec, ok := o.fallback.Lookup(ctx, query); ok {
			evidence = append(evidence, rec)
			res = Resolution{Phone: rec.PhoneCandidate, Label: model.LabelDirectKnowledge, Count: 1, Total: 1}
		}
	}

	if evidence == nil {
		evidence = []model.EvidenceRecord{}
	}
	result := &model.ResultRecord{
		Query:       query,
		PhoneNumber: res.Phone,
		SourceLabel: res.Label,
		Engine:      eng,
		Evidence:    evidence,
	}

	o.persist(ctx, result)

	outcome := "not_found"
	if result.Found() {
		outcome = "found"
	}
	metrics.QueriesTotal.WithLabelValues(string(eng), outcome).Inc()
	metrics.ObserveStage("lookup", start)

	log.Info("pipeline: lookup complete",
		zap.String("phone", result.PhoneNumber),
		zap.String("label", result.SourceLabel),
		zap.Int("evidence", len(result.Evidence)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result
}

func (o *Orchestrator) selectEngine(override string) model.Engine {
	if override == "" {
		return o.defaultEngine
	}
	eng, ok := model.ParseEngine(override)
	if !ok {
		zap.L().Warn("pipeline: unknown engine, using default",
			zap.String("engine", override),
			zap.String("default", string(o.defaultEngine)),
		)
		return o.defaultEngine
	}
	return eng
}

// persist records the result once. The write is not bound by the request
// deadline.
func (o *Orchestrator) persist(ctx context.Context, result *model.ResultRecord) {
	if o.sink == nil {
		return
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
	defer cancel()

	if err := o.sink.Record(sctx, sink.NewEntry(result)); err != nil {
		metrics.SinkFailures.Inc()
		zap.L().Error("pipeline: sink record failed",
			zap.String("query", result.Query),
			zap.Error(err),
		)
	}
}
