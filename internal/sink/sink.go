// Package sink persists lookup results. A sink failure never changes the
// result returned to the caller.
package sink

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/clinic-phone/internal/model"
)

// Entry is one persisted lookup.
type Entry struct {
	ID          uuid.UUID    `json:"id" yaml:"id"`
	Query       string       `json:"query" yaml:"query"`
	PhoneNumber string       `json:"phone_number" yaml:"phone_number"`
	SourceURL   string       `json:"source_url" yaml:"source_url"`
	SourceLabel string       `json:"source_label" yaml:"source_label"`
	Engine      model.Engine `json:"engine,omitempty" yaml:"engine,omitempty"`
	CreatedAt   time.Time    `json:"created_at" yaml:"created_at"`
}

// NewEntry builds the entry recorded for a result.
func NewEntry(r *model.ResultRecord) Entry {
	return Entry{
		ID:          uuid.New(),
		Query:       r.Query,
		PhoneNumber: r.PhoneNumber,
		SourceURL:   r.SourceURL(),
		SourceLabel: r.SourceLabel,
		Engine:      r.Engine,
		CreatedAt:   time.Now().UTC(),
	}
}

// Sink records lookup results.
type Sink interface {
	Record(ctx context.Context, e Entry) error
}

// Lister is implemented by sinks that can read entries back, newest first.
type Lister interface {
	List(ctx context.Context, limit int) ([]Entry, error)
}

// Multi fans an entry out to every sink and joins their errors.
type Multi []Sink

// Record writes e to every sink, even when an earlier one fails.
func (m Multi) Record(ctx context.Context, e Entry) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// List reads from the first sink that can list.
func (m Multi) List(ctx context.Context, limit int) ([]Entry, error) {
	for _, s := range m {
		if l, ok := s.(Lister); ok {
			return l.List(ctx, limit)
		}
	}
	return nil, ErrNotListable
}

// Log writes entries to the global logger.
type Log struct{}

// Record logs e at info level.
func (Log) Record(_ context.Context, e Entry) error {
	zap.L().Info("sink: result",
		zap.String("id", e.ID.String()),
		zap.String("query", e.Query),
		zap.String("phone", e.PhoneNumber),
		zap.String("source", e.SourceURL),
		zap.String("label", e.SourceLabel),
	)
	return nil
}
