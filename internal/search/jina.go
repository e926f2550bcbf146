package search

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/clinic-phone/internal/resilience"
	"github.com/sells-group/clinic-phone/pkg/jina"
)

// Jina searches via Jina AI Search.
type Jina struct {
	client jina.Client
}

// NewJina wraps a Jina client as a Provider.
func NewJina(client jina.Client) *Jina {
	return &Jina{client: client}
}

func (j *Jina) Name() string { return "jina" }

// Search maps the region ("it-it") onto Jina's country and language hints.
func (j *Jina) Search(ctx context.Context, req Request) ([]Result, error) {
	var opts []jina.SearchOption
	if country, lang, ok := strings.Cut(req.Region, "-"); ok {
		opts = append(opts, jina.WithLocale(country, lang))
	}

	resp, err := j.client.Search(ctx, req.Query, opts...)
	if err != nil {
		var se *jina.StatusError
		if errors.As(err, &se) && resilience.IsTransientHTTPStatus(se.StatusCode) {
			return nil, resilience.NewTransientError(err, se.StatusCode)
		}
		return nil, eris.Wrap(err, "search: jina")
	}

	results := make([]Result, 0, len(resp.Data))
	for _, d := range resp.Data {
		if req.MaxResults > 0 && len(results) >= req.MaxResults {
			break
		}
		results = append(results, Result{URL: d.URL, Title: d.Title, Snippet: d.Description})
	}
	return results, nil
}
