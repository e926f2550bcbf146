package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/clinic-phone/internal/llm"
	"github.com/sells-group/clinic-phone/internal/model"
)

func TestLocalStrategy(t *testing.T) {
	locator := &mockLocator{}
	locator.On("Locate", mock.Anything, rossiQuery, 3).
		Return([]string{"https://a.it", "https://b.it", "https://c.it"})
	fetcher := &stubFetcher{pages: map[string]string{
		"https://a.it": rossiPage,
		"https://b.it": "Tel. 06 111 2222",
		"https://c.it": rossiPage,
	}}

	s := NewLocalStrategy(NewCollector(locator, fetcher, nil), 3)
	assert.Equal(t, model.EngineLocal, s.Engine())

	evidence := s.Collect(context.Background(), rossiQuery)
	res := s.Resolve(evidence)
	assert.Equal(t, "02 1234 5678", res.Phone)
	assert.Equal(t, "Deep Search (2/3 similar results)", res.Label)
}

func TestDeepSearchStrategy_Found(t *testing.T) {
	searcher := &mockSearcher{}
	searcher.On("FindContact", mock.Anything, rossiQuery).
		Return(llm.Contact{PhoneNumber: " 02 1234 5678 ", SourceURL: "https://studiorossi.it/contatti"}, nil)

	s := NewDeepSearchStrategy(searcher)
	assert.Equal(t, model.EngineDeepSearch, s.Engine())

	evidence := s.Collect(context.Background(), rossiQuery)
	require.Len(t, evidence, 1)
	assert.Equal(t, model.EvidenceRecord{
		SourceURL:        "https://studiorossi.it/contatti",
		PhoneCandidate:   "02 1234 5678",
		ExtractionMethod: model.MethodLLMWebSearch,
	}, evidence[0])

	res := s.Resolve(evidence)
	assert.Equal(t, "02 1234 5678", res.Phone)
	assert.Equal(t, "LLM WebSearch", res.Label)
	searcher.AssertExpectations(t)
}

func TestDeepSearchStrategy_Misses(t *testing.T) {
	tests := []struct {
		name    string
		contact llm.Contact
		err     error
	}{
		{name: "not found", contact: llm.Contact{PhoneNumber: "Not Found", SourceURL: "Not Found"}},
		{name: "empty", contact: llm.Contact{}},
		{name: "error", err: errors.New("perplexity: unexpected status 500")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &mockSearcher{}
			searcher.On("FindContact", mock.Anything, rossiQuery).Return(tt.contact, tt.err)

			s := NewDeepSearchStrategy(searcher)
			evidence := s.Collect(context.Background(), rossiQuery)
			assert.Empty(t, evidence)

			res := s.Resolve(evidence)
			assert.Equal(t, "Not Found", res.Phone)
			assert.Equal(t, "Not Found", res.Label)
		})
	}
}

func TestDeepSearchStrategy_MissingSourceURL(t *testing.T) {
	searcher := &mockSearcher{}
	searcher.On("FindContact", mock.Anything, rossiQuery).
		Return(llm.Contact{PhoneNumber: "02 1234 5678"}, nil)

	evidence := NewDeepSearchStrategy(searcher).Collect(context.Background(), rossiQuery)
	require.Len(t, evidence, 1)
	assert.Equal(t, model.NotFound, evidence[0].SourceURL)
}

func TestDeepSearchStrategy_NoSearcher(t *testing.T) {
	s := NewDeepSearchStrategy(nil)
	assert.Empty(t, s.Collect(context.Background(), rossiQuery))
}
