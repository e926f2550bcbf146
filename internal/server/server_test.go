package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/clinic-phone/internal/model"
	"github.com/sells-group/clinic-phone/internal/sink"
)

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) SearchClinic(ctx context.Context, query, engine string) *model.ResultRecord {
	args := m.Called(ctx, query, engine)
	return args.Get(0).(*model.ResultRecord)
}

type mockLister struct {
	mock.Mock
}

func (m *mockLister) List(ctx context.Context, limit int) ([]sink.Entry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sink.Entry), args.Error(1)
}

func serve(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	rr := serve(t, New(nil, nil).Routes(), http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestSearch(t *testing.T) {
	searcher := &mockSearcher{}
	searcher.On("SearchClinic", mock.Anything, "Studio Medico Rossi Milano", "deepsearch").Return(&model.ResultRecord{
		Query:       "Studio Medico Rossi Milano",
		PhoneNumber: "02 1234 5678",
		SourceLabel: "LLM WebSearch",
		Engine:      model.EngineDeepSearch,
		Evidence: []model.EvidenceRecord{
			{SourceURL: "https://studiorossi.it", PhoneCandidate: "02 1234 5678", ExtractionMethod: model.MethodLLMWebSearch},
		},
	})

	rr := serve(t, New(searcher, nil).Routes(), http.MethodGet,
		"/search?query=Studio+Medico+Rossi+Milano&engine=deepsearch")

	assert.Equal(t, http.StatusOK, rr.Code)
	var got model.ResultRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "02 1234 5678", got.PhoneNumber)
	assert.Equal(t, "LLM WebSearch", got.SourceLabel)
	require.Len(t, got.Evidence, 1)
	assert.Equal(t, model.MethodLLMWebSearch, got.Evidence[0].ExtractionMethod)
	searcher.AssertExpectations(t)
}

func TestSearch_OffTopicBody(t *testing.T) {
	searcher := &mockSearcher{}
	searcher.On("SearchClinic", mock.Anything, "pizzeria napoli", "").Return(&model.ResultRecord{
		Query:       "pizzeria napoli",
		PhoneNumber: model.OffTopic,
		SourceLabel: model.LabelInputValidation,
		Evidence:    []model.EvidenceRecord{},
	})

	rr := serve(t, New(searcher, nil).Routes(), http.MethodGet, "/search?query=pizzeria%20napoli")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t,
		`{"query":"pizzeria napoli","phone_number":"Off-Topic","source_label":"Input Validation","evidence":[]}`,
		rr.Body.String())
}

func TestSearch_MissingQuery(t *testing.T) {
	searcher := &mockSearcher{}
	for _, target := range []string{"/search", "/search?query=", "/search?query=%20%20"} {
		rr := serve(t, New(searcher, nil).Routes(), http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
		assert.Contains(t, rr.Body.String(), "query is required")
	}
	searcher.AssertNotCalled(t, "SearchClinic", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearch_CORS(t *testing.T) {
	searcher := &mockSearcher{}
	searcher.On("SearchClinic", mock.Anything, "q", "").Return(&model.ResultRecord{Query: "q", PhoneNumber: model.NotFound})

	req := httptest.NewRequest(http.MethodGet, "/search?query=q", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	New(searcher, nil).Routes().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestResults(t *testing.T) {
	lister := &mockLister{}
	entries := []sink.Entry{{
		ID:          uuid.New(),
		Query:       "Studio Medico Rossi Milano",
		PhoneNumber: "02 1234 5678",
		SourceURL:   "https://studiorossi.it",
		SourceLabel: "Deep Search (2/2 similar results)",
		Engine:      model.EngineLocal,
		CreatedAt:   time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}}
	lister.On("List", mock.Anything, 10).Return(entries, nil)

	rr := serve(t, New(nil, lister).Routes(), http.MethodGet, "/results?limit=10")

	assert.Equal(t, http.StatusOK, rr.Code)
	var got []sink.Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, entries, got)
}

func TestResults_DefaultLimitAndEmpty(t *testing.T) {
	lister := &mockLister{}
	lister.On("List", mock.Anything, 50).Return(nil, nil)

	rr := serve(t, New(nil, lister).Routes(), http.MethodGet, "/results")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestResults_Errors(t *testing.T) {
	lister := &mockLister{}
	lister.On("List", mock.Anything, 5).Return(nil, errors.New("sqlite: list lookups"))

	tests := []struct {
		name   string
		srv    *Server
		target string
		want   int
	}{
		{"no lister", New(nil, nil), "/results", http.StatusNotImplemented},
		{"bad limit", New(nil, lister), "/results?limit=abc", http.StatusBadRequest},
		{"zero limit", New(nil, lister), "/results?limit=0", http.StatusBadRequest},
		{"limit too large", New(nil, lister), "/results?limit=501", http.StatusBadRequest},
		{"store error", New(nil, lister), "/results?limit=5", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(t, tt.srv.Routes(), http.MethodGet, tt.target)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestMetrics(t *testing.T) {
	rr := serve(t, New(nil, nil).Routes(), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestUnknownRoute(t *testing.T) {
	rr := serve(t, New(nil, nil).Routes(), http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
