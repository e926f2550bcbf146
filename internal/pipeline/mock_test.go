package pipeline

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/clinic-phone/internal/llm"
	"github.com/sells-group/clinic-phone/internal/sink"
)

// --- LLM Mock ---

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Complete(ctx context.Context, p llm.Prompt) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *mockLLM) Name() string { return "mock-llm" }

// --- Web Searcher Mock ---

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) FindContact(ctx context.Context, query string) (llm.Contact, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(llm.Contact), args.Error(1)
}

func (m *mockSearcher) Name() string { return "mock-search" }

// --- Locator Mock ---

type mockLocator struct {
	mock.Mock
}

func (m *mockLocator) Locate(ctx context.Context, query string, maxResults int) []string {
	args := m.Called(ctx, query, maxResults)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

// --- Sink Mock ---

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Record(ctx context.Context, e sink.Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

// stubFetcher serves page text by URL. Unknown URLs fetch as "".
type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (f *stubFetcher) Fetch(_ context.Context, url string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	return f.pages[url]
}

func (f *stubFetcher) fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// isExtraction matches extraction prompts.
func isExtraction(p llm.Prompt) bool { return p.System == extractionSystemPrompt }

// isTopic matches classification prompts.
func isTopic(p llm.Prompt) bool { return p.System == topicSystemPrompt }

// isDirectKnowledge matches direct-knowledge prompts.
func isDirectKnowledge(p llm.Prompt) bool { return p.System == directKnowledgeSystemPrompt }
