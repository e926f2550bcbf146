package scrape

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/clinic-phone/internal/resilience"
	"github.com/sells-group/clinic-phone/pkg/jina"
)

var longContent = "Studio Medico Rossi\n\nMedicina generale e specialistica a Milano.\n\n" +
	"Contatti:   Tel. 02 1234 5678, via Roma 1, 20100 Milano. Orari: lun-ven 9-18."

func TestJinaAdapter_NameAndSupports(t *testing.T) {
	t.Parallel()
	adapter := NewJinaAdapter(new(mockJina))
	assert.Equal(t, "jina", adapter.Name())
	assert.True(t, adapter.Supports("https://studiorossi.it"))
}

func TestJinaAdapter_Scrape_Success(t *testing.T) {
	t.Parallel()
	m := new(mockJina)
	m.On("Read", mock.Anything, "https://studiorossi.it").Return(&jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{URL: "https://studiorossi.it/", Title: "Studio Medico Rossi", Content: longContent},
	}, nil)

	result, err := NewJinaAdapter(m).Scrape(context.Background(), "https://studiorossi.it")
	require.NoError(t, err)
	assert.Equal(t, "jina", result.Source)
	assert.Equal(t, "https://studiorossi.it/", result.Page.URL)
	assert.Equal(t, "Studio Medico Rossi", result.Page.Title)
	assert.Contains(t, result.Page.Text, "Contatti: Tel. 02 1234 5678")
	assert.NotContains(t, result.Page.Text, "\n")
	m.AssertExpectations(t)
}

func TestJinaAdapter_Scrape_MissingURLUsesTarget(t *testing.T) {
	t.Parallel()
	m := new(mockJina)
	m.On("Read", mock.Anything, "https://a.it").Return(&jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{Content: longContent},
	}, nil)

	result, err := NewJinaAdapter(m).Scrape(context.Background(), "https://a.it")
	require.NoError(t, err)
	assert.Equal(t, "https://a.it", result.Page.URL)
}

func TestJinaAdapter_Scrape_ClientError(t *testing.T) {
	t.Parallel()
	m := new(mockJina)
	m.On("Read", mock.Anything, "https://fail.it").Return(nil, errors.New("connection refused")).Once()

	_, err := NewJinaAdapter(m).Scrape(context.Background(), "https://fail.it")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	m.AssertNumberOfCalls(t, "Read", 1)
}

func TestJinaAdapter_Scrape_UnusableResponse(t *testing.T) {
	t.Parallel()
	m := new(mockJina)
	m.On("Read", mock.Anything, "https://blocked.it").Return(&jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{Content: "  \n "},
	}, nil)

	_, err := NewJinaAdapter(m).Scrape(context.Background(), "https://blocked.it")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unusable response")
}

func TestJinaAdapter_BreakerOpensOnTransientFailures(t *testing.T) {
	t.Parallel()
	m := new(mockJina)
	m.On("Read", mock.Anything, mock.Anything).Return(nil, &jina.StatusError{StatusCode: 503, Body: "down"})

	adapter := NewJinaAdapter(m)
	for i := 0; i < 3; i++ {
		_, err := adapter.Scrape(context.Background(), "https://a.it")
		require.Error(t, err)
		assert.True(t, resilience.IsTransient(err))
	}

	assert.False(t, adapter.Supports("https://a.it"))
	_, err := adapter.Scrape(context.Background(), "https://a.it")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	m.AssertNumberOfCalls(t, "Read", 3)
}

func TestJinaAdapter_PermanentFailuresKeepBreakerClosed(t *testing.T) {
	t.Parallel()
	m := new(mockJina)
	m.On("Read", mock.Anything, mock.Anything).Return(nil, &jina.StatusError{StatusCode: 400, Body: "bad url"})

	adapter := NewJinaAdapter(m)
	for i := 0; i < 5; i++ {
		_, _ = adapter.Scrape(context.Background(), "https://a.it")
	}
	assert.True(t, adapter.Supports("https://a.it"))
}

func TestNeedsFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp *jina.ReadResponse
		want bool
	}{
		{"nil response", nil, true},
		{"non-200 code", &jina.ReadResponse{Code: 403}, true},
		{"empty content", &jina.ReadResponse{Code: 200, Data: jina.ReadData{Content: " \n\t"}}, true},
		{"short page with phone", &jina.ReadResponse{Code: 200, Data: jina.ReadData{Content: "Tel. 02 1234 5678"}}, false},
		{
			"challenge in short content",
			&jina.ReadResponse{Code: 200, Data: jina.ReadData{
				Content: "Checking your browser before accessing this site. Please enable JavaScript and cookies to continue.",
			}},
			true,
		},
		{"valid content", &jina.ReadResponse{Code: 200, Data: jina.ReadData{Content: longContent}}, false},
		{"code 0 is acceptable", &jina.ReadResponse{Data: jina.ReadData{Content: longContent}}, false},
		{
			"challenge words in long content are ok",
			&jina.ReadResponse{Code: 200, Data: jina.ReadData{
				Content: "Access denied to the staff area. " + strings.Repeat(longContent+" ", 10),
			}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, needsFallback(tt.resp))
		})
	}
}
