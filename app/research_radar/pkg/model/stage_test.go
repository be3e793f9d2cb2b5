package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewsResult_Validate(t *testing.T) {
	ok := &NewsResult{
		Articles:  []Article{{Title: "GPT-5 launches", URL: "https://example.com/a"}},
		Count:     1,
		FetchedAt: "2026-02-01T00:00:00Z",
	}
	require.NoError(t, ok.Validate())

	tests := []struct {
		name string
		in   *NewsResult
	}{
		{"nil", nil},
		{"count mismatch", &NewsResult{Articles: []Article{{Title: "x"}}, Count: 2, FetchedAt: "t"}},
		{"missing fetched_at", &NewsResult{}},
		{"blank article", &NewsResult{Articles: []Article{{Source: "s"}}, Count: 1, FetchedAt: "t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedPayload))
			var ve *ValidationError
			assert.True(t, errors.As(err, &ve))
		})
	}
}

func TestResearchResult_Validate(t *testing.T) {
	valid := Paper{Title: "Attention", ArxivID: "2401.00001v1", Authors: []string{"a"}}
	require.NoError(t, (&ResearchResult{Papers: []Paper{valid}, Count: 1, FetchedAt: "t"}).Validate())
	require.NoError(t, (&ResearchResult{Papers: []Paper{}, Count: 0, FetchedAt: "t"}).Validate())

	tooMany := valid
	tooMany.Authors = []string{"a", "b", "c", "d", "e", "f"}
	err := (&ResearchResult{Papers: []Paper{tooMany}, Count: 1, FetchedAt: "t"}).Validate()
	assert.ErrorIs(t, err, ErrMalformedPayload)

	noID := valid
	noID.ArxivID = ""
	err = (&ResearchResult{Papers: []Paper{noID}, Count: 1, FetchedAt: "t"}).Validate()
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestChartSetAndReport_Validate(t *testing.T) {
	assert.ErrorIs(t, (&ChartSet{KeywordBar: "a", ThemePie: "b"}).Validate(), ErrMalformedPayload)
	assert.NoError(t, (&ChartSet{KeywordBar: "a", ThemePie: "b", VolumeTrend: "c"}).Validate())

	assert.ErrorIs(t, (&ReportResult{PDFPath: "x.pdf"}).Validate(), ErrMalformedPayload)
	assert.NoError(t, (&ReportResult{PDFPath: "x.pdf", PageCount: 4}).Validate())
}

func TestNormalizeCategories(t *testing.T) {
	got := NormalizeCategories([]string{"cs.LG", "", "cs.AI", "cs.LG"})
	assert.Equal(t, []string{"cs.AI", "cs.LG"}, got)
}

func TestRunRecord_JSON(t *testing.T) {
	rec := NewRunRecord("20260201_000000", "2026-02-01T00:00:00Z")
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Nil(t, m["end_time"])
	assert.Equal(t, "not_sent", m["email_status"])
	assert.Equal(t, "not_updated", m["sheets_status"])
	assert.Equal(t, []any{}, m["top_5_keywords"])
	assert.NotContains(t, m, "failed_stage")

	rec.Finish("2026-02-01T00:05:00Z")
	data, err = json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"end_time":"2026-02-01T00:05:00Z"`)
}

func TestAnalysisResult_Helpers(t *testing.T) {
	var nilResult *AnalysisResult
	assert.Equal(t, NotAvailable, nilResult.TopTheme())
	assert.Empty(t, nilResult.TopKeywordNames(5))

	r := &AnalysisResult{
		TopKeywords:    []KeywordCount{{"gpt", 3}, {"openai", 2}},
		TrendingThemes: []string{"Large Language Models"},
	}
	assert.Equal(t, []string{"gpt", "openai"}, r.TopKeywordNames(5))
	assert.Equal(t, "Large Language Models", r.TopTheme())
}
