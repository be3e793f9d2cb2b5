package analysis

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/research_radar/app/research_radar/pkg/model"
)

var tokenShape = regexp.MustCompile(`^[a-z]{3,}$`)

func TestTokenize(t *testing.T) {
	got := Tokenize("Hello, WORLD! 42abc de the Model data-driven")
	assert.Equal(t, []string{"hello", "world", "abc", "driven"}, got)
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize("12 34 -- ab"))
}

func TestTokenize_Properties(t *testing.T) {
	inputs := []string{
		"Large Language Models (LLMs) are SCALING fast in 2026!!",
		"Ünïcödé text: naïve café résumé",
		"GPT-4o, Llama-3.1 and Claude 3.5 compared on MMLU/GSM8K",
		"the and of with by from is was are were be been",
		strings.Repeat("abcdefghijklmnop ", 50),
	}
	for _, in := range inputs {
		for _, tok := range Tokenize(in) {
			assert.Regexp(t, tokenShape, tok, "input %q", in)
			assert.False(t, IsStopWord(tok), "stop word %q leaked from %q", tok, in)
		}
	}
}

func TestTokenize_NonASCIIWordsDropped(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Zürich café résumé", []string{}},
		{"Zürich startup", []string{"startup"}},
		{"Gödel prize", []string{"prize"}},
		{"naïve Bayes, 3D-vision", []string{"bayes", "vision"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Tokenize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "rich")
			assert.NotContains(t, got, "caf")
			assert.NotContains(t, got, "sum")
		})
	}

	got := RankKeywords([]string{"Café café café résumé résumé agents"}, MaxKeywords)
	assert.Equal(t, []model.KeywordCount{{Keyword: "agents", Count: 1}}, got)
}

func TestRankKeywords_TieBreakFirstSeen(t *testing.T) {
	got := RankKeywords([]string{"beta alpha", "beta gamma alpha"}, MaxKeywords)
	assert.Equal(t, []model.KeywordCount{
		{Keyword: "beta", Count: 2},
		{Keyword: "alpha", Count: 2},
		{Keyword: "gamma", Count: 1},
	}, got)
}

func TestRankKeywords_Cap(t *testing.T) {
	var words []string
	for i := 0; i < 30; i++ {
		w := "kw" + string(rune('a'+i%26)) + string(rune('a'+i/26))
		for j := 0; j <= i; j++ {
			words = append(words, w)
		}
	}
	got := RankKeywords([]string{strings.Join(words, " ")}, MaxKeywords)
	require.Len(t, got, MaxKeywords)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Count, got[i].Count)
	}
	assert.Equal(t, 30, got[0].Count)
}

func TestRankKeywords_Empty(t *testing.T) {
	got := RankKeywords(nil, MaxKeywords)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDetectThemes(t *testing.T) {
	got := DetectThemes([]string{"Robot arms and a robot dog", "a GPT demo"}, MaxThemes)
	require.Len(t, got, 2)
	assert.Equal(t, model.ThemeScore{Theme: "Robotics & Automation", Score: 2}, got[0])
	assert.Equal(t, model.ThemeScore{Theme: "Large Language Models", Score: 1}, got[1])
}

func TestDetectThemes_TiesKeepCatalogOrder(t *testing.T) {
	got := DetectThemes([]string{"vision", "gpt"}, MaxThemes)
	require.Len(t, got, 2)
	assert.Equal(t, "Large Language Models", got[0].Theme)
	assert.Equal(t, "Computer Vision", got[1].Theme)
}

func TestDetectThemes_SubstringMatching(t *testing.T) {
	// "rl" 命中 "world" 内部
	got := DetectThemes([]string{"hello world"}, MaxThemes)
	require.Len(t, got, 1)
	assert.Equal(t, "Reinforcement Learning", got[0].Theme)
}

func TestDetectThemes_Truncation(t *testing.T) {
	text := "llm vision reward safety multimodal gpu nlp generative medical robot"
	got := DetectThemes([]string{text}, MaxThemes)
	require.Len(t, got, MaxThemes)
	for i, s := range got {
		assert.Positive(t, s.Score)
		if i > 0 {
			assert.GreaterOrEqual(t, got[i-1].Score, s.Score)
		}
	}
}

func TestSummarize(t *testing.T) {
	articles := []model.Article{
		{Source: "A", PublishedAt: "2026-02-03T10:00:00Z"},
		{Source: "B", PublishedAt: ""},
		{Source: "B"},
		{Source: "A"},
		{Source: ""},
	}
	papers := []model.Paper{{PublishedAt: "2026-01-30T00:00:00Z"}}

	got := Summarize(articles, papers)
	assert.Equal(t, 6, got.TotalSources)
	assert.Equal(t, "2026-01-30 to 2026-02-03", got.DateRange)
	assert.Equal(t, "A", got.MostActiveSource)
}

func TestSummarize_NoDatesNoSources(t *testing.T) {
	got := Summarize([]model.Article{{Title: "x"}}, []model.Paper{{Title: "y"}})
	assert.Equal(t, "N/A", got.DateRange)
	assert.Equal(t, "N/A", got.MostActiveSource)
	assert.Equal(t, 2, got.TotalSources)
}

func TestSummarize_DateRangeShape(t *testing.T) {
	articles := []model.Article{
		{PublishedAt: "2026-03-01T08:00:00Z"},
		{PublishedAt: "2025-12-31T23:59:59+00:00"},
		{PublishedAt: "2026-01-15"},
	}
	got := Summarize(articles, nil).DateRange
	var lo, hi string
	_, err := fmt.Sscanf(got, "%s to %s", &lo, &hi)
	require.NoError(t, err)
	assert.Len(t, lo, 10)
	assert.Len(t, hi, 10)
	assert.LessOrEqual(t, lo, hi)
	assert.Equal(t, "2025-12-31 to 2026-03-01", got)
}

func TestAnalyze_Empty(t *testing.T) {
	got := Analyze(nil, nil, "2026-02-01T00:00:00Z")
	assert.Equal(t, 0, got.ArticleCount)
	assert.Equal(t, 0, got.PaperCount)
	assert.Equal(t, []model.KeywordCount{}, got.TopKeywords)
	assert.Equal(t, []string{}, got.TrendingThemes)
	assert.Equal(t, "N/A", got.SummaryStats.MostActiveSource)
	assert.Equal(t, "N/A", got.SummaryStats.DateRange)
	assert.Equal(t, 0, got.SummaryStats.TotalSources)
	assert.Equal(t, "2026-02-01T00:00:00Z", got.RunDate)
}

func TestAnalyze_SingleArticleScenario(t *testing.T) {
	articles := []model.Article{{
		Title:       "GPT-5 launches",
		Description: "OpenAI releases GPT-5 language model",
		Source:      "TechCrunch",
		PublishedAt: "2026-02-01T00:00:00Z",
	}}
	got := Analyze(articles, nil, "")

	keywords := map[string]int{}
	for _, k := range got.TopKeywords {
		keywords[k.Keyword] = k.Count
	}
	assert.NotContains(t, keywords, "model")
	for _, want := range []string{"gpt", "launches", "openai", "releases", "language"} {
		assert.Contains(t, keywords, want)
	}
	assert.Equal(t, "gpt", got.TopKeywords[0].Keyword)
	assert.Equal(t, 2, got.TopKeywords[0].Count)

	assert.Contains(t, got.TrendingThemes, "Large Language Models")
	assert.Equal(t, "TechCrunch", got.SummaryStats.MostActiveSource)
	assert.Equal(t, "2026-02-01 to 2026-02-01", got.SummaryStats.DateRange)
	assert.Equal(t, 1, got.ArticleCount)
	assert.NotEmpty(t, got.RunDate)
}

func TestAnalyze_CorpusOrderArticlesBeforePapers(t *testing.T) {
	articles := []model.Article{{Title: "zeta", Description: "shared"}}
	papers := []model.Paper{{Title: "shared", Abstract: "omega"}}
	assert.Equal(t, []string{"zeta shared", "shared omega"}, Corpus(articles, papers))

	got := Analyze(articles, papers, "x")
	assert.Equal(t, model.KeywordCount{Keyword: "shared", Count: 2}, got.TopKeywords[0])
	assert.Equal(t, "zeta", got.TopKeywords[1].Keyword)
	assert.Equal(t, "omega", got.TopKeywords[2].Keyword)
}

func TestAnalyzer_LogsTopTheme(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	a := NewAnalyzer(log)

	res, err := a.Analyze([]model.Article{{Title: "llama and gemini"}}, nil, "")
	require.NoError(t, err)
	require.NotNil(t, res)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Large Language Models", entry.Data["top_theme"])
	assert.Equal(t, 2, entry.Data["keywords"])
}
