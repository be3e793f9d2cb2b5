package arxiv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/research_radar/app/research_radar/pkg/retry"
	"github.com/iWorld-y/research_radar/app/research_radar/pkg/search"
)

var fixedNow = time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)

const atomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <title>ArXiv Query</title>
  <id>http://arxiv.org/api/query</id>
  <updated>2026-02-08T00:00:00Z</updated>
  <entry>
    <id>http://arxiv.org/abs/2602.01234v1</id>
    <published>2026-02-05T18:00:00Z</published>
    <title>Scaling Laws for
      Multimodal Agents</title>
    <summary>  We study scaling of agents.  </summary>
    <author><name>A One</name></author>
    <author><name>B Two</name></author>
    <author><name>C Three</name></author>
    <author><name>D Four</name></author>
    <author><name>E Five</name></author>
    <author><name>F Six</name></author>
    <arxiv:primary_category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.AI" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2512.00001v2</id>
    <published>2025-12-01T00:00:00Z</published>
    <title>Too Old</title>
    <summary>old</summary>
    <author><name>Z</name></author>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2602.09999v1</id>
    <published>sometime last week</published>
    <title>Bad Date</title>
    <summary>skip me</summary>
  </entry>
</feed>`

func newTestClient(t *testing.T, srvURL string) *Client {
	t.Helper()
	log, _ := logtest.NewNullLogger()
	c := NewClient(Options{
		BaseURL: srvURL,
		Request: search.Request{Query: "large language models", DaysBack: 7, MaxResults: 30},
		Retry:   retry.NewPolicy(3, 0, log),
		Log:     log,
	})
	c.now = func() time.Time { return fixedNow }
	return c
}

func TestFetchPapers_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "all:large language models", q.Get("search_query"))
		assert.Equal(t, "0", q.Get("start"))
		assert.Equal(t, "30", q.Get("max_results"))
		assert.Equal(t, "submittedDate", q.Get("sortBy"))
		assert.Equal(t, "descending", q.Get("sortOrder"))
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(atomFeed))
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv.URL).FetchPapers(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.Validate())
	require.Len(t, res.Papers, 1)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, "2026-02-08T12:00:00Z", res.FetchedAt)

	p := res.Papers[0]
	assert.Equal(t, "Scaling Laws for Multimodal Agents", p.Title)
	assert.Equal(t, "2602.01234v1", p.ArxivID)
	assert.Equal(t, "We study scaling of agents.", p.Abstract)
	assert.Equal(t, []string{"A One", "B Two", "C Three", "D Four", "E Five"}, p.Authors)
	assert.Equal(t, []string{"cs.AI", "cs.LG"}, p.Categories)
	assert.Equal(t, "2026-02-05T18:00:00Z", p.PublishedAt)
}

func TestFetchPapers_RetriesThenSucceeds(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(atomFeed))
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv.URL).FetchPapers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, 1, res.Count)
}

func TestFetchPapers_ExhaustedRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).FetchPapers(context.Background())
	var exhausted *retry.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, "fetch_research", exhausted.Op)
}

func TestFetchPapers_InvalidFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("definitely not xml"))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).FetchPapers(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse atom feed failed")
}

func TestFetchPapers_IncompleteEntryIsLogged(t *testing.T) {
	feed := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2602.05555v1</id>
    <published>2026-02-06T00:00:00Z</published>
    <title>   </title>
    <summary>no title</summary>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2602.06666v1</id>
    <published>2026-02-06T00:00:00Z</published>
    <title>Kept Paper</title>
    <summary>fine</summary>
  </entry>
</feed>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feed))
	}))
	defer srv.Close()

	log, hook := logtest.NewNullLogger()
	c := NewClient(Options{
		BaseURL: srv.URL,
		Request: search.Request{Query: "agents", DaysBack: 7, MaxResults: 10},
		Retry:   retry.NewPolicy(1, 0, log),
		Log:     log,
	})
	c.now = func() time.Time { return fixedNow }

	res, err := c.FetchPapers(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Papers, 1)
	assert.Equal(t, "Kept Paper", res.Papers[0].Title)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["id"] == "http://arxiv.org/abs/2602.05555v1" {
			warned = true
		}
	}
	assert.True(t, warned, "incomplete entry should be logged")
}
