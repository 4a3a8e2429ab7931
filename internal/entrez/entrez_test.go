// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package entrez

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/pdiddy/medsft/internal/httputil"
	"github.com/pdiddy/medsft/pkg/types"
)

const sampleESearchXML = `<?xml version="1.0" encoding="UTF-8" ?>
<!DOCTYPE eSearchResult PUBLIC "-//NLM//DTD esearch 20060628//EN" "https://eutils.ncbi.nlm.nih.gov/eutils/dtd/20060628/esearch.dtd">
<eSearchResult>
  <Count>4213</Count>
  <RetMax>4</RetMax>
  <RetStart>0</RetStart>
  <IdList>
    <Id>38012345</Id>
    <Id>38012346</Id>
    <Id>38012345</Id>
    <Id>38012347</Id>
  </IdList>
</eSearchResult>`

const sampleEFetchXML = `<?xml version="1.0" ?>
<!DOCTYPE PubmedArticleSet PUBLIC "-//NLM//DTD PubMedArticle, 1st January 2024//EN" "https://dtd.nlm.nih.gov/ncbi/pubmed/out/pubmed_240101.dtd">
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation Status="MEDLINE" Owner="NLM">
      <PMID Version="1">38012345</PMID>
      <Article PubModel="Print-Electronic">
        <Journal>
          <JournalIssue CitedMedium="Internet">
            <PubDate><Year>2023</Year><Month>Dec</Month></PubDate>
          </JournalIssue>
        </Journal>
        <ArticleTitle>Effects of <i>Lactobacillus</i> on gut barrier function.</ArticleTitle>
        <Abstract>
          <AbstractText Label="BACKGROUND">Background text.</AbstractText>
          <AbstractText Label="RESULTS">Results &amp; findings.</AbstractText>
        </Abstract>
        <ArticleDate DateType="Electronic"><Year>2023</Year><Month>11</Month><Day>27</Day></ArticleDate>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
  <PubmedBookArticle>
    <BookDocument><ArticleTitle>A book chapter</ArticleTitle></BookDocument>
  </PubmedBookArticle>
  <PubmedArticle>
    <MedlineCitation>
      <PMID Version="1">38012346</PMID>
      <Article>
        <ArticleTitle>Cohort study of sleep.</ArticleTitle>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(ts.Client(), types.EntrezConfig{
		BaseURL:           ts.URL,
		Email:             "curator@example.org",
		RequestsPerSecond: -1,
		HTTPConfig: types.HTTPConfig{
			UserAgent: "medsft-test/1.0",
		},
	})
}

func TestDateQuery(t *testing.T) {
	got := DateQuery("2023/11/01", "2023/11/30")
	assert.Equal(t, "(2023/11/01[Date - Publication] : 2023/11/30[Date - Publication])", got)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(nil, types.EntrezConfig{BaseURL: "http://localhost/eutils/"})
	assert.Equal(t, "http://localhost/eutils", c.cfg.BaseURL)
	assert.Equal(t, "pubmed", c.cfg.Database)
	assert.Equal(t, "medsft", c.cfg.Tool)
	assert.Equal(t, "relevance", c.cfg.Sort)
	assert.NotNil(t, c.http)

	c = NewClient(nil, types.EntrezConfig{})
	assert.Equal(t, DefaultBaseURL, c.cfg.BaseURL)
	assert.Equal(t, rate.Limit(3), c.limiter.Limit())

	c = NewClient(nil, types.EntrezConfig{RequestsPerSecond: -1})
	assert.Equal(t, rate.Inf, c.limiter.Limit())
}

func TestClient_WaitsForRequestSlot(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		io.WriteString(w, sampleESearchXML)
	}))
	t.Cleanup(ts.Close)

	c := NewClient(ts.Client(), types.EntrezConfig{BaseURL: ts.URL, RequestsPerSecond: 0.1})

	_, err := c.Search(context.Background(), "cancer", 10)
	require.NoError(t, err)

	// The next slot is ten seconds away, past the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Search(ctx, "cancer", 10)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSourceUnavailable))
	assert.Contains(t, err.Error(), "waiting for request slot")
	assert.Equal(t, int32(1), calls.Load())
}

// --- Search ---

func TestSearch_SendsParamsAndPreservesOrder(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		assert.Equal(t, "medsft-test/1.0", r.Header.Get("User-Agent"))
		io.WriteString(w, sampleESearchXML)
	})

	term := DateQuery("2023/11/01", "2023/11/30")
	ids, err := c.Search(context.Background(), term, 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"38012345", "38012346", "38012347"}, ids)
	assert.Equal(t, "/esearch.fcgi", gotPath)
	assert.Equal(t, "pubmed", gotQuery["db"])
	assert.Equal(t, "relevance", gotQuery["sort"])
	assert.Equal(t, "10", gotQuery["retmax"])
	assert.Equal(t, "xml", gotQuery["retmode"])
	assert.Equal(t, term, gotQuery["term"])
	assert.Equal(t, "curator@example.org", gotQuery["email"])
	assert.Equal(t, "medsft", gotQuery["tool"])
}

func TestSearch_TruncatesToMaxResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, sampleESearchXML)
	})

	ids, err := c.Search(context.Background(), "cancer", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"38012345", "38012346"}, ids)
}

func TestSearch_InvalidArguments(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	})

	tests := []struct {
		name string
		term string
		max  int
	}{
		{"zero max", "cancer", 0},
		{"negative max", "cancer", -5},
		{"blank term", "   ", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Search(context.Background(), tt.term, tt.max)
			require.Error(t, err)
			assert.False(t, errors.Is(err, ErrSourceUnavailable))
		})
	}
}

func TestSearch_SourceUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			want: "HTTP 500",
		},
		{
			name: "error element",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				io.WriteString(w, `<eSearchResult><ERROR>Invalid query</ERROR></eSearchResult>`)
			},
			want: "Invalid query",
		},
		{
			name: "malformed XML",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				io.WriteString(w, `<eSearchResult><IdList><Id>1</Id>`)
			},
			want: "parsing esearch response",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.Search(context.Background(), "cancer", 5)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSourceUnavailable)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSearch_StatusErrorIsUnwrappable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := c.Search(context.Background(), "cancer", 5)

	var se *httputil.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
}

// --- Fetch ---

func TestFetch_PostsIDsAndParsesArticles(t *testing.T) {
	var gotMethod, gotPath, gotIDs, gotEmail string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		assert.NoError(t, r.ParseForm())
		gotIDs = r.PostForm.Get("id")
		gotEmail = r.PostForm.Get("email")
		io.WriteString(w, sampleEFetchXML)
	})

	records, err := c.Fetch(context.Background(), []string{"38012345", "38012346"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/efetch.fcgi", gotPath)
	assert.Equal(t, "38012345,38012346", gotIDs)
	assert.Equal(t, "curator@example.org", gotEmail)

	require.Len(t, records, 2, "book articles are skipped")
	first := records[0]
	assert.Equal(t, "PubmedArticle", first.Name)
	assert.Equal(t, "38012345", first.Lookup("", "MedlineCitation", "PMID"))
	assert.Equal(t, "Effects of Lactobacillus on gut barrier function.",
		first.Find("MedlineCitation", "Article", "ArticleTitle").InnerText())

	fragments := first.FindAll("MedlineCitation", "Article", "Abstract", "AbstractText")
	require.Len(t, fragments, 2)
	assert.Equal(t, "BACKGROUND", fragments[0].Attr("Label"))
	assert.Equal(t, "Results & findings.", fragments[1].InnerText())

	assert.False(t, records[1].Has("MedlineCitation", "Article", "Abstract"))
}

func TestFetch_EmptyIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	})
	_, err := c.Fetch(context.Background(), nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSourceUnavailable))
}

func TestFetch_SourceUnavailable(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
		want string
	}{
		{"bad gateway", "", http.StatusBadGateway, "HTTP 502"},
		{"efetch error document", `<eFetchResult><ERROR>Empty id list</ERROR></eFetchResult>`, http.StatusOK, "Empty id list"},
		{"truncated document", `<PubmedArticleSet><PubmedArticle><MedlineCitation>`, http.StatusOK, "parsing efetch response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.code)
				io.WriteString(w, tt.body)
			})
			_, err := c.Fetch(context.Background(), []string{"1"})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSourceUnavailable)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// --- ParseArticleSet ---

func TestParseArticleSet_EmptySet(t *testing.T) {
	records, err := ParseArticleSet(strings.NewReader(`<PubmedArticleSet></PubmedArticleSet>`))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseArticleSet_KeepsAttributesAndMixedContent(t *testing.T) {
	doc := `<PubmedArticleSet><PubmedArticle><MedlineCitation><Article>
		<ArticleTitle>CO<sub>2</sub> retention in <i>COPD</i> patients</ArticleTitle>
		<ArticleDate DateType="Electronic"><Year>2021</Year></ArticleDate>
	</Article></MedlineCitation></PubmedArticle></PubmedArticleSet>`

	records, err := ParseArticleSet(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, records, 1)

	article := records[0].Find("MedlineCitation", "Article")
	assert.Equal(t, "CO2 retention in COPD patients", article.Find("ArticleTitle").InnerText())
	assert.Equal(t, "Electronic", article.Find("ArticleDate").Attr("DateType"))
	assert.Equal(t, "2021", article.Lookup("", "ArticleDate", "Year"))
}
