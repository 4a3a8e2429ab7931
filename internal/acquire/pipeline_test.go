// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Integration test: esearch → efetch → extraction → JSON output, using a
// mock E-utilities server.

package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/medsft/internal/entrez"
	"github.com/pdiddy/medsft/pkg/types"
)

const pipelineESearchXML = `<?xml version="1.0" encoding="UTF-8" ?>
<eSearchResult><Count>3</Count><RetMax>3</RetMax>
<IdList><Id>101</Id><Id>102</Id><Id>103</Id></IdList>
</eSearchResult>`

const pipelineEFetchXML = `<?xml version="1.0" ?>
<PubmedArticleSet>
<PubmedArticle><MedlineCitation><PMID>101</PMID><Article>
  <Journal><JournalIssue><PubDate><Year>2023</Year><Month>Nov</Month></PubDate></JournalIssue></Journal>
  <ArticleTitle>Remote monitoring after cardiac surgery.</ArticleTitle>
  <Abstract><AbstractText Label="OBJECTIVE">Assess outcomes.</AbstractText><AbstractText Label="CONCLUSIONS">Monitoring helps.</AbstractText></Abstract>
  <ArticleDate DateType="Electronic"><Year>2023</Year><Month>11</Month><Day>14</Day></ArticleDate>
</Article></MedlineCitation></PubmedArticle>
<PubmedArticle><MedlineCitation><PMID>102</PMID><Article>
  <ArticleTitle>Letter to the editor.</ArticleTitle>
</Article></MedlineCitation></PubmedArticle>
<PubmedArticle><MedlineCitation><PMID>103</PMID><Article>
  <Journal><JournalIssue><PubDate><Year>2023</Year></PubDate></JournalIssue></Journal>
  <ArticleTitle>Gut microbiota in <i>C. difficile</i> infection.</ArticleTitle>
  <Abstract><AbstractText>Single paragraph abstract.</AbstractText></Abstract>
</Article></MedlineCitation></PubmedArticle>
</PubmedArticleSet>`

func newEutilsServer(t *testing.T, fetches *int32) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/esearch.fcgi":
			io.WriteString(w, pipelineESearchXML)
		case "/efetch.fcgi":
			atomic.AddInt32(fetches, 1)
			if err := r.ParseForm(); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if got := r.PostForm.Get("id"); got != "101,102,103" {
				http.Error(w, fmt.Sprintf("unexpected ids %q", got), http.StatusBadRequest)
				return
			}
			io.WriteString(w, pipelineEFetchXML)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestPipeline_EntrezIntegration(t *testing.T) {
	var fetches int32
	ts := newEutilsServer(t, &fetches)

	client := entrez.NewClient(ts.Client(), types.EntrezConfig{
		BaseURL:           ts.URL,
		Email:             "curator@example.org",
		RequestsPerSecond: -1,
	})
	cfg := types.AcquisitionConfig{
		StartDate:   "2023/11/01",
		EndDate:     "2023/11/30",
		MaxArticles: 1000,
		OutputPath:  filepath.Join(t.TempDir(), "medical_data.json"),
	}

	res, err := NewPipeline(client, cfg, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))

	want := []types.NormalizedRecord{
		{
			ArticleTitle:    "Remote monitoring after cardiac surgery.",
			ArticleAbstract: "Assess outcomes. Monitoring helps.",
			PubDate:         types.PubDate{Year: "2023", Month: "11", Day: "14"},
		},
		{
			ArticleTitle:    "Gut microbiota in C. difficile infection.",
			ArticleAbstract: "Single paragraph abstract.",
			PubDate:         types.PubDate{Year: "2023", Month: "01", Day: "01"},
		},
	}
	assert.Equal(t, want, res.Records)
	assert.Equal(t, 1, res.Skipped)

	written, err := ReadRecords(cfg.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, want, written)
}

func TestPipeline_EntrezOutage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	client := entrez.NewClient(ts.Client(), types.EntrezConfig{BaseURL: ts.URL, RequestsPerSecond: -1})
	_, err := NewPipeline(client, types.AcquisitionConfig{StartDate: "2023/01/01", EndDate: "2023/01/31"}, nil).
		Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, entrez.ErrSourceUnavailable)
	assert.True(t, strings.HasPrefix(err.Error(), "searching:"))
}
