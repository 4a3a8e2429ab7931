// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package entrez queries NCBI E-utilities for PubMed identifiers and raw
// article records.
//
// Search is the query executor (esearch) and Fetch is the record fetcher
// (efetch). Both are blocking, single-attempt calls: any transport,
// protocol, or decoding failure is returned wrapped in ErrSourceUnavailable.
// Calls share a rate limiter so a run stays within NCBI's request budget.
package entrez

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/medsft/internal/httputil"
	"github.com/pdiddy/medsft/pkg/types"
)

// DefaultBaseURL is the E-utilities root. Tests point the client at an
// httptest server through EntrezConfig.BaseURL instead.
const DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

const (
	defaultDatabase = "pubmed"
	defaultTool     = "medsft"
	defaultSort     = "relevance"

	// defaultRequestsPerSecond is the NCBI limit without an API key.
	defaultRequestsPerSecond = 3
)

// ErrSourceUnavailable marks a failed search or fetch call. It is the only
// error class that ends an acquisition run.
var ErrSourceUnavailable = errors.New("literature source unavailable")

// Client talks to esearch and efetch. The contact email and tool name are
// fixed at construction and sent with every request. Requests are spaced
// by a shared limiter.
type Client struct {
	http    *http.Client
	cfg     types.EntrezConfig
	limiter *rate.Limiter
}

// NewClient returns a Client with defaults applied to empty config fields.
func NewClient(httpClient *http.Client, cfg types.EntrezConfig) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Database == "" {
		cfg.Database = defaultDatabase
	}
	if cfg.Tool == "" {
		cfg.Tool = defaultTool
	}
	if cfg.Sort == "" {
		cfg.Sort = defaultSort
	}

	limit := rate.Limit(cfg.RequestsPerSecond)
	switch {
	case cfg.RequestsPerSecond == 0:
		limit = defaultRequestsPerSecond
	case cfg.RequestsPerSecond < 0:
		limit = rate.Inf
	}
	return &Client{http: httpClient, cfg: cfg, limiter: rate.NewLimiter(limit, 1)}
}

// do waits for a request slot and sends req.
func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for request slot: %w", err)
	}
	resp, err := httputil.Do(ctx, c.http, req, c.cfg.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("%w: %s request: %w", ErrSourceUnavailable, path.Base(req.URL.Path), err)
	}
	return resp, nil
}

// DateQuery returns a closed publication-date interval term. The dates are
// inserted verbatim, so "2023/11/01" and "2023/11/30" give
// "(2023/11/01[Date - Publication] : 2023/11/30[Date - Publication])".
func DateQuery(start, end string) string {
	return fmt.Sprintf("(%s[Date - Publication] : %s[Date - Publication])", start, end)
}

// contactParams returns the parameters every request carries.
func (c *Client) contactParams() url.Values {
	v := url.Values{
		"db":      {c.cfg.Database},
		"retmode": {"xml"},
		"tool":    {c.cfg.Tool},
	}
	if c.cfg.Email != "" {
		v.Set("email", c.cfg.Email)
	}
	return v
}

// Search runs esearch for term and returns at most maxResults identifiers
// in source (relevance) order. Repeated identifiers keep their first
// position.
func (c *Client) Search(ctx context.Context, term string, maxResults int) ([]string, error) {
	if maxResults <= 0 {
		return nil, fmt.Errorf("max results must be positive, got %d", maxResults)
	}
	if strings.TrimSpace(term) == "" {
		return nil, fmt.Errorf("empty search term")
	}

	params := c.contactParams()
	params.Set("term", term)
	params.Set("sort", c.cfg.Sort)
	params.Set("retmax", strconv.Itoa(maxResults))

	req, err := http.NewRequest(http.MethodGet, c.cfg.BaseURL+"/esearch.fcgi?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var sr esearchResult
	if err := xml.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("%w: parsing esearch response: %w", ErrSourceUnavailable, err)
	}
	if msg := strings.TrimSpace(sr.Error); msg != "" {
		return nil, fmt.Errorf("%w: esearch: %s", ErrSourceUnavailable, msg)
	}

	seen := make(map[string]bool, len(sr.IDs))
	ids := make([]string, 0, len(sr.IDs))
	for _, id := range sr.IDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
		if len(ids) == maxResults {
			break
		}
	}
	return ids, nil
}

// Fetch runs efetch for ids and returns one RawRecord per PubmedArticle in
// the response. Order follows the response, which need not match ids. The
// identifier list is sent as a form body so large batches stay within URL
// limits.
func (c *Client) Fetch(ctx context.Context, ids []string) ([]*types.RawRecord, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("no identifiers to fetch")
	}

	form := c.contactParams()
	form.Set("id", strings.Join(ids, ","))

	req, err := http.NewRequest(http.MethodPost, c.cfg.BaseURL+"/efetch.fcgi", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	records, err := ParseArticleSet(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing efetch response: %w", ErrSourceUnavailable, err)
	}
	return records, nil
}

// esearch XML structure. Only the fields the client reads are declared.
type esearchResult struct {
	Count string   `xml:"Count"`
	IDs   []string `xml:"IdList>Id"`
	Error string   `xml:"ERROR"`
}
