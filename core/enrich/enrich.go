// core/enrich/enrich.go
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// DefaultBaseURL is the public Enrichr endpoint.
const DefaultBaseURL = "https://maayanlab.cloud/Enrichr"

// DefaultDatabases are the gene-set libraries queried for the mouse heart
// analysis.
var DefaultDatabases = []string{
	"Mouse_Gene_Atlas",
	"WikiPathways_2019_Mouse",
	"KEGG_2019_Mouse",
}

// DefaultTopN is how many terms per database are kept for reporting.
const DefaultTopN = 5

// Result is one enriched term from one gene-set database, ranked by
// adjusted p-value. Ephemeral: fetched per query, never persisted by the
// client itself.
type Result struct {
	Database      string   `json:"database"`
	Term          string   `json:"term"`
	PValue        float64  `json:"p_value"`
	AdjPValue     float64  `json:"adj_p_value"`
	CombinedScore float64  `json:"combined_score"`
	Overlap       []string `json:"overlap"`
}

// DBResult carries the per-database outcome. A database that failed after
// the retry has Err set and no Results; the other databases still report.
type DBResult struct {
	Database string
	Results  []Result
	Err      error
}

// Client queries an Enrichr-protocol enrichment service. The zero timeout
// defaults to 30s. BaseURL is configurable so tests can point the client
// at a local stand-in.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient builds a client with the given base URL ("" means the public
// service) and request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Query submits the gene list once, then fetches enrichment against each
// database, keeping the topN terms by ascending adjusted p-value. An
// empty gene list or a list submission that fails after one retry is an
// explicit error. Individual database failures are recorded in the
// returned DBResult and do not abort the remaining databases.
func (c *Client) Query(ctx context.Context, genes, databases []string, topN int) ([]DBResult, error) {
	if len(genes) == 0 {
		return nil, fmt.Errorf("enrich: empty gene list")
	}
	if len(databases) == 0 {
		databases = DefaultDatabases
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	listID, err := c.addList(ctx, genes)
	if err != nil {
		return nil, fmt.Errorf("enrich: submit gene list: %w", err)
	}

	out := make([]DBResult, 0, len(databases))
	for _, db := range databases {
		res, err := c.enrich(ctx, listID, db, topN)
		out = append(out, DBResult{Database: db, Results: res, Err: err})
	}
	return out, nil
}

// addList POSTs the gene list as multipart form data and returns the
// server-assigned user list ID.
func (c *Client) addList(ctx context.Context, genes []string) (int64, error) {
	build := func() (*http.Request, error) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		if err := mw.WriteField("list", strings.Join(genes, "\n")); err != nil {
			return nil, err
		}
		if err := mw.WriteField("description", "scell marker genes"); err != nil {
			return nil, err
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/addList", bytes.NewReader(body.Bytes()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req, nil
	}

	data, err := c.doWithRetry(build)
	if err != nil {
		return 0, err
	}
	var resp struct {
		UserListID int64 `json:"userListId"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, fmt.Errorf("decode addList response: %w", err)
	}
	if resp.UserListID == 0 {
		return 0, fmt.Errorf("addList response carries no userListId")
	}
	return resp.UserListID, nil
}

// enrich fetches one database's term list for a submitted gene list.
func (c *Client) enrich(ctx context.Context, listID int64, database string, topN int) ([]Result, error) {
	build := func() (*http.Request, error) {
		q := url.Values{}
		q.Set("userListId", fmt.Sprint(listID))
		q.Set("backgroundType", database)
		return http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/enrich?"+q.Encode(), nil)
	}

	data, err := c.doWithRetry(build)
	if err != nil {
		return nil, fmt.Errorf("enrich %s: %w", database, err)
	}
	rows, err := parseEnrichment(data, database)
	if err != nil {
		return nil, fmt.Errorf("enrich %s: %w", database, err)
	}
	sort.SliceStable(rows, func(a, b int) bool { return rows[a].AdjPValue < rows[b].AdjPValue })
	if len(rows) > topN {
		rows = rows[:topN]
	}
	return rows, nil
}

// doWithRetry performs the request with exactly one retry on transient
// failure (transport error or 5xx). Non-5xx HTTP errors are permanent.
func (c *Client) doWithRetry(build func() (*http.Request, error)) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		req, err := build()
		if err != nil {
			return nil, err
		}
		resp, err := c.HTTP.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %s", resp.Status)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %s", resp.Status)
		}
		return body, nil
	}
	return nil, fmt.Errorf("request failed after retry: %w", lastErr)
}
