// Package ingest downloads 10-K submissions from SEC EDGAR into the layout
// the batch driver reads: <root>/<TICKER>/10-K/<accession>.txt.
// API Documentation: https://www.sec.gov/developer
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultDataBaseURL = "https://data.sec.gov"
	DefaultWWWBaseURL  = "https://www.sec.gov"

	// SEC asks for a descriptive User-Agent with contact details.
	DefaultUserAgent = "finbot/1.0 (contact@example.com)"

	// SEC fair-access limit is 10 requests per second.
	DefaultRequestsPerSecond = 8
)

// =============================================================================
// SEC EDGAR DATA TYPES
// =============================================================================

// SECCompanyInfo represents the top-level company submission response.
type SECCompanyInfo struct {
	CIK            string     `json:"cik"`
	EntityType     string     `json:"entityType"`
	SIC            string     `json:"sic"`
	SICDescription string     `json:"sicDescription"`
	Name           string     `json:"name"`
	Tickers        []string   `json:"tickers"`
	Exchanges      []string   `json:"exchanges"`
	Filings        SECFilings `json:"filings"`
}

// SECFilings contains recent and older filing lists.
type SECFilings struct {
	Recent SECRecentFilings `json:"recent"`
}

// SECRecentFilings holds arrays of filing attributes (parallel arrays).
type SECRecentFilings struct {
	AccessionNumber []string `json:"accessionNumber"` // e.g., "0000320193-23-000106"
	FilingDate      []string `json:"filingDate"`      // e.g., "2023-11-03"
	ReportDate      []string `json:"reportDate"`      // Fiscal period end
	Form            []string `json:"form"`            // "10-K", "10-Q", "8-K"
	PrimaryDocument []string `json:"primaryDocument"`
}

// Filing is one entry of the submissions list.
type Filing struct {
	CIK             string
	AccessionNumber string
	FilingDate      time.Time
	ReportDate      time.Time
	FormType        string
	PrimaryDocument string
}

// AccessionPath is the accession number without dashes, as used in
// archive URLs.
func (f Filing) AccessionPath() string {
	return strings.ReplaceAll(f.AccessionNumber, "-", "")
}

// =============================================================================
// SEC EDGAR CLIENT
// =============================================================================

// EDGARClient handles SEC EDGAR requests. Every request waits on a shared
// rate limiter.
type EDGARClient struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	userAgent   string
	dataBaseURL string
	wwwBaseURL  string
}

// Option configures an EDGARClient.
type Option func(*EDGARClient)

// WithUserAgent sets the User-Agent sent to SEC.
func WithUserAgent(ua string) Option {
	return func(c *EDGARClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithBaseURLs points the client at other hosts, e.g. an httptest server.
func WithBaseURLs(dataBaseURL, wwwBaseURL string) Option {
	return func(c *EDGARClient) {
		c.dataBaseURL = strings.TrimRight(dataBaseURL, "/")
		c.wwwBaseURL = strings.TrimRight(wwwBaseURL, "/")
	}
}

// WithRateLimit caps requests per second. rps <= 0 disables the limit.
func WithRateLimit(rps float64) Option {
	return func(c *EDGARClient) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithHTTPClient replaces the default 30s-timeout client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *EDGARClient) {
		c.httpClient = hc
	}
}

// NewEDGARClient creates a new SEC EDGAR API client.
func NewEDGARClient(opts ...Option) *EDGARClient {
	c := &EDGARClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:     rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
		userAgent:   DefaultUserAgent,
		dataBaseURL: DefaultDataBaseURL,
		wwwBaseURL:  DefaultWWWBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs a rate-limited GET and returns the body of a 200 response.
func (c *EDGARClient) get(ctx context.Context, url, accept string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("SEC request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// StatusError is a non-200 answer from SEC.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("SEC returned status %d for %s", e.StatusCode, e.URL)
}

// LookupCIKByTicker finds the zero-padded CIK for a ticker symbol using
// SEC's company_tickers.json mapping.
func (c *EDGARClient) LookupCIKByTicker(ctx context.Context, ticker string) (string, error) {
	body, err := c.get(ctx, c.wwwBaseURL+"/files/company_tickers.json", "application/json")
	if err != nil {
		return "", fmt.Errorf("failed to fetch ticker mapping: %w", err)
	}

	// { "0": {"cik_str": 320193, "ticker": "AAPL", "title": "..."}, ... }
	var mapping map[string]struct {
		CIK    int    `json:"cik_str"`
		Ticker string `json:"ticker"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal(body, &mapping); err != nil {
		return "", fmt.Errorf("failed to parse ticker mapping: %w", err)
	}

	ticker = strings.ToUpper(ticker)
	for _, entry := range mapping {
		if entry.Ticker == ticker {
			return fmt.Sprintf("%010d", entry.CIK), nil
		}
	}
	return "", fmt.Errorf("ticker %s not found in SEC database", ticker)
}

// FetchCompanyInfo retrieves company submission data. The CIK is
// zero-padded to 10 digits if needed.
func (c *EDGARClient) FetchCompanyInfo(ctx context.Context, cik string) (*SECCompanyInfo, error) {
	cik = padCIK(cik)

	body, err := c.get(ctx, fmt.Sprintf("%s/submissions/CIK%s.json", c.dataBaseURL, cik), "application/json")
	if err != nil {
		return nil, err
	}

	var info SECCompanyInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse SEC response: %w", err)
	}
	if info.CIK == "" {
		info.CIK = cik
	}
	return &info, nil
}

// GetFilings returns filings of the given forms filed within [from, to].
// Zero times leave that side open; limit <= 0 means no limit.
func GetFilings(info *SECCompanyInfo, formTypes []string, from, to time.Time, limit int) []Filing {
	recent := info.Filings.Recent
	filings := make([]Filing, 0)

	formTypeSet := make(map[string]bool)
	for _, ft := range formTypes {
		formTypeSet[ft] = true
	}

	for i := range recent.AccessionNumber {
		if i >= len(recent.Form) || i >= len(recent.FilingDate) {
			break
		}
		if len(formTypes) > 0 && !formTypeSet[recent.Form[i]] {
			continue
		}

		filingDate, _ := time.Parse("2006-01-02", recent.FilingDate[i])
		if !from.IsZero() && filingDate.Before(from) {
			continue
		}
		if !to.IsZero() && filingDate.After(to) {
			continue
		}

		f := Filing{
			CIK:             strings.TrimLeft(info.CIK, "0"),
			AccessionNumber: recent.AccessionNumber[i],
			FilingDate:      filingDate,
			FormType:        recent.Form[i],
		}
		if i < len(recent.ReportDate) {
			f.ReportDate, _ = time.Parse("2006-01-02", recent.ReportDate[i])
		}
		if i < len(recent.PrimaryDocument) {
			f.PrimaryDocument = recent.PrimaryDocument[i]
		}
		filings = append(filings, f)

		if limit > 0 && len(filings) >= limit {
			break
		}
	}

	return filings
}

// archiveURL is the folder holding every document of a filing.
func (c *EDGARClient) archiveURL(f Filing) string {
	return fmt.Sprintf("%s/Archives/edgar/data/%s/%s", c.wwwBaseURL, f.CIK, f.AccessionPath())
}

// padCIK zero-pads a CIK to the 10 digits used by the submissions API.
func padCIK(cik string) string {
	cik = strings.TrimLeft(strings.TrimSpace(cik), "0")
	if len(cik) >= 10 {
		return cik
	}
	return strings.Repeat("0", 10-len(cik)) + cik
}
