package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// FormType is the only form the retriever downloads.
const FormType = "10-K"

// Retriever downloads complete submission text files for tickers.
type Retriever struct {
	client *EDGARClient
	root   string
	logger *slog.Logger
}

// NewRetriever writes under root. A nil logger means slog.Default().
func NewRetriever(client *EDGARClient, root string, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{client: client, root: root, logger: logger}
}

// Download fetches every 10-K of ticker filed within [from, to] into
// <root>/<TICKER>/10-K/<accession>.txt and returns the paths written.
// Filings already on disk are left alone.
func (r *Retriever) Download(ctx context.Context, ticker string, from, to time.Time) ([]string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	logger := r.logger.With("ticker", ticker)

	cik, err := r.client.LookupCIKByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}

	info, err := r.client.FetchCompanyInfo(ctx, cik)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submissions for %s: %w", ticker, err)
	}

	filings := GetFilings(info, []string{FormType}, from, to, 0)
	logger.Info("found filings", "cik", cik, "count", len(filings))

	dir := filepath.Join(r.root, ticker, FormType)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	var written []string
	for _, f := range filings {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		dest := filepath.Join(dir, f.AccessionNumber+".txt")
		if _, err := os.Stat(dest); err == nil {
			logger.Debug("already downloaded", "accession", f.AccessionNumber)
			continue
		}

		body, err := r.fetchSubmission(ctx, f)
		if err != nil {
			logger.Error("failed to download filing", "accession", f.AccessionNumber, "error", err)
			continue
		}
		if err := writeFileAtomic(dest, body); err != nil {
			return written, err
		}

		logger.Info("downloaded filing", "accession", f.AccessionNumber, "bytes", len(body))
		written = append(written, dest)
	}
	return written, nil
}

// fetchSubmission downloads the complete submission text of f. The link is
// read from the filing index page; the conventional <accession>.txt name is
// the fallback.
func (r *Retriever) fetchSubmission(ctx context.Context, f Filing) ([]byte, error) {
	url := r.client.archiveURL(f) + "/" + f.AccessionNumber + ".txt"

	index, err := r.client.get(ctx, r.client.archiveURL(f)+"/"+f.AccessionNumber+"-index.htm", "text/html")
	switch {
	case err == nil:
		if link, err := CompleteSubmissionLink(index); err == nil {
			url = r.client.resolve(link)
		} else {
			r.logger.Debug("no submission link in index page", "accession", f.AccessionNumber, "error", err)
		}
	case isNotFound(err):
	default:
		return nil, err
	}

	return r.client.get(ctx, url, "")
}

// CompleteSubmissionLink returns the href of the "Complete submission text
// file" row of an EDGAR filing index page.
func CompleteSubmissionLink(indexHTML []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(indexHTML))
	if err != nil {
		return "", fmt.Errorf("failed to parse index page: %w", err)
	}

	var link string
	doc.Find("table.tableFile tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return true
		}
		desc := strings.TrimSpace(cells.Eq(1).Text())
		if !strings.EqualFold(desc, "Complete submission text file") {
			return true
		}
		href, ok := cells.Eq(2).Find("a").Attr("href")
		if ok && strings.HasSuffix(strings.ToLower(href), ".txt") {
			link = href
			return false
		}
		return true
	})

	if link == "" {
		return "", errors.New("complete submission link not found")
	}
	return link, nil
}

// resolve turns a site-relative href into an absolute URL.
func (c *EDGARClient) resolve(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return c.wwwBaseURL + "/" + strings.TrimLeft(href, "/")
}

func isNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}
