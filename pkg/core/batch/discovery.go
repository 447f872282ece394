// Package batch drives the 10-K pipeline over a directory of downloaded
// filings laid out as <root>/<TICKER>/10-K/*.txt.
package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FormDir is the per-ticker folder holding annual reports.
const FormDir = "10-K"

// Input-absent kinds are logged and skipped; the others are reported to the
// caller.
var (
	ErrTickerNotFound      = errors.New("ticker folder not found")
	ErrNo10KDir            = errors.New("no 10-K folder")
	ErrNoFilings           = errors.New("no .txt filings")
	ErrUnreadableFiling    = errors.New("unreadable filing")
	ErrDatabaseUnavailable = errors.New("database unavailable")
)

// IsInputAbsent reports whether err means there was nothing to process.
func IsInputAbsent(err error) bool {
	return errors.Is(err, ErrTickerNotFound) || errors.Is(err, ErrNo10KDir) || errors.Is(err, ErrNoFilings)
}

// DiscoverTickers lists the ticker folders under root that hold at least one
// 10-K filing, sorted by name.
func DiscoverTickers(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read filings root %s: %w", root, err)
	}

	var tickers []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		files, err := ListFilings(root, entry.Name())
		if err != nil || len(files) == 0 {
			continue
		}
		tickers = append(tickers, entry.Name())
	}
	return tickers, nil
}

// ListFilings returns the .txt filings of ticker, sorted by path. Filings
// may sit directly in the 10-K folder or one level down, one folder per
// accession number.
func ListFilings(root, ticker string) ([]string, error) {
	tickerDir := filepath.Join(root, ticker)
	if info, err := os.Stat(tickerDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, tickerDir)
	}

	formDir := filepath.Join(tickerDir, FormDir)
	if info, err := os.Stat(formDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNo10KDir, formDir)
	}

	var files []string
	err := filepath.WalkDir(formDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != formDir && strings.Count(strings.TrimPrefix(path, formDir), string(filepath.Separator)) > 1 {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".txt") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", formDir, err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFilings, formDir)
	}
	sort.Strings(files)
	return files, nil
}
