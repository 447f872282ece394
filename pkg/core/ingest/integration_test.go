//go:build integration

package ingest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run with: SEC_USER_AGENT="name email" go test -tags integration ./pkg/core/ingest/
func TestLiveEDGAR_AppleFilings(t *testing.T) {
	ua := os.Getenv("SEC_USER_AGENT")
	if ua == "" {
		t.Skip("SEC_USER_AGENT not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client := NewEDGARClient(WithUserAgent(ua))
	cik, err := client.LookupCIKByTicker(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "0000320193", cik)

	info, err := client.FetchCompanyInfo(ctx, cik)
	require.NoError(t, err)

	filings := GetFilings(info, []string{FormType}, time.Time{}, time.Time{}, 1)
	require.Len(t, filings, 1)

	r := NewRetriever(client, t.TempDir(), nil)
	body, err := r.fetchSubmission(ctx, filings[0])
	require.NoError(t, err)
	assert.Contains(t, string(body[:min(len(body), 4096)]), "<SEC-HEADER>")
}
