package universe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/pkg/httputil"
	"github.com/wonny/momentum/backend/pkg/logger"
)

func TestReadCSV(t *testing.T) {
	input := "Ticker,Sector,Name\n" +
		" aapl ,Information Technology,Apple\n" +
		"MSFT,Information Technology,Microsoft\n" +
		"AAPL,Duplicate,Apple\n" +
		"brk.b, Financials ,Berkshire\n" +
		",Empty,Nobody\n"

	entries, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, "AAPL", entries[0].Ticker)
	assert.Equal(t, "Information Technology", entries[0].Sector)
	assert.Equal(t, "MSFT", entries[1].Ticker)
	assert.Equal(t, "BRK-B", entries[2].Ticker)
	assert.Equal(t, "Financials", entries[2].Sector)
	assert.Nil(t, entries[0].MarketCap)
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Symbol,Sector\nAAPL,Tech\n"))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestWriteAndLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "universe.csv")
	in := []contracts.UniverseEntry{
		{Ticker: "AAPL", Sector: "Information Technology"},
		{Ticker: "JPM", Sector: "Financials"},
	}
	require.NoError(t, WriteCSV(path, in))

	out, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	// 임시 파일 정리 확인
	files, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

const constituentsHTML = `
<html><body>
<table class="nav"><tr><th>Menu</th></tr><tr><td>x</td></tr></table>
<table class="wikitable" id="constituents">
<tr><th>Symbol</th><th>Security</th><th>GICS Sector</th><th>GICS Sub-Industry</th></tr>
<tr><td><a href="#">MMM</a></td><td>3M</td><td>Industrials</td><td>Conglomerates</td></tr>
<tr><td>BRK.B</td><td>Berkshire Hathaway</td><td>Financials</td><td>Insurance</td></tr>
<tr><td>AAPL</td><td>Apple Inc.</td><td>Information Technology</td><td>Hardware</td></tr>
</table>
<table class="wikitable" id="changes">
<tr><th>Date</th><th>Ticker</th><th>Sector</th></tr>
<tr><td>2024</td><td>OLD</td><td>Energy</td></tr>
</table>
</body></html>`

func TestParseConstituents(t *testing.T) {
	entries, err := ParseConstituents(strings.NewReader(constituentsHTML))
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, contracts.UniverseEntry{Ticker: "MMM", Sector: "Industrials"}, entries[0])
	assert.Equal(t, "BRK-B", entries[1].Ticker)
	assert.Equal(t, "Information Technology", entries[2].Sector)
}

func TestParseConstituents_NoTable(t *testing.T) {
	_, err := ParseConstituents(strings.NewReader("<html><body><p>nothing</p></body></html>"))
	assert.Error(t, err)
}

func TestScraper_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(constituentsHTML))
	}))
	defer server.Close()

	s := NewScraper(httputil.New(logger.NewNop()).DisableRetry(), logger.NewNop())
	entries, err := s.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestScraper_FetchNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	s := NewScraper(httputil.New(logger.NewNop()).DisableRetry(), logger.NewNop())
	_, err := s.Fetch(context.Background(), server.URL)
	assert.Error(t, err)
}
