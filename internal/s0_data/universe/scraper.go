package universe

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/pkg/httputil"
	"github.com/wonny/momentum/backend/pkg/logger"
)

// DefaultSourceURL is the public S&P 500 constituents page
const DefaultSourceURL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// Scraper downloads an HTML constituents table and extracts (ticker, sector)
// ⭐ SSOT: 유니버스 목록 갱신은 이 스크레이퍼에서만
type Scraper struct {
	httpClient *httputil.Client
	logger     *logger.Logger
}

// NewScraper creates a new Scraper
func NewScraper(httpClient *httputil.Client, log *logger.Logger) *Scraper {
	return &Scraper{
		httpClient: httpClient,
		logger:     log.WithField("module", "universe_scraper"),
	}
}

// Fetch downloads sourceURL and parses the first table carrying symbol/sector headers
func (s *Scraper) Fetch(ctx context.Context, sourceURL string) ([]contracts.UniverseEntry, error) {
	if sourceURL == "" {
		sourceURL = DefaultSourceURL
	}

	resp, err := s.httpClient.Get(ctx, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	entries, err := ParseConstituents(resp.Body)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"url":   sourceURL,
		"count": len(entries),
	}).Info("Fetched universe constituents")
	return entries, nil
}

// ParseConstituents finds the symbol and sector columns by header text
// 헤더 예: "Symbol" | "Security" | "GICS Sector" | ...
func ParseConstituents(r io.Reader) ([]contracts.UniverseEntry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var entries []contracts.UniverseEntry
	found := false

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		symbolIdx, sectorIdx := -1, -1
		table.Find("tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
			h := strings.ToLower(strings.TrimSpace(th.Text()))
			switch {
			case symbolIdx < 0 && (h == "symbol" || h == "ticker" || strings.HasPrefix(h, "ticker symbol")):
				symbolIdx = i
			case sectorIdx < 0 && strings.Contains(h, "sector"):
				sectorIdx = i
			}
		})
		if symbolIdx < 0 || sectorIdx < 0 {
			return true
		}

		seen := make(map[string]bool)
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() <= symbolIdx || cells.Length() <= sectorIdx {
				return
			}
			ticker := NormalizeTicker(cells.Eq(symbolIdx).Text())
			if ticker == "" || seen[ticker] {
				return
			}
			seen[ticker] = true
			entries = append(entries, contracts.UniverseEntry{
				Ticker: ticker,
				Sector: strings.TrimSpace(cells.Eq(sectorIdx).Text()),
			})
		})
		found = true
		return false
	})

	if !found {
		return nil, fmt.Errorf("no table with symbol and sector columns")
	}
	return entries, nil
}
