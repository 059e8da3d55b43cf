package universe

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wonny/momentum/backend/internal/contracts"
)

// CSV column headers
const (
	ColumnTicker = "Ticker"
	ColumnSector = "Sector"
)

// LoadCSV reads the static universe list (Ticker, Sector)
// ⭐ SSOT: 섹터의 유일한 출처
// 티커는 대문자/공백 제거 후 최초 등장 순서로 중복 제거
func LoadCSV(path string) ([]contracts.UniverseEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open universe csv: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses universe rows from r
func ReadCSV(r io.Reader) ([]contracts.UniverseEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("universe csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	tickerIdx, sectorIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case ColumnTicker:
			tickerIdx = i
		case ColumnSector:
			sectorIdx = i
		}
	}
	if tickerIdx < 0 || sectorIdx < 0 {
		return nil, fmt.Errorf("universe csv must have %s and %s columns, got %v", ColumnTicker, ColumnSector, header)
	}

	seen := make(map[string]bool)
	var entries []contracts.UniverseEntry
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if tickerIdx >= len(row) {
			continue
		}

		ticker := NormalizeTicker(row[tickerIdx])
		if ticker == "" || seen[ticker] {
			continue
		}
		seen[ticker] = true

		sector := ""
		if sectorIdx < len(row) {
			sector = strings.TrimSpace(row[sectorIdx])
		}
		entries = append(entries, contracts.UniverseEntry{Ticker: ticker, Sector: sector})
	}

	return entries, nil
}

// WriteCSV writes entries as a universe list
// 임시 파일에 쓴 뒤 rename (중간 실패 시 기존 파일 유지)
func WriteCSV(path string, entries []contracts.UniverseEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create universe dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".universe-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	_ = w.Write([]string{ColumnTicker, ColumnSector})
	for _, e := range entries {
		_ = w.Write([]string{e.Ticker, e.Sector})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("write universe csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	return os.Rename(tmp.Name(), path)
}

// NormalizeTicker upper-cases and converts class-share dots to Yahoo form (BRK.B → BRK-B)
func NormalizeTicker(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.ReplaceAll(s, ".", "-")
}
