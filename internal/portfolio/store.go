package portfolio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/pkg/logger"
)

const (
	// CashTicker is the reserved row holding the cash balance
	CashTicker = "CASH"

	stateSuffix = "_portfolio_state.csv"
)

// StateStore persists one Position Book per (strategy, timeframe)
// ⭐ SSOT: 포트폴리오 상태 파일 입출력은 여기서만
// 형식: Ticker,Quantity (CASH 행 = 현금, 나머지 = 부호 있는 정수 수량)
type StateStore struct {
	dir    string
	logger *logger.Logger
}

// StateSummary describes one persisted state file
type StateSummary struct {
	Strategy  contracts.StrategyName `json:"strategy"`
	Timeframe contracts.Timeframe    `json:"timeframe"`
	Path      string                 `json:"path"`
	Cash      float64                `json:"cash"`
	Positions map[string]int         `json:"positions"`
}

// NewStateStore creates a store rooted at dir
func NewStateStore(dir string, log *logger.Logger) *StateStore {
	return &StateStore{
		dir:    dir,
		logger: log.WithField("module", "portfolio_state"),
	}
}

// Path returns {dir}/{STRATEGY}_{TIMEFRAME}_portfolio_state.csv
func (s *StateStore) Path(strategy contracts.StrategyName, tf contracts.Timeframe) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s%s", strategy, tf, stateSuffix))
}

// Load reads the book, or returns a fresh book with initialCash if no file exists
// 파일이 손상된 경우 에러 반환 (기존 파일은 그대로 둠)
func (s *StateStore) Load(strategy contracts.StrategyName, tf contracts.Timeframe, initialCash float64) (*Book, error) {
	path := s.Path(strategy, tf)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.WithFields(map[string]interface{}{
			"path":         path,
			"initial_cash": initialCash,
		}).Warn("Portfolio state not found, starting new portfolio")
		return NewBook(initialCash, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open portfolio state: %w", err)
	}
	defer f.Close()

	book, err := ReadState(f)
	if err != nil {
		return nil, fmt.Errorf("read portfolio state %s: %w", path, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"path":      path,
		"cash":      book.Cash(),
		"positions": len(book.positions),
	}).Info("Portfolio state loaded")
	return book, nil
}

// Save writes the book atomically (temp file + fsync + rename)
func (s *StateStore) Save(strategy contracts.StrategyName, tf contracts.Timeframe, book *Book) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	path := s.Path(strategy, tf)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteState(tmp, book); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"path":      path,
		"cash":      book.Cash(),
		"positions": len(book.positions),
	}).Info("Portfolio state saved")
	return nil
}

// List returns every state file in the store directory
func (s *StateStore) List() ([]StateSummary, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+stateSuffix))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	out := make([]StateSummary, 0, len(matches))
	for _, path := range matches {
		strategy, tf, ok := parseStateName(filepath.Base(path))
		if !ok {
			continue
		}
		book, err := s.Load(strategy, tf, 0)
		if err != nil {
			s.logger.WithError(err).WithField("path", path).Warn("Skipping unreadable state")
			continue
		}
		out = append(out, StateSummary{
			Strategy:  strategy,
			Timeframe: tf,
			Path:      path,
			Cash:      book.Cash(),
			Positions: book.Positions(),
		})
	}
	return out, nil
}

// parseStateName splits FROG_IN_PAN_MONTHLY_portfolio_state.csv at the last underscore
func parseStateName(name string) (contracts.StrategyName, contracts.Timeframe, bool) {
	base := strings.TrimSuffix(name, stateSuffix)
	i := strings.LastIndex(base, "_")
	if i <= 0 {
		return "", "", false
	}
	strategy, err := contracts.ParseStrategy(base[:i])
	if err != nil {
		return "", "", false
	}
	tf, err := contracts.ParseTimeframe(base[i+1:])
	if err != nil {
		return "", "", false
	}
	return strategy, tf, true
}

// ReadState parses the two-column state table
func ReadState(r io.Reader) (*Book, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty state file")
	}
	if h := records[0]; len(h) < 2 || strings.TrimSpace(h[0]) != "Ticker" || strings.TrimSpace(h[1]) != "Quantity" {
		return nil, fmt.Errorf("unexpected header %v", records[0])
	}

	book := &Book{positions: make(map[string]int)}
	hasCash := false
	for i, rec := range records[1:] {
		if len(rec) < 2 {
			return nil, fmt.Errorf("row %d: expected 2 columns", i+2)
		}
		ticker := strings.TrimSpace(rec[0])
		value := strings.TrimSpace(rec[1])

		if ticker == CashTicker {
			cash, err := decimal.NewFromString(value)
			if err != nil {
				return nil, fmt.Errorf("row %d: cash %q: %w", i+2, value, err)
			}
			book.cash = cash
			hasCash = true
			continue
		}

		// pandas가 쓴 "10.0" 형식도 허용
		q, err := strconv.ParseFloat(value, 64)
		if err != nil || q != math.Trunc(q) {
			return nil, fmt.Errorf("row %d: quantity %q is not an integer", i+2, value)
		}
		if q != 0 {
			book.positions[ticker] = int(q)
		}
	}
	if !hasCash {
		return nil, fmt.Errorf("missing %s row", CashTicker)
	}
	return book, nil
}

// WriteState writes the CASH row followed by positions sorted by ticker
func WriteState(w io.Writer, book *Book) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"Ticker", "Quantity"},
		{CashTicker, book.cash.String()},
	}
	for _, t := range book.Tickers() {
		rows = append(rows, []string{t, strconv.Itoa(book.positions[t])})
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}
