package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/internal/portfolio"
	"github.com/wonny/momentum/backend/pkg/logger"
)

// PortfolioHandler serves persisted portfolio state and cycle history (read-only)
// ⭐ SSOT: 포트폴리오 조회 API 핸들러는 여기서만
type PortfolioHandler struct {
	states *portfolio.StateStore
	runs   contracts.RunRepository
	logger *logger.Logger
}

// NewPortfolioHandler creates a new portfolio handler; runs may be nil
func NewPortfolioHandler(states *portfolio.StateStore, runs contracts.RunRepository, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		states: states,
		runs:   runs,
		logger: log,
	}
}

// PositionItem is one held position
type PositionItem struct {
	Ticker   string `json:"ticker"`
	Quantity int    `json:"quantity"`
	Side     string `json:"side"` // LONG | SHORT
}

// PortfolioResponse is the state of one (strategy, timeframe) book
type PortfolioResponse struct {
	Strategy  contracts.StrategyName `json:"strategy"`
	Timeframe contracts.Timeframe    `json:"timeframe"`
	Cash      float64                `json:"cash"`
	Positions []PositionItem         `json:"positions"`
}

// ListPortfolios returns every saved state file summary
// GET /api/portfolios
func (h *PortfolioHandler) ListPortfolios(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.states.List()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list portfolio states")
		respondError(w, http.StatusInternalServerError, "Failed to list portfolios")
		return
	}
	respondJSON(w, http.StatusOK, summaries)
}

// GetPortfolio returns cash and positions of one book
// GET /api/portfolios/{strategy}/{timeframe}
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	strategy, err := contracts.ParseStrategy(vars["strategy"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	tf, err := contracts.ParseTimeframe(vars["timeframe"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// 상태 파일이 없으면 Load가 새 장부를 만들므로 먼저 확인
	if _, err := os.Stat(h.states.Path(strategy, tf)); errors.Is(err, fs.ErrNotExist) {
		respondError(w, http.StatusNotFound, "No saved state for "+string(strategy)+" "+string(tf))
		return
	}

	book, err := h.states.Load(strategy, tf, 0)
	if err != nil {
		h.logger.WithError(err).WithField("strategy", strategy).Error("Failed to load portfolio state")
		respondError(w, http.StatusInternalServerError, "Failed to load portfolio")
		return
	}

	resp := PortfolioResponse{
		Strategy:  strategy,
		Timeframe: tf,
		Cash:      book.Cash(),
		Positions: make([]PositionItem, 0),
	}
	for _, ticker := range book.Tickers() {
		qty := book.Quantity(ticker)
		side := "LONG"
		if qty < 0 {
			side = "SHORT"
		}
		resp.Positions = append(resp.Positions, PositionItem{Ticker: ticker, Quantity: qty, Side: side})
	}
	respondJSON(w, http.StatusOK, resp)
}

// LatestRuns returns the newest cycle records
// GET /api/runs/latest?limit=20
func (h *PortfolioHandler) LatestRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondJSON(w, http.StatusOK, []*contracts.CycleRecord{})
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 500 {
			respondError(w, http.StatusBadRequest, "Invalid 'limit' (expected 1-500)")
			return
		}
		limit = n
	}

	runs, err := h.runs.LatestRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load cycle history")
		respondError(w, http.StatusInternalServerError, "Failed to load runs")
		return
	}
	if runs == nil {
		runs = []*contracts.CycleRecord{}
	}
	respondJSON(w, http.StatusOK, runs)
}
