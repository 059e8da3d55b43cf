package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/wonny/momentum/backend/internal/brain"
	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/internal/execution"
	"github.com/wonny/momentum/backend/pkg/logger"
)

// Runner executes one rebalance run (brain.Orchestrator)
type Runner interface {
	Run(ctx context.Context, cfg brain.RunConfig) (*brain.RunResult, error)
}

// RunHandler triggers rebalance runs in the background
// 진행 상황은 /ws/events 로 전달
type RunHandler struct {
	runner       Runner
	allowExecute bool
	logger       *logger.Logger

	mu      sync.Mutex
	active  bool
	baseCtx context.Context
}

// NewRunHandler creates a run handler
// allowExecute=false 이면 dry-run 요청만 허용
func NewRunHandler(ctx context.Context, runner Runner, allowExecute bool, log *logger.Logger) *RunHandler {
	return &RunHandler{
		runner:       runner,
		allowExecute: allowExecute,
		logger:       log,
		baseCtx:      ctx,
	}
}

// AllowExecute reports whether dry_run=false requests are accepted
func (h *RunHandler) AllowExecute() bool {
	return h.allowExecute
}

// RunRequest is the body of POST /api/runs
type RunRequest struct {
	Strategies []string `json:"strategies"`
	Timeframes []string `json:"timeframes"`
	Force      bool     `json:"force"`
	DryRun     *bool    `json:"dry_run"` // 생략 시 true
}

// RunAccepted is returned when a run was started
type RunAccepted struct {
	RunID  string `json:"run_id"`
	DryRun bool   `json:"dry_run"`
}

// TriggerRun starts a run and returns immediately
// POST /api/runs
func (h *RunHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	cfg := brain.RunConfig{
		RunID:     uuid.NewString(),
		Force:     req.Force,
		DryRun:    req.DryRun == nil || *req.DryRun,
		Confirmer: execution.AutoConfirmer{},
	}
	if !cfg.DryRun && !h.allowExecute {
		respondError(w, http.StatusForbidden, "Execution is disabled on this server (dry_run only)")
		return
	}
	for _, s := range req.Strategies {
		name, err := contracts.ParseStrategy(s)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		cfg.Strategies = append(cfg.Strategies, name)
	}
	for _, s := range req.Timeframes {
		tf, err := contracts.ParseTimeframe(s)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		cfg.Timeframes = append(cfg.Timeframes, tf)
	}

	h.mu.Lock()
	if h.active {
		h.mu.Unlock()
		respondError(w, http.StatusConflict, brain.ErrRunInProgress.Error())
		return
	}
	h.active = true
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			h.active = false
			h.mu.Unlock()
		}()

		log := h.logger.WithField("run_id", cfg.RunID)
		result, err := h.runner.Run(h.baseCtx, cfg)
		switch {
		case errors.Is(err, brain.ErrRunInProgress):
			log.Warn("Triggered run rejected, another run in progress")
		case err != nil:
			log.WithError(err).Error("Triggered run failed")
		default:
			log.WithField("cycles", len(result.Cycles)).Info("Triggered run finished")
		}
	}()

	respondJSON(w, http.StatusAccepted, RunAccepted{RunID: cfg.RunID, DryRun: cfg.DryRun})
}
