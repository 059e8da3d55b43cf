package handlers

import (
	"net/http"

	"github.com/wonny/momentum/backend/internal/scheduler"
)

// JobStatsProvider exposes scheduler statistics
type JobStatsProvider interface {
	GetJobStats() map[string]scheduler.JobStats
}

// SchedulerHandler serves scheduled job statistics
type SchedulerHandler struct {
	stats JobStatsProvider
}

// NewSchedulerHandler creates a scheduler handler
func NewSchedulerHandler(stats JobStatsProvider) *SchedulerHandler {
	return &SchedulerHandler{stats: stats}
}

// GetJobs returns per-job statistics
// GET /api/scheduler/jobs
func (h *SchedulerHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.stats.GetJobStats())
}
