package handlers

import (
	"net/http"

	"github.com/dom/pixelcart/internal/service"
	"github.com/sirupsen/logrus"
)

type StatsHandler struct {
	statsService *service.StatsService
	logger       *logrus.Logger
}

func NewStatsHandler(statsService *service.StatsService, logger *logrus.Logger) *StatsHandler {
	return &StatsHandler{statsService: statsService, logger: logger}
}

func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Get(r.Context())
	if err != nil {
		writeError(w, h.logger, "stats.Get", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
