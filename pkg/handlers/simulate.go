package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kacperjurak/goocclusion/internal/utils"
	"github.com/kacperjurak/goocclusion/pkg/models"
)

// SimulateHandler handles single load simulation requests
type SimulateHandler struct {
	axis      Axis
	processor Processor
	logger    *zap.Logger
}

// NewSimulateHandler creates a new simulate handler
func NewSimulateHandler(axis Axis, processor Processor, logger *zap.Logger) *SimulateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimulateHandler{axis: axis, processor: processor, logger: logger}
}

// ServeHTTP implements the http.Handler interface
func (h *SimulateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setupCORS(w, "POST, OPTIONS")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	load, err := h.axis.Load(req.ImpedanceData)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	requestID := utils.GenerateID()
	h.logger.Info("simulation request received",
		zap.String("request_id", requestID),
		zap.String("label", req.Label),
		zap.Int("points", len(req.ImpedanceData.Frequencies)))

	res := h.processor.SimulateLoad(r.Context(), models.WorkItem{
		RequestID: requestID,
		Label:     req.Label,
		Load:      load,
		StartTime: time.Now(),
	})
	resp := toResponse(requestID, res)
	if res.Err != nil {
		h.logger.Warn("simulation failed", zap.String("request_id", requestID), zap.Error(res.Err))
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
