package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kacperjurak/goocclusion"
	"github.com/kacperjurak/goocclusion/internal/utils"
	"github.com/kacperjurak/goocclusion/pkg/models"
	"github.com/kacperjurak/goocclusion/pkg/worker"
)

// FigureQueue accepts figures for asynchronous delivery.
type FigureQueue interface {
	Enqueue(fig models.Figure) bool
}

// BatchHandler handles campaign simulation requests on the worker pool
type BatchHandler struct {
	axis   Axis
	pool   *worker.Pool[models.WorkItem, models.WorkResult]
	queue  FigureQueue
	logger *zap.Logger
}

// NewBatchHandler creates a new batch handler. queue may be nil.
func NewBatchHandler(axis Axis, pool *worker.Pool[models.WorkItem, models.WorkResult], queue FigureQueue, logger *zap.Logger) *BatchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchHandler{axis: axis, pool: pool, queue: queue, logger: logger}
}

// ServeHTTP implements the http.Handler interface
func (h *BatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setupCORS(w, "POST, OPTIONS")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var batch models.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeError(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if len(batch.Samples) == 0 {
		writeError(w, "No samples provided in batch", http.StatusBadRequest)
		return
	}
	if batch.BatchID == "" {
		batch.BatchID = utils.NewBatchID()
	}

	start := time.Now()
	items := make([]models.WorkItem, len(batch.Samples))
	for i, sample := range batch.Samples {
		load, err := h.axis.Load(sample.ImpedanceData)
		if err != nil {
			writeError(w, fmt.Sprintf("sample %d: %v", i, err), http.StatusBadRequest)
			return
		}
		items[i] = models.WorkItem{
			ID:        i,
			RequestID: utils.GenerateID(),
			BatchID:   batch.BatchID,
			Label:     sample.Label,
			Load:      load,
			StartTime: time.Now(),
		}
	}

	h.logger.Info("batch processing started",
		zap.String("batch_id", batch.BatchID),
		zap.String("campaign", batch.Campaign),
		zap.Int("samples", len(items)))

	results, err := h.pool.Process(r.Context(), items)
	if err != nil {
		h.logger.Error("batch processing aborted", zap.String("batch_id", batch.BatchID), zap.Error(err))
		writeError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	resp := models.BatchResponse{
		BatchID:   batch.BatchID,
		Campaign:  batch.Campaign,
		Timestamp: time.Now(),
		Samples:   make([]models.SimulateResponse, len(results)),
	}
	var effects []goocclusion.Series
	for i, res := range results {
		resp.Samples[i] = toResponse(res.RequestID, res)
		if res.Err == nil {
			effects = append(effects, res.OcclusionEffect)
		}
	}
	resp.Succeeded = len(effects)

	if len(effects) > 0 {
		mean, std, err := goocclusion.MagnitudeMeanStd(effects)
		if err != nil {
			writeError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		curve := gainCurve(batch.Campaign, mean, std)
		resp.Frequencies = curve.Frequencies
		resp.MeanDB = finite(append([]float64(nil), curve.Magnitude...))
		resp.StdLowerDB = finite(append([]float64(nil), curve.Lower...))
		resp.StdUpperDB = finite(append([]float64(nil), curve.Upper...))

		if h.queue != nil {
			h.queue.Enqueue(models.Figure{
				ID:     batch.BatchID,
				Name:   "batch",
				Title:  "Estimated Occlusion Gain",
				YLabel: "Magnitude in dB",
				Ylim:   [2]float64{-10, 40},
				Curves: []models.Curve{curve},
			})
		}
	}
	resp.TotalTime = time.Since(start).String()

	h.logger.Info("batch processing completed",
		zap.String("batch_id", batch.BatchID),
		zap.Int("succeeded", resp.Succeeded),
		zap.Int("samples", len(results)),
		zap.Duration("total_time", time.Since(start)))

	writeJSON(w, http.StatusOK, resp)
}

// gainCurve is the mean occlusion gain of a batch with its ±std band in dB.
func gainCurve(campaign string, mean, std goocclusion.Series) models.Curve {
	m, sd := mean.Magnitudes(), std.Magnitudes()
	c := models.Curve{
		Label:       "Mean (bold) and std (shade) of " + campaign,
		Frequencies: mean.Frequencies(),
		Magnitude:   make([]float64, len(m)),
		Lower:       make([]float64, len(m)),
		Upper:       make([]float64, len(m)),
	}
	for i := range m {
		c.Magnitude[i] = goocclusion.ToDB(m[i])
		c.Lower[i] = goocclusion.ToDB(m[i] - sd[i])
		c.Upper[i] = goocclusion.ToDB(m[i] + sd[i])
	}
	return c
}
