package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	"gonum.org/v1/gonum/floats"

	"github.com/kacperjurak/goocclusion"
	"github.com/kacperjurak/goocclusion/pkg/models"
)

// Processor simulates a single measured load.
type Processor interface {
	SimulateLoad(ctx context.Context, item models.WorkItem) models.WorkResult
}

// Axis describes how request impedances are brought onto the simulation
// axis: masked to its range, resampled and divided by the canal area.
type Axis struct {
	Frequencies []float64
	Area        float64
}

var errBadImpedance = errors.New("invalid impedance data")

// Load converts wire impedance data to a series on the axis.
func (a Axis) Load(data models.ImpedanceData) (goocclusion.Series, error) {
	if len(data.Frequencies) == 0 {
		return goocclusion.Series{}, fmt.Errorf("%w: no data points provided", errBadImpedance)
	}
	if len(data.Frequencies) != len(data.Impedance) {
		return goocclusion.Series{}, fmt.Errorf("%w: %d frequencies but %d impedance points",
			errBadImpedance, len(data.Frequencies), len(data.Impedance))
	}
	values := make([]complex128, len(data.Impedance))
	for i, point := range data.Impedance {
		re, reOk := point["real"]
		im, imOk := point["imag"]
		if !reOk || !imOk {
			return goocclusion.Series{}, fmt.Errorf("%w: point %d needs real and imag", errBadImpedance, i)
		}
		if math.IsNaN(re) || math.IsInf(re, 0) || math.IsNaN(im) || math.IsInf(im, 0) {
			return goocclusion.Series{}, fmt.Errorf("%w: point %d is not finite", errBadImpedance, i)
		}
		values[i] = complex(re, im)
	}

	s, err := goocclusion.NewSeries(data.Frequencies, values)
	if err != nil {
		return goocclusion.Series{}, fmt.Errorf("%w: %v", errBadImpedance, err)
	}
	if n := len(a.Frequencies); n > 0 {
		s = s.Mask(a.Frequencies[0], a.Frequencies[n-1])
		if s.Len() == 0 {
			return goocclusion.Series{}, fmt.Errorf("%w: no points within %g-%g Hz",
				errBadImpedance, a.Frequencies[0], a.Frequencies[n-1])
		}
		if !floats.Equal(s.Frequencies(), a.Frequencies) {
			if s, err = s.Resample(a.Frequencies); err != nil {
				return goocclusion.Series{}, fmt.Errorf("%w: %v", errBadImpedance, err)
			}
		}
	}
	if a.Area > 0 {
		s = s.Scale(complex(1/a.Area, 0))
	}
	return s, nil
}

// finite replaces NaN and infinities, which JSON cannot carry, with zero.
func finite(xs []float64) []float64 {
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			xs[i] = 0
		}
	}
	return xs
}

func toResponse(id string, res models.WorkResult) models.SimulateResponse {
	resp := models.SimulateResponse{
		ID:             id,
		Label:          res.Label,
		ProcessingTime: res.ProcessingTime.String(),
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
		return resp
	}
	resp.Frequencies = res.Transfer.Frequencies()
	resp.TransferDB = finite(res.Transfer.DB())
	resp.TransferPhase = finite(res.Transfer.Phases())
	resp.OcclusionEffectDB = finite(res.OcclusionEffect.DB())
	return resp
}

// setupCORS sets up CORS headers
func setupCORS(w http.ResponseWriter, methods string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
