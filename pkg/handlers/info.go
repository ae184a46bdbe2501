package handlers

import (
	"net/http"

	"github.com/kacperjurak/goocclusion"
)

// HealthHandler reports liveness and the simulation axis.
func HealthHandler(axis Axis, workers int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setupCORS(w, "GET, OPTIONS")
		if r.Method != http.MethodGet {
			writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body := map[string]interface{}{
			"status":  "ok",
			"workers": workers,
			"bins":    len(axis.Frequencies),
		}
		if n := len(axis.Frequencies); n > 0 {
			body["freq_range"] = []float64{axis.Frequencies[0], axis.Frequencies[n-1]}
		}
		writeJSON(w, http.StatusOK, body)
	}
}

// GeometriesHandler lists the simulated earmuff configurations.
func GeometriesHandler(geoms []goocclusion.GeometryConfiguration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setupCORS(w, "GET, OPTIONS")
		if r.Method != http.MethodGet {
			writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, geoms)
	}
}
