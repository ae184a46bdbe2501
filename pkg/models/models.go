package models

import (
	"time"

	"github.com/kacperjurak/goocclusion"
)

// Sample is one measured load impedance of a campaign, keyed by its file name.
type Sample struct {
	Label     string
	Impedance goocclusion.Series
}

// Campaign is a measurement campaign: a folder of load impedances sharing a
// display style.
type Campaign struct {
	Name    string
	Style   goocclusion.Style
	Samples []Sample
}

// OcclusionDataset is a published occlusion effect curve used for comparison.
type OcclusionDataset struct {
	Name  string
	Style goocclusion.Style
	Mean  goocclusion.Series
	Std   goocclusion.Series
}

// Curve is one line of a figure. Lower and Upper, when set, describe a shaded
// band around it.
type Curve struct {
	Label       string    `json:"label"`
	Color       string    `json:"color"`
	LineStyle   string    `json:"linestyle"`
	Frequencies []float64 `json:"frequencies"`
	Magnitude   []float64 `json:"magnitude_db"`
	Lower       []float64 `json:"lower_db,omitempty"`
	Upper       []float64 `json:"upper_db,omitempty"`
	// Anonymous curves are drawn but not listed in the legend.
	Anonymous bool `json:"anonymous,omitempty"`
}

// LegendEntry is an extra legend item without a curve of its own.
type LegendEntry struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Figure is the renderable description of one plot.
type Figure struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Title   string        `json:"title"`
	YLabel  string        `json:"ylabel"`
	Ylim    [2]float64    `json:"ylim"`
	Legend  string        `json:"legend"`
	Curves  []Curve       `json:"curves"`
	Patches []LegendEntry `json:"patches,omitempty"`
	Time    string        `json:"time,omitempty"`
}

// ImpedanceData is a complex spectrum on the wire. Every impedance point
// carries "real" and "imag" keys.
type ImpedanceData struct {
	Frequencies []float64            `json:"frequencies"`
	Impedance   []map[string]float64 `json:"impedance"`
}

// SimulateRequest asks for the canal transfer function of one measured load.
type SimulateRequest struct {
	Label         string        `json:"label"`
	ImpedanceData ImpedanceData `json:"impedance_data"`
}

// SimulateResponse carries the canal transfer function and the occlusion
// effect of one load, both in dB.
type SimulateResponse struct {
	ID                string    `json:"id"`
	Label             string    `json:"label"`
	Frequencies       []float64 `json:"frequencies"`
	TransferDB        []float64 `json:"transfer_db"`
	TransferPhase     []float64 `json:"transfer_phase"`
	OcclusionEffectDB []float64 `json:"occlusion_effect_db"`
	ProcessingTime    string    `json:"processing_time"`
	Error             string    `json:"error,omitempty"`
}

// BatchRequest is a campaign of loads simulated together.
type BatchRequest struct {
	BatchID  string            `json:"batch_id"`
	Campaign string            `json:"campaign"`
	Samples  []SimulateRequest `json:"samples"`
}

// BatchResponse holds the per-sample results and the mean and standard
// deviation of the occlusion gain across the successful ones.
type BatchResponse struct {
	BatchID     string             `json:"batch_id"`
	Campaign    string             `json:"campaign"`
	Timestamp   time.Time          `json:"timestamp"`
	Samples     []SimulateResponse `json:"samples"`
	Frequencies []float64          `json:"frequencies"`
	MeanDB      []float64          `json:"mean_db"`
	StdLowerDB  []float64          `json:"std_lower_db"`
	StdUpperDB  []float64          `json:"std_upper_db"`
	Succeeded   int                `json:"succeeded"`
	TotalTime   string             `json:"total_time"`
}

// WorkItem is a single load handed to the worker pool.
type WorkItem struct {
	ID        int
	RequestID string
	BatchID   string
	Label     string
	Load      goocclusion.Series
	StartTime time.Time
}

// WorkResult is the outcome of a WorkItem.
type WorkResult struct {
	ID              int
	RequestID       string
	BatchID         string
	Label           string
	Transfer        goocclusion.Series
	OcclusionEffect goocclusion.Series
	ProcessingTime  time.Duration
	Err             error
}
