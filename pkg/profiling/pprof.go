package profiling

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/pprof"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"go.uber.org/zap"
)

// Profiler serves pprof endpoints on a separate port.
type Profiler struct {
	port   string
	logger *zap.Logger
	server *http.Server
	start  time.Time
}

// New creates a profiler on port. An empty port disables it.
func New(port string, logger *zap.Logger) *Profiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiler{port: port, logger: logger}
}

// Enabled reports whether a port was configured.
func (p *Profiler) Enabled() bool { return p.port != "" }

// Routes returns the debug mux.
func (p *Profiler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.HandleFunc("/debug/stats", p.statsHandler)
	return mux
}

// Start serves the debug routes in the background.
func (p *Profiler) Start() {
	if !p.Enabled() {
		p.logger.Debug("profiling disabled")
		return
	}
	runtime.SetBlockProfileRate(1)
	runtime.SetMutexProfileFraction(1)

	p.start = time.Now()
	p.server = &http.Server{
		Addr:              ":" + p.port,
		Handler:           p.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	p.logger.Info("starting profiling server", zap.String("port", p.port))
	go func() {
		if err := p.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error("profiling server error", zap.Error(err))
		}
	}()
}

// Stop shuts the debug server down.
func (p *Profiler) Stop(ctx context.Context) error {
	if p.server == nil {
		return nil
	}
	return p.server.Shutdown(ctx)
}

func (p *Profiler) statsHandler(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := map[string]interface{}{
		"goroutines":     runtime.NumGoroutine(),
		"heap_alloc_mb":  bToMb(m.HeapAlloc),
		"heap_sys_mb":    bToMb(m.HeapSys),
		"total_alloc_mb": bToMb(m.TotalAlloc),
		"num_gc":         m.NumGC,
		"gc_pause_ms":    float64(m.PauseTotalNs) / 1e6,
	}
	if !p.start.IsZero() {
		stats["uptime"] = time.Since(p.start).String()
	}
	// Host figures are best effort; a failing probe leaves its key out.
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		stats["host_cpu_percent"] = pct[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		stats["host_memory_percent"] = vm.UsedPercent
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func bToMb(b uint64) float64 {
	return float64(b) / 1024 / 1024
}
