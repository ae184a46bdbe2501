package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	"github.com/kacperjurak/goocclusion"
	"github.com/kacperjurak/goocclusion/pkg/config"
	"github.com/kacperjurak/goocclusion/pkg/handlers"
	"github.com/kacperjurak/goocclusion/pkg/models"
	"github.com/kacperjurak/goocclusion/pkg/profiling"
	"github.com/kacperjurak/goocclusion/pkg/webhook"
	"github.com/kacperjurak/goocclusion/pkg/worker"
)

// Responses below this size are sent uncompressed.
const gzipMinSize = 256

// Simulator is what the server needs from the simulation pipeline.
type Simulator interface {
	handlers.Processor
	Geometries() []goocclusion.GeometryConfiguration
}

// Server represents the HTTP server with all dependencies
type Server struct {
	serverConfig *config.ServerConfig
	workerPool   *worker.Pool[models.WorkItem, models.WorkResult]
	webhookQueue *webhook.Queue
	httpServer   *http.Server
	profiler     *profiling.Profiler
	middleware   *profiling.Middleware
	logger       *zap.Logger
}

// Options holds configuration for creating a new server
type Options struct {
	ServerConfig *config.ServerConfig
	Simulator    Simulator
	// Axis is the frequency axis and canal area requests are mapped onto.
	Axis   handlers.Axis
	Logger *zap.Logger
}

// New creates a new server instance
func New(opts Options) *Server {
	if opts.ServerConfig == nil {
		opts.ServerConfig = config.DefaultServerConfig()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	workerPool := worker.New(worker.Options[models.WorkItem, models.WorkResult]{
		Workers:   opts.ServerConfig.WorkerCount,
		Processor: opts.Simulator.SimulateLoad,
		Logger:    opts.Logger.Named("worker"),
	})

	s := &Server{
		serverConfig: opts.ServerConfig,
		workerPool:   workerPool,
		profiler:     profiling.New(opts.ServerConfig.ProfilingPort, opts.Logger.Named("pprof")),
		middleware:   profiling.NewMiddleware(opts.Logger.Named("http"), opts.ServerConfig.ProfilingPort != ""),
		logger:       opts.Logger,
	}
	if opts.ServerConfig.WebhookURL != "" {
		client := webhook.NewClient(opts.ServerConfig.WebhookURL, opts.Logger.Named("webhook"))
		s.webhookQueue = webhook.NewQueue(client, 100, opts.Logger.Named("webhook"))
	}

	s.setupRoutes(opts.Simulator, opts.Axis)
	return s
}

// setupRoutes configures HTTP routes and handlers
func (s *Server) setupRoutes(sim Simulator, axis handlers.Axis) {
	mux := http.NewServeMux()

	var queue handlers.FigureQueue
	if s.webhookQueue != nil {
		queue = s.webhookQueue
	}
	simulateHandler := handlers.NewSimulateHandler(axis, sim, s.logger.Named("simulate"))
	batchHandler := handlers.NewBatchHandler(axis, s.workerPool, queue, s.logger.Named("batch"))

	mux.Handle("/simulate", s.middleware.Handler("simulate", simulateHandler))
	mux.Handle("/simulate/batch", s.middleware.Handler("simulate-batch", batchHandler))
	mux.Handle("/health", s.middleware.HandlerFunc("health", handlers.HealthHandler(axis, s.workerPool.Workers())))
	mux.Handle("/geometries", s.middleware.HandlerFunc("geometries", handlers.GeometriesHandler(sim.Geometries())))

	var handler http.Handler = mux
	if gzip, err := gzhttp.NewWrapper(gzhttp.MinSize(gzipMinSize)); err != nil {
		s.logger.Warn("response compression disabled", zap.Error(err))
	} else {
		handler = gzip(mux)
	}

	s.httpServer = &http.Server{
		Addr:         ":" + s.serverConfig.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start listens on the configured port and blocks until the server stops.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln. It returns nil after Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.profiler.Start()
	s.logger.Info("starting server",
		zap.String("addr", ln.Addr().String()),
		zap.Int("workers", s.workerPool.Workers()),
		zap.Bool("webhook", s.webhookQueue != nil))

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server, then the worker pool and the
// webhook queue.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	err := s.httpServer.Shutdown(ctx)
	if perr := s.profiler.Stop(ctx); perr != nil && err == nil {
		err = perr
	}
	s.workerPool.Shutdown()
	if s.webhookQueue != nil {
		s.webhookQueue.Close()
	}
	return err
}
