package container

import (
	"fmt"
	"net/http"

	"go-luminol-analyzer/internal/config"
	"go-luminol-analyzer/internal/pipeline"
	"go-luminol-analyzer/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config   *config.Config
	analyzer *pipeline.Analyzer
	pool     *pipeline.WorkerPool
	handler  http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer() (*Container, error) {
	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Build dependency graph
	analyzer := pipeline.NewAnalyzer(cfg.Tuning)
	pool := pipeline.NewWorkerPool(cfg.AnalysisWorkers)
	pool.Start()

	handler := transport.NewHandler(analyzer, pool, cfg)

	return &Container{
		config:   cfg,
		analyzer: analyzer,
		pool:     pool,
		handler:  handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close releases the analysis worker pool.
func (c *Container) Close() {
	c.pool.Close()
}
