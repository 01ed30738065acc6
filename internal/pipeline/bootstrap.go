package pipeline

import (
	"context"
	"fmt"

	"github.com/farxc/ecommerce_medallion/internal/config"
	"github.com/farxc/ecommerce_medallion/internal/db"
	"github.com/farxc/ecommerce_medallion/internal/logger"
	"github.com/farxc/ecommerce_medallion/internal/store"
	"github.com/farxc/ecommerce_medallion/internal/table"
	"github.com/jmoiron/sqlx"
)

// Runtime bundles what the CLI and the API need to drive the pipeline.
type Runtime struct {
	Orchestrator *Orchestrator
	Runs         store.RunHistory
	Logger       *logger.Logger

	conn *sqlx.DB
}

// Bootstrap wires an orchestrator from cfg. Run history is enabled only when
// a database address is configured.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	const component = "Bootstrap"
	rt := &Runtime{Logger: logger.New(logger.ParseLevel(cfg.LogLevel))}

	if cfg.DB.Addr != "" {
		conn, err := db.New(cfg.DB.Addr, cfg.DB.MaxOpenConns, cfg.DB.MaxIdleConns, cfg.DB.MaxIdleTime)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		storage := store.NewStorage(conn)
		if err := storage.PipelineRuns.EnsureSchema(ctx); err != nil {
			conn.Close()
			return nil, err
		}
		rt.conn = conn
		rt.Runs = storage.PipelineRuns
		rt.Logger.Info(component, "Database connection pool established: max_open_conns=%d", cfg.DB.MaxOpenConns)
	} else {
		rt.Logger.Debug(component, "Run history disabled: DB_ADDR not set")
	}

	inputReader := table.Reader{Windows1252: cfg.InputEncoding == config.EncodingWindows1252}
	opts := Options{
		InputDir:   cfg.InputDir,
		OutputDir:  cfg.OutputDir,
		StageDelay: cfg.StageDelay,
		Workers:    cfg.Workers,
		FailFast:   cfg.FailFast,
	}
	rt.Orchestrator = NewOrchestrator(opts, inputReader, rt.Runs, rt.Logger)
	return rt, nil
}

// Close waits for background runs and releases the database.
func (rt *Runtime) Close() error {
	rt.Orchestrator.Wait()
	if rt.conn != nil {
		return rt.conn.Close()
	}
	return nil
}
