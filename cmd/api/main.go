package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/farxc/ecommerce_medallion/internal/config"
	"github.com/farxc/ecommerce_medallion/internal/env"
	"github.com/farxc/ecommerce_medallion/internal/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(env.GetString("PIPELINE_CONFIG", ""))
	if err != nil {
		log.Fatal(err)
	}

	rt, err := pipeline.Bootstrap(ctx, cfg)
	if err != nil {
		log.Panic(err)
	}
	defer rt.Close()

	app := &application{
		config:       cfg,
		runs:         rt.Runs,
		orchestrator: rt.Orchestrator,
		gold:         rt.Orchestrator.GoldStage(),
		appLogger:    rt.Logger,
		baseCtx:      ctx,
	}

	mux := app.mount()

	if err := app.run(ctx, mux); err != nil {
		rt.Logger.Error("API", "Server stopped: err=%v", err)
	}
}
