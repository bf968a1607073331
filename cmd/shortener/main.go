package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/MikhailRaia/golinks/internal/app"
	"github.com/MikhailRaia/golinks/internal/config"
	"github.com/MikhailRaia/golinks/internal/logger"
)

var memprofile = flag.String("memprofile", "", "write memory profile to `file` on exit")

func writeHeapProfile(path string) {
	f, err := os.Create(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to create memory profile")
		return
	}
	defer f.Close()

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Error().Err(err).Msg("Failed to write memory profile")
	}
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	err = application.Run(ctx)

	if *memprofile != "" {
		writeHeapProfile(*memprofile)
	}

	if err != nil {
		log.Fatal().Err(err).Msg("Error running application")
	}
}
