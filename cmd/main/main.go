package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	_ "net/http/pprof"

	"carbon-index-service/internal/config"
	"carbon-index-service/internal/footprint/cache"
	"carbon-index-service/internal/footprint/dataset"
	"carbon-index-service/internal/footprint/remote"
	"carbon-index-service/internal/footprint/service"
	serverhttp "carbon-index-service/server/http"
)

func main() {
	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		runtime.GOMAXPROCS(runtime.NumCPU())
	}

	cfg := config.Load()
	logger := config.SetupLogger(cfg)

	// reference datasets and the similarity index are built once; a missing
	// column here is a configuration error and fatal
	sets, err := dataset.Load(cfg.DataDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("load datasets")
	}
	index, err := service.BuildIndex(sets)
	if err != nil {
		logger.Fatal().Err(err).Msg("build similarity index")
	}
	logger.Info().Int("datasets", len(sets)).Msg("similarity index ready")

	store, err := cache.Load(cfg.CacheFile)
	if err != nil {
		logger.Fatal().Err(err).Str("file", cfg.CacheFile).Msg("load cache")
	}
	logger.Info().Int("entries", store.Len()).Msg("cache loaded")

	products := remote.NewProductClient(cfg.ProductAPIURL, cfg.RemoteTimeout, logger)
	impact := remote.NewImpactClient(cfg.ImpactAPIURL, cfg.RemoteLanguage, cfg.RemoteTimeout, logger)

	matcher := service.NewMatcher(store, products, index, logger)
	calc := service.NewCalculator(matcher, impact, impact, logger)

	r := serverhttp.NewRouter(cfg, logger, calc, impact)

	srv := &http.Server{Addr: cfg.Addr(), Handler: r}
	logger.Info().Str("addr", cfg.Addr()).Msg("server starting")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	logger.Info().Msg("bye")
}
