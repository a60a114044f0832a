package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/maotai11/pdf-editor-tool/internal/codec"
	cfgpkg "github.com/maotai11/pdf-editor-tool/internal/config"
	"github.com/maotai11/pdf-editor-tool/internal/document"
	"github.com/maotai11/pdf-editor-tool/internal/engine"
	"github.com/maotai11/pdf-editor-tool/internal/filetype"
	logpkg "github.com/maotai11/pdf-editor-tool/internal/logger"
	"github.com/maotai11/pdf-editor-tool/internal/metrics"
	"github.com/maotai11/pdf-editor-tool/internal/raster"
	"github.com/maotai11/pdf-editor-tool/internal/limiter"
	"github.com/maotai11/pdf-editor-tool/internal/session"
	"github.com/maotai11/pdf-editor-tool/internal/statuscheck"
	"github.com/maotai11/pdf-editor-tool/internal/web"
)

// rasterAdapter narrows *raster.Renderer to the interface the synchronizer
// renders through.
type rasterAdapter struct{ r *raster.Renderer }

func (a rasterAdapter) Open(data []byte) (document.RenderedDoc, error) {
	return a.r.Open(data)
}

// probeAdapter does the same for the status checker.
type probeAdapter struct{ r *raster.Renderer }

func (a probeAdapter) Open(data []byte) (statuscheck.RenderedProbe, error) {
	return a.r.Open(data)
}

func main() {
	_ = godotenv.Load()
	cfg := cfgpkg.FromEnv()

	// Init logging
	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()

	metrics.Init()

	// Mutation core
	c := codec.New()
	eng := engine.New(c)
	renderer := raster.New(cfg.Render.ThumbDPI, cfg.Render.ThumbQuality)
	syn := document.NewSynchronizer(rasterAdapter{r: renderer})
	syn.SetLimit(limiter.New(cfg.Render.MaxConcurrent))
	reg := session.NewRegistry(eng, syn, filetype.New())

	logDir := ""
	if cfg.Logging.File != "" {
		logDir = filepath.Dir(cfg.Logging.File)
	}
	checker := statuscheck.New(statuscheck.Options{
		Codec:  c,
		Raster: probeAdapter{r: renderer},
		LogDir: logDir,
	})

	mux := http.NewServeMux()
	srv := web.New(reg, checker, cfg.HTTP.MaxUploadMB)
	srv.RegisterRoutes(mux)
	mux.Handle("/metrics", metrics.Handler())

	httpSrv := &http.Server{Addr: ":" + cfg.HTTP.Port, Handler: mux}

	go func() {
		log.Info().Msgf("HTTP server listening on :%s", cfg.HTTP.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	log.Info().Msg("shutdown complete")
}
