package main

import (
	"AapdaMitra/internal/auth"
	"AapdaMitra/internal/chat"
	"AapdaMitra/internal/guide"
	handlers "AapdaMitra/internal/handler"
	"AapdaMitra/internal/store"
	"AapdaMitra/pkg/backup"
	"AapdaMitra/pkg/cache"
	"AapdaMitra/pkg/i18n"
	"AapdaMitra/pkg/llm"
	"AapdaMitra/pkg/logger"
	"AapdaMitra/pkg/mesh"
	"AapdaMitra/pkg/scheduler"
	"AapdaMitra/pkg/sse"
	"AapdaMitra/pkg/websocket"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 10 * time.Second
	ssePingInterval = 15 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Opens (and migrates) the local store, seeds it on first run and serves
the API until interrupted. Store backups run on BACKUP_SCHEDULE when
BACKUP_ENABLED is set.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := store.Open(ctx, cfg.DBDriver, cfg.DSN)
	if err != nil {
		return err
	}
	defer s.Close()
	if _, err := s.SeedIfEmpty(ctx); err != nil {
		return err
	}

	l1, err := cache.NewCache(cfg.Cache)
	if err != nil {
		return err
	}
	defer l1.Close()

	oracle, err := llm.New(ctx, llm.Config{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMApiKey,
		BaseURL:  cfg.LLMBaseURL,
		Model:    cfg.LLMModel,
	}, newLLMLogger())
	if err != nil {
		logger.Warn("text generation unavailable, serving offline", zap.String("provider", cfg.LLMProvider), zap.Error(err))
		oracle = llm.Offline{}
	}

	support, err := i18n.NewI18nSupport(cfg.LanguageDefault)
	if err != nil {
		return err
	}

	sim := mesh.New(mesh.Config{
		DelayUnit:      cfg.MeshDelayUnit,
		DiscoveryDelay: cfg.MeshDiscoveryDelay,
	})
	defer sim.Close()
	hub := sse.NewHub(ssePingInterval)

	if cfg.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	h := handlers.NewHandlers(handlers.Deps{
		APIPrefix: cfg.APIPrefix,
		Store:     s,
		Guides:    guide.NewService(s.Guides, l1, oracle, cfg.GuideCacheTTL),
		Chat:      chat.NewService(oracle),
		Auth:      auth.NewService(),
		Mesh:      sim,
		Events:    hub,
		I18n:      support,
		RateLimit: cfg.RateLimit,
		WebSocket: websocket.LoadConfigFromEnv(),
	})
	h.Register(engine)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.Addr), zap.String("prefix", cfg.APIPrefix))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		// event streams only end when their hubs close
		hub.Close()
		h.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.BackupEnabled {
		cr := scheduler.NewCron(time.Local)
		job := backup.New(s.DB(), backup.Config{
			Driver:   cfg.DBDriver,
			Dir:      cfg.BackupPath,
			Schedule: cfg.BackupSchedule,
			Keep:     cfg.BackupKeep,
		})
		if err := job.Register(cr); err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		g.Go(func() error { return cr.Run(gctx) })
	}

	return g.Wait()
}

// newLLMLogger mirrors the zap level onto the logrus logger the oracle clients use.
func newLLMLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	if lvl, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		l.SetLevel(lvl)
	}
	return l
}
