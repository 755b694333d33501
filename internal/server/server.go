// Package server boots and tears down the API: config, logging, database,
// cache, storage, routes, and graceful shutdown.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/modernhardware/api/app/routes"
	"github.com/modernhardware/api/config"
	"github.com/modernhardware/api/pkg/cache"
	"github.com/modernhardware/api/pkg/database"
	"github.com/modernhardware/api/pkg/logger"
	"github.com/modernhardware/api/pkg/metrics"
	"github.com/modernhardware/api/pkg/middleware"
	"github.com/modernhardware/api/pkg/mpesa"
	"github.com/modernhardware/api/pkg/orm"
	"github.com/modernhardware/api/pkg/reqid"
	"github.com/modernhardware/api/pkg/response"
	"github.com/modernhardware/api/pkg/router"
	"github.com/modernhardware/api/pkg/storage"
)

// Server holds the booted application and everything Close must release.
type Server struct {
	db       *gorm.DB
	http     *http.Server
	mongoLog *logger.MongoHandler
}

// New boots the application. The caller owns the returned Server and must
// Close it.
func New() (*Server, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}

	s := &Server{}

	// Mirror logs into Mongo when configured. Console logging carries on
	// alone when the sink cannot be reached.
	if uri := config.LogMongoURI(); uri != "" {
		mh, err := logger.NewMongoHandler(uri, config.LogMongoDB(), config.LogMongoCollection())
		if err != nil {
			logger.Warn("mongo log sink disabled", "error", err)
		} else {
			s.mongoLog = mh
			logger.SetHandler(logger.NewMultiHandler(logger.Handler(), mh))
		}
	}

	db, err := database.Connect()
	if err != nil {
		return nil, err
	}
	s.db = db

	// Cache is an optimisation, not a dependency.
	if err := cache.Connect(); err != nil {
		logger.Warn("redis unavailable, serving without cache", "error", err)
	} else {
		orm.CacheStore = cache.Store{}
	}

	storage.Connect()

	r := router.New()
	r.Use(
		metrics.Middleware(),
		middleware.Recovery,
		reqid.Middleware(),
		middleware.Logger,
		middleware.CORS(middleware.DefaultCORSOptions()),
		middleware.RateLimit(300, time.Minute),
	)

	r.Get("/healthz", "healthz", s.healthz)
	r.Get("/metrics", "metrics", metrics.Handler())

	routes.RegisterAPI(r, db, mpesa.NewFromEnv())

	s.http = &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Router builds the full route table without opening listeners, for tools
// like route:list.
func Router(db *gorm.DB) *router.Router {
	r := router.New()
	routes.RegisterAPI(r, db, mpesa.NewFromEnv())
	return r
}

// Run serves HTTP until SIGINT/SIGTERM, then drains in-flight requests.
func (s *Server) Run() error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", s.http.Addr, "env", config.AppEnv())
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}

// Close releases the database handle and flushes the Mongo log sink.
func (s *Server) Close() {
	if s.db != nil {
		if err := database.Close(s.db); err != nil {
			logger.Error("close database", "error", err)
		}
	}
	if s.mongoLog != nil {
		s.mongoLog.Close()
	}
}

// DB exposes the live handle, used by CLI subcommands that boot the server
// environment without serving HTTP.
func (s *Server) DB() *gorm.DB { return s.db }

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		response.Error(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	response.Success(w, map[string]string{"status": "ok"})
}
