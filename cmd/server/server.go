package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"github.com/Simplici0/furnicost/internal/config"
	"github.com/Simplici0/furnicost/internal/estimate"
	"github.com/Simplici0/furnicost/internal/logger"
	"github.com/Simplici0/furnicost/internal/observability"
	"github.com/Simplici0/furnicost/internal/store"
)

type server struct {
	cfg       config.Config
	log       *zap.Logger
	store     *store.Store
	estimates *estimate.Service
	metrics   *observability.Metrics
}

func newServer(cfg config.Config, log *zap.Logger, records *store.Store, estimates *estimate.Service, metrics *observability.Metrics) *server {
	return &server{cfg: cfg, log: log, store: records, estimates: estimates, metrics: metrics}
}

func (s *server) routes() http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         s.cfg.IsDev(),
	})

	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		middleware.RequestID,
		s.requestLogger,
		middleware.Recoverer,
		secureMiddleware.Handler,
		httprate.LimitByIP(s.cfg.RateLimitPerMin, time.Minute),
		s.metrics.Middleware,
	)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Get("/materials", s.handleMaterialsList)
	r.Post("/materials", s.handleMaterialsCreate)
	r.Get("/materials/{id}", s.handleMaterialsGet)
	r.Put("/materials/{id}", s.handleMaterialsUpdate)
	r.Delete("/materials/{id}", s.handleMaterialsDelete)
	r.Get("/materials/{id}/tiers", s.handleTiersList)
	r.Post("/materials/{id}/tiers", s.handleTiersCreate)
	r.Post("/materials/{id}/tiers/import", s.handleTiersImport)
	r.Delete("/tiers/{id}", s.handleTiersDelete)

	r.Get("/products", s.handleProductsList)
	r.Post("/products", s.handleProductsCreate)
	r.Get("/products/{id}", s.handleProductsGet)
	r.Put("/products/{id}", s.handleProductsUpdate)
	r.Delete("/products/{id}", s.handleProductsDelete)
	r.Get("/products/{id}/components", s.handleComponentsList)
	r.Put("/products/{id}/components", s.handleComponentsReplace)
	r.Get("/products/{id}/extras", s.handleExtrasGet)
	r.Put("/products/{id}/extras", s.handleExtrasUpdate)
	r.Get("/products/{id}/custom-costs", s.handleCustomCostsList)
	r.Post("/products/{id}/custom-costs", s.handleCustomCostsCreate)
	r.Put("/custom-costs/{id}", s.handleCustomCostsUpdate)
	r.Delete("/custom-costs/{id}", s.handleCustomCostsDelete)

	r.Get("/products/{id}/summary", s.handleSummary)
	r.Post("/estimate/preview", s.handlePreview)

	return r
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.log.Info("http request",
			logger.String("method", r.Method),
			logger.String("route", route),
			logger.Int("status", ww.Status()),
			logger.Int("bytes", ww.BytesWritten()),
			logger.Duration("duration", time.Since(start)),
			logger.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.log.Error("health check failed", logger.Err(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
