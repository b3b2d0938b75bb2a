package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/vehicle_sales_backend/config"
	"github.com/mmdatafocus/vehicle_sales_backend/geocode"
	"github.com/mmdatafocus/vehicle_sales_backend/importer"
	"github.com/mmdatafocus/vehicle_sales_backend/models"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func main() {
	config.LoadEnv()
	logger := config.GetLogger()

	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	// All state is process memory: one store, one job registry, one geocode
	// cache, constructed here and passed down. Everything is lost on restart.
	store := models.NewStore()
	jobs := importer.NewJobRegistry()
	cache := geocode.NewCache()

	geoCfg := config.GetGeocoderConfig()
	var resolver geocode.Resolver
	if client := geocode.NewClient(geoCfg); client != nil {
		resolver = client
	} else {
		logger.Warn("GEOCODE_API_KEY not set; records will stay unenriched")
	}
	enricher := geocode.NewEnricher(store, resolver, cache, logger, geoCfg)
	runner := importer.NewRunner(store, jobs, logger, enricher)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Header("x-correlation-id", cid)
		c.Next()
	})

	r.Use(cors.New(corsConfigFromEnv()))

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	api := r.Group("/api")
	api.POST("/upload", uploadHandler(runner, logger))
	api.GET("/upload/status/:jobId", jobStatusHandler(jobs))
	api.POST("/filters", filtersHandler(store))
	api.GET("/data", dataHandler(store))
	api.GET("/map-data", mapDataHandler(store))
	api.GET("/analytics/summary", analyticsSummaryHandler(store))
	api.GET("/export", exportHandler(store, logger))
	api.DELETE("/data", clearDataHandler(store, logger))

	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	logger.WithFields(logrus.Fields{
		"port": port,
	}).Info("vehicle sales backend listening")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests. In-flight ingestion/enrichment goroutines have no
	// cancellation hook and simply die with the process; their state was
	// memory-only anyway.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
}

// customErrorLogger logs only requests that collected errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

// corsConfigFromEnv builds the CORS policy. Production requires an explicit
// allowlist in CORS_ALLOWED_ORIGINS; with none set every origin is denied via
// AllowOriginFunc, since cors.New refuses an empty AllowOrigins slice.
// Development allows all origins.
func corsConfigFromEnv() cors.Config {
	corsConfig := cors.DefaultConfig()
	allowedOrigins := splitAndTrim(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if config.IsProduction() {
		if len(allowedOrigins) == 0 {
			corsConfig.AllowOriginFunc = func(string) bool { return false }
		} else {
			corsConfig.AllowOrigins = allowedOrigins
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	return corsConfig
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
