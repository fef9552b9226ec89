package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/prediktfi/idea-committee/internal/cache"
	"github.com/prediktfi/idea-committee/internal/committee"
	"github.com/prediktfi/idea-committee/internal/config"
	apperrors "github.com/prediktfi/idea-committee/internal/errors"
	"github.com/prediktfi/idea-committee/internal/grounding"
	"github.com/prediktfi/idea-committee/internal/llm"
	"github.com/prediktfi/idea-committee/internal/monitoring"
	"github.com/prediktfi/idea-committee/internal/types"
)

func main() {
	// .env is a dev convenience; absence is normal in deployment.
	_ = godotenv.Load()

	logger := monitoring.NewLogger()
	slog.SetDefault(logger.Logger)

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gen, err := llm.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.RoleCallTimeout)
	if err != nil {
		slog.Error("Failed to create text generator", "error", err)
		os.Exit(1)
	}

	var market grounding.Provider = grounding.NoopProvider{}
	if cfg.MarketDataURL != "" {
		market = grounding.NewHTTPProvider(cfg.MarketDataURL, 10*time.Second)
		slog.Info("Market grounding enabled", "url", cfg.MarketDataURL)
	}

	redisTier := cache.NewRedisTier(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer redisTier.Close()
	store := cache.New(cfg.CacheTTL, redisTier)

	metrics := monitoring.NewMetrics()
	engine := committee.NewEngine(cfg, gen, market, store, metrics, logger)

	router := setupRouter(cfg, engine, store, metrics, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.EvaluationTimeout + 30*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		slog.Info("Committee server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}

func setupRouter(cfg *config.Config, engine *committee.Engine, store *cache.Store, metrics *monitoring.Metrics, logger *monitoring.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(apperrors.RecoveryHandler())
	router.Use(requestLogging(logger))
	router.Use(securityHeaders(os.Getenv("ENABLE_HSTS") == "true"))
	router.Use(apperrors.ErrorHandler())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "https://prediktfi.com"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	limiter := newIPRateLimiter(cfg.RequestsPerMinute)

	router.GET("/health", handleHealth(store))
	router.GET("/metrics", handleMetrics(metrics, store))

	api := router.Group("/", limiter.Middleware())
	api.POST("/evaluate", handleEvaluate(engine))
	api.POST("/reflect", handleReflect(engine))

	return router
}

func handleHealth(store *cache.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"timestamp":  time.Now().UTC(),
			"cache_size": store.Size(),
		})
	}
}

func handleMetrics(metrics *monitoring.Metrics, store *cache.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"pipeline": metrics.Snapshot(),
			"cache":    store.Stats(),
		})
	}
}

// evaluateRequest wraps the submission with an optional grouping tag that
// partitions the cache key space per caller.
type evaluateRequest struct {
	types.IdeaSubmission
	Tag string `json:"tag"`
}

func handleEvaluate(engine *committee.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req evaluateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperrors.NewValidationError("invalid evaluation request: " + err.Error()))
			return
		}

		result, err := engine.Evaluate(c.Request.Context(), req.IdeaSubmission, req.Tag)
		if err != nil {
			appErr := apperrors.ToAppError(err)
			// A quality rejection is a substantive outcome, not a transport
			// failure; surface the issue list directly.
			if appErr.Category == apperrors.CategoryQuality {
				apperrors.LogError(c, appErr)
				c.JSON(http.StatusUnprocessableEntity, types.QualityRejection{
					Error:  "evaluation failed quality checks",
					Issues: appErr.Issues,
				})
				return
			}
			c.Error(appErr)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func handleReflect(engine *committee.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.ReflectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperrors.NewValidationError("invalid reflection request: " + err.Error()))
			return
		}

		result, err := engine.Reflect(c.Request.Context(), req)
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
