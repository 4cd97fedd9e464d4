package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Skufu/symptom-checker/internal/service"
)

const maxBodyBytes = 1 << 20 // 1MB

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Symptoms   *service.SymptomService
	DB         HealthChecker
	Log        *zap.Logger
	StaticRoot string
}

func NewRouter(d Deps) *gin.Engine {
	h := &handler{symptoms: d.Symptoms, log: d.Log.Named("http")}

	router := gin.New()
	router.Use(
		requestLogger(d.Log.Named("access")),
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			d.Log.Error("panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}),
		limitBodySize(maxBodyBytes),
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}),
	)

	if d.StaticRoot != "" {
		router.Static("/static", d.StaticRoot)
		router.StaticFile("/", filepath.Join(d.StaticRoot, "index.html"))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/readyz", func(c *gin.Context) {
		if d.DB == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "disabled"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := d.DB.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"db":     fmt.Sprintf("unhealthy: %v", err),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "ok"})
	})

	router.POST("/check-symptoms", h.checkSymptoms)
	router.GET("/history", h.history)

	return router
}

// DetectStaticRoot looks for web/index.html under the working directory and
// its two parents. It returns "" when none exists; only a dedicated web
// directory is ever served, never the working directory itself.
func DetectStaticRoot() string {
	startDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for _, dir := range []string{startDir, filepath.Dir(startDir), filepath.Dir(filepath.Dir(startDir))} {
		candidate := filepath.Join(dir, "web")
		if fileExists(filepath.Join(candidate, "index.html")) {
			return candidate
		}
	}

	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
