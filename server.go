package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/middlewares"
	"github.com/dpcompass/compass_backend/models"
	"github.com/dpcompass/compass_backend/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Define a struct to represent the rate limiter.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// readinessGate answers 503 until the database and redis are connected.
func readinessGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	}
}

func newCorsConfig(settings *config.Settings) cors.Config {
	corsConfig := cors.DefaultConfig()
	// In production the allowlist must be explicit; empty means deny all.
	if settings.IsProduction() {
		corsConfig.AllowOrigins = splitAndTrim(settings.CorsAllowedOrigins)
		if len(corsConfig.AllowOrigins) == 0 {
			corsConfig.AllowOrigins = []string{}
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "x-correlation-id")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", "x-correlation-id")
	corsConfig.AllowCredentials = true
	return corsConfig
}

// registerRoutes mounts the public routes and the login guarded application routes.
func registerRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/", homeHandler())
	r.GET("/login/", loginPageHandler())
	r.POST("/login/", loginHandler())
	r.POST("/register/", registerHandler())

	app := r.Group("/", middlewares.LoginRequired())
	app.POST("/logout/", logoutHandler())
	app.GET("/profile/", profileHandler())
	app.POST("/profile/", updateProfileHandler())
	app.GET("/users/", listUsersHandler())
	app.GET("/dashboard/", dashboardHandler())

	audits := app.Group("/audits")
	audits.GET("/", listAuditsHandler())
	audits.GET("/create/", auditFormHandler())
	audits.POST("/create/", createAuditHandler())
	audits.GET("/checklist/", checklistHandler())
	audits.GET("/checklist/:id/edit/", checklistItemHandler())
	audits.POST("/checklist/:id/edit/", updateChecklistItemHandler())
	audits.GET("/:id/", auditDetailHandler())
	audits.GET("/:id/execute/", beginAuditHandler())
	audits.POST("/:id/execute/", executeAuditHandler())
	audits.POST("/:id/hold/", moveAuditHandler(models.HoldAudit, "Audit put on hold."))
	audits.POST("/:id/resume/", moveAuditHandler(models.ResumeAudit, "Audit resumed."))
	audits.POST("/:id/score/", recordScoreHandler())
	audits.POST("/:id/responses/", addResponseHandler())
	audits.POST("/responses/:id/remediations/", createRemediationHandler())
	audits.GET("/responses/:id/evidence/", listEvidenceHandler())
	audits.POST("/responses/:id/evidence/", uploadEvidenceHandler())

	app.GET("/evidence/:id/download/", downloadEvidenceHandler())

	applications := app.Group("/applications")
	applications.GET("/", listApplicationsHandler())
	applications.GET("/create/", applicationFormHandler())
	applications.POST("/create/", createApplicationHandler())
	applications.GET("/:id/", applicationDetailHandler())
	applications.GET("/:id/edit/", editApplicationFormHandler())
	applications.POST("/:id/edit/", updateApplicationHandler())

	remediations := app.Group("/remediations")
	remediations.GET("/", listRemediationsHandler())
	remediations.GET("/:id/", remediationDetailHandler())
	remediations.POST("/:id/", updateRemediationHandler())

	reportRoutes := app.Group("/reports")
	reportRoutes.GET("/", listReportsHandler())
	reportRoutes.GET("/generate/:audit_id/", reportGenerateFormHandler())
	reportRoutes.POST("/generate/:audit_id/", generateReportHandler())
	reportRoutes.GET("/:id/", reportDetailHandler())
	reportRoutes.GET("/:id/export/", exportReportHandler())
	reportRoutes.GET("/:id/approve/", reportApprovalHandler())
	reportRoutes.POST("/:id/approve/", moveReportHandler(models.ApproveReport, "Report approved successfully."))
	reportRoutes.POST("/:id/archive/", moveReportHandler(models.ArchiveReport, "Report archived."))

	r.NoRoute(customNotFoundHandler)
}

// newRouter builds the engine with the middleware chain in serving order.
func newRouter(settings *config.Settings, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.RequestContext())
	r.Use(readinessGate())
	r.Use(cors.New(newCorsConfig(settings)))

	if settings.RateLimitEnabled {
		rateLimiter := NewRateLimiter(config.GetRedisDB(), settings.RateLimitMax, settings.RateLimitWindow)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(middlewares.SessionMiddleware())
	r.Use(middlewares.AuthMiddleware())
	r.Use(middlewares.LoaderMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	registerRoutes(r)
	return r
}

func main() {
	settings := config.GetSettings()
	logger := config.GetLogger()
	if settings.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP; until DB/Redis are ready the gate returns 503.
	r := newRouter(settings, logger)
	srv := &http.Server{
		Addr:    ":" + settings.Port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can block tables; run it as a separate job with SKIP_MIGRATIONS=true.
	if !settings.SkipMigrations {
		if err := models.MigrateTable(); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Fatal(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on port ", settings.Port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	config.ClosePubSub()
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			ctx := c.Request.Context()
			fields := logrus.Fields{"path": c.FullPath(), "status": c.Writer.Status()}
			if cid, ok := utils.GetCorrelationIdFromContext(ctx); ok {
				fields["correlation_id"] = cid
			}
			if userId, ok := utils.GetUserIdFromContext(ctx); ok {
				fields["user_id"] = userId
			}
			if name, ok := utils.GetUserNameFromContext(ctx); ok {
				fields["user_name"] = name
			}
			if role, ok := utils.GetUserRoleFromContext(ctx); ok {
				fields["user_role"] = role
			}
			logger.WithFields(fields).Error(c.Errors.String())
		}
	}
}

// Initialize a new RateLimiter instance.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Middleware function to check rate limits.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	// the limiter is built before redis connects
	client := rl.client
	if client == nil {
		client = config.GetRedisDB()
	}
	key := "RateLimit:" + c.ClientIP()

	count, err := client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	if count == 1 {
		if err := client.Expire(c.Request.Context(), key, rl.window).Err(); err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
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
