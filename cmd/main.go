package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"tentspace/internal/cache"
	"tentspace/internal/config"
	"tentspace/internal/features/error_logging"
	"tentspace/internal/features/session"
	system_healthcheck "tentspace/internal/features/system/healthcheck"
	"tentspace/internal/features/telemetry"
	telemetry_boundary "tentspace/internal/features/telemetry/boundary"
	telemetry_breadcrumbs "tentspace/internal/features/telemetry/breadcrumbs"
	telemetry_capture "tentspace/internal/features/telemetry/capture"
	cache_utils "tentspace/internal/util/cache"
	env_utils "tentspace/internal/util/env"
	"tentspace/internal/util/logger"
	_ "tentspace/swagger" // swagger docs

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const cloudWatchRequestTimeout = 10 * time.Second

// @title Tentspace Backend API
// @version 1.0
// @description Client error reporting relay and site API
// @termsOfService http://swagger.io/terms/

// @host localhost:4005
// @BasePath /api
// @schemes http

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	log := logger.GetLogger()
	env := config.GetEnv()

	testCacheConnection(log)

	state := telemetry.Install(telemetry.Options{
		SampleRate:                env.ErrorSampleRate,
		Release:                   env.Release,
		Environment:               string(env.EnvMode),
		RelayURL:                  env.ErrorRelayURL,
		InterceptDefaultTransport: true,
	})

	setUpDependencies(state)

	state.Hook().GoErr(context.Background(), generateSwaggerDocs)

	gin.SetMode(gin.ReleaseMode)
	ginApp := gin.New()
	ginApp.Use(gin.Logger(), telemetry_capture.RecoveryMiddleware(state.Hook()))

	// Add GZIP compression middleware
	ginApp.Use(gzip.Gzip(
		gzip.DefaultCompression,
		// Don't compress already compressed files
		gzip.WithExcludedExtensions(
			[]string{".png", ".gif", ".jpeg", ".jpg", ".ico", ".svg", ".pdf", ".mp4"},
		),
	))

	enableCors(ginApp)

	ginApp.Use(
		telemetry_capture.RequestMiddleware(),
		session.OptionalSessionMiddleware(session.GetSessionService()),
		telemetry_breadcrumbs.NavigationMiddleware(state.Breadcrumbs(), "/api/"),
	)

	setUpRoutes(ginApp)
	mountFrontend(ginApp, state)

	telemetry.AddBreadcrumb("server started", map[string]any{
		"port":    env.ServerPort,
		"release": env.Release,
	})

	startServerWithGracefulShutdown(log, ginApp)
}

func startServerWithGracefulShutdown(log *slog.Logger, app *gin.Engine) {
	host := ""
	if config.GetEnv().EnvMode == env_utils.EnvModeDevelopment {
		// for dev we use localhost to avoid firewall
		// requests on each run for Windows
		host = "127.0.0.1"
	}

	srv := &http.Server{
		Addr:    host + ":" + config.GetEnv().ServerPort,
		Handler: app,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("listen:", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	sig := <-quit
	log.Info("Shutdown signal received")
	telemetry.AddBreadcrumb("shutdown signal received", map[string]any{"signal": sig.String()})

	// The context is used to inform the server it has 10 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown:", "error", err)
	}

	// Reports raised while draining requests are flushed before exit.
	if err := telemetry.Uninstall(ctx); err != nil {
		log.Error("Error reports were still in flight at shutdown", "error", err)
	}

	log.Info("Server gracefully stopped")
}

func setUpDependencies(state *telemetry.State) {
	error_logging.SetupDependencies(state.HTTPClient(cloudWatchRequestTimeout))
}

func setUpRoutes(r *gin.Engine) {
	api := r.Group("/api")

	// Browsers post reports here from every page, signed in or not.
	error_logging.GetErrorLoggingController().RegisterRoutes(api)

	v1 := api.Group("/v1")

	// Mount Swagger UI
	v1.GET("/docs/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	system_healthcheck.GetHealthcheckController().RegisterRoutes(v1)
	session.GetSessionController().RegisterRoutes(v1)
}

// Keep in mind: docs appear after second launch, because Swagger
// is generated into Go files. So if we changed files, we generate
// new docs, but still need to restart the server to see them.
func generateSwaggerDocs() error {
	if config.GetEnv().EnvMode == env_utils.EnvModeProduction {
		return nil
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	cmd := exec.Command("swag", "init", "-d", currentDir, "-g", "cmd/main.go", "-o", "swagger")

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to generate Swagger docs: %w: %s", err, output)
	}

	logger.GetLogger().Info("Swagger documentation generated successfully")
	return nil
}

func testCacheConnection(log *slog.Logger) {
	client := cache.GetCache()
	if client == nil {
		return
	}

	log.Info("Testing Valkey connection...")

	if err := cache_utils.TestCacheConnection(client); err != nil {
		log.Error("Failed to connect to Valkey", "error", err)
		os.Exit(1)
	}

	log.Info("Valkey connection test successful")
}

func enableCors(ginApp *gin.Engine) {
	if config.GetEnv().EnvMode == env_utils.EnvModeDevelopment {
		// Setup CORS
		ginApp.Use(cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders: []string{
				"Origin",
				"Content-Length",
				"Content-Type",
				"Authorization",
				"Accept",
				"Accept-Language",
				"Accept-Encoding",
				"Access-Control-Request-Method",
				"Access-Control-Request-Headers",
			},
			AllowCredentials: true,
		}))
		return
	}

	// Pages served from other origins still post their reports here.
	ginApp.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Length", "Content-Type"},
		MaxAge:          12 * time.Hour,
	}))
}

// mountFrontend serves the built pages. Every page render runs inside its own
// error boundary, so a failing page shows the fallback view and is reported.
func mountFrontend(ginApp *gin.Engine, state *telemetry.State) {
	staticDir := "./ui/build"

	boundary := telemetry_boundary.Middleware(telemetry_boundary.Options{
		Hook:   state.Hook(),
		Sender: state.Sender(),
		Logger: logger.GetLogger(),
	})

	ginApp.NoRoute(boundary, func(c *gin.Context) {
		path := filepath.Join(staticDir, filepath.Clean("/"+c.Request.URL.Path))

		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			c.File(path)
			return
		}

		c.File(filepath.Join(staticDir, "index.html"))
	})
}
