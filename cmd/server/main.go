package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/finsite/backend/docs"
	"github.com/finsite/backend/internal/application/console"
	contentapp "github.com/finsite/backend/internal/application/content"
	insightapp "github.com/finsite/backend/internal/application/insight"
	"github.com/finsite/backend/internal/application/intake"
	"github.com/finsite/backend/internal/infrastructure/config"
	"github.com/finsite/backend/internal/infrastructure/dataaccess"
	"github.com/finsite/backend/internal/infrastructure/genai"
	"github.com/finsite/backend/internal/infrastructure/logger"
	"github.com/finsite/backend/internal/infrastructure/media"
	"github.com/finsite/backend/internal/infrastructure/restclient"
	"github.com/finsite/backend/internal/infrastructure/scheduler"
	"github.com/finsite/backend/internal/infrastructure/session"
	"github.com/finsite/backend/internal/infrastructure/telemetry"
	"github.com/finsite/backend/internal/interfaces/http/handler"
	"github.com/finsite/backend/internal/interfaces/http/middleware"
	"github.com/finsite/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const version = "1.0.0"

//	@title			Finsite Backend API
//	@version		1.0
//	@description	Backend for the finsite public site, funding wizard and admin console.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Console session ID as "Bearer <id>"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.NewForEnvironment(cfg.App.Env, logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting finsite backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("persistence", cfg.Persistence.BaseURL),
		zap.Bool("ai_enabled", cfg.AI.Enabled()),
	)

	rootCtx, stopRoot := context.WithCancel(context.Background())
	defer stopRoot()

	// Telemetry
	loggerProvider, err := telemetry.NewLoggerProvider(rootCtx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize OTLP logs", zap.Error(err))
	}
	if loggerProvider.IsEnabled() {
		log = logger.Tee(log, loggerProvider.Core(log.Level()))
	}
	meterProvider, err := telemetry.NewMeterProvider(rootCtx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	tracerProvider, err := telemetry.NewTracerProvider(rootCtx, telemetry.TracingConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Profiling.ApplicationName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
		ProfileTypes:      cfg.Profiling.ProfileTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && cfg.Profiling.SpanProfiles {
		tracerProvider.EnableSpanProfiles()
	}
	consoleMetrics, err := telemetry.NewConsoleMetrics(meterProvider.Meter("finsite.console"))
	if err != nil {
		log.Fatal("Failed to initialize console metrics", zap.Error(err))
	}

	// Persistence service
	rest, err := restclient.New(restclient.Config{
		BaseURL:    cfg.Persistence.BaseURL,
		Timeout:    cfg.Persistence.Timeout,
		MaxRetries: cfg.Persistence.MaxRetries,
		RetryDelay: cfg.Persistence.RetryDelay,
		UserAgent:  cfg.App.Name + "/" + version,
	})
	if err != nil {
		log.Fatal("Failed to initialize persistence client", zap.Error(err))
	}
	store := dataaccess.New(rest, log)

	// AI service
	ai, err := genai.New(genai.Config{
		APIKey:     cfg.AI.APIKey,
		BaseURL:    cfg.AI.BaseURL,
		TextModel:  cfg.AI.TextModel,
		ImageModel: cfg.AI.ImageModel,
		Timeout:    cfg.AI.Timeout,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize AI client", zap.Error(err))
	}
	if !ai.Enabled() {
		log.Warn("No AI API key configured, news and chat serve offline fallbacks")
	}

	// Console token store and image sink
	tokens, err := session.NewFactory(cfg.Redis,
		session.WithLogger(log),
		session.WithInMemoryFallback(!cfg.App.IsProduction()),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to initialize session token store", zap.Error(err))
	}
	defer func() {
		_ = tokens.Close()
	}()

	sink, err := media.NewSink(cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize image storage", zap.Error(err))
	}

	// Application services
	contentService := contentapp.NewService(store, log)
	contactService := intake.NewContactService(store, log)
	wizardService := intake.NewWizardService(store, intake.WizardConfig{
		SubtypeAdvanceDelay: cfg.Wizard.SubtypeAdvanceDelay,
		SessionTTL:          cfg.Wizard.SessionTTL,
	}, consoleMetrics, log)
	newsService := insightapp.NewNewsService(ai, cfg.AI.DigestTTL, log)
	chatService := insightapp.NewChatService(ai, cfg.Wizard.SessionTTL, log)
	imageService := insightapp.NewImageService(ai, log)

	managerOpts := []console.ManagerOption{
		console.WithImageAssist(imageService, sink),
		console.WithMetrics(consoleMetrics),
		console.WithLogger(log),
	}
	if cfg.Console.DevLoginEnabled {
		dev, err := console.NewLocalDevCredentialProvider(console.DevLoginConfig{
			Enabled:    cfg.Console.DevLoginEnabled,
			Production: cfg.App.IsProduction(),
			Delay:      cfg.Console.DevLoginDelay,
			TokenTTL:   cfg.Console.SessionTTL,
		}, log)
		if err != nil {
			log.Warn("Dev login not available", zap.Error(err))
		} else {
			log.Warn("Dev login enabled, do not expose this instance publicly")
			managerOpts = append(managerOpts, console.WithDevProvider(dev))
		}
	}
	manager := console.NewManager(
		console.NewRemoteCredentialProvider(store),
		tokens,
		func(token string) console.Backend { return store.WithToken(token) },
		console.ManagerConfig{
			PollInterval: cfg.Console.PollInterval,
			SessionTTL:   cfg.Console.SessionTTL,
		},
		managerOpts...,
	)

	// Rate limiters for login and chat
	authLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
	chatLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests*3, cfg.HTTP.RateLimitWindow)

	// Housekeeping for in-memory sessions
	janitor := scheduler.NewJanitor(log)
	sweepers := []struct {
		name     string
		sweeper  scheduler.Sweeper
		interval time.Duration
	}{
		{"wizard_sessions", wizardService, time.Minute},
		{"chat_sessions", chatService, time.Minute},
		{"console_sessions", manager, time.Minute},
		{"auth_rate_limiter", authLimiter, cfg.HTTP.RateLimitWindow},
		{"chat_rate_limiter", chatLimiter, cfg.HTTP.RateLimitWindow},
	}
	for _, s := range sweepers {
		if err := janitor.Register(s.name, s.sweeper, s.interval); err != nil {
			log.Fatal("Failed to register sweeper", zap.String("name", s.name), zap.Error(err))
		}
	}
	janitor.Start(rootCtx)

	// Set Gin mode based on environment
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	securityConfig := middleware.DefaultSecurityConfig()
	securityConfig.HSTSEnabled = cfg.App.IsProduction()

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.SecureWithConfig(securityConfig),
		middleware.CORSWithConfig(corsConfig),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Timeout(cfg.HTTP.WriteTimeout-time.Second),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
		}),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			Enabled:       meterProvider.IsEnabled(),
		}),
	)
	if profiler.IsEnabled() {
		engine.Use(middleware.Profiling(middleware.DefaultProfilingConfig()))
	}

	// Health check
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version)
	if pinger, ok := tokens.(interface{ Ping(context.Context) error }); ok {
		systemHandler.AddCheck("redis", pinger.Ping)
	}
	engine.GET("/health", systemHandler.Health)

	// API documentation
	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any",
			middleware.SwaggerProtection(middleware.SwaggerConfig{
				Enabled:     cfg.Swagger.Enabled,
				RequireAuth: cfg.Swagger.RequireAuth,
				AllowedIPs:  cfg.Swagger.AllowedIPs,
			}, middleware.AdminSession(manager)),
			ginSwagger.WrapHandler(swaggerFiles.Handler),
		)
	}

	// Handlers
	insightHandler := handler.NewInsightHandler(newsService, chatService)
	adminHandler := handler.NewAdminHandler(manager)
	if cfg.HTTP.RateLimitEnabled {
		insightHandler.UseChatMiddleware(middleware.RateLimit(chatLimiter))
		adminHandler.UseAuthMiddleware(middleware.RateLimit(authLimiter))
	}

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewContentHandler(contentService)).
		Register(handler.NewLeadHandler(contactService)).
		Register(handler.NewWizardHandler(wizardService)).
		Register(insightHandler).
		Register(adminHandler).
		Register(systemRoutes)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr), zap.String("api", r.Prefix()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := manager.Shutdown(ctx); err != nil {
		log.Warn("Console sessions did not stop cleanly", zap.Error(err))
	}
	if err := janitor.Stop(ctx); err != nil {
		log.Warn("Janitor did not stop cleanly", zap.Error(err))
	}
	stopRoot()
	if err := tracerProvider.Shutdown(ctx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := meterProvider.Shutdown(ctx); err != nil {
		log.Warn("Meter provider shutdown failed", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Profiler stop failed", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(ctx); err != nil {
		log.Warn("Logger provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
