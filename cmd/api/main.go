package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/carepoint-health/appointments/backend/internal/adapters/cache"
	"github.com/carepoint-health/appointments/backend/internal/adapters/database"
	"github.com/carepoint-health/appointments/backend/internal/adapters/events"
	"github.com/carepoint-health/appointments/backend/internal/adapters/search"
	"github.com/carepoint-health/appointments/backend/internal/api/handlers"
	"github.com/carepoint-health/appointments/backend/internal/api/middleware"
	"github.com/carepoint-health/appointments/backend/internal/api/routes"
	"github.com/carepoint-health/appointments/backend/internal/application/services"
	"github.com/carepoint-health/appointments/backend/internal/domain/providers"
	"github.com/carepoint-health/appointments/backend/internal/domain/repositories"
	"github.com/carepoint-health/appointments/backend/internal/infrastructure/clients/postgres"
	"github.com/carepoint-health/appointments/backend/internal/infrastructure/clients/redis"
	"github.com/carepoint-health/appointments/backend/internal/infrastructure/clients/typesense"
	"github.com/carepoint-health/appointments/backend/internal/infrastructure/observability"
	"github.com/carepoint-health/appointments/backend/pkg/config"
)

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - booking works without cache or events
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	// Initialize Typesense client
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Printf("Warning: Failed to initialize Typesense client: %v", err)
		typesenseClient = nil
	} else {
		log.Println("Typesense client initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Println("Event bus initialized successfully")
	} else {
		log.Println("Event bus disabled (Redis not available)")
	}

	var searchRepo repositories.DoctorSearchRepository
	if typesenseClient != nil {
		adapter := search.NewTypesenseAdapter(typesenseClient)
		if err := adapter.InitSchema(context.Background()); err != nil {
			log.Printf("Warning: Failed to init Typesense schema: %v", err)
		}
		searchRepo = adapter
	}

	// Initialize adapters
	bookingAdapter := database.NewBookingAdapter(pgClient)
	slotAdapter := database.NewSlotAdapter(pgClient)
	availabilityAdapter := database.NewAvailabilityAdapter(pgClient)
	hospitalAdapter := database.NewHospitalAdapter(pgClient)
	userAdapter := database.NewUserAdapter(pgClient)

	baseDoctorAdapter := database.NewDoctorAdapter(pgClient)
	var doctorAdapter repositories.DoctorRepository
	if cacheProvider != nil {
		doctorAdapter = database.NewCachedDoctorAdapter(baseDoctorAdapter, cacheProvider)
		log.Println("Doctor adapter wrapped with caching layer")
	} else {
		doctorAdapter = baseDoctorAdapter
		log.Println("Doctor adapter running without cache (Redis unavailable)")
	}

	// Initialize services
	authService := services.NewAuthService(userAdapter, hospitalAdapter, cfg.Auth.JWTSecret, cfg.Auth.TokenTTLHours)
	bookingService := services.NewBookingService(
		bookingAdapter,
		doctorAdapter,
		eventBus,
		metrics,
		cfg.Booking.DailyLimit,
		cfg.Booking.CancelDeadlineMinutes,
	)
	scheduleService := services.NewScheduleService(slotAdapter, availabilityAdapter, doctorAdapter)
	directoryService := services.NewDirectoryService(doctorAdapter, hospitalAdapter, searchRepo)
	dashboardService := services.NewDashboardService(bookingAdapter, doctorAdapter)

	completionService := services.NewCompletionService(bookingAdapter, cfg.Booking.CompletionCron)
	if err := completionService.Start(); err != nil {
		log.Fatalf("Failed to start completion sweep: %v", err)
	}
	log.Println("Completion sweep scheduled")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	doctorHandler := handlers.NewDoctorHandler(directoryService, scheduleService)
	hospitalHandler := handlers.NewHospitalHandler(directoryService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	authMiddleware := middleware.NewAuthMiddleware(authService)

	// Set up router
	router := routes.NewRouter(
		authHandler,
		bookingHandler,
		doctorHandler,
		hospitalHandler,
		dashboardHandler,
		authMiddleware,
		metrics,
	)

	handler := router.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	completionService.Stop()

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	log.Println("Server stopped")
}
