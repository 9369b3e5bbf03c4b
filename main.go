package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/VanitasCaesar1/hospital/cache"
	"github.com/VanitasCaesar1/hospital/config"
	"github.com/VanitasCaesar1/hospital/handlers"
	"github.com/VanitasCaesar1/hospital/middleware"
	"github.com/VanitasCaesar1/hospital/ratelimit"
	"github.com/VanitasCaesar1/hospital/store"
	"github.com/VanitasCaesar1/hospital/utils"
)

type App struct {
	Fiber  *fiber.App
	Store  *store.Store
	Redis  *redis.Client
	Ctx    context.Context
	Config *config.Config
	Logger *zap.Logger

	counter ratelimit.Counter
	sweeper *ratelimit.MemoryCounter
	cancel  context.CancelFunc
}

func NewApp() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %v", err)
	}

	logger, err := utils.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	db, err := store.Connect(ctx, cfg.MongoDBURL, cfg.MongoDBName, logger)
	if err != nil {
		cancel()
		return nil, err
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to ensure indexes: %v", err)
	}

	app := &App{
		Store:  db,
		Ctx:    ctx,
		Config: cfg,
		Logger: logger,
		cancel: cancel,
	}

	// Redis is optional. Without it rate limits are counted per process and
	// doctor lookups are not cached.
	if cfg.RedisURL != "" {
		redisOpt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("redis URL parsing failed: %v", err)
		}

		redisClient := redis.NewClient(redisOpt)
		maxRedisRetries := 5
		for i := 0; i < maxRedisRetries; i++ {
			_, err = redisClient.Ping(ctx).Result()
			if err == nil {
				break
			}
			logger.Warn("failed to connect to redis, retrying...",
				zap.Error(err),
				zap.Int("attempt", i+1))
			time.Sleep(time.Second * time.Duration(i+1))
		}
		if err != nil {
			cancel()
			return nil, fmt.Errorf("redis connection failed after %d attempts: %v", maxRedisRetries, err)
		}
		app.Redis = redisClient
		app.counter = ratelimit.NewRedisCounter(redisClient)
	} else {
		logger.Warn("REDIS_URL not set, using in-process rate limit counters")
		app.sweeper = ratelimit.NewMemoryCounter()
		app.counter = app.sweeper
	}

	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			logger.Error("request error",
				zap.Error(err),
				zap.String("path", c.Path()),
				zap.Int("status", code))
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
	})

	fiberApp.Use(middleware.Recovery(logger))
	fiberApp.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       300,
	}))
	fiberApp.Use(middleware.RequestLogger(logger))

	app.Fiber = fiberApp
	return app, nil
}

func (a *App) setupRoutes() {
	var doctorCache handlers.Cache
	if a.Redis != nil {
		doctorCache = cache.NewCache(a.Redis, "hospital:", a.Config.CacheTTL)
	}

	ids := utils.NewIDGenerator()
	slugs := utils.NewSlugGenerator(ids)
	v := handlers.NewValidator()
	directory := handlers.NewDoctorDirectory(a.Store.Doctors(), doctorCache, a.Logger)

	doctorHandler := handlers.NewDoctorHandler(a.Store.Doctors(), a.Store.Departments(), a.Store.Appointments(),
		directory, slugs, v, a.Logger, a.Config.SlotInterval)
	appointmentHandler := handlers.NewAppointmentHandler(a.Store.Appointments(), directory, ids, v, a.Logger, a.Config.SlotInterval)
	departmentHandler := handlers.NewDepartmentHandler(a.Store.Departments(), slugs, v, a.Logger)
	catalogHandler := handlers.NewCatalogHandler(a.Store.Products(), a.Store.Services(), slugs, v, a.Logger)
	orderHandler := handlers.NewOrderHandler(a.Store.Products(), a.Store.Orders(), ids, v, a.Logger)
	applicantHandler := handlers.NewApplicantHandler(a.Store.Applicants(), v, a.Logger)

	checks := map[string]handlers.HealthCheck{"mongodb": a.Store.Ping}
	if a.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() }
	}
	a.Fiber.Get("/health", handlers.NewHealthHandler(checks, a.Logger).Health)

	globalLimiter := ratelimit.NewLimiter(a.counter, a.Config.RateLimitMax, a.Config.RateLimitWindow, "rl:api")
	bookingLimiter := ratelimit.NewLimiter(a.counter, a.Config.BookingRateLimitMax, a.Config.RateLimitWindow, "rl:write")
	limitWrites := middleware.RateLimit(bookingLimiter, a.Logger, a.Config.RateLimitFailOpen, middleware.ByIPAndRoute)

	api := a.Fiber.Group("/api", middleware.RateLimit(globalLimiter, a.Logger, a.Config.RateLimitFailOpen, middleware.ByIP))

	api.Get("/departments", departmentHandler.ListDepartments)
	api.Get("/doctors", doctorHandler.ListDoctors)
	api.Get("/doctors/:slug", doctorHandler.GetDoctor)
	api.Get("/doctors/:slug/availability", doctorHandler.GetAvailability)
	api.Post("/appointments", limitWrites, appointmentHandler.BookAppointment)
	api.Get("/appointments/:reference", appointmentHandler.GetAppointment)
	api.Get("/products", catalogHandler.ListProducts)
	api.Get("/products/:slug", catalogHandler.GetProduct)
	api.Get("/services", catalogHandler.ListServices)
	api.Post("/orders", limitWrites, orderHandler.CreateOrder)
	api.Post("/applicants", limitWrites, applicantHandler.Apply)

	// Back-office routes. They carry no authentication of their own.
	admin := api.Group("/admin")

	admin.Get("/doctors", doctorHandler.AdminListDoctors)
	admin.Post("/doctors", doctorHandler.CreateDoctor)
	admin.Put("/doctors/:id", doctorHandler.UpdateDoctor)
	admin.Delete("/doctors/:id", doctorHandler.DeleteDoctor)

	admin.Get("/departments", departmentHandler.ListDepartments)
	admin.Post("/departments", departmentHandler.CreateDepartment)
	admin.Put("/departments/:id", departmentHandler.UpdateDepartment)
	admin.Delete("/departments/:id", departmentHandler.DeleteDepartment)

	admin.Get("/products", catalogHandler.AdminListProducts)
	admin.Post("/products", catalogHandler.CreateProduct)
	admin.Put("/products/:id", catalogHandler.UpdateProduct)
	admin.Delete("/products/:id", catalogHandler.DeleteProduct)

	admin.Get("/services", catalogHandler.AdminListServices)
	admin.Post("/services", catalogHandler.CreateService)
	admin.Put("/services/:id", catalogHandler.UpdateService)
	admin.Delete("/services/:id", catalogHandler.DeleteService)

	admin.Get("/appointments", appointmentHandler.AdminListAppointments)
	admin.Patch("/appointments/:id/status", appointmentHandler.UpdateAppointmentStatus)
	admin.Delete("/appointments/:id", appointmentHandler.DeleteAppointment)

	admin.Get("/orders", orderHandler.AdminListOrders)
	admin.Patch("/orders/:id/status", orderHandler.UpdateOrderStatus)

	admin.Get("/applicants", applicantHandler.AdminListApplicants)
	admin.Patch("/applicants/:id/status", applicantHandler.UpdateApplicantStatus)
	admin.Delete("/applicants/:id", applicantHandler.DeleteApplicant)
}

// sweepCounters drops expired in-process rate limit windows.
func (a *App) sweepCounters(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-a.Ctx.Done():
			return
		case <-ticker.C:
			if n := a.sweeper.Sweep(); n > 0 {
				a.Logger.Debug("expired rate limit windows removed", zap.Int("count", n))
			}
		}
	}
}

func (a *App) Start() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	a.setupRoutes()
	if a.sweeper != nil {
		go a.sweepCounters(a.Config.RateLimitWindow)
	}

	go func() {
		if err := a.Fiber.Listen(":" + a.Config.ServerPort); err != nil {
			a.Logger.Fatal("failed to start server",
				zap.Error(err),
				zap.String("port", a.Config.ServerPort))
		}
	}()

	a.Logger.Info("server started",
		zap.String("port", a.Config.ServerPort),
		zap.String("environment", a.Config.Environment))

	<-sigChan
	a.Logger.Info("shutting down server...")

	if err := a.Fiber.Shutdown(); err != nil {
		a.Logger.Error("error during server shutdown",
			zap.Error(err))
	}
	a.cancel()

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Store.Close(closeCtx); err != nil {
		a.Logger.Error("error closing mongodb connection",
			zap.Error(err))
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("error closing redis connection",
				zap.Error(err))
		}
	}
	if err := a.Logger.Sync(); err != nil {
		log.Printf("error syncing logger: %v", err)
	}

	return nil
}

func main() {
	app, err := NewApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Start(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}
