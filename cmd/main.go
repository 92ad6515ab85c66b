package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/arzan03/codedrop/internal/config"
	"github.com/arzan03/codedrop/internal/db"
	"github.com/arzan03/codedrop/internal/handlers"
	"github.com/arzan03/codedrop/internal/middleware"
	"github.com/arzan03/codedrop/internal/ratelimit"
	"github.com/arzan03/codedrop/internal/services"
	"github.com/arzan03/codedrop/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it, using environment variables")
	}
	cfg := config.Load()

	// Initialize Fiber
	app := fiber.New(fiber.Config{
		BodyLimit: int(cfg.FileSizeLimit) + 1024*1024,
	})
	app.Use(logger.New())
	app.Use(cors.New())

	// Connect backends
	mongoDB := db.ConnectMongoDB(cfg.MongoURI, cfg.MongoDB)
	blobs, err := storage.NewMinio(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("MinIO initialization failed: %v", err)
	}

	codeStore := db.NewCodeStore(mongoDB)
	optionStore := db.NewOptionStore(mongoDB)

	// Two independent limiters: wrong-code attempts and uploads.
	errorLimiter := ratelimit.NewIPLimiter(cfg.ErrorCount, cfg.ErrorWindow, cfg.ErrorWindow)
	uploadLimiter := ratelimit.NewIPLimiter(cfg.UploadCount, cfg.UploadWindow, cfg.UploadWindow)

	gen := services.NewCodeGenerator(codeStore, cfg.CodeLength)
	codeService := services.NewCodeService(codeStore, blobs, gen, cfg.FileSizeLimit, cfg.MaxDays)
	authService := services.NewAuthService(cfg.AdminPassword, cfg.JWTSecret)

	reaper := services.NewReaper(codeStore, blobs, cfg.ReaperInterval, errorLimiter, uploadLimiter)
	reaper.Start()
	defer reaper.Stop()

	handlers.InitCodeHandler(codeService, authService, errorLimiter, uploadLimiter,
		cfg.ErrorCount, cfg.EnableUpload, cfg.FileSizeLimit)
	handlers.InitAdminHandler(optionStore)
	middleware.InitAdminMiddleware(cfg.JWTSecret)

	// Share and redeem routes
	app.Post("/share", handlers.ShareHandler)
	app.Post("/code", handlers.RedeemHandler)
	app.Get("/select", handlers.FetchHandler)

	// Admin routes
	app.Post("/admin/login", handlers.AdminLoginHandler)
	admin := app.Group("/admin", middleware.AdminMiddleware)
	admin.Get("/codes", handlers.AdminListCodes)
	admin.Delete("/codes/:code", handlers.AdminDeleteCode)
	admin.Get("/config", handlers.AdminGetConfig)
	admin.Patch("/config", handlers.AdminPatchConfig)

	// Shut the reaper down cleanly on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("Shutting down...")
		_ = app.Shutdown()
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
