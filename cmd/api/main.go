package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"caloriesense-backend/cmd"
	"caloriesense-backend/internal/api"
	"caloriesense-backend/internal/database"
	"caloriesense-backend/internal/genai"
	"caloriesense-backend/internal/history"
	"caloriesense-backend/internal/storage"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type APIConfig struct {
	DatabaseURL string `env:"DATABASE_URL" envDefault:"caloriesense.db"`

	GeminiAPIKey      string `env:"GEMINI_API_KEY,notEmpty,required"`
	GeminiBaseURL     string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	GeminiModel       string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiVisionModel string `env:"GEMINI_VISION_MODEL" envDefault:"gemini-1.5-pro"`

	ImageStoreBackend string `env:"IMAGE_STORE" envDefault:"local"`
	ImageDir          string `env:"IMAGE_DIR" envDefault:"./data/bills"`
	ImageBucketName   string `env:"IMAGE_BUCKET_NAME" envDefault:"bill-images"`
	S3EndpointURL     string `env:"S3_ENDPOINT_URL" envDefault:""`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" envDefault:""`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" envDefault:""`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`

	APIPort string `env:"API_PORT" envDefault:"8002"`
}

func createImageStore(cfg APIConfig) (storage.ObjectStore, error) {
	if cfg.ImageStoreBackend == "s3" {
		return storage.NewS3ObjectStore(storage.S3ClientConfig{
			Endpoint:        cfg.S3EndpointURL,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		}, cfg.ImageBucketName)
	}
	return storage.NewLocalObjectStore(cfg.ImageDir)
}

func main() {
	log.Println("Starting API Server...")

	cmd.LoadEnvFile()

	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	images, err := createImageStore(cfg)
	if err != nil {
		log.Fatalf("Failed to create image store: %v", err)
	}

	llm := genai.NewClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiVisionModel)

	// --- Chi Router Setup ---
	r := chi.NewRouter()

	// Middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)                    // Log requests
	r.Use(middleware.Recoverer)                 // Recover from panics
	r.Use(middleware.Timeout(90 * time.Second)) // Set request timeout

	// API Handlers (dependency injection)
	apiHandler := api.NewCalorieService(history.NewStore(db), llm, images)

	apiHandler.AddRoutes(r)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: r,
	}

	// Goroutine for graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("API server listening on port %s", cfg.APIPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
	}

	log.Println("Server stopped.")
}
