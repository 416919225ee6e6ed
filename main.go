package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"deckforge/internal/handlers"
	"deckforge/internal/middleware"
	"deckforge/internal/models"
	"deckforge/internal/repositories"
	"deckforge/internal/services"
	"deckforge/pkg/rabbitmq"
	"deckforge/pkg/scryfall"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=deckforge port=5432 sslmode=disable")
	viper.SetDefault("JWT_SECRET", "change_me_in_production")
	viper.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("SCRYFALL_BASE_URL", scryfall.DefaultBaseURL)
	viper.SetDefault("LAST_SYNC_FILE", "last_sync.txt")
	viper.AutomaticEnv() // Load environment variables

	appPort := viper.GetString("APP_PORT")

	// --- Database ---
	gormConfig := &gorm.Config{}
	db, err := gorm.Open(postgres.Open(viper.GetString("DATABASE_DSN")), gormConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	err = db.AutoMigrate(
		&models.Color{},
		&models.Set{},
		&models.Card{},
		&models.User{},
		&models.Deck{},
		&models.DeckCard{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- RabbitMQ (optional) ---
	// Sync completion events are published when a broker is configured; the
	// app runs fine without one.
	var mqClient *rabbitmq.Client
	if mqURL := viper.GetString("RABBITMQ_URL"); mqURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: mqURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
	} else {
		log.Println("RABBITMQ_URL not set, sync event publishing disabled")
	}

	// --- Repositories ---
	cardRepo := repositories.NewGORMCardRepository(db)
	setRepo := repositories.NewGORMSetRepository(db)
	colorRepo := repositories.NewGORMColorRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	deckRepo := repositories.NewGORMDeckRepository(db)

	// Seed the fixed color enumeration; a no-op once all five exist.
	if err := colorRepo.Seed(); err != nil {
		log.Fatalf("Failed to seed colors: %v", err)
	}

	// --- Services ---
	catalogClient := scryfall.NewClient(viper.GetString("SCRYFALL_BASE_URL"))
	authService := services.NewAuthService(userRepo, viper.GetString("JWT_SECRET"))
	cardService := services.NewCardService(cardRepo)
	setService := services.NewSetService(setRepo)
	deckService := services.NewDeckService(deckRepo)
	userService := services.NewUserService(userRepo)

	var publisher services.SyncPublisher
	if mqClient != nil {
		publisher = mqClient
	}
	syncService := services.NewSyncService(
		catalogClient, setRepo, colorRepo, cardRepo, publisher,
		viper.GetString("LAST_SYNC_FILE"),
	)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	cardHandler := handlers.NewCardHandler(cardService)
	setHandler := handlers.NewSetHandler(setService)
	deckHandler := handlers.NewDeckHandler(deckService)
	userHandler := handlers.NewUserHandler(userService)
	syncHandler := handlers.NewSyncHandler(syncService)

	// --- Fiber app ---
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: viper.GetBool("DEBUG"),
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: viper.GetString("CORS_ORIGINS"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")

	// Public routes
	authHandler.RegisterRoutes(apiV1)

	// Authenticated routes
	authRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	cardHandler.RegisterRoutes(authRoutes)
	setHandler.RegisterRoutes(authRoutes)
	deckHandler.RegisterRoutes(authRoutes)

	// Admin-only routes
	adminRoutes := authRoutes.Group("", middleware.AdminRequired())
	userHandler.RegisterRoutes(authRoutes, adminRoutes)
	syncHandler.RegisterRoutes(adminRoutes)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Sync event consumer ---
	// Downstream processing of completion events, when a broker is around.
	if mqClient != nil {
		go func() {
			log.Println("Starting RabbitMQ consumer for sync events...")
			messageHandler := func(msg amqp.Delivery) error {
				log.Printf("Received sync event (tag %d): %s", msg.DeliveryTag, string(msg.Body))
				return nil
			}
			if consumerErr := mqClient.ConsumeSyncEvents(messageHandler); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", appPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}
