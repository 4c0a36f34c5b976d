package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"

	"github.com/cardledger/backend/internal/audit"
	"github.com/cardledger/backend/internal/config"
	"github.com/cardledger/backend/internal/crypto"
	"github.com/cardledger/backend/internal/database"
	"github.com/cardledger/backend/internal/handlers"
	"github.com/cardledger/backend/internal/middleware"
	"github.com/cardledger/backend/internal/models"
	"github.com/cardledger/backend/internal/services"
)

func main() {
	config.Load()

	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	vault, err := crypto.New(crypto.Config{
		MasterKey: viper.GetString("card.crypto.master_key"),
		HashKey:   viper.GetString("card.crypto.hash_key"),
		Salt:      viper.GetString("card.crypto.salt"),
	})
	if err != nil {
		log.Fatalf("Failed to initialize card vault: %v", err)
	}

	auditSink := audit.NewLogSink()

	userService := services.NewUserService(db)
	cardService := services.NewCardService(db, vault, userService)
	transferService := services.NewTransferService(db)
	paymentService := services.NewPaymentService(db, cardService, transferService, auditSink)
	blockRequestService := services.NewBlockRequestService(db, cardService, userService, auditSink)
	authService := services.NewAuthService(userService, redisClient)

	seedAdmin(userService)

	authHandler := handlers.NewAuthHandler(authService, userService)
	cardHandler := handlers.NewCardHandler(cardService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, transferService, cardService)
	blockRequestHandler := handlers.NewBlockRequestHandler(blockRequestService)

	middleware.InitAuthMiddleware(redisClient)

	r := chi.NewRouter()

	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware)

			r.Post("/auth/logout", authHandler.Logout)

			r.Get("/cards/my", cardHandler.ListMine)
			r.Get("/cards/{cardID}", cardHandler.Get)
			r.Get("/cards/{cardID}/balance", cardHandler.Balance)
			r.Get("/cards/{cardID}/transfers", paymentHandler.HistoryByCard)

			r.Post("/transfers", paymentHandler.Transfer)

			r.Post("/block-requests", blockRequestHandler.Create)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))

				r.Post("/cards", cardHandler.Create)
				r.Post("/cards/search", cardHandler.Search)
				r.Put("/cards/{cardID}/status", cardHandler.UpdateStatus)
				r.Delete("/cards/{cardID}", cardHandler.Delete)

				r.Get("/users/{username}/cards", cardHandler.ListByUsername)
				r.Get("/users/{username}/transfers", paymentHandler.HistoryByUsername)

				r.Get("/block-requests/{requestID}", blockRequestHandler.Get)
				r.Put("/block-requests/{requestID}", blockRequestHandler.Process)
				r.Post("/block-requests/search", blockRequestHandler.Search)
				r.Get("/block-requests/processed-by/{adminID}", blockRequestHandler.ListByProcessor)
			})
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}

// seedAdmin creates the bootstrap admin account on first start.
func seedAdmin(users *services.UserService) {
	username := viper.GetString("bootstrap.admin_username")
	password := viper.GetString("bootstrap.admin_password")
	if username == "" || password == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := users.Register(ctx, username, password, models.RoleAdmin); err != nil {
		if errors.Is(err, models.ErrUserDuplicate) {
			return
		}
		log.Printf("Warning: Failed to seed admin account: %v", err)
		return
	}
	log.Printf("Seeded admin account %s", username)
}
