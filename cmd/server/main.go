package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-relay/config"
	"chat-relay/handlers"
	"chat-relay/models"
	"chat-relay/repository"
	"chat-relay/services"
	"chat-relay/ws"
)

// loggingMiddleware adds request logging
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("Started %s %s", r.Method, r.URL.Path)

		next.ServeHTTP(w, r)

		log.Printf("Completed %s %s in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Sec-WebSocket-Protocol, Sec-WebSocket-Extensions, Sec-WebSocket-Key, Sec-WebSocket-Version, Upgrade, Connection")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	// --- config/env ---
	cfg := config.Load()

	log.Printf("Starting chat relay on port %s", cfg.Port)

	// --- repos: MongoDB when configured, in-memory otherwise ---
	var (
		userRepo repository.UserRepository
		msgRepo  repository.MessageRepository
		roomRepo repository.RoomRepository
	)
	if cfg.MongoURI != "" {
		client, err := repository.ConnectMongo(context.Background(), cfg.MongoURI)
		if err != nil {
			log.Fatalf("MongoDB connection error: %v", err)
		}
		defer client.Disconnect(context.Background())
		db := client.Database(cfg.MongoDB)
		userRepo = repository.NewMongoUserRepo(db)
		msgRepo = repository.NewMongoMessageRepo(db)
		roomRepo = repository.NewMongoRoomRepo(db)
		log.Printf("MongoDB connected, database %q", cfg.MongoDB)
	} else {
		userRepo = repository.NewInMemoryUserRepo()
		msgRepo = repository.NewInMemoryMessageRepo()
		roomRepo = repository.NewInMemoryRoomRepo()
		log.Printf("MONGO_URI not set, using in-memory stores")
	}

	// --- create default room ---
	if _, err := roomRepo.Create(context.Background(), &models.Room{Name: "General"}); err != nil && err != repository.ErrDuplicate {
		log.Printf("Warning: could not create default room: %v", err)
	}

	// --- websocket hub ---
	hub := ws.NewHub()

	// --- services ---
	authSvc := services.NewAuthService(userRepo, &cfg)
	msgSvc := services.NewMessageService(msgRepo, roomRepo, hub, &cfg)
	roomSvc := services.NewRoomService(roomRepo)

	// --- handlers ---
	authH := handlers.NewAuthHandler(authSvc)
	msgH := handlers.NewMessageHandler(msgSvc, authSvc)
	roomH := handlers.NewRoomHandler(hub, roomSvc, authSvc, msgSvc)

	// --- mux and routes ---
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
	})

	mux.HandleFunc("/api/register", authH.Register)
	mux.HandleFunc("/api/login", authH.Login)
	mux.HandleFunc("/api/rooms", roomH.WithAuth(roomH.Rooms))         // GET list rooms
	mux.HandleFunc("/api/rooms/create", roomH.WithAuth(roomH.Create)) // POST create room
	mux.HandleFunc("/api/messages", msgH.WithAuth(msgH.ListMessages)) // GET ?room=general
	mux.HandleFunc("/ws", roomH.WS)                                   // WS ?token=<token>

	handler := withCORS(loggingMiddleware(mux))

	// --- server setup ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- graceful shutdown ---
	go func() {
		log.Printf("Chat relay running on http://localhost:%s", cfg.Port)
		log.Printf("WS endpoint: ws://localhost:%s/ws?token=<token>", cfg.Port)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
