package main

import (
	"context"
	"log"
	"os"
	"time"

	"philoschat/internal/api"
	"philoschat/internal/auth"
	"philoschat/internal/completion"
	"philoschat/internal/config"
	"philoschat/internal/persona"
	"philoschat/internal/redis"
	"philoschat/internal/service/chat"
	"philoschat/internal/storage"
	"philoschat/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Optional .env file for local development.
	_ = godotenv.Load()

	cfgPath := os.Getenv("PHILOSCHAT_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbType := os.Getenv("PHILOSCHAT_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	log.Printf("dbType: %s\n", dbType)
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	// Create necessary tables: users, sessions, messages, refresh_tokens
	if err := storage.Migrate(db, dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// The refresh token cache is an optimization; the database stays
	// authoritative, so a missing redis only costs a lookup per refresh.
	rdb, err := redis.NewClient(cfg)
	if err != nil {
		log.Printf("redis unavailable, continuing without cache: %v", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	seed := persona.Seed()
	if path := cfg.BasicConfig.PersonasPath; path != "" {
		seed, err = persona.LoadFile(path)
		if err != nil {
			log.Fatalf("load personas: %v", err)
		}
	}
	personas := persona.NewRegistry(seed)

	completer, err := completion.NewClient(context.Background(), cfg.Completion)
	if err != nil {
		log.Fatalf("init completion client: %v", err)
	}

	accessTTL := time.Duration(cfg.Auth.AccessTTLMinutes) * time.Minute
	refreshTTL := time.Duration(cfg.Auth.RefreshTTLHours) * time.Hour
	authService := auth.NewService(db, rdb, cfg.Auth.JWTSecret, accessTTL, refreshTTL)
	chatService := chat.NewService(db, personas, completer)

	router := gin.Default()
	handlers := api.NewHandler(chatService, authService, personas)
	handlers.RegisterRoutes(router)
	if err := web.RegisterRoutes(router, personas); err != nil {
		log.Fatalf("register web routes: %v", err)
	}

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
