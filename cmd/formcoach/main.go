package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/formcoach/formcoach/internal/database"
	"github.com/formcoach/formcoach/internal/handlers"
	"github.com/formcoach/formcoach/internal/models"
	"github.com/formcoach/formcoach/internal/scheduler"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env if present; real env vars win.
	_ = godotenv.Load()

	dbPath := os.Getenv("FORMCOACH_DB_PATH")
	if dbPath == "" {
		dbPath = "formcoach.db"
	}

	addr := os.Getenv("FORMCOACH_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Printf("Database ready: %s", filepath.Clean(dbPath))

	// Encryption key for sensitive settings (AI API key etc).
	if _, source, err := models.GetOrCreateSecretKey(db); err != nil {
		log.Fatalf("Failed to initialize secret key: %v", err)
	} else {
		log.Printf("Secret key loaded (source: %s)", source)
	}

	if err := bootstrapAdmin(db); err != nil {
		log.Fatalf("Failed to bootstrap admin: %v", err)
	}

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.New(db)
	sessionManager.Lifetime = 30 * 24 * time.Hour
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = os.Getenv("FORMCOACH_SECURE_COOKIES") == "true"

	sched := scheduler.New(db)
	sched.Start()

	router, stopLimiters := handlers.Routes(db, sessionManager, sched)

	server := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// Analyze and weekly-plan requests wait on the AI provider.
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("FormCoach listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown: %v", err)
	}

	sched.Stop()
	stopLimiters()
}

// bootstrapAdmin creates the initial admin user from environment variables
// if no users exist in the database.
func bootstrapAdmin(db *sql.DB) error {
	count, err := models.CountUsers(db)
	if err != nil {
		return fmt.Errorf("check user count: %w", err)
	}
	if count > 0 {
		return nil
	}

	username := os.Getenv("FORMCOACH_ADMIN_USER")
	password := os.Getenv("FORMCOACH_ADMIN_PASS")
	email := os.Getenv("FORMCOACH_ADMIN_EMAIL")

	if username == "" || password == "" {
		// First registered user becomes admin instead.
		log.Println("No users exist; first registration will be granted admin")
		return nil
	}

	user, err := models.CreateUser(db, username, password, email, true)
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	log.Printf("Bootstrapped admin user: %s (id=%d)", user.Username, user.ID)
	return nil
}
