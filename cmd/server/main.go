/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Warp Estate Engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load the tax year constants table (YAML file or built-in defaults)
  3. Initialize SQLite store
  4. Create gift tracker, IHT calculator, and estate service
  5. Create API handler and router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: estate.db)
           Use ":memory:" for in-memory database
  -rates   Optional tax year constants YAML (default: built-in table)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/estate.db"

  # Run with in-memory database and a custom constants file
  ./server -db=":memory:" -rates="./config/taxyears.yaml"

ENVIRONMENT:
  No environment variables currently. All config via flags.
  Future: DATABASE_URL, PORT, LOG_LEVEL

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - factory/constants.go: Constants table loading
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/estate-engine/api"
	"github.com/warp/estate-engine/estate"
	"github.com/warp/estate-engine/factory"
	"github.com/warp/estate-engine/gift"
	"github.com/warp/estate-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "estate.db", "SQLite database path")
	ratesPath := flag.String("rates", "", "tax year constants YAML (empty = built-in table)")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	// Tax year constants
	table := factory.TableFromFileOrDefault(*ratesPath, logger)

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Domain services
	tracker := gift.NewTracker(table)
	calculator := estate.NewCalculator(table)
	service := estate.NewService(store, store, store, tracker, calculator)

	// HTTP layer
	handler := api.NewHandler(store, store, store, service, api.NewMetrics())
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
