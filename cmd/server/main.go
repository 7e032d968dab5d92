/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the microcredit engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Wire the credit service and API handler
  4. Start the delinquency sweep
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: microcredit.db)
           Use ":memory:" for an in-memory database
  -sweep   Cron spec for the delinquency sweep (default: "0 6 * * *",
           empty string disables it)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sweep and close the database
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/loans.db"

  # Run with in-memory database, no sweep
  ./server -db=":memory:" -sweep=""

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/microcredit-engine/api"
	"github.com/warp/microcredit-engine/credit"
	"github.com/warp/microcredit-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "microcredit.db", "SQLite database path")
	sweepSpec := flag.String("sweep", "0 6 * * *", "cron spec for the delinquency sweep (empty disables)")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	// Wire service and handler
	service := credit.NewService(store)
	handler := api.NewHandler(service, log)
	router := api.NewRouter(handler)

	// Delinquency sweep
	var sweep *api.DelinquencySweep
	if *sweepSpec != "" {
		sweep = api.NewDelinquencySweep(service, log, *sweepSpec)
		if err := sweep.Start(); err != nil {
			log.WithError(err).Fatal("failed to start delinquency sweep")
		}
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}
	if sweep != nil {
		sweep.Stop()
	}

	log.Info("server stopped")
}
