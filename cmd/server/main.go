/*
main.go - Entry point for the schedule engine server

PURPOSE:
  Wires the SQLite store into the HTTP handler stack and runs the server
  until SIGINT/SIGTERM, then drains in-flight requests before exiting.

FLAGS:
  -port  listen port (default 8080)
  -db    SQLite database file; ":memory:" keeps everything in RAM,
         useful with the demo scenarios under /api/scenarios

The engine itself never reads the clock or the environment; everything
date-dependent arrives in request bodies, so this binary is just
transport plus persistence wiring.

SEE ALSO:
  - api/server.go: route table and middleware
  - store/sqlite/sqlite.go: schedule persistence
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

	"github.com/warp/finance-engine/api"
	"github.com/warp/finance-engine/store/sqlite"
)

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "finance.db", "SQLite database path")
	flag.Parse()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("opening schedule store: %v", err)
	}
	defer store.Close()

	router := api.NewRouter(api.NewHandler(store))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("schedule engine listening on :%d (db %s)", *port, *dbPath)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down, draining requests")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Println("server stopped")
}
