package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/whatsview/whatsview-backend/internal/config"
	"github.com/whatsview/whatsview-backend/internal/ingest"
	"github.com/whatsview/whatsview-backend/internal/services"
	"github.com/whatsview/whatsview-backend/internal/store"
)

// Batch payload ingestion: reads every *.json webhook payload in a directory and
// reconciles it into the processed_messages collection. Safe to re-run on the same
// inputs. Prints the run's counters as JSON.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	dir := flag.String("dir", cfg.IngestDir, "directory containing webhook payload *.json files")
	flag.Parse()

	if _, err := os.Stat(*dir); err != nil {
		log.Fatalf("Payload directory not found: %s", *dir)
	}

	log.Printf("Connecting to MongoDB...")
	if err := store.Connect(cfg.MongoURI, cfg.MongoDB); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer store.Disconnect()

	msgs := store.NewMessages(cfg.MongoCollection)
	driver := ingest.NewDriver(services.NewReconciler(msgs), nil)

	stats, err := driver.IngestDirectory(context.Background(), *dir)

	out, _ := json.MarshalIndent(stats, "", "  ")
	os.Stdout.Write(append(out, '\n'))

	if err != nil {
		log.Fatal("Ingestion aborted:", err)
	}
}
