// Command seedprops loads tracked properties from a JSON file into the
// engine's SQLite store so the batch scheduler has a portfolio to process.
//
// The input file is a JSON array of objects:
//
//	[{"id": "prop-1", "address": "123 Main St, Prescott, AZ", "lat": 34.541, "lng": -112.469}]
//
// Usage:
//
//	go run ./cmd/seedprops -db storm-dol.db -file properties.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/couchcryptid/storm-dol-engine/internal/domain"
	"github.com/couchcryptid/storm-dol-engine/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dbPath := flag.String("db", "storm-dol.db", "path to the SQLite database")
	file := flag.String("file", "", "path to the properties JSON file")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(1)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("read properties file: %w", err)
	}

	var properties []domain.TrackedProperty
	if err := json.Unmarshal(data, &properties); err != nil {
		return fmt.Errorf("parse properties file: %w", err)
	}

	db, err := store.Open(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	seeded := 0
	for _, p := range properties {
		if p.ID == "" || !domain.ValidCoordinates(p.Lat, p.Lng) {
			log.Printf("skipping invalid property %q (%.4f, %.4f)", p.ID, p.Lat, p.Lng)
			continue
		}
		if err := db.AddTrackedProperty(ctx, p); err != nil {
			return err
		}
		seeded++
	}

	fmt.Printf("seeded %d of %d properties into %s\n", seeded, len(properties), *dbPath)
	return nil
}
