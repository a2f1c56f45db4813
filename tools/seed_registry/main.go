package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	telemetry "vessel-ingestor/internal/telemetry/domain"
	telemetryfile "vessel-ingestor/internal/telemetry/infrastructure/file"
)

type config struct {
	dsn    string
	file   string
	dryRun bool
}

func main() {
	cfg := parseConfig()
	if cfg.file == "" {
		log.Fatal("-file is required")
	}

	data, err := os.ReadFile(cfg.file)
	if err != nil {
		log.Fatalf("read fixture: %v", err)
	}
	fixture, err := telemetryfile.ParseFixture(data)
	if err != nil {
		log.Fatalf("parse fixture: %v", err)
	}
	defs, err := fixture.Definitions()
	if err != nil {
		log.Fatalf("invalid signals: %v", err)
	}
	if _, err := telemetry.NewRegistry(defs); err != nil {
		log.Fatalf("invalid signals: %v", err)
	}
	if err := validateVessels(fixture.Vessels); err != nil {
		log.Fatalf("invalid vessels: %v", err)
	}

	log.Printf("fixture %s: vessels=%d signals=%d", cfg.file, len(fixture.Vessels), len(defs))
	if cfg.dryRun {
		return
	}
	if cfg.dsn == "" {
		log.Fatal("PG_DSN or DATABASE_URL is required")
	}

	db, err := sql.Open("pgx", cfg.dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := seed(ctx, db, fixture.Vessels, defs); err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("seed complete")
}

func parseConfig() config {
	cfg := config{}
	flag.StringVar(&cfg.dsn, "pg-dsn", envOrDefault("PG_DSN", envOrDefault("DATABASE_URL", "")), "Postgres DSN")
	flag.StringVar(&cfg.file, "file", envOrDefault("REGISTRY_FIXTURE", ""), "YAML fixture with vessels and signals")
	flag.BoolVar(&cfg.dryRun, "dry-run", false, "validate the fixture without writing")
	flag.Parse()
	return cfg
}

func validateVessels(vessels []telemetryfile.VesselEntry) error {
	seen := make(map[string]struct{}, len(vessels))
	for _, vessel := range vessels {
		if vessel.ID == "" {
			return fmt.Errorf("vessel with empty id")
		}
		if _, ok := seen[vessel.ID]; ok {
			return fmt.Errorf("duplicate vessel %s", vessel.ID)
		}
		seen[vessel.ID] = struct{}{}
	}
	return nil
}

func seed(ctx context.Context, db *sql.DB, vessels []telemetryfile.VesselEntry, defs []telemetry.SignalDefinition) error {
	const vesselSQL = `
INSERT INTO vessel_register_table (vessel_id, name, is_active, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (vessel_id)
DO UPDATE SET
	name = EXCLUDED.name,
	is_active = EXCLUDED.is_active,
	updated_at = EXCLUDED.updated_at`

	const signalSQL = `
INSERT INTO signal_register_table (signal_name, signal_type, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (signal_name)
DO UPDATE SET
	signal_type = EXCLUDED.signal_type,
	updated_at = EXCLUDED.updated_at`

	now := time.Now().UTC()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	vesselStmt, err := tx.PrepareContext(ctx, vesselSQL)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer vesselStmt.Close()
	for _, vessel := range vessels {
		if _, err := vesselStmt.ExecContext(ctx, vessel.ID, vessel.Name, vessel.IsActive(), now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert vessel %s: %w", vessel.ID, err)
		}
	}

	signalStmt, err := tx.PrepareContext(ctx, signalSQL)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer signalStmt.Close()
	for _, def := range defs {
		if _, err := signalStmt.ExecContext(ctx, def.Name, string(def.Kind), now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert signal %s: %w", def.Name, err)
		}
	}

	return tx.Commit()
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
