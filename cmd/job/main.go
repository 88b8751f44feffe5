// Batch job entrypoint: one reconciliation run per invocation, suited to
// cron or a scheduled container.
package main

import (
	"context"
	"flag"
	"log"

	"stocksync/internal/config"
	"stocksync/internal/database"
	"stocksync/internal/repository"
	"stocksync/internal/service"
	"stocksync/internal/sheets"
	"stocksync/internal/shopify"
	"stocksync/internal/syncer"
)

func main() {
	reimport := flag.Bool("reimport", false, "re-run the one-time inventory import before syncing")
	flag.Parse()

	log.Println("=== Stock sync job ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	db, err := database.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}

	ctx := context.Background()

	report, err := sheets.NewClient(ctx, cfg.GoogleCredentialsJSON, cfg.SpreadsheetID)
	if err != nil {
		log.Fatalf("Sheets client failed: %v", err)
	}

	master := shopify.NewClientWithPacing(cfg.Master.Domain, cfg.Master.Token, cfg.Pace, cfg.RetryDelay)
	var secondary service.OrderSource
	var stockSync service.StockSyncer
	if cfg.MultiStore() {
		secondaryClient := shopify.NewClientWithPacing(cfg.Secondary.Domain, cfg.Secondary.Token, cfg.Pace, cfg.RetryDelay)
		secondary = secondaryClient
		stockSync = syncer.New(master, secondaryClient, cfg.LocationID)
		log.Printf("Multi-store mode: master=%s secondary=%s", cfg.Master.Domain, cfg.Secondary.Domain)
	}

	ledgerRepo := repository.NewLedgerRepository(db)
	importRepo := repository.NewImportRepository(db)
	runRepo := repository.NewRunRepository(db)
	txManager := repository.NewTransactionManager(db)

	syncService := service.NewSyncService(cfg, master, secondary, stockSync, report, ledgerRepo, importRepo, runRepo, txManager, nil)

	if *reimport {
		log.Println("Operator requested inventory re-import")
		if err := syncService.Reimport(ctx); err != nil {
			log.Fatalf("Re-import failed: %v", err)
		}
	}

	run, err := syncService.Run(ctx, service.TriggerJob)
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}
	log.Printf("Run %s completed: %d orders fetched, %d applied, %d warnings",
		run.ID, run.OrdersFetched, run.OrdersApplied, run.Warnings)
}
