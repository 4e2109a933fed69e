package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mdiouf/bookkeep/internal/config"
	"github.com/mdiouf/bookkeep/internal/repository/badgerdb"
	"github.com/mdiouf/bookkeep/internal/scheduler"
	"github.com/mdiouf/bookkeep/internal/server/handlers"
	"github.com/mdiouf/bookkeep/internal/server/router"
	backupsvc "github.com/mdiouf/bookkeep/internal/service/backup"
	storesvc "github.com/mdiouf/bookkeep/internal/service/store"
	"github.com/mdiouf/bookkeep/pkg/clients/backupsync"
	"github.com/mdiouf/bookkeep/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	repo, err := badgerdb.Open(badgerdb.Config{Path: cfg.Store.DataDir}, baseLogger.Named("repo.badger"))
	if err != nil {
		baseLogger.Fatal("failed to open record store", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(); err != nil {
			baseLogger.Error("failed to close record store", zap.Error(err))
		}
	}()

	recordStore, err := storesvc.New(repo, baseLogger.Named("svc.store"))
	if err != nil {
		baseLogger.Fatal("failed to init record store", zap.Error(err))
	}

	exporter := backupsvc.NewExporter(recordStore, cfg.Backup.ShopName, baseLogger.Named("svc.backup"))
	importer := backupsvc.NewImporter(recordStore, baseLogger.Named("svc.restore"))

	var uploader backupsync.Client
	if cfg.Backup.UploadURL != "" {
		uploader = backupsync.NewClient(cfg.Backup.UploadURL)
		baseLogger.Info("backup upload enabled", zap.String("url", cfg.Backup.UploadURL))
	}

	inventoryHandler := handlers.NewInventoryHandler(recordStore, baseLogger.Named("handlers.inventory"))
	ledgerHandler := handlers.NewLedgerHandler(recordStore, baseLogger.Named("handlers.ledger"))
	backupHandler := handlers.NewBackupHandler(exporter, importer, baseLogger.Named("handlers.backup"))
	engine := router.New(inventoryHandler, ledgerHandler, backupHandler, baseLogger.Named("router"))

	sched := scheduler.New(cfg.Backup, exporter, uploader, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start backup scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
