package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/examcell/centre-portal-api/internal/repository"
	"github.com/examcell/centre-portal-api/internal/service"
	"github.com/examcell/centre-portal-api/pkg/config"
	"github.com/examcell/centre-portal-api/pkg/database"
	"github.com/examcell/centre-portal-api/pkg/gdrive"
	"github.com/examcell/centre-portal-api/pkg/logger"
	"github.com/examcell/centre-portal-api/pkg/storage"
)

// One-shot marks backup, suitable for cron. The -authorize and -code flags
// handle the one-time Drive token bootstrap.
func main() {
	authorize := flag.Bool("authorize", false, "print the Drive consent URL and exit")
	code := flag.String("code", "", "authorization code from the consent flow; exchanges and stores the token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if *authorize {
		url, err := gdrive.AuthURL(cfg.Drive)
		if err != nil {
			log.Fatalf("failed to build consent url: %v", err)
		}
		fmt.Printf("Visit the URL below, grant access, then rerun with -code=<authorization code>:\n%s\n", url)
		return
	}
	if *code != "" {
		if err := gdrive.Exchange(ctx, cfg.Drive, *code); err != nil {
			log.Fatalf("failed to exchange authorization code: %v", err)
		}
		fmt.Printf("Token stored at %s\n", cfg.Drive.TokenFile)
		return
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	store, err := storage.NewLocalStorage(cfg.Backup.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare backup directory", "error", err)
	}

	drive, err := gdrive.NewClient(ctx, cfg.Drive)
	if err != nil {
		logr.Sugar().Fatalw("failed to build drive client", "error", err)
	}

	backups := service.NewBackupService(repository.NewMarkRepository(db), store, drive, logr)
	result, err := backups.Run(ctx)
	if err != nil {
		logr.Sugar().Fatalw("backup failed", "error", err)
	}

	logr.Sugar().Infow("backup completed",
		"spreadsheet_id", result.SpreadsheetID,
		"rows", result.RowCount,
		"file", result.FileName)
}
