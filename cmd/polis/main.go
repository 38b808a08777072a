// Основной пакет приложения Polis. Отвечает за запуск приложения, инициализацию базы данных, миграцию моделей, разовую конвертацию документов устаревшего формата и запуск основного сервера приложения.
package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/aisa-it/polis/internal/polis"
	"github.com/aisa-it/polis/internal/polis/config"
	"github.com/aisa-it/polis/internal/polis/dao"
	"github.com/aisa-it/polis/internal/polis/editor/draft"
	"github.com/aisa-it/polis/internal/polis/editor/tiptap"
	"github.com/aisa-it/polis/internal/polis/gormlogger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var version string = "DEV"

var models = []any{
	&dao.User{},
	&dao.Group{},
	&dao.GroupMember{},
	&dao.Subgroup{},
	&dao.Entity{},
	&dao.FileAsset{},
	&dao.Attachment{},
}

// Пример запуска: go run main.go --noMigration --trace --convertDrafts
func main() {
	noMigration := flag.Bool("noMigration", false, "Turn off DB migration")
	trace := flag.Bool("trace", false, "Verbose logs and sql trace")
	paramQueries := flag.Bool("paramQueries", true, "Mask queries params in log")
	convertDrafts := flag.Bool("convertDrafts", false, "Convert legacy rich fields and exit")
	flag.Parse()

	cfg := config.ReadConfig()
	dao.Config = cfg

	if *trace {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if version != "DEV" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})))
	}

	slog.Info("Polis start.")

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: cfg.DatabaseDSN,
	}), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.NewGormLogger(slog.Default(), time.Second*4, *paramQueries),
	})
	if err != nil {
		slog.Error("Fail init DB connection", "err", err)
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Fail set settings to conn pool", "err", err)
		os.Exit(1)
	}
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetMaxIdleConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(time.Minute * 15)

	if !*noMigration {
		slog.Info("Models migration")
		if err := db.AutoMigrate(models...); err != nil {
			slog.Error("Models migration", "err", err)
			os.Exit(1)
		}
	}

	if *convertDrafts {
		convertLegacyDocuments(db)
		return
	}

	polis.Server(db, cfg, version)
}

// convertLegacyDocuments разово конвертирует богатые поля устаревшего
// формата во всех материалах. Поля, уже являющиеся структурированными
// документами, не затрагиваются.
func convertLegacyDocuments(db *gorm.DB) {
	var entities []dao.Entity
	var converted, fields int

	err := db.FindInBatches(&entities, 100, func(tx *gorm.DB, _ int) error {
		for i := range entities {
			changed := false
			for _, doc := range entities[i].RichFields() {
				if doc.IsStructured() {
					continue
				}
				raw := doc.String()
				if !draft.IsDraft(raw) {
					continue
				}
				*doc = *tiptap.ParseString(draft.Convert(raw))
				changed = true
				fields++
			}
			if !changed {
				continue
			}
			if err := tx.Save(&entities[i]).Error; err != nil {
				return err
			}
			converted++
		}
		return nil
	}).Error
	if err != nil {
		slog.Error("Convert legacy documents", "err", err)
		os.Exit(1)
	}
	slog.Info("Legacy documents converted", "entities", converted, "fields", fields)
}
