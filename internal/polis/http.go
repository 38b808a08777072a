package polis

// @title Polis API
// @version 1.0
// @description Ядро платформы контента: материалы, богатые поля, виджеты, вложения и доступ.
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @BasePath /
import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aisa-it/polis/internal/polis/attachments"
	"github.com/aisa-it/polis/internal/polis/config"
	"github.com/aisa-it/polis/internal/polis/cronmanager"
	"github.com/aisa-it/polis/internal/polis/dao"
	filestorage "github.com/aisa-it/polis/internal/polis/file-storage"
	"github.com/aisa-it/polis/internal/polis/maintenance"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

type Services struct {
	db         *gorm.DB
	storage    filestorage.FileStorage
	membership dao.Membership
	assets     *attachments.AssetService
}

var cfg *config.Config
var appVersion string

// ServerHeader middleware adds a `Server` header to the response.
func ServerHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderServer, "Polis")
		return next(c)
	}
}

func Server(db *gorm.DB, c *config.Config, version string) {
	cfg = c
	appVersion = version

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}

		if code == http.StatusNotFound {
			c.NoContent(http.StatusNotFound)
			return
		}
		slog.Error("Unhandled error in endpoint", "url", c.Request().URL, "err", err)
		EErrorMsgStatus(c, nil, code)
	}

	storage, err := newStorage(cfg)
	if err != nil {
		slog.Error("Fail init file storage", "err", err)
		os.Exit(1)
	}
	dao.FileStorage = storage

	var scanner filestorage.VirusScanner = filestorage.SignatureScanner{}
	if cfg.VirusScanDisabled {
		scanner = filestorage.NopScanner{}
	}

	assets := attachments.NewAssetService(db, storage, scanner)
	assets.MaxSize = cfg.AttachmentMaxSizeMB << 20

	s := &Services{
		db:         db,
		storage:    storage,
		membership: dao.NewMembership(db),
		assets:     assets,
	}

	cronManager := cronmanager.NewCronManager(cronmanager.JobRegistry{
		"orphan_assets_sweep": cronmanager.Job{
			Func:     maintenance.NewOrphanSweeper(db, storage).Sweep,
			Schedule: cfg.OrphanSweepSchedule,
		},
	})
	if err := cronManager.LoadJobs(); err != nil {
		slog.Error("Failed to load cron jobs", "err", err)
		os.Exit(1)
	}
	cronManager.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down gracefully, press Ctrl+C again to force")
		cronManager.Stop()
		os.Exit(0)
	}()

	// Global middlewares
	e.Use(ServerHeader)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowCredentials: true,
	}))
	e.Use(middleware.Recover())

	if cfg.MetricsEnable {
		e.Use(echoprometheus.NewMiddleware("polis"))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	e.GET("/attachment/:assetId", s.downloadAsset)
	e.GET("/file/download/:assetId/:filename", s.downloadAsset)

	api := e.Group("/api", AuthMiddleware([]byte(cfg.SecretKey), db))
	s.AddEntityServices(api)
	s.AddWidgetServices(api)
	s.AddGroupServices(api)

	slog.Info("Start server", "version", appVersion)
	if err := e.Start(":8080"); err != nil && err != http.ErrServerClosed {
		slog.Error("Server stopped", "err", err)
		os.Exit(1)
	}
}

func newStorage(cfg *config.Config) (filestorage.FileStorage, error) {
	if cfg.MinioEndpoint != "" {
		return filestorage.NewMinioStorage(cfg)
	}
	return filestorage.NewLocalStorage(cfg.LocalStoragePath)
}
