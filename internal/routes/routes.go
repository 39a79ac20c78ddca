package routes

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"audit-desk/internal/controllers"
	"audit-desk/internal/repositories"
	"audit-desk/internal/services"
	"audit-desk/pkg/config"
	"audit-desk/pkg/database/postgresql"
	"audit-desk/pkg/filestorage"
	"audit-desk/pkg/middleware"
	"audit-desk/pkg/service"
)

type Loggers struct {
	Main    *zap.Logger
	Auth    *zap.Logger
	Project *zap.Logger
	Storage *zap.Logger
}

func InitRouter(
	e *echo.Echo,
	dbConn *pgxpool.Pool,
	redisClient *redis.Client,
	fileStorage filestorage.FileStorageInterface,
	jwtSvc service.JWTService,
	loggers *Loggers,
	cfg *config.Config,
) {
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	// --- 1. РЕПОЗИТОРИИ ---
	userRepo := repositories.NewUserRepository(dbConn, loggers.Auth)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)
	projectRepo := repositories.NewProjectRepository(dbConn, loggers.Project)
	attachmentRepo := repositories.NewAttachmentRepository(dbConn, loggers.Project)

	// --- 2. СЕРВИСЫ ---
	notifier := services.NewNotificationService(cfg.Mail, loggers.Auth)
	authService := services.NewAuthService(userRepo, cacheRepo, notifier, jwtSvc, loggers.Auth, &cfg.Auth)
	uploader := services.NewAttachmentUploader(attachmentRepo, fileStorage, loggers.Storage)
	projectService := services.NewProjectService(projectRepo, attachmentRepo, uploader, fileStorage, loggers.Project)
	readService := services.NewProjectReadService(projectRepo, attachmentRepo, loggers.Project)
	fileService := services.NewFileAccessService(attachmentRepo, fileStorage, cfg.Storage.SignedURLTTL, loggers.Storage)

	// --- 3. КОНТРОЛЛЕРЫ ---
	var opener controllers.DownloadOpener
	if local, ok := fileStorage.(*filestorage.LocalFileStorage); ok {
		opener = local
	}
	authCtrl := controllers.NewAuthController(authService, jwtSvc, loggers.Auth)
	projectCtrl := controllers.NewProjectController(projectService, readService, loggers.Project)
	fileCtrl := controllers.NewFileController(fileService, opener, loggers.Storage)
	healthCtrl := controllers.NewHealthController(func(ctx context.Context) (string, error) {
		return postgresql.Version(ctx, dbConn)
	}, loggers.Main)

	// --- 4. РОУТЕРЫ ---
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, authService, loggers.Auth)

	api.GET("/health", healthCtrl.Health)
	runAuthRouter(api, authCtrl, authMW)
	runFileRouter(api, fileCtrl, authMW)
	runProjectRouter(api, projectCtrl, authMW)

	loggers.Main.Info("InitRouter: Создание маршрутов завершено")
}
