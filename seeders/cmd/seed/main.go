package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"audit-desk/internal/repositories"
	"audit-desk/internal/services"
	"audit-desk/pkg/config"
	"audit-desk/pkg/database/postgresql"
	applogger "audit-desk/pkg/logger"
)

var (
	cfg    *config.Config
	logger *zap.Logger

	adminEmail    string
	adminName     string
	adminPassword string
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "🌱 Наполнение БД audit-desk",
	Long: `Служебные команды для подготовки базы:
  - migrate       накатить миграции
  - create-admin  завести администратора`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.New()
		logger = applogger.NewLogger(cfg.Log.Level, "")
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Применить миграции goose",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
			if err := postgresql.Migrate(ctx, pool); err != nil {
				return err
			}
			logger.Info("✅ Миграции применены")
			return nil
		})
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Создать администратора (если email свободен)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
			if err := postgresql.Migrate(ctx, pool); err != nil {
				return err
			}
			userService := services.NewUserService(repositories.NewUserRepository(pool, logger), logger)
			user, created, err := userService.EnsureUser(ctx, adminEmail, adminName, adminPassword, true)
			if err != nil {
				return fmt.Errorf("не удалось создать администратора: %w", err)
			}
			if !created {
				logger.Warn("Пользователь уже существует, ничего не изменено", zap.String("email", user.Email))
				return nil
			}
			logger.Info("✅ Администратор создан", zap.Uint64("id", user.ID), zap.String("email", user.Email))
			return nil
		})
	},
}

func withPool(parent context.Context, fn func(ctx context.Context, pool *pgxpool.Pool) error) error {
	ctx, cancel := context.WithTimeout(parent, time.Minute)
	defer cancel()

	logger.Info("📦 Подключение к БД")
	pool, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, logger)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, pool)
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "email администратора")
	createAdminCmd.Flags().StringVar(&adminName, "name", "Administrateur", "ФИО")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "пароль (от 8 символов, строчные, заглавные и цифры)")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createAdminCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
