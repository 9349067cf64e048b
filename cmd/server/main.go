package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"tieba/internal/config"
	"tieba/internal/db"
	"tieba/internal/middleware"
	"tieba/internal/models"
	"tieba/internal/router"
	"tieba/internal/services"
	"tieba/internal/storage"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var cfg *config.Config

var (
	rootCmd = &cobra.Command{
		Use:   "tieba",
		Short: "贴吧论坛服务",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			slog.SetDefault(newLogger(cfg))
			return nil
		},
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "迁移数据库并启动 HTTP 服务",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "只执行数据库迁移",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := db.Open(cfg.DatabaseURL, cfg.SlogLevel())
			if err != nil {
				return err
			}
			return db.Migrate(conn)
		},
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "写入预设分类（分类表为空时）",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := db.Open(cfg.DatabaseURL, cfg.SlogLevel())
			if err != nil {
				return err
			}
			return db.SeedCategories(conn)
		},
	}

	demote bool

	promoteCmd = &cobra.Command{
		Use:   "promote [username]",
		Short: "将用户设为管理员",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := db.Open(cfg.DatabaseURL, cfg.SlogLevel())
			if err != nil {
				return err
			}
			role := models.RoleAdmin
			if demote {
				role = models.RoleUser
			}
			if err := services.NewAccountService(conn).SetRole(cmd.Context(), args[0], role); err != nil {
				return fmt.Errorf("set role for %s: %w", args[0], err)
			}
			slog.Info("user role updated", "username", args[0], "role", role)
			return nil
		},
	}
)

func init() {
	promoteCmd.Flags().BoolVar(&demote, "demote", false, "降回普通用户")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, promoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := db.Init(cfg.DatabaseURL, cfg.SlogLevel()); err != nil {
		return err
	}

	store, err := storage.New(cfg)
	if err != nil {
		return err
	}

	r := newEngine(cfg, db.DB, store)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("tieba server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newEngine(cfg *config.Config, conn *gorm.DB, store storage.Store) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(slog.Default()))
	r.Use(middleware.Metrics())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/media"})))

	// Setup Sessions
	cookieStore := cookie.NewStore([]byte(cfg.SessionSecret))
	cookieStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 3600,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("tieba_session", cookieStore))

	r.HTMLRender = loadTemplates(cfg.TemplatesDir)

	// Static Assets
	r.Static("/static", cfg.StaticDir)
	if cfg.StorageDriver == "local" {
		r.Static("/media", cfg.MediaDir)
	}

	r.Use(middleware.LoadUser(conn))

	router.RegisterRoutes(r, router.Deps{
		DB:      conn,
		Store:   store,
		SiteURL: cfg.SiteURL,
	})
	return r
}
