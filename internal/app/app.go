// Package app はアプリケーションの起動処理と依存関係の組み立てを提供する。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/todoapp/internal/auth"
	"github.com/hitoshi/todoapp/internal/config"
	"github.com/hitoshi/todoapp/internal/database"
	"github.com/hitoshi/todoapp/internal/handler"
	"github.com/hitoshi/todoapp/internal/logger"
	"github.com/hitoshi/todoapp/internal/metrics"
	"github.com/hitoshi/todoapp/internal/middleware"
	"github.com/hitoshi/todoapp/internal/repository"
	"github.com/hitoshi/todoapp/internal/todo"
	"github.com/hitoshi/todoapp/internal/user"
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップしてから環境変数でConfigを読み込み、ログレベルを反映する。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. ログレベルの反映
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		slog.Warn("invalid LOG_LEVEL, falling back to info", slog.String("error", err.Error()))
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	switch cmd {
	case CommandHealthcheck:
		// 軽量サブコマンドのため、フル初期化をスキップする
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	case CommandLocal:
		return runLocal(w, os.Stderr, args[1:])
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("store_backend", cfg.StoreBackend),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// stores はストアバックエンドに応じたリポジトリと接続をまとめたもの。
type stores struct {
	todos       repository.TodoRepository
	users       repository.UserRepository
	credentials repository.CredentialRepository
	health      handler.HealthChecker
	close       func() error
}

// openStores はSTORE_BACKENDに応じてPostgreSQLまたはRedisに接続し、リポジトリを生成する。
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendRedis:
		rdb, err := database.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		slog.Info("redis connection established")
		return &stores{
			todos:       repository.NewRedisTodoRepo(rdb),
			users:       repository.NewRedisUserRepo(rdb),
			credentials: repository.NewRedisCredentialRepo(rdb),
			health:      database.RedisPinger{Client: rdb},
			close:       rdb.Close,
		}, nil
	default:
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("database connection established")
		return &stores{
			todos:       repository.NewPostgresTodoRepo(db),
			users:       repository.NewPostgresUserRepo(db),
			credentials: repository.NewPostgresCredentialRepo(db),
			health:      db,
			close:       db.Close,
		}, nil
	}
}

// newRouter は設定とストアから全依存関係をワイヤリングしたHTTPハンドラーを返す。
// 返すstop関数でレートリミッターのクリーンアップを停止する。
func newRouter(cfg *config.Config, st *stores, reg *prometheus.Registry) (http.Handler, func()) {
	collector := metrics.NewCollector(reg)

	// 1. IdP
	provider := auth.NewProvider(st.credentials, auth.ProviderConfig{
		Secret:     []byte(cfg.TokenSecret),
		TokenTTL:   cfg.TokenTTL,
		BcryptCost: cfg.BcryptCost,
	})

	// 2. ユースケース
	todoService := todo.NewService(st.todos, todo.WithMetrics(collector))
	userService := user.NewService(st.users, provider, user.WithMetrics(collector))

	// 3. ルーター
	limitCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitAuth > 0 {
		limitCfg = middleware.RateLimiterConfigPerMinute(cfg.RateLimitAuth)
	}
	rateLimiter := middleware.NewRateLimiter(limitCfg)

	deps := &handler.RouterDeps{
		TokenVerifier:     provider,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),

		Metrics:       collector,
		Gatherer:      reg,
		HealthChecker: st.health,

		TodoService: todoService,
		UserService: userService,
	}

	return handler.NewRouter(deps), rateLimiter.Stop
}

// runServe はAPIサーバーモードで起動する。
// ストアに接続し、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	st, err := openStores(connectCtx, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router, stopRateLimiter := newRouter(cfg, st, reg)
	defer stopRateLimiter()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-listenErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。Redisバックエンドでは何もしない。
func runMigrate(cfg *config.Config) error {
	if cfg.StoreBackend != config.StoreBackendPostgres {
		slog.Info("no migrations for store backend", slog.String("store_backend", cfg.StoreBackend))
		return nil
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("schema_version", uint64(version)))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
