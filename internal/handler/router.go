package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/todoapp/internal/metrics"
	"github.com/hitoshi/todoapp/internal/middleware"
)

// UserAPI はユーザールートと認証ルートが必要とするサービスインターフェース。
type UserAPI interface {
	UserServiceInterface
	AuthServiceInterface
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 観測
	Metrics       metrics.MetricsCollector
	Gatherer      prometheus.Gatherer
	HealthChecker HealthChecker

	// ユースケース
	TodoService TodoServiceInterface
	UserService UserAPI
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Metrics → Bearer → Logging
//
// Bearerはトークンがあればユーザーを識別するだけで、未認証のリクエストも通す。
// /auth/tokenにはクライアントIPごとのレート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Nop{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewMetricsMiddleware(collector))
	if deps.TokenVerifier != nil {
		r.Use(middleware.NewBearerMiddleware(deps.TokenVerifier))
	}
	r.Use(middleware.NewLoggingMiddleware(logger))

	todoHandler := NewTodoHandler(deps.TodoService)
	userHandler := NewUserHandler(deps.UserService)
	authHandler := NewAuthHandler(deps.UserService)

	// --- 運用ルート ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 認証ルート ---
	r.Route("/auth", func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.With(deps.RateLimiter.AuthTokenMiddleware()).Post("/token", authHandler.Token)
		} else {
			r.Post("/token", authHandler.Token)
		}
		r.With(middleware.RequireUser).Get("/me", userHandler.Me)
	})

	// Todo管理（すべて認証必須）
	r.Route("/todos", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Post("/", todoHandler.CreateTodo)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", todoHandler.GetTodo)
			r.Put("/", todoHandler.UpdateTodo)
			r.Delete("/", todoHandler.DeleteTodo)
			r.Post("/complete", todoHandler.CompleteTodo)
			r.Post("/uncomplete", todoHandler.UncompleteTodo)
		})
	})

	// ユーザー管理（登録のみ匿名で受け付ける）
	r.Route("/users", func(r chi.Router) {
		r.Post("/", userHandler.CreateUser)

		r.Route("/{userId}", func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Get("/", userHandler.GetUser)
			r.Put("/", userHandler.UpdateUser)
			r.Delete("/", userHandler.DeleteUser)

			// GET /users/{userId}/todos - ユーザーごとのTodo一覧
			r.Get("/todos", todoHandler.GetUserTodos)
		})
	})

	return r
}
