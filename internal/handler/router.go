package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/profiled/internal/metrics"
	"github.com/hitoshi/profiled/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger        *slog.Logger
	SessionFinder middleware.SessionFinder
	CookieSigner  CookieSignerInterface
	RateLimiter   *middleware.RateLimiter
	Metrics       metrics.MetricsCollector
	Gatherer      prometheus.Gatherer

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// プロフィール
	ProfileService ProfileServiceInterface
	CSRFGuard      CSRFGuardInterface

	// ヘルスチェック
	HealthChecker HealthChecker
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → Metrics → (Session → RateLimit)
//
// セキュリティヘッダーはルートやステータスに関わらず全レスポンスに適用する。
func NewRouter(deps *RouterDeps) (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.CookieSigner, deps.AuthConfig)
	pageHandler, err := NewPageHandler(deps.ProfileService, deps.CSRFGuard, deps.Metrics)
	if err != nil {
		return nil, err
	}

	// --- 認証不要のルート ---

	// 静的アセット
	r.Handle("/static/*", StaticHandler())

	// 運用エンドポイント
	r.Get("/healthz", NewHealthHandler(deps.HealthChecker).Check)
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// ホームページ（ログイン済みならクレームを表示）
	r.With(middleware.NewOptionalSessionMiddleware(deps.SessionFinder, deps.CookieSigner)).
		Get("/", pageHandler.Home)

	// 認証フロー（ログイン専用レート制限）
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.LoginMiddleware())
		r.Get("/login", authHandler.Login)
		r.Get("/callback", authHandler.Callback)
	})
	r.Get("/logout", authHandler.Logout)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder, deps.CookieSigner))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/profile", pageHandler.Profile)
		r.Post("/profile/update", pageHandler.UpdateProfile)
	})

	return r, nil
}
