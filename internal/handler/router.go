package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/tkdadmin/internal/middleware"
	"github.com/hitoshi/tkdadmin/internal/model"
)

// DefaultLoginRateLimit は /auth/login と /auth/register に適用するIPごとの毎分上限のデフォルト値。
const DefaultLoginRateLimit = 10

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Guard             middleware.SessionGuard
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	LoginRateLimit    int
	Logger            *slog.Logger

	// 運用
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ユーザー管理
	UserService UserServiceInterface

	// 大会
	TournamentService TournamentServiceInterface

	// アップロード
	DocumentService DocumentServiceInterface
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// 全ルート共通のミドルウェアの実行順序:
//
//	Logging → Recovery → SecurityHeaders → CORS → CSRF
//
// 認証が必要なルートではさらに PathPolicy → RateLimit(General) を適用し、
// 書き込み系はoperator以上を要求する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loginLimit := deps.LoginRateLimit
	if loginLimit <= 0 {
		loginLimit = DefaultLoginRateLimit
	}
	cookieCfg := deps.AuthConfig.Cookie

	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware(cookieCfg.Secure))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewCSRFMiddleware(cookieCfg))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	userHandler := NewUserHandler(deps.UserService)
	tournamentHandler := NewTournamentHandler(deps.TournamentService)
	uploadHandler := NewUploadHandler(deps.DocumentService)

	operator := middleware.RequireRoleInContext(model.RoleOperator)

	// --- 認証不要のルート ---

	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker))
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(cookieCfg))

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewLoginRateLimitMiddleware(loginLimit))
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// /admin 配下はadmin以上、/super-admin 配下はsuper_adminのみ
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewPathPolicyMiddleware(deps.Guard))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 大会
		r.Route("/api/tournaments", func(r chi.Router) {
			r.Get("/", tournamentHandler.ListTournaments)
			r.With(operator).Post("/", tournamentHandler.CreateTournament)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", tournamentHandler.GetTournament)
				r.With(operator).Patch("/", tournamentHandler.UpdateTournament)
				r.With(operator).Put("/", tournamentHandler.UpdateTournament)
				r.With(operator).Delete("/", tournamentHandler.DeleteTournament)

				r.Get("/documents", uploadHandler.ListDocuments)

				// 開催日
				r.Route("/days", func(r chi.Router) {
					r.Get("/", tournamentHandler.ListDays)
					r.With(operator).Post("/", tournamentHandler.CreateDay)

					r.Route("/{dayId}", func(r chi.Router) {
						r.Get("/", tournamentHandler.GetDay)
						r.With(operator).Patch("/", tournamentHandler.UpdateDay)
						r.With(operator).Put("/", tournamentHandler.UpdateDay)
						r.With(operator).Delete("/", tournamentHandler.DeleteDay)
					})
				})
			})
		})

		// アップロード（専用レート制限を追加）
		r.With(operator, deps.RateLimiter.UploadMiddleware()).Post("/api/uploads", uploadHandler.Upload)

		// ユーザー管理
		r.Route("/admin/api/users", func(r chi.Router) {
			r.Get("/", userHandler.ListUsers)
			r.Patch("/{id}/active", userHandler.SetActive)
		})
		r.Patch("/super-admin/api/users/{id}/role", userHandler.ChangeRole)
	})

	return r
}
