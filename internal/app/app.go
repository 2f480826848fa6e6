package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/tkdadmin/internal/auth"
	"github.com/hitoshi/tkdadmin/internal/config"
	"github.com/hitoshi/tkdadmin/internal/database"
	"github.com/hitoshi/tkdadmin/internal/document"
	"github.com/hitoshi/tkdadmin/internal/handler"
	"github.com/hitoshi/tkdadmin/internal/logger"
	"github.com/hitoshi/tkdadmin/internal/metrics"
	"github.com/hitoshi/tkdadmin/internal/middleware"
	"github.com/hitoshi/tkdadmin/internal/repository"
	"github.com/hitoshi/tkdadmin/internal/security"
	"github.com/hitoshi/tkdadmin/internal/storage"
	"github.com/hitoshi/tkdadmin/internal/tournament"
	"github.com/hitoshi/tkdadmin/internal/user"
	"github.com/hitoshi/tkdadmin/internal/worker/cleanup"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込み前にログを使えるようにする
	logger.SetupDefault(w, logger.ParseLevel(os.Getenv("LOG_LEVEL")))

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// .env由来のLOG_LEVELを反映する
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
		slog.String("session_store", cfg.SessionStore),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandCleanupSessions:
		return runCleanupSessions(cfg)
	default:
		return runServe(cfg)
	}
}

// server はAPIサーバーの構成要素。closeはリソースを解放する。
type server struct {
	handler http.Handler
	close   func()
}

// newServer は全依存関係をワイヤリングしてHTTPハンドラーを構築する。
// DBへの接続確認は呼び出し側の責務。
func newServer(ctx context.Context, cfg *config.Config, db *sql.DB) (*server, error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// 1. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mc := metrics.NewCollector(reg)

	// 2. リポジトリ
	userRepo := repository.NewPostgresUserRepo(db)
	tournamentRepo := repository.NewPostgresTournamentRepo(db)
	dayRepo := repository.NewPostgresTournamentDayRepo(db)
	documentRepo := repository.NewPostgresDocumentRepo(db)

	var sessionRepo repository.SessionRepository
	if cfg.UsesRedisSessions() {
		client := repository.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		closers = append(closers, func() { _ = client.Close() })
		if err := pingRedis(ctx, client); err != nil {
			closeAll()
			return nil, err
		}
		sessionRepo = repository.NewRedisSessionRepo(client, userRepo)
		slog.Info("redis session store connected", slog.String("addr", cfg.RedisAddr))
	} else {
		sessionRepo = repository.NewPostgresSessionRepo(db)
	}

	// 3. 認証とセッション
	sessionManager := auth.NewSessionManager(sessionRepo, cfg.SessionMaxAge, mc)
	authService := auth.NewService(
		userRepo,
		auth.NewPasswordHasher(cfg.BcryptCost),
		sessionManager,
		mc,
		auth.ServiceConfig{RegistrationMaxRole: cfg.RegistrationMaxRole},
	)

	// 4. ドメインサービス
	userService := user.NewService(userRepo, sessionManager)
	tournamentService := tournament.NewService(tournamentRepo, dayRepo, security.NewTextSanitizer())

	var objectStore document.ObjectStore
	storageCfg := storage.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
	}
	if storageCfg.Enabled() {
		store, err := storage.NewS3Store(ctx, storageCfg)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to configure object storage: %w", err)
		}
		if err := store.Health(ctx); err != nil {
			slog.Warn("object storage is not reachable; uploads will fail until it recovers",
				slog.String("error", err.Error()),
			)
		}
		objectStore = store
	} else {
		slog.Warn("S3_BUCKET is not set; file uploads are disabled")
	}
	documentService := document.NewService(objectStore, documentRepo, tournamentRepo, mc, cfg.UploadMaxSize)

	// 5. ルーター
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitUpload),
	)
	closers = append(closers, rateLimiter.Stop)

	router := handler.NewRouter(&handler.RouterDeps{
		Guard:             sessionManager,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		LoginRateLimit:    cfg.RateLimitLogin,
		Logger:            slog.Default(),

		HealthChecker:  db,
		MetricsHandler: metrics.Handler(reg),

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			Cookie: middleware.CookieConfig{
				Secure: cfg.CookieSecure,
				Domain: cfg.CookieDomain,
			},
		},

		UserService:       userService,
		TournamentService: tournamentService,
		DocumentService:   documentService,
	})

	return &server{handler: router, close: closeAll}, nil
}

func pingRedis(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	return nil
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	return database.Connect(context.Background(), cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
}

// runServe はAPIサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	srv, err := newServer(context.Background(), cfg, db)
	if err != nil {
		return err
	}
	defer srv.close()

	httpServer := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      srv.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			listenErr <- err
		}
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// PostgreSQLセッションストアの場合は期限切れセッションを定期削除する。
// Redisセッションストアの場合はキーのTTLで失効するため、シグナルを待つだけになる。
func runWorker(cfg *config.Config) error {
	if cfg.UsesRedisSessions() {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		slog.Info("session store is redis; expired sessions are evicted by TTL, worker is idle")
		<-ctx.Done()
		slog.Info("worker stopped gracefully")
		return nil
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	mc := metrics.NewCollector(reg)
	metricsServer := newWorkerMetricsServer(":"+cfg.ServerPort, reg)
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker metrics listen error", slog.String("error", err.Error()))
		}
	}()
	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	job := cleanup.NewSessionCleanupJob(db, slog.Default(), mc)

	slog.Info("worker starting",
		slog.Duration("session_cleanup_interval", cfg.SessionCleanupInterval),
		slog.String("metrics_addr", metricsServer.Addr),
	)

	job.Start(ctx, cfg.SessionCleanupInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// newWorkerMetricsServer はworkerのメトリクスを公開するHTTPサーバーを生成する。
func newWorkerMetricsServer(addr string, gatherer prometheus.Gatherer) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", metrics.Handler(gatherer))
	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// runCleanupSessions は期限切れセッションを1回だけ削除する。
// Redisセッションストアでは削除対象がないため何もしない。
func runCleanupSessions(cfg *config.Config) error {
	if cfg.UsesRedisSessions() {
		slog.Info("session store is redis; nothing to clean up")
		return nil
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	job := cleanup.NewSessionCleanupJob(db, slog.Default(), nil)
	if _, err := job.Run(context.Background()); err != nil {
		return fmt.Errorf("session cleanup failed: %w", err)
	}
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("schema_version", uint64(version)),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
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
