package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/nizukuri/internal/catalog"
	"github.com/hitoshi/nizukuri/internal/config"
	"github.com/hitoshi/nizukuri/internal/customize"
	"github.com/hitoshi/nizukuri/internal/database"
	"github.com/hitoshi/nizukuri/internal/generate"
	"github.com/hitoshi/nizukuri/internal/handler"
	"github.com/hitoshi/nizukuri/internal/logger"
	"github.com/hitoshi/nizukuri/internal/metrics"
	"github.com/hitoshi/nizukuri/internal/middleware"
	"github.com/hitoshi/nizukuri/internal/repository"
	"github.com/hitoshi/nizukuri/internal/status"
	"github.com/hitoshi/nizukuri/internal/tripsvc"
	"github.com/hitoshi/nizukuri/internal/weather"
	"github.com/hitoshi/nizukuri/internal/worker/cleanup"
	"github.com/hitoshi/nizukuri/internal/worker/forecast"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルでグローバルロガーを再構成する
	if w == nil {
		w = os.Stdout
	}
	slog.SetDefault(logger.SetupWithLevel(w, logger.ParseLevel(cfg.LogLevel)))

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
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// newWeatherClient は天気APIクライアントを生成する。
// APIキー未設定の場合はnilを返し、呼び出し側は天気補正なしで動作する。
func newWeatherClient(cfg *config.Config) *weather.Client {
	if !cfg.WeatherEnabled() {
		return nil
	}
	return weather.NewClient(
		&http.Client{Timeout: 10 * time.Second},
		slog.Default(),
		weather.ClientConfig{
			Endpoint:     cfg.WeatherAPIEndpoint,
			APIKey:       cfg.WeatherAPIKey,
			CallInterval: cfg.WeatherAPIInterval,
		},
	)
}

// rateLimiterConfig は設定値（req/min単位）からレート制限設定を組み立てる。
func rateLimiterConfig(cfg *config.Config) middleware.RateLimiterConfig {
	rlCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		rlCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rlCfg.GeneralBurst = cfg.RateLimitGeneral
	}
	if cfg.RateLimitTripCreate > 0 {
		rlCfg.TripCreateRate = rate.Limit(float64(cfg.RateLimitTripCreate) / 60.0)
		rlCfg.TripCreateBurst = cfg.RateLimitTripCreate
	}
	rlCfg.TrustForwardedIP = cfg.TrustForwardedIP
	return rlCfg
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	tripRepo := repository.NewPostgresTripRepo(db)
	settingsRepo := repository.NewPostgresSettingsRepo(db)

	// 3. カタログとカスタマイズ状態の初期化
	cat, err := catalog.New()
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	customStore := customize.NewStore(context.Background(), settingsRepo, cat, slog.Default())
	generator := generate.NewGenerator(cat, customStore)

	// 4. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. 天気クライアントとドメインサービスの初期化
	var forecaster tripsvc.Forecaster
	if client := newWeatherClient(cfg); client != nil {
		forecaster = client
	} else {
		slog.Info("weather API key not configured, trips are created without forecasts")
	}

	board := status.NewBoard()
	tripService := tripsvc.NewService(
		tripRepo, generator, forecaster, customStore, board, collector, slog.Default(),
	)

	// 6. ルーターの構築
	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		StatusRecorder:    collector,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       middleware.NewRateLimiter(rateLimiterConfig(cfg)),

		TripService: tripService,

		Catalog:    cat,
		Presets:    generator,
		CustomRead: customStore,
		Customizer: customStore,

		Snapshots: board,

		MetricsHandler: metrics.Handler(registry),
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
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

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、予報更新スケジューラとクリーンアップジョブを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリとメトリクスの初期化
	tripRepo := repository.NewPostgresTripRepo(db)
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 3. クリーンアップジョブの初期化
	cleanupJob := cleanup.NewJob(tripRepo, slog.Default())

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("refresh_interval", cfg.ForecastRefreshInterval),
		slog.Duration("cleanup_interval", cfg.CleanupInterval),
		slog.Int("window_days", cfg.ForecastWindowDays),
	)

	// クリーンアップジョブをバックグラウンドで起動
	go cleanupJob.Start(ctx, cfg.CleanupInterval)

	// 予報更新スケジューラをメインgoroutineで実行（ブロッキング）
	if client := newWeatherClient(cfg); client != nil {
		refresher := forecast.NewRefresher(
			tripRepo, client, collector, slog.Default(), 0, cfg.ForecastWindowDays,
		)
		refresher.Start(ctx, cfg.ForecastRefreshInterval)
	} else {
		slog.Info("weather API key not configured, forecast refresh disabled")
		<-ctx.Done()
	}

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
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
