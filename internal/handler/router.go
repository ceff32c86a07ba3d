package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/nizukuri/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	StatusRecorder    middleware.HTTPStatusRecorder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 旅行
	TripService TripServiceInterface

	// カタログ・カスタマイズ
	Catalog    CatalogReader
	Presets    PresetLister
	CustomRead CustomizationReader
	Customizer CustomizerInterface

	// ステータス
	Snapshots SnapshotSource

	// メトリクス公開エンドポイント
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → RateLimit(General)
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.StatusRecorder))

	tripHandler := NewTripHandler(deps.TripService)
	catalogHandler := NewCatalogHandler(deps.Catalog, deps.Presets, deps.CustomRead)
	customizeHandler := NewCustomizeHandler(deps.Customizer, deps.Catalog)
	statusHandler := NewStatusHandler(deps.Snapshots)

	// --- レート制限の外のルート ---

	r.Get("/health", Health)

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- レート制限下のAPIルート ---

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// カタログ参照
		r.Route("/api/catalog", func(r chi.Router) {
			r.Get("/tags", catalogHandler.ListTags)
			r.Get("/tags/{id}/items", catalogHandler.ListTagItems)
		})

		// プリセットカスタマイズ
		r.Route("/api/customize", func(r chi.Router) {
			r.Post("/items", customizeHandler.AddCustomItem)
			r.Delete("/items", customizeHandler.RemoveCustomItem)
			r.Post("/deleted/{itemID}", customizeHandler.DeletePresetItem)
			r.Delete("/deleted/{itemID}", customizeHandler.RestorePresetItem)
		})

		// 旅行管理
		r.Route("/api/trips", func(r chi.Router) {
			// POST /api/trips - 旅行作成（天気API呼び出しを伴うため専用レート制限を追加）
			r.With(deps.RateLimiter.TripCreationMiddleware()).Post("/", tripHandler.CreateTrip)
			r.Get("/", tripHandler.ListTrips)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", tripHandler.GetTrip)
				r.Delete("/", tripHandler.DeleteTrip)

				r.Post("/items", tripHandler.AddItem)
				r.Route("/items/{itemID}", func(r chi.Router) {
					r.Delete("/", tripHandler.RemoveItem)
					r.Put("/toggle", tripHandler.ToggleItem)
				})

				r.Post("/reset", tripHandler.ResetChecks)
				r.Post("/archive", tripHandler.Archive)
				r.Post("/unarchive", tripHandler.Unarchive)
			})
		})

		// 外部ステータス表示
		r.Get("/api/status", statusHandler.GetStatus)
	})

	return r
}
