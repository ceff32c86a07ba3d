// Package forecast は保存済み天気予報の定期更新ジョブを提供する。
// 出発日が更新ウィンドウ内にある未アーカイブ旅行を対象に、
// 天気APIから最新の日別予報を取得してDBへ反映する。
package forecast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/nizukuri/internal/model"
	"github.com/hitoshi/nizukuri/internal/weather"
)

// TripStore は予報更新ジョブが必要とする旅行永続化の最小インターフェース。
type TripStore interface {
	ListUpcomingActive(ctx context.Context, from, to time.Time) ([]*model.Trip, error)
	UpdateForecasts(ctx context.Context, tripID string, forecasts []model.Forecast) error
}

// Forecaster は天気予報取得のインターフェース。
type Forecaster interface {
	FetchForecast(ctx context.Context, city string, startDate, endDate time.Time) ([]model.Forecast, error)
}

// MetricsRecorder は天気取得メトリクスの記録インターフェース。
type MetricsRecorder interface {
	RecordWeatherFetchSuccess()
	RecordWeatherFetchFailure(reason string)
	RecordWeatherFetchLatency(duration time.Duration)
}

// Refresher は対象旅行の予報を並列に更新するスケジューラ。
// 旅行ごとの取得エラーはログに記録してスキップし、他の旅行の更新を妨げない。
type Refresher struct {
	store          TripStore
	forecaster     Forecaster
	metrics        MetricsRecorder
	logger         *slog.Logger
	maxConcurrency int
	windowDays     int
}

// NewRefresher はRefresherの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルトの10を使用する。
// windowDaysが0以下の場合はデフォルトの7を使用する。
func NewRefresher(store TripStore, forecaster Forecaster, metrics MetricsRecorder, logger *slog.Logger, maxConcurrency, windowDays int) *Refresher {
	if maxConcurrency <= 0 {
		maxConcurrency = 10
	}
	if windowDays <= 0 {
		windowDays = 7
	}
	return &Refresher{
		store:          store,
		forecaster:     forecaster,
		metrics:        metrics,
		logger:         logger,
		maxConcurrency: maxConcurrency,
		windowDays:     windowDays,
	}
}

// Start は指定間隔で予報更新を繰り返し実行する。
// 開始時に即座に1回実行し、以降はintervalごとに実行する。
// ctxがキャンセルされると停止する。
func (r *Refresher) Start(ctx context.Context, interval time.Duration) {
	r.logger.Info("予報更新スケジューラを開始しました",
		slog.String("interval", interval.String()),
		slog.Int("max_concurrency", r.maxConcurrency),
		slog.Int("window_days", r.windowDays),
	)

	if err := r.RunOnce(ctx); err != nil {
		r.logger.Error("予報更新の実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("予報更新スケジューラを停止しました")
			return
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				r.logger.Error("予報更新の実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は更新ウィンドウ内の旅行の予報を1回更新する。
// 対象旅行をセマフォで並列数制限しながら処理する。
func (r *Refresher) RunOnce(ctx context.Context) error {
	start := time.Now()

	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 0, r.windowDays)

	trips, err := r.store.ListUpcomingActive(ctx, from, to)
	if err != nil {
		return fmt.Errorf("予報更新対象の旅行取得に失敗: %w", err)
	}

	if len(trips) == 0 {
		return nil
	}

	r.logger.Info("予報更新を開始します",
		slog.Int("trip_count", len(trips)),
	)

	sem := make(chan struct{}, r.maxConcurrency)
	var wg sync.WaitGroup

	for _, trip := range trips {
		wg.Add(1)
		sem <- struct{}{}

		go func(trip *model.Trip) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := r.refreshTrip(ctx, trip); err != nil {
				r.logger.Error("旅行の予報更新に失敗しました",
					slog.String("trip_id", trip.ID),
					slog.String("destination", trip.Destination),
					slog.String("error", err.Error()),
				)
			}
		}(trip)
	}

	wg.Wait()

	duration := time.Since(start)
	r.logger.Info("予報更新が完了しました",
		slog.Int("trip_count", len(trips)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// refreshTrip は1件の旅行の予報を取得してDBへ保存する。
// 目的地または出発日が未設定の旅行は更新対象外としてスキップする。
func (r *Refresher) refreshTrip(ctx context.Context, trip *model.Trip) error {
	if trip.Destination == "" || trip.StartDate == nil {
		return nil
	}

	endDate := *trip.StartDate
	if trip.EndDate != nil {
		endDate = *trip.EndDate
	}

	fetchStart := time.Now()
	forecasts, err := r.forecaster.FetchForecast(ctx, trip.Destination, *trip.StartDate, endDate)
	r.metrics.RecordWeatherFetchLatency(time.Since(fetchStart))
	if err != nil {
		r.metrics.RecordWeatherFetchFailure(fetchFailureReason(err))
		return fmt.Errorf("天気予報の取得に失敗: %w", err)
	}
	r.metrics.RecordWeatherFetchSuccess()

	if err := r.store.UpdateForecasts(ctx, trip.ID, forecasts); err != nil {
		return fmt.Errorf("予報の保存に失敗: %w", err)
	}

	return nil
}

// fetchFailureReason はメトリクスのラベルに使う失敗理由を返す。
func fetchFailureReason(err error) string {
	var fetchErr *weather.FetchError
	if errors.As(err, &fetchErr) {
		return string(fetchErr.Kind)
	}
	return "unknown"
}
