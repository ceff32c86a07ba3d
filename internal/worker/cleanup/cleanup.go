// Package cleanup は期限切れ予報データの自動削除ジョブを提供する。
// 終了日を過ぎた旅行に残っている予報データを日次バッチで取り除く。
// 旅行本体とチェック状態は削除対象外に残す。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ForecastClearer は予報データ削除のインターフェース。
type ForecastClearer interface {
	ClearStaleForecasts(ctx context.Context, cutoff time.Time) (int64, error)
}

// Job は期限切れ予報の自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type Job struct {
	store     ForecastClearer
	logger    *slog.Logger
	GraceDays int // 終了日からの猶予日数（デフォルト: 1）
}

// NewJob は新しいJobを生成する。
// デフォルトの猶予日数は1日で、終了翌日まで予報を保持する。
func NewJob(store ForecastClearer, logger *slog.Logger) *Job {
	return &Job{
		store:     store,
		logger:    logger,
		GraceDays: 1,
	}
}

// Run は終了日が猶予期間を過ぎた旅行の予報データを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *Job) Run(ctx context.Context) error {
	start := time.Now()

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	cutoff := today.AddDate(0, 0, -j.GraceDays)

	clearedCount, err := j.store.ClearStaleForecasts(ctx, cutoff)
	if err != nil {
		j.logger.Error("予報クリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("grace_days", j.GraceDays),
		)
		return fmt.Errorf("予報クリーンアップの実行に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("予報クリーンアップジョブが完了しました",
		slog.Int64("cleared_count", clearedCount),
		slog.Int("grace_days", j.GraceDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// Start は指定間隔でクリーンアップを繰り返し実行する。
// 開始時に即座に1回実行し、以降はintervalごとに実行する。
// ctxがキャンセルされると停止する。
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	j.logger.Info("予報クリーンアップジョブを開始しました",
		slog.String("interval", interval.String()),
	)

	if err := j.Run(ctx); err != nil {
		j.logger.Error("予報クリーンアップの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("予報クリーンアップジョブを停止しました")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("予報クリーンアップの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
