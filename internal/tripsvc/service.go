// Package tripsvc は旅行のライフサイクルを統括するサービス層。
// リスト生成・天気補正・永続化・進捗スナップショットの公開を編成する。
package tripsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/nizukuri/internal/metrics"
	"github.com/hitoshi/nizukuri/internal/model"
	"github.com/hitoshi/nizukuri/internal/repository"
	"github.com/hitoshi/nizukuri/internal/status"
	"github.com/hitoshi/nizukuri/internal/weather"
)

// defaultTripName は名前未入力時に補う旅行名。
const defaultTripName = "新しい旅行"

// Generator は持ち物リスト生成のインターフェース。
type Generator interface {
	Generate(selectedTagIDs []string, gender model.Gender) []model.TripItem
}

// Forecaster は天気予報取得のインターフェース。
// 未設定（nil）の場合、旅行は予報なしで作成される。
type Forecaster interface {
	FetchForecast(ctx context.Context, city string, startDate, endDate time.Time) ([]model.Forecast, error)
}

// Sanitizer はユーザー入力文字列の無害化インターフェース。
type Sanitizer interface {
	SanitizeName(rawName string) string
}

// Service は旅行管理のサービス層。
type Service struct {
	repo       repository.TripRepository
	generator  Generator
	forecaster Forecaster
	sanitizer  Sanitizer
	board      *status.Board
	collector  metrics.MetricsCollector
	logger     *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
// forecasterはnil許容で、その場合天気補正はスキップされる。
func NewService(
	repo repository.TripRepository,
	generator Generator,
	forecaster Forecaster,
	sanitizer Sanitizer,
	board *status.Board,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		generator:  generator,
		forecaster: forecaster,
		sanitizer:  sanitizer,
		board:      board,
		collector:  collector,
		logger:     logger,
	}
}

// CreateTripInput は旅行作成の入力。
type CreateTripInput struct {
	Name           string
	Gender         string
	SelectedTagIDs []string
	Destination    string
	StartDate      *time.Time
	EndDate        *time.Time
}

// CreateTrip はタグと性別から持ち物リストを生成し、天気補正を適用して
// 旅行を作成する。天気予報の取得失敗は作成を妨げない。
func (s *Service) CreateTrip(ctx context.Context, input CreateTripInput) (*model.Trip, error) {
	gender := model.Gender(input.Gender)
	if !gender.Valid() {
		return nil, model.NewInvalidGenderError(input.Gender)
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return nil, model.NewInvalidDateRangeError()
	}

	name := s.sanitizer.SanitizeName(input.Name)
	if name == "" {
		name = defaultTripName
	}
	destination := s.sanitizer.SanitizeName(input.Destination)

	genStart := time.Now()
	items := s.generator.Generate(input.SelectedTagIDs, gender)
	s.collector.RecordGenerateLatency(time.Since(genStart))

	forecasts := s.fetchForecasts(ctx, destination, input.StartDate, input.EndDate)
	items = weather.Adjust(items, forecasts)

	trip := &model.Trip{
		ID:             uuid.NewString(),
		Name:           name,
		Gender:         gender,
		Duration:       deriveDuration(input.StartDate, input.EndDate),
		SelectedTagIDs: input.SelectedTagIDs,
		Destination:    destination,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		Forecasts:      forecasts,
		Items:          items,
		IsArchived:     false,
		CreatedAt:      time.Now(),
	}
	trip.RecalculateCounts()

	if err := s.repo.Create(ctx, trip); err != nil {
		return nil, fmt.Errorf("旅行の保存に失敗しました: %w", err)
	}

	s.collector.RecordTripCreated()
	s.board.Publish(trip.Snapshot())

	s.logger.Info("旅行を作成しました",
		slog.String("trip_id", trip.ID),
		slog.Int("item_count", trip.TotalCount),
		slog.Int("forecast_days", len(forecasts)),
	)

	return trip, nil
}

// fetchForecasts は天気予報を取得する。取得できない条件・失敗はすべて
// 空の予報リストに縮退させ、エラーとして呼び出し元へ返さない。
func (s *Service) fetchForecasts(ctx context.Context, destination string, startDate, endDate *time.Time) []model.Forecast {
	if s.forecaster == nil || destination == "" || startDate == nil || endDate == nil {
		return nil
	}

	fetchStart := time.Now()
	forecasts, err := s.forecaster.FetchForecast(ctx, destination, *startDate, *endDate)
	s.collector.RecordWeatherFetchLatency(time.Since(fetchStart))

	if err != nil {
		reason := "unknown"
		var fetchErr *weather.FetchError
		if errors.As(err, &fetchErr) {
			reason = string(fetchErr.Kind)
		}
		s.collector.RecordWeatherFetchFailure(reason)
		s.logger.Warn("天気予報を取得できないため予報なしで続行します",
			slog.String("destination", destination),
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
		return nil
	}

	s.collector.RecordWeatherFetchSuccess()
	return forecasts
}

// deriveDuration は日付範囲から期間バケットを導出する。日付未指定は日帰り扱い。
func deriveDuration(startDate, endDate *time.Time) model.TripDuration {
	if startDate == nil || endDate == nil {
		return model.TripDurationDay
	}
	return model.DurationFromDates(*startDate, *endDate)
}

// ListTrips は全旅行の一覧を返す。アーカイブ済みは後ろに並ぶ。
func (s *Service) ListTrips(ctx context.Context) ([]*model.Trip, error) {
	trips, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("旅行一覧の取得に失敗しました: %w", err)
	}
	return trips, nil
}

// GetTrip は指定IDの旅行を持ち物リスト込みで返す。
func (s *Service) GetTrip(ctx context.Context, tripID string) (*model.Trip, error) {
	trip, err := s.repo.FindByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("旅行の取得に失敗しました: %w", err)
	}
	if trip == nil {
		return nil, model.NewTripNotFoundError(tripID)
	}
	return trip, nil
}

// DeleteTrip は旅行を削除する。公開中のスナップショットも取り下げる。
func (s *Service) DeleteTrip(ctx context.Context, tripID string) error {
	trip, err := s.GetTrip(ctx, tripID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, trip.ID); err != nil {
		return fmt.Errorf("旅行の削除に失敗しました: %w", err)
	}

	s.board.Clear(trip.ID)
	s.logger.Info("旅行を削除しました", slog.String("trip_id", trip.ID))
	return nil
}

// ToggleResult はチェック切り替えの結果。
// WasAllChecked/IsAllCheckedの組み合わせで「いま全部チェックし終えた」
// 遷移エッジを検出できる。
type ToggleResult struct {
	Trip          *model.Trip
	WasAllChecked bool
	IsAllChecked  bool
}

// JustCompleted は今回の切り替えで全チェック完了に達したかを返す。
func (r *ToggleResult) JustCompleted() bool {
	return !r.WasAllChecked && r.IsAllChecked
}

// ToggleItem は持ち物のチェック状態を反転する。
func (s *Service) ToggleItem(ctx context.Context, tripID, itemID string) (*ToggleResult, error) {
	trip, err := s.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	wasAllChecked := trip.IsAllChecked()
	if !trip.ToggleItem(itemID) {
		return nil, model.NewItemNotFoundError(itemID)
	}

	var isChecked bool
	for _, item := range trip.Items {
		if item.ID == itemID {
			isChecked = item.IsChecked
			break
		}
	}

	if err := s.repo.UpdateItemChecked(ctx, trip.ID, itemID, isChecked, trip.CheckedCount); err != nil {
		return nil, fmt.Errorf("チェック状態の保存に失敗しました: %w", err)
	}

	s.collector.RecordItemToggled()
	s.board.Publish(trip.Snapshot())

	return &ToggleResult{
		Trip:          trip,
		WasAllChecked: wasAllChecked,
		IsAllChecked:  trip.IsAllChecked(),
	}, nil
}

// AddItem はユーザー入力の持ち物を旅行へ追加する。
// 名前は無害化され、空になった場合や既存アイテムと重複する場合はエラー。
func (s *Service) AddItem(ctx context.Context, tripID, rawName string) (*model.Trip, error) {
	trip, err := s.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	name := s.sanitizer.SanitizeName(rawName)
	if name == "" {
		return nil, model.NewInvalidItemNameError()
	}
	for _, existing := range trip.Items {
		if strings.EqualFold(existing.Name, name) || strings.EqualFold(existing.NameEn, name) {
			return nil, model.NewDuplicateItemNameError(name)
		}
	}

	item := model.TripItem{
		ID:             uuid.NewString(),
		Name:           name,
		NameEn:         name,
		CategoryName:   model.CategoryOther.Name(),
		CategoryNameEn: model.CategoryOther.NameEn(),
		IsChecked:      false,
		SortOrder:      model.CategoryOther.SortIndex(),
	}
	trip.AddItem(item)

	if err := s.repo.InsertItem(ctx, trip.ID, item, trip.CheckedCount, trip.TotalCount); err != nil {
		return nil, fmt.Errorf("アイテムの保存に失敗しました: %w", err)
	}

	s.board.Publish(trip.Snapshot())
	return trip, nil
}

// RemoveItem は持ち物を旅行から削除する。
func (s *Service) RemoveItem(ctx context.Context, tripID, itemID string) (*model.Trip, error) {
	trip, err := s.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if !trip.RemoveItem(itemID) {
		return nil, model.NewItemNotFoundError(itemID)
	}

	if err := s.repo.DeleteItem(ctx, trip.ID, itemID, trip.CheckedCount, trip.TotalCount); err != nil {
		return nil, fmt.Errorf("アイテムの削除に失敗しました: %w", err)
	}

	s.board.Publish(trip.Snapshot())
	return trip, nil
}

// ResetChecks は全持ち物のチェックを外す。アーカイブ状態は変更しない。
func (s *Service) ResetChecks(ctx context.Context, tripID string) (*model.Trip, error) {
	trip, err := s.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	trip.ResetAllChecks()

	if err := s.repo.SaveItems(ctx, trip.ID, trip.Items, trip.CheckedCount, trip.TotalCount); err != nil {
		return nil, fmt.Errorf("チェックリセットの保存に失敗しました: %w", err)
	}

	s.board.Publish(trip.Snapshot())
	return trip, nil
}

// Archive は旅行をアーカイブし、公開中のスナップショットを取り下げる。
func (s *Service) Archive(ctx context.Context, tripID string) (*model.Trip, error) {
	trip, err := s.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	trip.Archive()
	if err := s.repo.SetArchived(ctx, trip.ID, true); err != nil {
		return nil, fmt.Errorf("アーカイブ状態の保存に失敗しました: %w", err)
	}

	s.board.Clear(trip.ID)
	s.logger.Info("旅行をアーカイブしました", slog.String("trip_id", trip.ID))
	return trip, nil
}

// Unarchive は旅行のアーカイブを解除する。
func (s *Service) Unarchive(ctx context.Context, tripID string) (*model.Trip, error) {
	trip, err := s.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	trip.Unarchive()
	if err := s.repo.SetArchived(ctx, trip.ID, false); err != nil {
		return nil, fmt.Errorf("アーカイブ解除の保存に失敗しました: %w", err)
	}

	s.board.Publish(trip.Snapshot())
	return trip, nil
}

// Recalculate はカウンタを実態から再計算して保存し直す。
// 一括編集などでカウンタがずれた場合の復旧手段。
func (s *Service) Recalculate(ctx context.Context, tripID string) (*model.Trip, error) {
	trip, err := s.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	trip.RecalculateCounts()
	if err := s.repo.UpdateCounters(ctx, trip.ID, trip.CheckedCount, trip.TotalCount); err != nil {
		return nil, fmt.Errorf("カウンタ再計算の保存に失敗しました: %w", err)
	}

	s.board.Publish(trip.Snapshot())
	return trip, nil
}
