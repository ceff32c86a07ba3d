// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/nizukuri/internal/model"
)

// TripRepository は旅行データの永続化インターフェース。
//
// チェック状態やアイテム増減のミューテーションはカウンタ列の更新と
// 同一トランザクションで行い、trips.checked_count / total_count と
// trip_itemsの実態が常に一致するようにする。
type TripRepository interface {
	// Create は旅行と持ち物リストを同一トランザクションで作成する。
	Create(ctx context.Context, trip *model.Trip) error

	// FindByID は指定IDの旅行を持ち物リスト込みで取得する。
	// 見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Trip, error)

	// List は全旅行を持ち物リストなしで取得する。
	// アーカイブ済みを後ろに、それぞれ作成日時の降順で並べる。
	List(ctx context.Context) ([]*model.Trip, error)

	// SaveItems は持ち物リスト全体とカウンタを置き換える。
	SaveItems(ctx context.Context, tripID string, items []model.TripItem, checkedCount, totalCount int) error

	// UpdateItemChecked はアイテムのチェック状態とチェック済みカウンタを更新する。
	UpdateItemChecked(ctx context.Context, tripID, itemID string, isChecked bool, checkedCount int) error

	// InsertItem はアイテムをリスト末尾に追加し、カウンタを更新する。
	InsertItem(ctx context.Context, tripID string, item model.TripItem, checkedCount, totalCount int) error

	// DeleteItem はアイテムを削除し、カウンタを更新する。
	DeleteItem(ctx context.Context, tripID, itemID string, checkedCount, totalCount int) error

	// UpdateCounters は進捗カウンタのみを更新する。
	UpdateCounters(ctx context.Context, tripID string, checkedCount, totalCount int) error

	// SetArchived はアーカイブ状態を更新する。
	SetArchived(ctx context.Context, tripID string, archived bool) error

	// Delete は旅行を削除する。関連するtrip_itemsはCASCADE削除される。
	Delete(ctx context.Context, tripID string) error

	// ListUpcomingActive は出発日が指定範囲内の未アーカイブ旅行を
	// 持ち物リストなしで取得する。予報更新ワーカーが使用する。
	ListUpcomingActive(ctx context.Context, from, to time.Time) ([]*model.Trip, error)

	// UpdateForecasts は旅行の予報データを置き換える。
	UpdateForecasts(ctx context.Context, tripID string, forecasts []model.Forecast) error

	// ClearStaleForecasts は終了日がcutoffより前の旅行から予報データを
	// 取り除き、対象となった件数を返す。
	ClearStaleForecasts(ctx context.Context, cutoff time.Time) (int64, error)
}

// SettingsRepository はキー単位の設定データの永続化インターフェース。
// カスタマイズ（追加アイテム・削除マーク）の保存先として使用する。
type SettingsRepository interface {
	// Load は指定キーの設定データを取得する。未保存の場合はnilを返す。
	Load(ctx context.Context, key string) ([]byte, error)

	// Save は指定キーの設定データを保存する。既存の値は上書きされる。
	Save(ctx context.Context, key string, data []byte) error
}
