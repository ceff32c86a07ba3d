package model

import (
	"time"
)

// TripItem は旅行ごとの持ち物リストの1行を表す。
// プリセット由来・ユーザー追加・天気補正由来のいずれかで生成され、
// 自身のチェック状態を保持する。カテゴリは生成時点で表示名に解決される。
type TripItem struct {
	ID             string // カタログのItem ID、または合成ID（カスタム・天気由来）
	Name           string // 日本語表示名
	NameEn         string // 英語表示名
	CategoryName   string // カテゴリ日本語表示名
	CategoryNameEn string // カテゴリ英語表示名
	IsChecked      bool
	SortOrder      int // カテゴリの固定表示順インデックス
}

// TripDuration は旅行日数を区分した期間バケットを表す。
type TripDuration string

const (
	// TripDurationDay は日帰り。
	TripDurationDay TripDuration = "day"
	// TripDurationShort は1〜3泊。
	TripDurationShort TripDuration = "short"
	// TripDurationWeek は4〜7泊。
	TripDurationWeek TripDuration = "week"
	// TripDurationLong は8泊以上。
	TripDurationLong TripDuration = "long"
)

// DurationFromDates は日付範囲から期間バケットを導出する。
// endがstartより前の場合は日帰り扱いにする。
func DurationFromDates(start, end time.Time) TripDuration {
	nights := int(end.Sub(start).Hours() / 24)
	switch {
	case nights <= 0:
		return TripDurationDay
	case nights <= 3:
		return TripDurationShort
	case nights <= 7:
		return TripDurationWeek
	default:
		return TripDurationLong
	}
}

// Forecast は1日分の天気予報を表す。
// HighTempがnilの予報は「データなし」として平均計算から除外される。
type Forecast struct {
	Date          time.Time `json:"date"`
	HighTemp      *float64  `json:"high_temp,omitempty"`
	LowTemp       *float64  `json:"low_temp,omitempty"`
	PrecipChance  *float64  `json:"precip_chance,omitempty"`
	ConditionCode string    `json:"condition_code,omitempty"`
}

// Trip は1回の旅行の集約ルート。持ち物リストとその進捗カウンタを所有する。
//
// CheckedCount / TotalCount は非正規化カウンタで、各ミューテーション操作が
// 増分更新する。すべての操作完了後に
//
//	CheckedCount == チェック済みアイテム数
//	TotalCount   == 全アイテム数
//
// が成立することが不変条件。外部から一括編集した場合はRecalculateCountsで
// 再同期する。
//
// 排他制御は持たない。同一Tripへのミューテーションは単一の実行コンテキスト
// に直列化するのは呼び出し側の責務（サービス層はリクエスト単位で直列化する）。
type Trip struct {
	ID             string
	Name           string
	Gender         Gender
	Duration       TripDuration
	SelectedTagIDs []string
	Destination    string
	StartDate      *time.Time
	EndDate        *time.Time
	Forecasts      []Forecast
	Items          []TripItem
	CheckedCount   int
	TotalCount     int
	IsArchived     bool
	CreatedAt      time.Time
}

// ToggleItem は指定IDのアイテムのチェック状態を反転し、カウンタを増分更新する。
// アイテムが存在しない場合は何もせずfalseを返す（エラーではない）。
func (t *Trip) ToggleItem(itemID string) bool {
	for i := range t.Items {
		if t.Items[i].ID != itemID {
			continue
		}
		t.Items[i].IsChecked = !t.Items[i].IsChecked
		if t.Items[i].IsChecked {
			t.CheckedCount++
		} else {
			t.CheckedCount--
		}
		return true
	}
	return false
}

// AddItem はアイテムを末尾に追加し、カウンタを増分更新する。
func (t *Trip) AddItem(item TripItem) {
	t.Items = append(t.Items, item)
	t.TotalCount++
	if item.IsChecked {
		t.CheckedCount++
	}
}

// RemoveItem は指定IDのアイテムを削除し、カウンタを増分更新する。
// アイテムが存在しない場合は何もせずfalseを返す（エラーではない）。
func (t *Trip) RemoveItem(itemID string) bool {
	for i := range t.Items {
		if t.Items[i].ID != itemID {
			continue
		}
		if t.Items[i].IsChecked {
			t.CheckedCount--
		}
		t.Items = append(t.Items[:i], t.Items[i+1:]...)
		t.TotalCount--
		return true
	}
	return false
}

// ResetAllChecks は全アイテムのチェックを外し、CheckedCountを0にする。
// アーカイブ状態は変更しない。
func (t *Trip) ResetAllChecks() {
	for i := range t.Items {
		t.Items[i].IsChecked = false
	}
	t.CheckedCount = 0
}

// RecalculateCounts は両カウンタをアイテム一覧から全走査で再計算する。
// 増分更新を経由しない一括編集（マイグレーション、インポート等）の後に
// 呼び出す整合性の最終手段。
func (t *Trip) RecalculateCounts() {
	checked := 0
	for i := range t.Items {
		if t.Items[i].IsChecked {
			checked++
		}
	}
	t.CheckedCount = checked
	t.TotalCount = len(t.Items)
}

// Archive は旅行をアーカイブ済みにする。データは削除しない。
func (t *Trip) Archive() {
	t.IsArchived = true
}

// Unarchive はアーカイブを解除する。チェック状態は変更しない。
func (t *Trip) Unarchive() {
	t.IsArchived = false
}

// Progress はチェック済み割合（0.0〜1.0）を返す。
// アイテムが0件の場合はNaNではなく0を返す。
func (t *Trip) Progress() float64 {
	if t.TotalCount == 0 {
		return 0
	}
	return float64(t.CheckedCount) / float64(t.TotalCount)
}

// IsAllChecked は全アイテムがチェック済みかどうかを返す。
// アイテムが0件の場合は「全チェック済み」とはみなさない。
func (t *Trip) IsAllChecked() bool {
	return t.TotalCount > 0 && t.CheckedCount == t.TotalCount
}

// Snapshot は外部ステータス表示（ロック画面など）向けの進捗スナップショット。
type Snapshot struct {
	TripID       string  `json:"trip_id"`
	TripName     string  `json:"trip_name"`
	CheckedCount int     `json:"checked_count"`
	TotalCount   int     `json:"total_count"`
	Progress     float64 `json:"progress"`
}

// Snapshot は現在の進捗スナップショットを返す。
// ミューテーション操作のたびに呼び出し側が再取得してステータス面へ送る。
func (t *Trip) Snapshot() Snapshot {
	return Snapshot{
		TripID:       t.ID,
		TripName:     t.Name,
		CheckedCount: t.CheckedCount,
		TotalCount:   t.TotalCount,
		Progress:     t.Progress(),
	}
}
