package model

import (
	"testing"
	"time"
)

// newTestTrip はテスト用のTripを生成する。
func newTestTrip(items ...TripItem) *Trip {
	t := &Trip{
		ID:        "trip-1",
		Name:      "沖縄旅行",
		Gender:    GenderFemale,
		Duration:  TripDurationShort,
		CreatedAt: time.Now(),
	}
	for _, item := range items {
		t.AddItem(item)
	}
	return t
}

// countChecked はアイテム一覧を全走査してチェック済み件数を数える。
func countChecked(items []TripItem) int {
	n := 0
	for _, item := range items {
		if item.IsChecked {
			n++
		}
	}
	return n
}

// assertCountersConsistent はカウンタ不変条件を検証する。
func assertCountersConsistent(t *testing.T, trip *Trip) {
	t.Helper()
	if trip.TotalCount != len(trip.Items) {
		t.Errorf("TotalCount = %d, want %d", trip.TotalCount, len(trip.Items))
	}
	if got, want := trip.CheckedCount, countChecked(trip.Items); got != want {
		t.Errorf("CheckedCount = %d, want %d", got, want)
	}
}

// TestTrip_ToggleItem はチェック状態の反転とカウンタ増分更新を検証する。
func TestTrip_ToggleItem(t *testing.T) {
	trip := newTestTrip(
		TripItem{ID: "passport", Name: "パスポート"},
		TripItem{ID: "tshirt", Name: "Tシャツ"},
	)

	if !trip.ToggleItem("passport") {
		t.Fatal("ToggleItem(passport) = false, want true")
	}
	if trip.CheckedCount != 1 {
		t.Errorf("CheckedCount = %d, want 1", trip.CheckedCount)
	}
	assertCountersConsistent(t, trip)

	// 再度トグルで元に戻る
	if !trip.ToggleItem("passport") {
		t.Fatal("ToggleItem(passport) second call = false, want true")
	}
	if trip.CheckedCount != 0 {
		t.Errorf("CheckedCount = %d, want 0", trip.CheckedCount)
	}
	assertCountersConsistent(t, trip)
}

// TestTrip_ToggleItem_NotFound は存在しないIDのトグルが何もしないことを検証する。
func TestTrip_ToggleItem_NotFound(t *testing.T) {
	trip := newTestTrip(TripItem{ID: "passport"})

	if trip.ToggleItem("no-such-item") {
		t.Error("ToggleItem(no-such-item) = true, want false")
	}
	if trip.CheckedCount != 0 {
		t.Errorf("CheckedCount = %d, want 0", trip.CheckedCount)
	}
	assertCountersConsistent(t, trip)
}

// TestTrip_AddItem はアイテム追加時のカウンタ更新を検証する。
func TestTrip_AddItem(t *testing.T) {
	trip := newTestTrip()

	trip.AddItem(TripItem{ID: "towel", Name: "タオル"})
	if trip.TotalCount != 1 {
		t.Errorf("TotalCount = %d, want 1", trip.TotalCount)
	}

	// チェック済みで追加された場合はCheckedCountも増える
	trip.AddItem(TripItem{ID: "camera", Name: "カメラ", IsChecked: true})
	if trip.CheckedCount != 1 {
		t.Errorf("CheckedCount = %d, want 1", trip.CheckedCount)
	}
	assertCountersConsistent(t, trip)
}

// TestTrip_RemoveItem はアイテム削除時のカウンタ更新を検証する。
func TestTrip_RemoveItem(t *testing.T) {
	trip := newTestTrip(
		TripItem{ID: "passport"},
		TripItem{ID: "tshirt"},
	)
	trip.ToggleItem("passport")

	// チェック済みアイテムの削除で両カウンタが減る
	if !trip.RemoveItem("passport") {
		t.Fatal("RemoveItem(passport) = false, want true")
	}
	if trip.TotalCount != 1 || trip.CheckedCount != 0 {
		t.Errorf("counts = (%d, %d), want (1, 0)", trip.TotalCount, trip.CheckedCount)
	}
	assertCountersConsistent(t, trip)

	// 存在しないIDの削除は何もしない
	if trip.RemoveItem("no-such-item") {
		t.Error("RemoveItem(no-such-item) = true, want false")
	}
	assertCountersConsistent(t, trip)
}

// TestTrip_ResetAllChecks は全チェック解除を検証する。
func TestTrip_ResetAllChecks(t *testing.T) {
	trip := newTestTrip(
		TripItem{ID: "a"},
		TripItem{ID: "b"},
		TripItem{ID: "c"},
	)
	trip.ToggleItem("a")
	trip.ToggleItem("b")

	trip.ResetAllChecks()

	if trip.CheckedCount != 0 {
		t.Errorf("CheckedCount = %d, want 0", trip.CheckedCount)
	}
	for _, item := range trip.Items {
		if item.IsChecked {
			t.Errorf("item %s remains checked after reset", item.ID)
		}
	}
	assertCountersConsistent(t, trip)
}

// TestTrip_RecalculateCounts は外部編集後のカウンタ再同期を検証する。
func TestTrip_RecalculateCounts(t *testing.T) {
	trip := newTestTrip(
		TripItem{ID: "a"},
		TripItem{ID: "b"},
	)

	// 増分更新を経由しない外部からの一括編集でカウンタがずれた状態を作る
	trip.Items[0].IsChecked = true
	trip.Items = append(trip.Items, TripItem{ID: "c", IsChecked: true})

	trip.RecalculateCounts()

	if trip.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3", trip.TotalCount)
	}
	if trip.CheckedCount != 2 {
		t.Errorf("CheckedCount = %d, want 2", trip.CheckedCount)
	}
}

// TestTrip_CounterConsistency_MutationSequence はサポートされる全ミューテーション
// 操作の連続適用でカウンタが一切ドリフトしないことを検証する。
func TestTrip_CounterConsistency_MutationSequence(t *testing.T) {
	trip := newTestTrip()

	ops := []func(){
		func() { trip.AddItem(TripItem{ID: "a"}) },
		func() { trip.AddItem(TripItem{ID: "b", IsChecked: true}) },
		func() { trip.ToggleItem("a") },
		func() { trip.AddItem(TripItem{ID: "c"}) },
		func() { trip.ToggleItem("b") },
		func() { trip.RemoveItem("a") },
		func() { trip.ToggleItem("c") },
		func() { trip.ToggleItem("c") },
		func() { trip.ResetAllChecks() },
		func() { trip.ToggleItem("b") },
		func() { trip.RemoveItem("no-such-item") },
		func() { trip.RemoveItem("b") },
	}

	for i, op := range ops {
		op()
		if trip.TotalCount != len(trip.Items) || trip.CheckedCount != countChecked(trip.Items) {
			t.Fatalf("op %d: counters drifted: total=%d len=%d checked=%d actual=%d",
				i, trip.TotalCount, len(trip.Items), trip.CheckedCount, countChecked(trip.Items))
		}
	}
}

// TestTrip_Progress_EmptyTrip はアイテム0件時の進捗が0であることを検証する。
func TestTrip_Progress_EmptyTrip(t *testing.T) {
	trip := newTestTrip()

	if got := trip.Progress(); got != 0 {
		t.Errorf("Progress() = %v, want 0", got)
	}
	if trip.IsAllChecked() {
		t.Error("IsAllChecked() = true for empty trip, want false")
	}
}

// TestTrip_Progress は進捗割合の計算を検証する。
func TestTrip_Progress(t *testing.T) {
	trip := newTestTrip(
		TripItem{ID: "a"},
		TripItem{ID: "b"},
		TripItem{ID: "c"},
		TripItem{ID: "d"},
	)
	trip.ToggleItem("a")

	if got, want := trip.Progress(), 0.25; got != want {
		t.Errorf("Progress() = %v, want %v", got, want)
	}
}

// TestTrip_CompletionTransition は全チェック→アーカイブ→解除のシナリオを検証する。
func TestTrip_CompletionTransition(t *testing.T) {
	trip := newTestTrip(
		TripItem{ID: "a"},
		TripItem{ID: "b"},
	)

	if trip.IsAllChecked() {
		t.Fatal("IsAllChecked() = true before any toggle, want false")
	}

	trip.ToggleItem("a")
	if trip.IsAllChecked() {
		t.Fatal("IsAllChecked() = true after one toggle, want false")
	}

	trip.ToggleItem("b")
	if !trip.IsAllChecked() {
		t.Fatal("IsAllChecked() = false after all toggles, want true")
	}
	if trip.CheckedCount != 2 || trip.TotalCount != 2 {
		t.Errorf("counts = (%d, %d), want (2, 2)", trip.CheckedCount, trip.TotalCount)
	}

	trip.Archive()
	if !trip.IsArchived {
		t.Error("IsArchived = false after Archive()")
	}

	trip.Unarchive()
	if trip.IsArchived {
		t.Error("IsArchived = true after Unarchive()")
	}
	if !trip.IsAllChecked() {
		t.Error("IsAllChecked() = false after unarchive, want true (checks preserved)")
	}
}

// TestTrip_ResetDoesNotUnarchive はリセットがアーカイブ状態に影響しないことを検証する。
func TestTrip_ResetDoesNotUnarchive(t *testing.T) {
	trip := newTestTrip(TripItem{ID: "a"})
	trip.ToggleItem("a")
	trip.Archive()

	trip.ResetAllChecks()

	if !trip.IsArchived {
		t.Error("IsArchived = false after ResetAllChecks, want true")
	}
	if trip.IsAllChecked() {
		t.Error("IsAllChecked() = true after reset, want false")
	}
}

// TestTrip_Snapshot は進捗スナップショットの内容を検証する。
func TestTrip_Snapshot(t *testing.T) {
	trip := newTestTrip(
		TripItem{ID: "a"},
		TripItem{ID: "b"},
	)
	trip.ToggleItem("a")

	snap := trip.Snapshot()

	if snap.TripID != trip.ID {
		t.Errorf("TripID = %q, want %q", snap.TripID, trip.ID)
	}
	if snap.TripName != "沖縄旅行" {
		t.Errorf("TripName = %q, want %q", snap.TripName, "沖縄旅行")
	}
	if snap.CheckedCount != 1 || snap.TotalCount != 2 {
		t.Errorf("counts = (%d, %d), want (1, 2)", snap.CheckedCount, snap.TotalCount)
	}
	if snap.Progress != 0.5 {
		t.Errorf("Progress = %v, want 0.5", snap.Progress)
	}
}

// TestDurationFromDates は日付範囲の期間バケット導出を検証する。
func TestDurationFromDates(t *testing.T) {
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		nights int
		want   TripDuration
	}{
		{"same day", 0, TripDurationDay},
		{"one night", 1, TripDurationShort},
		{"three nights", 3, TripDurationShort},
		{"four nights", 4, TripDurationWeek},
		{"seven nights", 7, TripDurationWeek},
		{"eight nights", 8, TripDurationLong},
		{"two weeks", 14, TripDurationLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end := base.AddDate(0, 0, tt.nights)
			if got := DurationFromDates(base, end); got != tt.want {
				t.Errorf("DurationFromDates(+%d nights) = %q, want %q", tt.nights, got, tt.want)
			}
		})
	}
}

// TestDurationFromDates_EndBeforeStart は逆転した日付範囲が日帰り扱いになることを検証する。
func TestDurationFromDates_EndBeforeStart(t *testing.T) {
	base := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	if got := DurationFromDates(base, base.AddDate(0, 0, -2)); got != TripDurationDay {
		t.Errorf("DurationFromDates(reversed) = %q, want %q", got, TripDurationDay)
	}
}
