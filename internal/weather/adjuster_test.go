package weather

import (
	"testing"
	"time"

	"github.com/hitoshi/nizukuri/internal/model"
)

func fp(v float64) *float64 { return &v }

func forecastOn(day int, high, low, precip *float64) model.Forecast {
	return model.Forecast{
		Date:         time.Date(2026, 7, day, 0, 0, 0, 0, time.UTC),
		HighTemp:     high,
		LowTemp:      low,
		PrecipChance: precip,
	}
}

func baseItems() []model.TripItem {
	return []model.TripItem{
		{ID: "passport", Name: "パスポート", NameEn: "Passport", SortOrder: 0},
		{ID: "tshirt", Name: "Tシャツ", NameEn: "T-shirts", SortOrder: 1},
	}
}

func names(items []model.TripItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Name
	}
	return out
}

func hasName(items []model.TripItem, name string) bool {
	for _, item := range items {
		if item.Name == name {
			return true
		}
	}
	return false
}

// TestAdjust_EmptyForecasts は予報0件で入力がそのまま返ることを検証する
// （クラッシュせず、余計な追加もしない）。
func TestAdjust_EmptyForecasts(t *testing.T) {
	items := baseItems()

	result := Adjust(items, nil)

	if len(result) != len(items) {
		t.Fatalf("len(result) = %d, want %d (no additions): %v", len(result), len(items), names(result))
	}

	result = Adjust(items, []model.Forecast{})
	if len(result) != len(items) {
		t.Errorf("len(result) = %d for empty slice, want %d", len(result), len(items))
	}
}

// TestAdjust_TemperatureRulesSkippedWithoutTempData は気温データを1件も
// 持たない予報で気温ルールが適用されないことを検証する（ゼロ除算ガード）。
func TestAdjust_TemperatureRulesSkippedWithoutTempData(t *testing.T) {
	forecasts := []model.Forecast{
		forecastOn(1, nil, nil, fp(0.5)),
		forecastOn(2, nil, nil, nil),
	}

	result := Adjust(baseItems(), forecasts)

	// 雨ルールのみ発火する
	if !hasName(result, "折りたたみ傘") {
		t.Error("umbrella not added despite high precipitation")
	}
	if hasName(result, "防寒ジャケット") {
		t.Error("warm jacket added without temperature data")
	}
	if hasName(result, "日焼け止め") {
		t.Error("sunscreen added without temperature data")
	}
}

// TestAdjust_RainRule は雨ルールの発火と重複防止を検証する。
func TestAdjust_RainRule(t *testing.T) {
	forecasts := []model.Forecast{
		forecastOn(1, fp(20), fp(15), fp(0.1)),
		forecastOn(2, fp(21), fp(16), fp(0.5)),
	}

	result := Adjust(baseItems(), forecasts)

	count := 0
	for _, item := range result {
		if item.Name == "折りたたみ傘" {
			count++
			if item.CategoryName != model.CategoryOther.Name() {
				t.Errorf("umbrella category = %q, want %q", item.CategoryName, model.CategoryOther.Name())
			}
			if item.ID == "" {
				t.Error("umbrella has empty synthesized id")
			}
			if item.IsChecked {
				t.Error("umbrella added pre-checked")
			}
		}
	}
	if count != 1 {
		t.Fatalf("umbrella count = %d, want 1", count)
	}

	// 同じ予報で再適用しても2本目は追加されない（キーワード一致で抑止）
	again := Adjust(result, forecasts)
	count = 0
	for _, item := range again {
		if item.Name == "折りたたみ傘" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("umbrella count after re-adjust = %d, want 1", count)
	}
}

// TestAdjust_RainRule_ThresholdBoundary は降水確率の閾値が「超」判定である
// ことを検証する。
func TestAdjust_RainRule_ThresholdBoundary(t *testing.T) {
	// ちょうど0.3は発火しない
	result := Adjust(baseItems(), []model.Forecast{forecastOn(1, nil, nil, fp(0.3))})
	if hasName(result, "折りたたみ傘") {
		t.Error("umbrella added at exactly 0.3, want strictly greater")
	}

	result = Adjust(baseItems(), []model.Forecast{forecastOn(1, nil, nil, fp(0.31))})
	if !hasName(result, "折りたたみ傘") {
		t.Error("umbrella not added at 0.31")
	}
}

// TestAdjust_RainRule_SkippedWhenRainGearPresent は既存の雨具がある場合に
// 雨ルールが発火しないことを検証する。
func TestAdjust_RainRule_SkippedWhenRainGearPresent(t *testing.T) {
	items := append(baseItems(), model.TripItem{ID: "rain-jacket", Name: "レインウェア", NameEn: "Rain jacket"})
	forecasts := []model.Forecast{forecastOn(1, nil, nil, fp(0.9))}

	result := Adjust(items, forecasts)

	if hasName(result, "折りたたみ傘") {
		t.Error("umbrella added despite existing rain gear")
	}
}

// TestAdjust_ColdRule は寒さルールを検証する。平均最低気温で判定される。
func TestAdjust_ColdRule(t *testing.T) {
	// 平均 (5 + 11) / 2 = 8 < 10 → 発火
	forecasts := []model.Forecast{
		forecastOn(1, fp(12), fp(5), nil),
		forecastOn(2, fp(15), fp(11), nil),
	}

	result := Adjust(baseItems(), forecasts)

	var jacket *model.TripItem
	for i := range result {
		if result[i].Name == "防寒ジャケット" {
			jacket = &result[i]
		}
	}
	if jacket == nil {
		t.Fatal("warm jacket not added for cold forecast")
	}
	if jacket.CategoryName != model.CategoryClothing.Name() {
		t.Errorf("jacket category = %q, want %q", jacket.CategoryName, model.CategoryClothing.Name())
	}

	// 平均10℃ちょうどは発火しない
	result = Adjust(baseItems(), []model.Forecast{forecastOn(1, nil, fp(10), nil)})
	if hasName(result, "防寒ジャケット") {
		t.Error("warm jacket added at exactly 10°C, want strictly below")
	}
}

// TestAdjust_ColdRule_SkippedWhenWarmClothingPresent は上着が既にある場合の
// 抑止を検証する。
func TestAdjust_ColdRule_SkippedWhenWarmClothingPresent(t *testing.T) {
	items := append(baseItems(), model.TripItem{ID: "jacket", Name: "上着", NameEn: "Jacket"})

	result := Adjust(items, []model.Forecast{forecastOn(1, nil, fp(2), nil)})

	if hasName(result, "防寒ジャケット") {
		t.Error("warm jacket added despite existing jacket")
	}
}

// TestAdjust_HeatRule は暑さルールを検証する。2アイテムが同時に追加される。
func TestAdjust_HeatRule(t *testing.T) {
	forecasts := []model.Forecast{
		forecastOn(1, fp(31), fp(24), nil),
		forecastOn(2, fp(29), fp(23), nil),
	}

	result := Adjust(baseItems(), forecasts)

	if !hasName(result, "日焼け止め") {
		t.Error("sunscreen not added for hot forecast")
	}
	if !hasName(result, "サングラス") {
		t.Error("sunglasses not added for hot forecast")
	}

	for _, item := range result {
		switch item.Name {
		case "日焼け止め":
			if item.CategoryName != model.CategoryToiletries.Name() {
				t.Errorf("sunscreen category = %q, want %q", item.CategoryName, model.CategoryToiletries.Name())
			}
		case "サングラス":
			if item.CategoryName != model.CategoryOther.Name() {
				t.Errorf("sunglasses category = %q, want %q", item.CategoryName, model.CategoryOther.Name())
			}
		}
	}
}

// TestAdjust_HeatRule_SkippedWhenSunProtectionPresent は日差し対策が既に
// ある場合の抑止を検証する。キーワードはどちらか一方の一致で十分。
func TestAdjust_HeatRule_SkippedWhenSunProtectionPresent(t *testing.T) {
	items := append(baseItems(), model.TripItem{ID: "sunscreen", Name: "日焼け止め", NameEn: "Sunscreen"})

	result := Adjust(items, []model.Forecast{forecastOn(1, fp(35), nil, nil)})

	if hasName(result, "サングラス") {
		t.Error("sunglasses added despite existing sun protection")
	}
	count := 0
	for _, item := range result {
		if item.Name == "日焼け止め" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("sunscreen count = %d, want 1", count)
	}
}

// TestAdjust_RulesAreAdditive は全ルールが同時に発火しうることを検証する。
func TestAdjust_RulesAreAdditive(t *testing.T) {
	// 雨・寒さの両条件を満たす予報
	forecasts := []model.Forecast{
		forecastOn(1, fp(8), fp(3), fp(0.8)),
	}

	result := Adjust(baseItems(), forecasts)

	if !hasName(result, "折りたたみ傘") {
		t.Error("umbrella missing")
	}
	if !hasName(result, "防寒ジャケット") {
		t.Error("warm jacket missing")
	}
	if hasName(result, "日焼け止め") {
		t.Error("sunscreen added for cold forecast")
	}
}

// TestAdjust_DoesNotMutateInput は入力スライスが変更されないことを検証する。
func TestAdjust_DoesNotMutateInput(t *testing.T) {
	items := baseItems()
	forecasts := []model.Forecast{forecastOn(1, fp(30), fp(2), fp(0.9))}

	_ = Adjust(items, forecasts)

	if len(items) != 2 {
		t.Errorf("input slice length changed to %d", len(items))
	}
}

// TestAdjust_AverageExcludesMissingTemps は気温データを欠くエントリが
// 平均計算から除外されることを検証する。
func TestAdjust_AverageExcludesMissingTemps(t *testing.T) {
	// 欠測を0として扱うと平均が (26+0)/2 = 13 となり発火しない。
	// 正しくは26のみで平均26 > 25で発火する。
	forecasts := []model.Forecast{
		forecastOn(1, fp(26), nil, nil),
		forecastOn(2, nil, nil, nil),
	}

	result := Adjust(baseItems(), forecasts)

	if !hasName(result, "日焼け止め") {
		t.Error("heat rule did not fire; missing temps must be excluded from the mean")
	}
}
