// Package weather は天気予報の取得と、予報に応じた持ち物リストの補正を提供する。
package weather

import (
	"strings"

	"github.com/google/uuid"

	"github.com/hitoshi/nizukuri/internal/model"
)

// 補正ルールの閾値。
const (
	// rainChanceThreshold はこの降水確率を超える日が1日でもあれば雨具を提案する。
	rainChanceThreshold = 0.3
	// coldTempThreshold は平均最低気温がこの値（℃）を下回れば防寒具を提案する。
	coldTempThreshold = 10.0
	// hotTempThreshold は平均最高気温がこの値（℃）を上回れば日差し対策を提案する。
	hotTempThreshold = 25.0
)

// 既存アイテムとの重複判定に使うキーワード表。
// 両ロケールの表示名に対する大文字小文字を無視した部分一致で判定する。
// 意味解析はしない。単純なキーワード表に意図的にとどめている。
var (
	rainKeywords = []string{"傘", "レインコート", "レインウェア", "umbrella", "raincoat", "rain jacket"}
	warmKeywords = []string{"ジャケット", "コート", "上着", "防寒", "jacket", "coat"}
	sunKeywords  = []string{"日焼け止め", "サングラス", "sunscreen", "sunglasses"}
)

// Adjust は予報に基づいて持ち物リストへ提案アイテムを追加した新しいリストを返す。
// 入力リストは変更しない。各ルールは独立に適用される（排他ではない）:
//
//  1. 雨ルール: 降水確率30%超の日があり、雨具が未登場なら折りたたみ傘を追加
//  2. 寒さルール: 平均最低気温10℃未満で、防寒着が未登場なら防寒ジャケットを追加
//  3. 暑さルール: 平均最高気温25℃超で、日差し対策が未登場なら日焼け止めと
//     サングラスを追加
//
// 気温データを持つ予報が0件の場合、平均が定義できないため気温ルールは
// 適用しない（ゼロ除算をガードする）。雨ルールは予報0件でも安全に不発となる。
func Adjust(items []model.TripItem, forecasts []model.Forecast) []model.TripItem {
	result := make([]model.TripItem, len(items))
	copy(result, items)

	// 雨ルール
	if maxPrecipChance(forecasts) > rainChanceThreshold && !containsKeyword(result, rainKeywords) {
		result = append(result, synthesize("折りたたみ傘", "Folding umbrella", model.CategoryOther))
	}

	// 寒さルール
	if mean, ok := meanTemp(forecasts, func(f model.Forecast) *float64 { return f.LowTemp }); ok && mean < coldTempThreshold {
		if !containsKeyword(result, warmKeywords) {
			result = append(result, synthesize("防寒ジャケット", "Warm jacket", model.CategoryClothing))
		}
	}

	// 暑さルール
	if mean, ok := meanTemp(forecasts, func(f model.Forecast) *float64 { return f.HighTemp }); ok && mean > hotTempThreshold {
		if !containsKeyword(result, sunKeywords) {
			result = append(result,
				synthesize("日焼け止め", "Sunscreen", model.CategoryToiletries),
				synthesize("サングラス", "Sunglasses", model.CategoryOther),
			)
		}
	}

	return result
}

// maxPrecipChance は予報中の最大降水確率を返す。データがなければ0。
func maxPrecipChance(forecasts []model.Forecast) float64 {
	max := 0.0
	for _, f := range forecasts {
		if f.PrecipChance != nil && *f.PrecipChance > max {
			max = *f.PrecipChance
		}
	}
	return max
}

// meanTemp は指定フィールドを持つ予報だけで平均気温を計算する。
// 対象データが0件の場合は ok=false を返し、平均を定義しない。
func meanTemp(forecasts []model.Forecast, field func(model.Forecast) *float64) (float64, bool) {
	sum := 0.0
	count := 0
	for _, f := range forecasts {
		if v := field(f); v != nil {
			sum += *v
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// containsKeyword はいずれかのアイテム表示名がキーワードに部分一致するかを返す。
func containsKeyword(items []model.TripItem, keywords []string) bool {
	for _, item := range items {
		name := strings.ToLower(item.Name)
		nameEn := strings.ToLower(item.NameEn)
		for _, kw := range keywords {
			kw = strings.ToLower(kw)
			if strings.Contains(name, kw) || strings.Contains(nameEn, kw) {
				return true
			}
		}
	}
	return false
}

// synthesize は天気補正由来のTripItemを新規IDで合成する。
func synthesize(name, nameEn string, category model.Category) model.TripItem {
	return model.TripItem{
		ID:             uuid.NewString(),
		Name:           name,
		NameEn:         nameEn,
		CategoryName:   category.Name(),
		CategoryNameEn: category.NameEn(),
		SortOrder:      category.SortIndex(),
	}
}
