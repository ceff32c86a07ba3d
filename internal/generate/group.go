package generate

import (
	"sort"

	"github.com/hitoshi/nizukuri/internal/model"
)

// Locale は表示言語を表す。
type Locale string

const (
	// LocaleJa は日本語表示。
	LocaleJa Locale = "ja"
	// LocaleEn は英語表示。
	LocaleEn Locale = "en"
)

// CategoryGroup はカテゴリ表示名とそのカテゴリの持ち物の組。
type CategoryGroup struct {
	CategoryName string
	Items        []model.TripItem
}

// GroupByCategory は持ち物リストをロケールに応じたカテゴリ表示名で分割し、
// カテゴリの固定表示順で並べて返す。未知のカテゴリ名は末尾に並ぶ。
// 入力の並び順には依存しない。
func GroupByCategory(items []model.TripItem, locale Locale) []CategoryGroup {
	byName := make(map[string][]model.TripItem)
	var names []string
	for _, item := range items {
		name := item.CategoryName
		if locale == LocaleEn {
			name = item.CategoryNameEn
		}
		if _, exists := byName[name]; !exists {
			names = append(names, name)
		}
		byName[name] = append(byName[name], item)
	}

	sort.SliceStable(names, func(i, j int) bool {
		return model.CategorySortIndexByName(names[i]) < model.CategorySortIndexByName(names[j])
	})

	groups := make([]CategoryGroup, 0, len(names))
	for _, name := range names {
		groups = append(groups, CategoryGroup{CategoryName: name, Items: byName[name]})
	}
	return groups
}
