// Package generate はタグ選択と性別から持ち物リストを生成するドメインロジックを提供する。
// 基本持ち物・タグ由来の持ち物・ユーザーのカスタマイズ（追加・非表示）を重ね合わせ、
// 重複のないカテゴリ分類済みリストを構築する。
package generate

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/hitoshi/nizukuri/internal/model"
)

// Catalog は生成に必要なカタログ操作のインターフェース。
type Catalog interface {
	Item(id string) (*model.Item, bool)
	Tag(id string) (*model.Tag, bool)
	BaseItemIDs(gender model.Gender) []string
}

// Customization は生成に必要なカスタマイズ状態のインターフェース。
type Customization interface {
	IsPresetItemDeleted(itemID string) bool
	CustomItems(tagID string) []string
}

// Generator は持ち物リストの生成器。
// 状態を持たず、同一のカタログ・カスタマイズ状態に対して決定的な結果を返す
// （カスタム持ち物の合成IDのみ毎回新規生成される）。
type Generator struct {
	catalog Catalog
	custom  Customization
}

// NewGenerator はGeneratorを生成する。
func NewGenerator(catalog Catalog, custom Customization) *Generator {
	return &Generator{catalog: catalog, custom: custom}
}

// Generate は選択タグと性別から持ち物リストを生成する。
//
// 手順:
//  1. 共通基本持ち物と性別別基本持ち物のIDを種とする
//  2. 解決できる選択タグのitem_idsを合算する（非表示プリセットは除外）
//  3. 集めたIDをカタログで解決し、要求と異なる性別限定アイテムを落として
//     TripItemへ変換する
//  4. 選択タグに登録されたカスタム持ち物名を集め、既存アイテムと名前が
//     重複しないものを「その他」カテゴリで合成する
//  5. (カテゴリ表示順, 名前) 昇順でソートする
//
// 未知のタグIDや未知のアイテムIDは黙ってスキップする（エラーにしない）。
func (g *Generator) Generate(selectedTagIDs []string, gender model.Gender) []model.TripItem {
	// 1. 基本持ち物を種にする。order はID初出順を保持するための補助。
	idSet := make(map[string]struct{})
	var order []string
	add := func(id string) {
		if _, exists := idSet[id]; exists {
			return
		}
		idSet[id] = struct{}{}
		order = append(order, id)
	}

	for _, id := range g.catalog.BaseItemIDs(gender) {
		add(id)
	}

	// 2. タグ由来のIDを合算する。非表示プリセットはここで除外する。
	for _, tagID := range selectedTagIDs {
		tag, ok := g.catalog.Tag(tagID)
		if !ok {
			continue
		}
		for _, itemID := range tag.ItemIDs {
			if g.custom.IsPresetItemDeleted(itemID) {
				continue
			}
			add(itemID)
		}
	}

	// 3. カタログで解決してTripItemへ変換する。
	// 性別限定アイテムはタグ由来で混入しうるため、要求性別と異なるものを落とす。
	items := make([]model.TripItem, 0, len(order))
	for _, id := range order {
		item, ok := g.catalog.Item(id)
		if !ok {
			continue
		}
		if item.Gender != "" && item.Gender != gender {
			continue
		}
		items = append(items, toTripItem(item))
	}

	// 4. カスタム持ち物を合成する。名前の重複判定は両ロケールの表示名に対して
	// 大文字小文字を無視して行う。
	existingNames := make(map[string]struct{}, len(items)*2)
	for _, item := range items {
		existingNames[strings.ToLower(item.Name)] = struct{}{}
		existingNames[strings.ToLower(item.NameEn)] = struct{}{}
	}

	customSeen := make(map[string]struct{})
	for _, tagID := range selectedTagIDs {
		for _, name := range g.custom.CustomItems(tagID) {
			lower := strings.ToLower(name)
			if _, dup := customSeen[lower]; dup {
				continue
			}
			customSeen[lower] = struct{}{}
			if _, exists := existingNames[lower]; exists {
				continue
			}
			items = append(items, model.TripItem{
				ID:             uuid.NewString(),
				Name:           name,
				NameEn:         name,
				CategoryName:   model.CategoryOther.Name(),
				CategoryNameEn: model.CategoryOther.NameEn(),
				SortOrder:      model.CategoryOther.SortIndex(),
			})
		}
	}

	// 5. (カテゴリ表示順, 名前) でソートする。
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].SortOrder != items[j].SortOrder {
			return items[i].SortOrder < items[j].SortOrder
		}
		return items[i].Name < items[j].Name
	})

	return items
}

// PresetItems はタグのプリセット持ち物をカタログ記述順で返す。
// 非表示にされたものは除外する。未知のタグIDには空を返す。
// 持ち物管理画面と追加候補の表示に使用する。
func (g *Generator) PresetItems(tagID string) []*model.Item {
	tag, ok := g.catalog.Tag(tagID)
	if !ok {
		return nil
	}

	items := make([]*model.Item, 0, len(tag.ItemIDs))
	for _, itemID := range tag.ItemIDs {
		if g.custom.IsPresetItemDeleted(itemID) {
			continue
		}
		if item, found := g.catalog.Item(itemID); found {
			items = append(items, item)
		}
	}
	return items
}

// toTripItem はカタログのItemをTripItemへ変換する。
// カテゴリはこの時点で両ロケールの表示名に解決される。
func toTripItem(item *model.Item) model.TripItem {
	return model.TripItem{
		ID:             item.ID,
		Name:           item.Name,
		NameEn:         item.NameEn,
		CategoryName:   item.Category.Name(),
		CategoryNameEn: item.Category.NameEn(),
		SortOrder:      item.Category.SortIndex(),
	}
}
