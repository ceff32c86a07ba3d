// Package model はドメインモデルを定義する。
package model

// Category は持ち物のカテゴリを表す。
// 表示順はカテゴリごとに固定されている（SortIndex参照）。
type Category string

const (
	// CategoryDocuments は書類・貴重品カテゴリ。
	CategoryDocuments Category = "documents"
	// CategoryClothing は衣類カテゴリ。
	CategoryClothing Category = "clothing"
	// CategoryToiletries は洗面・衛生用品カテゴリ。
	CategoryToiletries Category = "toiletries"
	// CategoryElectronics は電子機器カテゴリ。
	CategoryElectronics Category = "electronics"
	// CategorySports はスポーツ用品カテゴリ。
	CategorySports Category = "sports"
	// CategoryOther はその他カテゴリ。
	CategoryOther Category = "other"
)

// categoryOrder はカテゴリの固定表示順。
var categoryOrder = map[Category]int{
	CategoryDocuments:   0,
	CategoryClothing:    1,
	CategoryToiletries:  2,
	CategoryElectronics: 3,
	CategorySports:      4,
	CategoryOther:       5,
}

// categoryNames はカテゴリの表示名（日本語・英語）。
var categoryNames = map[Category][2]string{
	CategoryDocuments:   {"書類・貴重品", "Documents"},
	CategoryClothing:    {"衣類", "Clothing"},
	CategoryToiletries:  {"洗面用具", "Toiletries"},
	CategoryElectronics: {"電子機器", "Electronics"},
	CategorySports:      {"スポーツ用品", "Sports"},
	CategoryOther:       {"その他", "Other"},
}

// unknownCategoryOrder は未知カテゴリの表示順。常に末尾に並ぶ。
const unknownCategoryOrder = 99

// SortIndex はカテゴリの表示順インデックスを返す。
// 未知のカテゴリは末尾（99）に並ぶ。
func (c Category) SortIndex() int {
	if idx, ok := categoryOrder[c]; ok {
		return idx
	}
	return unknownCategoryOrder
}

// Name はカテゴリの日本語表示名を返す。未知のカテゴリはそのまま返す。
func (c Category) Name() string {
	if names, ok := categoryNames[c]; ok {
		return names[0]
	}
	return string(c)
}

// NameEn はカテゴリの英語表示名を返す。未知のカテゴリはそのまま返す。
func (c Category) NameEn() string {
	if names, ok := categoryNames[c]; ok {
		return names[1]
	}
	return string(c)
}

// CategorySortIndexByName は表示名（日本語または英語）からカテゴリ表示順を引く。
// グルーピング後のTripItemはカテゴリを表示名でしか保持しないため、
// 表示名ベースの逆引きが必要になる。未知の表示名は末尾（99）。
func CategorySortIndexByName(name string) int {
	for c, names := range categoryNames {
		if names[0] == name || names[1] == name {
			return c.SortIndex()
		}
	}
	return unknownCategoryOrder
}

// Gender は旅行者の性別を表す。
type Gender string

const (
	// GenderMale は男性。
	GenderMale Gender = "male"
	// GenderFemale は女性。
	GenderFemale Gender = "female"
)

// Valid はGenderが定義済みの値かどうかを返す。
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Item はプリセットカタログの持ち物を表す。
// 起動時に静的データから構築され、以後変更されない。
type Item struct {
	ID       string   // カタログ内で一意なキー
	Name     string   // 日本語表示名
	NameEn   string   // 英語表示名
	Category Category // 所属カテゴリ
	Gender   Gender   // 性別限定アイテムの場合のみ設定（空は共通）
}

// TagGroup はタグの所属グループを表す。ちょうど3種類ある。
type TagGroup string

const (
	// TagGroupActivity はアクティビティ系タグのグループ。
	TagGroupActivity TagGroup = "activity"
	// TagGroupOccasion はイベント・予定系タグのグループ。
	TagGroupOccasion TagGroup = "occasion"
	// TagGroupConfig は旅のスタイル系タグのグループ。
	TagGroupConfig TagGroup = "config"
)

// TagGroups は全タググループを固定の表示順で返す。
func TagGroups() []TagGroup {
	return []TagGroup{TagGroupActivity, TagGroupOccasion, TagGroupConfig}
}

// tagGroupNames はタググループの表示名（日本語・英語）。
var tagGroupNames = map[TagGroup][2]string{
	TagGroupActivity: {"アクティビティ", "Activities"},
	TagGroupOccasion: {"イベント・予定", "Occasions"},
	TagGroupConfig:   {"旅のスタイル", "Travel style"},
}

// Name はタググループの日本語表示名を返す。
func (g TagGroup) Name() string {
	return tagGroupNames[g][0]
}

// NameEn はタググループの英語表示名を返す。
func (g TagGroup) NameEn() string {
	return tagGroupNames[g][1]
}

// Tag はユーザーが選択できるシナリオタグ（例: キャンプ、出張）を表す。
// ItemIDsはこのタグ選択時にリストへ取り込まれる持ち物のID列。
// ItemIDs内のIDがカタログに存在することはコンパイル時には保証されない
// （データ整合性テストで検証する）。
type Tag struct {
	ID      string
	Name    string
	NameEn  string
	Group   TagGroup
	Icon    string
	ItemIDs []string
}
