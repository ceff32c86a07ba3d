// Package catalog はプリセット持ち物・タグの静的リファレンスデータを提供する。
// データはTOMLとしてバイナリに埋め込まれ、起動時に1回だけインデックスを構築する。
// 構築後は読み取り専用であり、どのゴルーチンからでも安全に参照できる。
package catalog

import (
	"embed"
	"fmt"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/hitoshi/nizukuri/internal/model"
)

//go:embed data/*.toml
var dataFS embed.FS

// itemsDoc はitems.tomlのデコード先。
type itemsDoc struct {
	Items []itemRecord `toml:"items"`
}

type itemRecord struct {
	ID       string `toml:"id"`
	Name     string `toml:"name"`
	NameEn   string `toml:"name_en"`
	Category string `toml:"category"`
	Gender   string `toml:"gender"`
}

// tagsDoc はtags.tomlのデコード先。
type tagsDoc struct {
	Tags []tagRecord `toml:"tags"`
}

type tagRecord struct {
	ID      string   `toml:"id"`
	Name    string   `toml:"name"`
	NameEn  string   `toml:"name_en"`
	Group   string   `toml:"group"`
	Icon    string   `toml:"icon"`
	ItemIDs []string `toml:"item_ids"`
}

// baseDoc はbase.tomlのデコード先。
type baseDoc struct {
	Base struct {
		Common []string `toml:"common"`
		Male   []string `toml:"male"`
		Female []string `toml:"female"`
	} `toml:"base"`
}

// Catalog はプリセットデータの読み取り専用インデックス。
// 存在しないIDの参照は「見つからない」を返すだけでエラーにはならない。
// 古いデータに残ったIDでアプリが落ちないよう、呼び出し側は黙ってスキップする。
type Catalog struct {
	itemsByID   map[string]*model.Item
	tagsByID    map[string]*model.Tag
	tagsByGroup map[model.TagGroup][]*model.Tag
	tagIDs      []string // ファイル記述順
	baseCommon  []string
	baseMale    []string
	baseFemale  []string
}

// New は埋め込みTOMLデータからカタログを構築する。
// 埋め込みデータが壊れている場合のみエラーを返す（ビルド時に混入するバグであり、
// 実行時に回復する種類のエラーではない）。
func New() (*Catalog, error) {
	itemsData, err := dataFS.ReadFile("data/items.toml")
	if err != nil {
		return nil, fmt.Errorf("持ち物データの読み込みに失敗しました: %w", err)
	}
	tagsData, err := dataFS.ReadFile("data/tags.toml")
	if err != nil {
		return nil, fmt.Errorf("タグデータの読み込みに失敗しました: %w", err)
	}
	baseData, err := dataFS.ReadFile("data/base.toml")
	if err != nil {
		return nil, fmt.Errorf("基本持ち物データの読み込みに失敗しました: %w", err)
	}

	var items itemsDoc
	if err := toml.Unmarshal(itemsData, &items); err != nil {
		return nil, fmt.Errorf("持ち物データのパースに失敗しました: %w", err)
	}
	var tags tagsDoc
	if err := toml.Unmarshal(tagsData, &tags); err != nil {
		return nil, fmt.Errorf("タグデータのパースに失敗しました: %w", err)
	}
	var base baseDoc
	if err := toml.Unmarshal(baseData, &base); err != nil {
		return nil, fmt.Errorf("基本持ち物データのパースに失敗しました: %w", err)
	}

	c := &Catalog{
		itemsByID:   make(map[string]*model.Item, len(items.Items)),
		tagsByID:    make(map[string]*model.Tag, len(tags.Tags)),
		tagsByGroup: make(map[model.TagGroup][]*model.Tag),
		baseCommon:  base.Base.Common,
		baseMale:    base.Base.Male,
		baseFemale:  base.Base.Female,
	}

	for _, rec := range items.Items {
		if rec.ID == "" {
			return nil, fmt.Errorf("IDが空の持ち物があります: %q", rec.Name)
		}
		if _, exists := c.itemsByID[rec.ID]; exists {
			return nil, fmt.Errorf("持ち物IDが重複しています: %s", rec.ID)
		}
		c.itemsByID[rec.ID] = &model.Item{
			ID:       rec.ID,
			Name:     rec.Name,
			NameEn:   rec.NameEn,
			Category: model.Category(rec.Category),
			Gender:   model.Gender(rec.Gender),
		}
	}

	for _, rec := range tags.Tags {
		if rec.ID == "" {
			return nil, fmt.Errorf("IDが空のタグがあります: %q", rec.Name)
		}
		if _, exists := c.tagsByID[rec.ID]; exists {
			return nil, fmt.Errorf("タグIDが重複しています: %s", rec.ID)
		}
		tag := &model.Tag{
			ID:      rec.ID,
			Name:    rec.Name,
			NameEn:  rec.NameEn,
			Group:   model.TagGroup(rec.Group),
			Icon:    rec.Icon,
			ItemIDs: rec.ItemIDs,
		}
		c.tagsByID[tag.ID] = tag
		c.tagsByGroup[tag.Group] = append(c.tagsByGroup[tag.Group], tag)
		c.tagIDs = append(c.tagIDs, tag.ID)
	}

	return c, nil
}

// Item は指定IDの持ち物を返す。見つからない場合は (nil, false)。
func (c *Catalog) Item(id string) (*model.Item, bool) {
	item, ok := c.itemsByID[id]
	return item, ok
}

// Tag は指定IDのタグを返す。見つからない場合は (nil, false)。
func (c *Catalog) Tag(id string) (*model.Tag, bool) {
	tag, ok := c.tagsByID[id]
	return tag, ok
}

// TagsInGroup は指定グループのタグをデータファイルの記述順で返す。
func (c *Catalog) TagsInGroup(group model.TagGroup) []*model.Tag {
	return c.tagsByGroup[group]
}

// AllTagIDs は全タグIDをデータファイルの記述順で返す。
func (c *Catalog) AllTagIDs() []string {
	ids := make([]string, len(c.tagIDs))
	copy(ids, c.tagIDs)
	return ids
}

// BaseItemIDs は共通基本持ち物と指定性別の基本持ち物のID列を返す。
// 共通分が先、性別分が後。2つのリストは互いに素であることがデータ上の前提。
func (c *Catalog) BaseItemIDs(gender model.Gender) []string {
	ids := make([]string, 0, len(c.baseCommon)+len(c.baseMale))
	ids = append(ids, c.baseCommon...)
	switch gender {
	case model.GenderMale:
		ids = append(ids, c.baseMale...)
	case model.GenderFemale:
		ids = append(ids, c.baseFemale...)
	}
	return ids
}
