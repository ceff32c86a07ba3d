package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/nizukuri/internal/model"
)

// CatalogReader はカタログハンドラーが必要とするタグ参照インターフェース。
type CatalogReader interface {
	// Tag はIDでタグを引く。
	Tag(id string) (*model.Tag, bool)
	// TagsInGroup は指定グループのタグを記述順で返す。
	TagsInGroup(group model.TagGroup) []*model.Tag
}

// PresetLister はタグのプリセット持ち物（非表示を除く）を返す。
type PresetLister interface {
	PresetItems(tagID string) []*model.Item
}

// CustomizationReader はカスタマイズ状態の参照インターフェース。
type CustomizationReader interface {
	// CustomItems はタグのカスタム持ち物名を返す。
	CustomItems(tagID string) []string
	// CanDeleteItem はタグでプリセット持ち物を1件削除できるかどうかを返す。
	CanDeleteItem(tagID string, presetItemIDs []string, customItemCount int) bool
}

// CatalogHandler はプリセットカタログ参照のHTTPハンドラー。
type CatalogHandler struct {
	catalog CatalogReader
	presets PresetLister
	custom  CustomizationReader
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(catalog CatalogReader, presets PresetLister, custom CustomizationReader) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		presets: presets,
		custom:  custom,
	}
}

// tagResponse はタグ1件のAPIレスポンス。
type tagResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	NameEn string `json:"name_en"`
	Icon   string `json:"icon,omitempty"`
}

// tagGroupResponse はタググループ単位のAPIレスポンス。
type tagGroupResponse struct {
	Group  string        `json:"group"`
	Name   string        `json:"name"`
	NameEn string        `json:"name_en"`
	Tags   []tagResponse `json:"tags"`
}

// catalogItemResponse はタグ配下のプリセット持ち物のAPIレスポンス。
type catalogItemResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	NameEn   string `json:"name_en"`
	Category string `json:"category"`
}

// tagItemsResponse はタグ詳細（プリセット＋カスタム）のAPIレスポンス。
type tagItemsResponse struct {
	TagID       string                `json:"tag_id"`
	Items       []catalogItemResponse `json:"items"`
	CustomItems []string              `json:"custom_items"`
	CanDelete   bool                  `json:"can_delete"`
}

// ListTags はタグ一覧をグループ別に取得する。
// GET /api/catalog/tags
func (h *CatalogHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	groups := make([]tagGroupResponse, 0, 3)
	for _, group := range model.TagGroups() {
		tags := h.catalog.TagsInGroup(group)
		out := make([]tagResponse, 0, len(tags))
		for _, tag := range tags {
			out = append(out, tagResponse{
				ID:     tag.ID,
				Name:   tag.Name,
				NameEn: tag.NameEn,
				Icon:   tag.Icon,
			})
		}
		groups = append(groups, tagGroupResponse{
			Group:  string(group),
			Name:   group.Name(),
			NameEn: group.NameEn(),
			Tags:   out,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(groups)
}

// ListTagItems はタグ配下の持ち物（プリセット＋カスタム）を取得する。
// GET /api/catalog/tags/:id/items
func (h *CatalogHandler) ListTagItems(w http.ResponseWriter, r *http.Request) {
	tagID := chi.URLParam(r, "id")

	tag, ok := h.catalog.Tag(tagID)
	if !ok {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewTagNotFoundError(tagID))
		return
	}

	presets := h.presets.PresetItems(tagID)
	items := make([]catalogItemResponse, 0, len(presets))
	for _, item := range presets {
		items = append(items, catalogItemResponse{
			ID:       item.ID,
			Name:     item.Name,
			NameEn:   item.NameEn,
			Category: string(item.Category),
		})
	}

	customItems := h.custom.CustomItems(tagID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tagItemsResponse{
		TagID:       tagID,
		Items:       items,
		CustomItems: customItems,
		CanDelete:   h.custom.CanDeleteItem(tagID, tag.ItemIDs, len(customItems)),
	})
}
