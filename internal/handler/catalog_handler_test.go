package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/nizukuri/internal/model"
)

// mockCatalogReader はCatalogReaderのモック実装。
type mockCatalogReader struct {
	tagFn         func(id string) (*model.Tag, bool)
	tagsInGroupFn func(group model.TagGroup) []*model.Tag
}

func (m *mockCatalogReader) Tag(id string) (*model.Tag, bool) {
	return m.tagFn(id)
}

func (m *mockCatalogReader) TagsInGroup(group model.TagGroup) []*model.Tag {
	if m.tagsInGroupFn == nil {
		return nil
	}
	return m.tagsInGroupFn(group)
}

// mockPresetLister はPresetListerのモック実装。
type mockPresetLister struct {
	presetItemsFn func(tagID string) []*model.Item
}

func (m *mockPresetLister) PresetItems(tagID string) []*model.Item {
	return m.presetItemsFn(tagID)
}

// mockCustomizationReader はCustomizationReaderのモック実装。
type mockCustomizationReader struct {
	customItemsFn   func(tagID string) []string
	canDeleteItemFn func(tagID string, presetItemIDs []string, customItemCount int) bool
}

func (m *mockCustomizationReader) CustomItems(tagID string) []string {
	if m.customItemsFn == nil {
		return nil
	}
	return m.customItemsFn(tagID)
}

func (m *mockCustomizationReader) CanDeleteItem(tagID string, presetItemIDs []string, customItemCount int) bool {
	if m.canDeleteItemFn == nil {
		return true
	}
	return m.canDeleteItemFn(tagID, presetItemIDs, customItemCount)
}

// newCatalogRouter はカタログルートのみを構成したテスト用ルーターを返す。
func newCatalogRouter(h *CatalogHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/catalog/tags", h.ListTags)
	r.Get("/api/catalog/tags/{id}/items", h.ListTagItems)
	return r
}

func TestListTags_ReturnsAllGroupsInOrder(t *testing.T) {
	catalog := &mockCatalogReader{
		tagFn: func(id string) (*model.Tag, bool) { return nil, false },
		tagsInGroupFn: func(group model.TagGroup) []*model.Tag {
			switch group {
			case model.TagGroupActivity:
				return []*model.Tag{
					{ID: "beach", Name: "ビーチ", NameEn: "Beach", Group: group, Icon: "🏖️"},
					{ID: "ski", Name: "スキー", NameEn: "Ski", Group: group},
				}
			case model.TagGroupOccasion:
				return []*model.Tag{
					{ID: "wedding", Name: "結婚式", NameEn: "Wedding", Group: group},
				}
			default:
				return nil
			}
		},
	}

	h := NewCatalogHandler(catalog, &mockPresetLister{}, &mockCustomizationReader{})
	router := newCatalogRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/tags", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got []tagGroupResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	// グループはちょうど3つ、固定の表示順
	if len(got) != 3 {
		t.Fatalf("groups = %d, want 3", len(got))
	}
	if got[0].Group != string(model.TagGroupActivity) {
		t.Errorf("group 0 = %q, want %q", got[0].Group, model.TagGroupActivity)
	}
	if got[1].Group != string(model.TagGroupOccasion) {
		t.Errorf("group 1 = %q, want %q", got[1].Group, model.TagGroupOccasion)
	}
	if got[2].Group != string(model.TagGroupConfig) {
		t.Errorf("group 2 = %q, want %q", got[2].Group, model.TagGroupConfig)
	}

	if len(got[0].Tags) != 2 {
		t.Fatalf("activity tags = %d, want 2", len(got[0].Tags))
	}
	if got[0].Tags[0].ID != "beach" {
		t.Errorf("tag 0 = %q, want %q", got[0].Tags[0].ID, "beach")
	}
	if got[0].Tags[0].Icon != "🏖️" {
		t.Errorf("icon = %q, want %q", got[0].Tags[0].Icon, "🏖️")
	}

	// タグが空のグループも空配列で含まれる
	if got[2].Tags == nil || len(got[2].Tags) != 0 {
		t.Errorf("config tags = %v, want empty array", got[2].Tags)
	}
}

func TestListTagItems_ReturnsPresetsAndCustoms(t *testing.T) {
	catalog := &mockCatalogReader{
		tagFn: func(id string) (*model.Tag, bool) {
			if id != "beach" {
				return nil, false
			}
			return &model.Tag{
				ID:      "beach",
				Name:    "ビーチ",
				NameEn:  "Beach",
				Group:   model.TagGroupActivity,
				ItemIDs: []string{"swimsuit", "sunscreen"},
			}, true
		},
	}
	presets := &mockPresetLister{
		presetItemsFn: func(tagID string) []*model.Item {
			return []*model.Item{
				{ID: "swimsuit", Name: "水着", NameEn: "Swimsuit", Category: model.CategoryClothing},
				{ID: "sunscreen", Name: "日焼け止め", NameEn: "Sunscreen", Category: model.CategoryToiletries},
			}
		},
	}
	custom := &mockCustomizationReader{
		customItemsFn: func(tagID string) []string {
			return []string{"ビーチサンダル"}
		},
		canDeleteItemFn: func(tagID string, presetItemIDs []string, customItemCount int) bool {
			if len(presetItemIDs) != 2 {
				t.Errorf("presetItemIDs = %d, want 2", len(presetItemIDs))
			}
			if customItemCount != 1 {
				t.Errorf("customItemCount = %d, want 1", customItemCount)
			}
			return true
		},
	}

	h := NewCatalogHandler(catalog, presets, custom)
	router := newCatalogRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/tags/beach/items", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got tagItemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	if got.TagID != "beach" {
		t.Errorf("tag_id = %q, want %q", got.TagID, "beach")
	}
	if len(got.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(got.Items))
	}
	if got.Items[0].ID != "swimsuit" {
		t.Errorf("item 0 = %q, want %q", got.Items[0].ID, "swimsuit")
	}
	if got.Items[1].Category != string(model.CategoryToiletries) {
		t.Errorf("item 1 category = %q, want %q", got.Items[1].Category, model.CategoryToiletries)
	}
	if len(got.CustomItems) != 1 || got.CustomItems[0] != "ビーチサンダル" {
		t.Errorf("custom_items = %v, want [ビーチサンダル]", got.CustomItems)
	}
	if !got.CanDelete {
		t.Error("can_delete = false, want true")
	}
}

func TestListTagItems_UnknownTag_Returns404(t *testing.T) {
	catalog := &mockCatalogReader{
		tagFn: func(id string) (*model.Tag, bool) { return nil, false },
	}

	h := NewCatalogHandler(catalog, &mockPresetLister{}, &mockCustomizationReader{})
	router := newCatalogRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/tags/nope/items", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}

	var got apiErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if got.Code != model.ErrCodeTagNotFound {
		t.Errorf("code = %q, want %q", got.Code, model.ErrCodeTagNotFound)
	}
}
