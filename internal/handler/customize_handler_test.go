package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/nizukuri/internal/model"
)

// mockCustomizer はCustomizerInterfaceのモック実装。
type mockCustomizer struct {
	addCustomItemFn     func(ctx context.Context, tagID, rawName string) (bool, error)
	removeCustomItemFn  func(ctx context.Context, tagID, name string) error
	deletePresetItemFn  func(ctx context.Context, tagID, itemID string) error
	restorePresetItemFn func(ctx context.Context, itemID string) error
}

func (m *mockCustomizer) SanitizeName(rawName string) string {
	return strings.TrimSpace(rawName)
}

func (m *mockCustomizer) AddCustomItem(ctx context.Context, tagID, rawName string) (bool, error) {
	return m.addCustomItemFn(ctx, tagID, rawName)
}

func (m *mockCustomizer) RemoveCustomItem(ctx context.Context, tagID, name string) error {
	return m.removeCustomItemFn(ctx, tagID, name)
}

func (m *mockCustomizer) DeletePresetItem(ctx context.Context, tagID, itemID string) error {
	return m.deletePresetItemFn(ctx, tagID, itemID)
}

func (m *mockCustomizer) RestorePresetItem(ctx context.Context, itemID string) error {
	return m.restorePresetItemFn(ctx, itemID)
}

// knownTagCatalog はbeachタグのみ存在するTagValidator。
type knownTagCatalog struct{}

func (knownTagCatalog) Tag(id string) (*model.Tag, bool) {
	if id != "beach" {
		return nil, false
	}
	return &model.Tag{ID: "beach", ItemIDs: []string{"swimsuit", "sunscreen"}}, true
}

// newCustomizeRouter はカスタマイズルートのみを構成したテスト用ルーターを返す。
func newCustomizeRouter(h *CustomizeHandler) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/customize", func(r chi.Router) {
		r.Post("/items", h.AddCustomItem)
		r.Delete("/items", h.RemoveCustomItem)
		r.Post("/deleted/{itemID}", h.DeletePresetItem)
		r.Delete("/deleted/{itemID}", h.RestorePresetItem)
	})
	return r
}

func TestAddCustomItem_Returns201(t *testing.T) {
	store := &mockCustomizer{
		addCustomItemFn: func(ctx context.Context, tagID, rawName string) (bool, error) {
			if tagID != "beach" {
				t.Errorf("tagID = %q, want %q", tagID, "beach")
			}
			return true, nil
		},
	}

	router := newCustomizeRouter(NewCustomizeHandler(store, knownTagCatalog{}))

	body := `{"tag_id":"beach","name":"ビーチサンダル"}`
	req := httptest.NewRequest(http.MethodPost, "/api/customize/items", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var got customItemResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if got.Name != "ビーチサンダル" {
		t.Errorf("name = %q, want %q", got.Name, "ビーチサンダル")
	}
}

func TestAddCustomItem_UnknownTag_Returns404(t *testing.T) {
	store := &mockCustomizer{
		addCustomItemFn: func(ctx context.Context, tagID, rawName string) (bool, error) {
			t.Fatal("store should not be called")
			return false, nil
		},
	}

	router := newCustomizeRouter(NewCustomizeHandler(store, knownTagCatalog{}))

	body := `{"tag_id":"nope","name":"ビーチサンダル"}`
	req := httptest.NewRequest(http.MethodPost, "/api/customize/items", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

func TestAddCustomItem_EmptyName_Returns400(t *testing.T) {
	store := &mockCustomizer{
		addCustomItemFn: func(ctx context.Context, tagID, rawName string) (bool, error) {
			t.Fatal("store should not be called")
			return false, nil
		},
	}

	router := newCustomizeRouter(NewCustomizeHandler(store, knownTagCatalog{}))

	body := `{"tag_id":"beach","name":"   "}`
	req := httptest.NewRequest(http.MethodPost, "/api/customize/items", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	var got apiErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if got.Code != model.ErrCodeInvalidItemName {
		t.Errorf("code = %q, want %q", got.Code, model.ErrCodeInvalidItemName)
	}
}

func TestAddCustomItem_Duplicate_Returns409(t *testing.T) {
	store := &mockCustomizer{
		addCustomItemFn: func(ctx context.Context, tagID, rawName string) (bool, error) {
			return false, nil
		},
	}

	router := newCustomizeRouter(NewCustomizeHandler(store, knownTagCatalog{}))

	body := `{"tag_id":"beach","name":"ビーチサンダル"}`
	req := httptest.NewRequest(http.MethodPost, "/api/customize/items", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	var got apiErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if got.Code != model.ErrCodeDuplicateItemName {
		t.Errorf("code = %q, want %q", got.Code, model.ErrCodeDuplicateItemName)
	}
}

func TestRemoveCustomItem_Returns204(t *testing.T) {
	removed := ""
	store := &mockCustomizer{
		removeCustomItemFn: func(ctx context.Context, tagID, name string) error {
			removed = name
			return nil
		},
	}

	router := newCustomizeRouter(NewCustomizeHandler(store, knownTagCatalog{}))

	body := `{"tag_id":"beach","name":"ビーチサンダル"}`
	req := httptest.NewRequest(http.MethodDelete, "/api/customize/items", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
	if removed != "ビーチサンダル" {
		t.Errorf("removed = %q, want %q", removed, "ビーチサンダル")
	}
}

func TestDeletePresetItem_Returns204(t *testing.T) {
	var gotTagID, gotItemID string
	store := &mockCustomizer{
		deletePresetItemFn: func(ctx context.Context, tagID, itemID string) error {
			gotTagID = tagID
			gotItemID = itemID
			return nil
		},
	}

	router := newCustomizeRouter(NewCustomizeHandler(store, knownTagCatalog{}))

	body := `{"tag_id":"beach"}`
	req := httptest.NewRequest(http.MethodPost, "/api/customize/deleted/sunscreen", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
	if gotTagID != "beach" || gotItemID != "sunscreen" {
		t.Errorf("got (%q, %q), want (beach, sunscreen)", gotTagID, gotItemID)
	}
}

func TestDeletePresetItem_LastItem_Returns422(t *testing.T) {
	store := &mockCustomizer{
		deletePresetItemFn: func(ctx context.Context, tagID, itemID string) error {
			return model.NewLastItemProtectedError(tagID)
		},
	}

	router := newCustomizeRouter(NewCustomizeHandler(store, knownTagCatalog{}))

	body := `{"tag_id":"beach"}`
	req := httptest.NewRequest(http.MethodPost, "/api/customize/deleted/swimsuit", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}

	var got apiErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if got.Code != model.ErrCodeLastItemProtected {
		t.Errorf("code = %q, want %q", got.Code, model.ErrCodeLastItemProtected)
	}
}

func TestRestorePresetItem_Returns204(t *testing.T) {
	restored := ""
	store := &mockCustomizer{
		restorePresetItemFn: func(ctx context.Context, itemID string) error {
			restored = itemID
			return nil
		},
	}

	router := newCustomizeRouter(NewCustomizeHandler(store, knownTagCatalog{}))

	req := httptest.NewRequest(http.MethodDelete, "/api/customize/deleted/sunscreen", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
	if restored != "sunscreen" {
		t.Errorf("restored = %q, want %q", restored, "sunscreen")
	}
}
