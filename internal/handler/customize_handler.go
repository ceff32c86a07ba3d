package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/nizukuri/internal/model"
)

// CustomizerInterface はカスタマイズハンドラーが必要とするストアインターフェース。
type CustomizerInterface interface {
	// SanitizeName はユーザー入力の持ち物名をサニタイズする。
	SanitizeName(rawName string) string
	// AddCustomItem はタグにカスタム持ち物を追加する。重複・空名はfalse。
	AddCustomItem(ctx context.Context, tagID, rawName string) (bool, error)
	// RemoveCustomItem はタグからカスタム持ち物を削除する。
	RemoveCustomItem(ctx context.Context, tagID, name string) error
	// DeletePresetItem はプリセット持ち物をタグの文脈で非表示にする。
	DeletePresetItem(ctx context.Context, tagID, itemID string) error
	// RestorePresetItem は非表示にしたプリセット持ち物を元に戻す。
	RestorePresetItem(ctx context.Context, itemID string) error
}

// TagValidator はタグIDの存在確認インターフェース。
type TagValidator interface {
	Tag(id string) (*model.Tag, bool)
}

// CustomizeHandler はプリセットカスタマイズのHTTPハンドラー。
type CustomizeHandler struct {
	store   CustomizerInterface
	catalog TagValidator
}

// NewCustomizeHandler はCustomizeHandlerを生成する。
func NewCustomizeHandler(store CustomizerInterface, catalog TagValidator) *CustomizeHandler {
	return &CustomizeHandler{
		store:   store,
		catalog: catalog,
	}
}

// customItemRequest はカスタム持ち物の追加・削除リクエストのボディ。
type customItemRequest struct {
	TagID string `json:"tag_id"`
	Name  string `json:"name"`
}

// deletePresetRequest はプリセット非表示リクエストのボディ。
type deletePresetRequest struct {
	TagID string `json:"tag_id"`
}

// customItemResponse はカスタム持ち物追加のAPIレスポンス。
type customItemResponse struct {
	TagID string `json:"tag_id"`
	Name  string `json:"name"`
}

// AddCustomItem はカスタム持ち物を追加する。
// POST /api/customize/items
func (h *CustomizeHandler) AddCustomItem(w http.ResponseWriter, r *http.Request) {
	var req customItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if _, ok := h.catalog.Tag(req.TagID); !ok {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewTagNotFoundError(req.TagID))
		return
	}

	name := h.store.SanitizeName(req.Name)
	if name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidItemNameError())
		return
	}

	added, err := h.store.AddCustomItem(r.Context(), req.TagID, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 名前は有効なのに追加されなかった場合は重複
	if !added {
		writeAPIErrorResponse(w, http.StatusConflict, model.NewDuplicateItemNameError(name))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(customItemResponse{
		TagID: req.TagID,
		Name:  name,
	})
}

// RemoveCustomItem はカスタム持ち物を削除する。
// DELETE /api/customize/items
func (h *CustomizeHandler) RemoveCustomItem(w http.ResponseWriter, r *http.Request) {
	var req customItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.store.RemoveCustomItem(r.Context(), req.TagID, req.Name); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeletePresetItem はプリセット持ち物をタグの文脈で非表示にする。
// POST /api/customize/deleted/:itemID
func (h *CustomizeHandler) DeletePresetItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	var req deletePresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if _, ok := h.catalog.Tag(req.TagID); !ok {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewTagNotFoundError(req.TagID))
		return
	}

	if err := h.store.DeletePresetItem(r.Context(), req.TagID, itemID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RestorePresetItem は非表示にしたプリセット持ち物を元に戻す。
// DELETE /api/customize/deleted/:itemID
func (h *CustomizeHandler) RestorePresetItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	if err := h.store.RestorePresetItem(r.Context(), itemID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
