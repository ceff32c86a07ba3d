package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/nizukuri/internal/model"
)

// SnapshotSource は外部ステータス表示向けスナップショットの参照インターフェース。
type SnapshotSource interface {
	Current() (model.Snapshot, bool)
}

// StatusHandler はロック画面などの外部ステータス表示向けHTTPハンドラー。
type StatusHandler struct {
	source SnapshotSource
}

// NewStatusHandler はStatusHandlerを生成する。
func NewStatusHandler(source SnapshotSource) *StatusHandler {
	return &StatusHandler{source: source}
}

// statusResponse は進捗スナップショットのAPIレスポンス。
// アクティブな旅行がない場合はactiveがfalseでsnapshotは省略される。
type statusResponse struct {
	Active   bool            `json:"active"`
	Snapshot *model.Snapshot `json:"snapshot,omitempty"`
}

// GetStatus は現在の進捗スナップショットを取得する。
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	snap, ok := h.source.Current()
	if !ok {
		json.NewEncoder(w).Encode(statusResponse{Active: false})
		return
	}

	json.NewEncoder(w).Encode(statusResponse{
		Active:   true,
		Snapshot: &snap,
	})
}

// Health はヘルスチェックエンドポイント。
// GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
