// Package status は「いま準備中の旅行」のスナップショットを保持する。
// 同時に公開できるスナップショットは最大1件で、新しい公開は古いものを置き換える。
package status

import (
	"sync"

	"github.com/hitoshi/nizukuri/internal/model"
)

// Board は進捗スナップショットの公開掲示板。
// ゼロ値は未公開状態として利用できる。
type Board struct {
	mu      sync.Mutex
	current *model.Snapshot
}

// NewBoard はBoardの新しいインスタンスを生成する。
func NewBoard() *Board {
	return &Board{}
}

// Publish はスナップショットを公開する。既存の公開は旅行を問わず置き換えられる。
func (b *Board) Publish(snap model.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = &snap
}

// Clear は指定した旅行のスナップショットを取り下げる。
// 別の旅行が公開中の場合は何もしない。取り下げた場合はtrueを返す。
func (b *Board) Clear(tripID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil || b.current.TripID != tripID {
		return false
	}
	b.current = nil
	return true
}

// Current は公開中のスナップショットを返す。未公開ならok=false。
// 返り値はコピーであり、呼び出し側が変更しても掲示板には影響しない。
func (b *Board) Current() (model.Snapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return model.Snapshot{}, false
	}
	return *b.current, true
}
