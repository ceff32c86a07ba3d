// Package customize はユーザーによるプリセットのカスタマイズ状態を管理する。
// タグごとのカスタム持ち物と、非表示にしたプリセット持ち物のID集合を保持し、
// 変更のたびに永続化ポート経由で保存する。
package customize

import (
	"context"
	"encoding/json"
	"html"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/nizukuri/internal/model"
)

const (
	// keyCustomItems はカスタム持ち物マップの保存キー。
	keyCustomItems = "custom_items"
	// keyDeletedItems は非表示プリセットID集合の保存キー。
	keyDeletedItems = "deleted_items"
)

// SettingsStore はカスタマイズ状態の永続化ポート。
// Loadはキーが存在しない場合 (nil, nil) を返す。
type SettingsStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// TagResolver はタグの参照に必要なカタログ操作のインターフェース。
type TagResolver interface {
	Tag(id string) (*model.Tag, bool)
}

// Store はカスタマイズ状態を保持するサービス。
// HTTPハンドラー間で共有されるため内部でミューテックスにより排他する。
// 保存は変更のたびに同期的に行う（ローカル単一デバイス状態のため
// last-write-winsで十分）。
type Store struct {
	settings  SettingsStore
	catalog   TagResolver
	logger    *slog.Logger
	sanitizer *bluemonday.Policy

	mu          sync.Mutex
	customItems map[string][]string // tagID -> 入力順のカスタム持ち物名
	deletedIDs  map[string]struct{} // 非表示プリセット持ち物ID
}

// NewStore はStoreを生成し、永続化済みの状態を読み込む。
// 保存データのデコードに失敗した場合は空の状態にフォールバックする
// （スキーマ変更に対する前方互換を優先し、致命的エラーにはしない）。
func NewStore(ctx context.Context, settings SettingsStore, catalog TagResolver, logger *slog.Logger) *Store {
	s := &Store{
		settings:    settings,
		catalog:     catalog,
		logger:      logger,
		sanitizer:   bluemonday.StrictPolicy(),
		customItems: make(map[string][]string),
		deletedIDs:  make(map[string]struct{}),
	}
	s.load(ctx)
	return s
}

// load は2つの保存レコードを読み込む。失敗はログに記録して空状態を維持する。
func (s *Store) load(ctx context.Context) {
	if data, err := s.settings.Load(ctx, keyCustomItems); err != nil {
		s.logger.Warn("カスタム持ち物の読み込みに失敗しました。空の状態で開始します",
			slog.String("error", err.Error()),
		)
	} else if len(data) > 0 {
		var items map[string][]string
		if err := json.Unmarshal(data, &items); err != nil {
			s.logger.Warn("カスタム持ち物のデコードに失敗しました。空の状態で開始します",
				slog.String("error", err.Error()),
			)
		} else {
			s.customItems = items
		}
	}

	if data, err := s.settings.Load(ctx, keyDeletedItems); err != nil {
		s.logger.Warn("非表示プリセットの読み込みに失敗しました。空の状態で開始します",
			slog.String("error", err.Error()),
		)
	} else if len(data) > 0 {
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			s.logger.Warn("非表示プリセットのデコードに失敗しました。空の状態で開始します",
				slog.String("error", err.Error()),
			)
		} else {
			for _, id := range ids {
				s.deletedIDs[id] = struct{}{}
			}
		}
	}
}

// SanitizeName はユーザー入力の持ち物名からHTMLタグを除去し、前後の空白を落とす。
// タグ除去後にエスケープされた実体参照を平文へ戻す（名前はHTMLではなく平文）。
func (s *Store) SanitizeName(rawName string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(rawName)))
}

// AddCustomItem はタグにカスタム持ち物を追加し、永続化する。
// 空文字（空白のみ含む）と同一タグ内の大文字小文字を無視した重複は拒否し、
// falseを返す。永続化の失敗のみerrorとして返す。
func (s *Store) AddCustomItem(ctx context.Context, tagID, rawName string) (bool, error) {
	name := s.SanitizeName(rawName)
	if name == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lower := strings.ToLower(name)
	for _, existing := range s.customItems[tagID] {
		if strings.ToLower(existing) == lower {
			return false, nil
		}
	}

	s.customItems[tagID] = append(s.customItems[tagID], name)
	if err := s.saveCustomItems(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveCustomItem はタグからカスタム持ち物を完全一致で削除し、永続化する。
// 削除後にタグのリストが空になった場合はキー自体を落とす。
// 該当なしの場合は何もしない（エラーではない）。
func (s *Store) RemoveCustomItem(ctx context.Context, tagID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.customItems[tagID]
	for i, existing := range items {
		if existing != name {
			continue
		}
		items = append(items[:i], items[i+1:]...)
		if len(items) == 0 {
			delete(s.customItems, tagID)
		} else {
			s.customItems[tagID] = items
		}
		return s.saveCustomItems(ctx)
	}
	return nil
}

// CustomItems はタグのカスタム持ち物名を入力順のコピーで返す。
func (s *Store) CustomItems(tagID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.customItems[tagID]
	out := make([]string, len(items))
	copy(out, items)
	return out
}

// DeletePresetItem はプリセット持ち物をタグの文脈で非表示にし、永続化する。
// タグの表示中アイテム（非表示でないプリセット＋カスタム）が1件しか残らない場合は
// 拒否し、LastItemProtectedエラーを返す。既に非表示の場合は何もしない（冪等）。
func (s *Store) DeletePresetItem(ctx context.Context, tagID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, already := s.deletedIDs[itemID]; already {
		return nil
	}

	// 最後の1件の削除はストア自身が拒否する。
	// 呼び出し側のチェック漏れでタグが空になる事故を防ぐ。
	if tag, ok := s.catalog.Tag(tagID); ok {
		active := 0
		for _, id := range tag.ItemIDs {
			if _, deleted := s.deletedIDs[id]; !deleted {
				active++
			}
		}
		if active+len(s.customItems[tagID]) <= 1 {
			return model.NewLastItemProtectedError(tagID)
		}
	}

	s.deletedIDs[itemID] = struct{}{}
	return s.saveDeletedIDs(ctx)
}

// RestorePresetItem は非表示にしたプリセット持ち物を元に戻し、永続化する。
// 非表示でない場合は何もしない（冪等）。
func (s *Store) RestorePresetItem(ctx context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, deleted := s.deletedIDs[itemID]; !deleted {
		return nil
	}
	delete(s.deletedIDs, itemID)
	return s.saveDeletedIDs(ctx)
}

// IsPresetItemDeleted は指定のプリセット持ち物が非表示かどうかを返す。
func (s *Store) IsPresetItemDeleted(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, deleted := s.deletedIDs[itemID]
	return deleted
}

// CanDeleteItem は指定タグでプリセット持ち物を1件削除できるかどうかを返す。
// 表示中のプリセット件数とカスタム件数の合計が1件を超える場合のみ削除可能。
// UIが削除ボタンを事前に無効化するために使用する（削除自体もストアが守る）。
func (s *Store) CanDeleteItem(tagID string, presetItemIDs []string, customItemCount int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := 0
	for _, id := range presetItemIDs {
		if _, deleted := s.deletedIDs[id]; !deleted {
			active++
		}
	}
	return active+customItemCount > 1
}

// saveCustomItems はカスタム持ち物マップをJSONで保存する。muを保持して呼ぶこと。
func (s *Store) saveCustomItems(ctx context.Context) error {
	data, err := json.Marshal(s.customItems)
	if err != nil {
		return err
	}
	return s.settings.Save(ctx, keyCustomItems, data)
}

// saveDeletedIDs は非表示ID集合をソート済みJSON配列で保存する。muを保持して呼ぶこと。
func (s *Store) saveDeletedIDs(ctx context.Context) error {
	ids := make([]string, 0, len(s.deletedIDs))
	for id := range s.deletedIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.settings.Save(ctx, keyDeletedItems, data)
}
