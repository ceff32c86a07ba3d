// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, trip, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeTripNotFound      = "TRIP_NOT_FOUND"
	ErrCodeItemNotFound      = "ITEM_NOT_FOUND"
	ErrCodeTagNotFound       = "TAG_NOT_FOUND"
	ErrCodeInvalidItemName   = "INVALID_ITEM_NAME"
	ErrCodeDuplicateItemName = "DUPLICATE_ITEM_NAME"
	ErrCodeLastItemProtected = "LAST_ITEM_PROTECTED"
	ErrCodeInvalidGender     = "INVALID_GENDER"
	ErrCodeInvalidDateRange  = "INVALID_DATE_RANGE"
)

// NewTripNotFoundError は旅行未検出エラーを生成する。
func NewTripNotFoundError(tripID string) *APIError {
	return &APIError{
		Code:     ErrCodeTripNotFound,
		Message:  fmt.Sprintf("指定された旅行が見つかりません: %s", tripID),
		Category: "trip",
		Action:   "旅行IDを確認してください。",
	}
}

// NewItemNotFoundError は持ち物未検出エラーを生成する。
func NewItemNotFoundError(itemID string) *APIError {
	return &APIError{
		Code:     ErrCodeItemNotFound,
		Message:  fmt.Sprintf("指定された持ち物が見つかりません: %s", itemID),
		Category: "trip",
		Action:   "持ち物IDを確認してください。",
	}
}

// NewTagNotFoundError はタグ未検出エラーを生成する。
func NewTagNotFoundError(tagID string) *APIError {
	return &APIError{
		Code:     ErrCodeTagNotFound,
		Message:  fmt.Sprintf("指定されたタグが見つかりません: %s", tagID),
		Category: "validation",
		Action:   "タグIDを確認してください。",
	}
}

// NewInvalidItemNameError は持ち物名が空などで無効な場合のエラーを生成する。
func NewInvalidItemNameError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidItemName,
		Message:  "持ち物の名前が入力されていません。",
		Category: "validation",
		Action:   "持ち物の名前を入力してください。",
	}
}

// NewDuplicateItemNameError は同名の持ち物が既に存在する場合のエラーを生成する。
func NewDuplicateItemNameError(name string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateItemName,
		Message:  fmt.Sprintf("同じ名前の持ち物が既に登録されています: %s", name),
		Category: "validation",
		Action:   "別の名前を入力してください。",
	}
}

// NewLastItemProtectedError はタグの最後の1件を削除しようとした場合のエラーを生成する。
func NewLastItemProtectedError(tagID string) *APIError {
	return &APIError{
		Code:     ErrCodeLastItemProtected,
		Message:  "このタグの持ち物をこれ以上削除できません。",
		Category: "validation",
		Action:   "タグには最低1件の持ち物が必要です。先にカスタム持ち物を追加してください。",
	}
}

// NewInvalidGenderError は性別の指定が無効な場合のエラーを生成する。
func NewInvalidGenderError(gender string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidGender,
		Message:  fmt.Sprintf("無効な性別の指定です: %s", gender),
		Category: "validation",
		Action:   "性別には male または female を指定してください。",
	}
}

// NewInvalidDateRangeError は日付範囲の指定が無効な場合のエラーを生成する。
func NewInvalidDateRangeError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDateRange,
		Message:  "日付範囲の指定が無効です。",
		Category: "validation",
		Action:   "終了日は開始日以降の日付を指定してください。",
	}
}
