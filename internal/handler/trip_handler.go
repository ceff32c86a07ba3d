package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/nizukuri/internal/generate"
	"github.com/hitoshi/nizukuri/internal/model"
	"github.com/hitoshi/nizukuri/internal/tripsvc"
)

// TripServiceInterface は旅行ハンドラーが必要とするサービスインターフェース。
type TripServiceInterface interface {
	// CreateTrip はタグと性別から持ち物リストを生成して旅行を作成する。
	CreateTrip(ctx context.Context, input tripsvc.CreateTripInput) (*model.Trip, error)
	// ListTrips は全旅行を返す。
	ListTrips(ctx context.Context) ([]*model.Trip, error)
	// GetTrip は旅行を取得する。
	GetTrip(ctx context.Context, tripID string) (*model.Trip, error)
	// DeleteTrip は旅行を削除する。
	DeleteTrip(ctx context.Context, tripID string) error
	// ToggleItem は持ち物のチェック状態を反転する。
	ToggleItem(ctx context.Context, tripID, itemID string) (*tripsvc.ToggleResult, error)
	// AddItem は持ち物を追加する。
	AddItem(ctx context.Context, tripID, rawName string) (*model.Trip, error)
	// RemoveItem は持ち物を削除する。
	RemoveItem(ctx context.Context, tripID, itemID string) (*model.Trip, error)
	// ResetChecks は全チェックを解除する。
	ResetChecks(ctx context.Context, tripID string) (*model.Trip, error)
	// Archive は旅行をアーカイブする。
	Archive(ctx context.Context, tripID string) (*model.Trip, error)
	// Unarchive は旅行のアーカイブを解除する。
	Unarchive(ctx context.Context, tripID string) (*model.Trip, error)
}

// TripHandler は旅行管理のHTTPハンドラー。
type TripHandler struct {
	service TripServiceInterface
}

// NewTripHandler はTripHandlerを生成する。
func NewTripHandler(service TripServiceInterface) *TripHandler {
	return &TripHandler{service: service}
}

// dateLayout はリクエスト・レスポンスの日付フォーマット。
const dateLayout = "2006-01-02"

// createTripRequest は旅行作成リクエストのボディ。
type createTripRequest struct {
	Name           string   `json:"name"`
	Gender         string   `json:"gender"`
	SelectedTagIDs []string `json:"selected_tag_ids"`
	Destination    string   `json:"destination,omitempty"`
	StartDate      string   `json:"start_date,omitempty"`
	EndDate        string   `json:"end_date,omitempty"`
}

// addItemRequest は持ち物追加リクエストのボディ。
type addItemRequest struct {
	Name string `json:"name"`
}

// tripItemResponse は持ち物1行のAPIレスポンス。
type tripItemResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	NameEn         string `json:"name_en"`
	CategoryName   string `json:"category_name"`
	CategoryNameEn string `json:"category_name_en"`
	IsChecked      bool   `json:"is_checked"`
	SortOrder      int    `json:"sort_order"`
}

// forecastResponse は1日分の天気予報のAPIレスポンス。
type forecastResponse struct {
	Date          string   `json:"date"`
	HighTemp      *float64 `json:"high_temp,omitempty"`
	LowTemp       *float64 `json:"low_temp,omitempty"`
	PrecipChance  *float64 `json:"precip_chance,omitempty"`
	ConditionCode string   `json:"condition_code,omitempty"`
}

// tripResponse は旅行情報のAPIレスポンス。
type tripResponse struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Gender         string             `json:"gender"`
	Duration       string             `json:"duration"`
	SelectedTagIDs []string           `json:"selected_tag_ids"`
	Destination    string             `json:"destination,omitempty"`
	StartDate      string             `json:"start_date,omitempty"`
	EndDate        string             `json:"end_date,omitempty"`
	Forecasts      []forecastResponse `json:"forecasts,omitempty"`
	Items          []tripItemResponse `json:"items"`
	CheckedCount   int                `json:"checked_count"`
	TotalCount     int                `json:"total_count"`
	Progress       float64            `json:"progress"`
	IsArchived     bool               `json:"is_archived"`
	CreatedAt      time.Time          `json:"created_at"`
}

// toggleResponse はチェック反転のAPIレスポンス。
// 全チェック完了の遷移が起きた場合のみjust_completedがtrueになる。
type toggleResponse struct {
	Trip          tripResponse `json:"trip"`
	JustCompleted bool         `json:"just_completed"`
}

// categoryGroupResponse はカテゴリ単位にまとめた持ち物のAPIレスポンス。
type categoryGroupResponse struct {
	CategoryName string             `json:"category_name"`
	Items        []tripItemResponse `json:"items"`
}

// tripDetailResponse は旅行詳細（カテゴリ別グルーピング付き）のAPIレスポンス。
type tripDetailResponse struct {
	tripResponse
	Groups []categoryGroupResponse `json:"groups"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// CreateTrip は旅行作成を処理する。
// POST /api/trips
func (h *TripHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req createTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	input := tripsvc.CreateTripInput{
		Name:           req.Name,
		Gender:         req.Gender,
		SelectedTagIDs: req.SelectedTagIDs,
		Destination:    req.Destination,
	}

	if req.StartDate != "" {
		start, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateRangeError())
			return
		}
		input.StartDate = &start
	}
	if req.EndDate != "" {
		end, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateRangeError())
			return
		}
		input.EndDate = &end
	}

	trip, err := h.service.CreateTrip(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toTripResponse(trip))
}

// ListTrips は旅行一覧を取得する。
// GET /api/trips
func (h *TripHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := h.service.ListTrips(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]tripResponse, 0, len(trips))
	for _, trip := range trips {
		out = append(out, toTripResponse(trip))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// GetTrip は旅行詳細を取得する。カテゴリ別グルーピングを含む。
// ?locale=en で英語表示名のグルーピングになる（デフォルトはja）。
// GET /api/trips/:id
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "id")

	trip, err := h.service.GetTrip(r.Context(), tripID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	locale := generate.LocaleJa
	if r.URL.Query().Get("locale") == "en" {
		locale = generate.LocaleEn
	}

	groups := generate.GroupByCategory(trip.Items, locale)
	groupsOut := make([]categoryGroupResponse, 0, len(groups))
	for _, g := range groups {
		items := make([]tripItemResponse, 0, len(g.Items))
		for _, item := range g.Items {
			items = append(items, toTripItemResponse(item))
		}
		groupsOut = append(groupsOut, categoryGroupResponse{
			CategoryName: g.CategoryName,
			Items:        items,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tripDetailResponse{
		tripResponse: toTripResponse(trip),
		Groups:       groupsOut,
	})
}

// DeleteTrip は旅行を削除する。
// DELETE /api/trips/:id
func (h *TripHandler) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "id")

	if err := h.service.DeleteTrip(r.Context(), tripID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddItem は旅行に持ち物を追加する。
// POST /api/trips/:id/items
func (h *TripHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "id")

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	trip, err := h.service.AddItem(r.Context(), tripID, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toTripResponse(trip))
}

// RemoveItem は旅行から持ち物を削除する。
// DELETE /api/trips/:id/items/:itemID
func (h *TripHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemID")

	trip, err := h.service.RemoveItem(r.Context(), tripID, itemID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTripResponse(trip))
}

// ToggleItem は持ち物のチェック状態を反転する。
// PUT /api/trips/:id/items/:itemID/toggle
func (h *TripHandler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemID")

	result, err := h.service.ToggleItem(r.Context(), tripID, itemID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toggleResponse{
		Trip:          toTripResponse(result.Trip),
		JustCompleted: result.JustCompleted(),
	})
}

// ResetChecks は旅行の全チェックを解除する。
// POST /api/trips/:id/reset
func (h *TripHandler) ResetChecks(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "id")

	trip, err := h.service.ResetChecks(r.Context(), tripID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTripResponse(trip))
}

// Archive は旅行をアーカイブする。
// POST /api/trips/:id/archive
func (h *TripHandler) Archive(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "id")

	trip, err := h.service.Archive(r.Context(), tripID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTripResponse(trip))
}

// Unarchive は旅行のアーカイブを解除する。
// POST /api/trips/:id/unarchive
func (h *TripHandler) Unarchive(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "id")

	trip, err := h.service.Unarchive(r.Context(), tripID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTripResponse(trip))
}

// --- ヘルパー関数 ---

// toTripResponse はmodel.TripからAPIレスポンスに変換する。
func toTripResponse(trip *model.Trip) tripResponse {
	items := make([]tripItemResponse, 0, len(trip.Items))
	for _, item := range trip.Items {
		items = append(items, toTripItemResponse(item))
	}

	resp := tripResponse{
		ID:             trip.ID,
		Name:           trip.Name,
		Gender:         string(trip.Gender),
		Duration:       string(trip.Duration),
		SelectedTagIDs: trip.SelectedTagIDs,
		Destination:    trip.Destination,
		Items:          items,
		CheckedCount:   trip.CheckedCount,
		TotalCount:     trip.TotalCount,
		Progress:       trip.Progress(),
		IsArchived:     trip.IsArchived,
		CreatedAt:      trip.CreatedAt,
	}

	if trip.StartDate != nil {
		resp.StartDate = trip.StartDate.Format(dateLayout)
	}
	if trip.EndDate != nil {
		resp.EndDate = trip.EndDate.Format(dateLayout)
	}

	for _, f := range trip.Forecasts {
		resp.Forecasts = append(resp.Forecasts, forecastResponse{
			Date:          f.Date.Format(dateLayout),
			HighTemp:      f.HighTemp,
			LowTemp:       f.LowTemp,
			PrecipChance:  f.PrecipChance,
			ConditionCode: f.ConditionCode,
		})
	}

	return resp
}

// toTripItemResponse はmodel.TripItemからAPIレスポンスに変換する。
func toTripItemResponse(item model.TripItem) tripItemResponse {
	return tripItemResponse{
		ID:             item.ID,
		Name:           item.Name,
		NameEn:         item.NameEn,
		CategoryName:   item.CategoryName,
		CategoryNameEn: item.CategoryNameEn,
		IsChecked:      item.IsChecked,
		SortOrder:      item.SortOrder,
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeInvalidRequestBody はリクエストボディ解析失敗の400レスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeTripNotFound, model.ErrCodeItemNotFound, model.ErrCodeTagNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidItemName, model.ErrCodeInvalidGender, model.ErrCodeInvalidDateRange:
		return http.StatusBadRequest
	case model.ErrCodeDuplicateItemName:
		return http.StatusConflict
	case model.ErrCodeLastItemProtected:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
