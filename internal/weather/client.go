package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/nizukuri/internal/model"
)

// FetchErrorKind は天気予報取得エラーの分類。
type FetchErrorKind string

const (
	// FetchErrAPIKeyMissing はAPIキーが未設定。
	FetchErrAPIKeyMissing FetchErrorKind = "api_key_missing"
	// FetchErrInvalidCity は都市名の指定が不正。
	FetchErrInvalidCity FetchErrorKind = "invalid_city"
	// FetchErrNotFound は指定都市の予報が存在しない。
	FetchErrNotFound FetchErrorKind = "not_found"
	// FetchErrServer は天気APIサーバー側のエラー。
	FetchErrServer FetchErrorKind = "server_error"
	// FetchErrNetwork は通信・デコードの失敗（詳細は内包エラー）。
	FetchErrNetwork FetchErrorKind = "network"
)

// FetchError は天気予報取得の型付きエラー。
// 呼び出し側（旅行作成フロー）はこのエラーを必ず握りつぶしてログに残し、
// 空の予報リストで処理を続行する。旅行作成を中断する理由には決してならない。
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int // サーバーエラー時のHTTPステータス（それ以外は0）
	Err        error
}

// Error はerrorインターフェースを実装する。
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("天気予報の取得に失敗しました (%s): HTTP %d", e.Kind, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("天気予報の取得に失敗しました (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("天気予報の取得に失敗しました (%s)", e.Kind)
}

// Unwrap は内包エラーを返す。
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client は天気予報APIのクライアント。
// 都市名と日付範囲を指定して日別予報を取得する。
// 外部APIのレート制限を守るため連続呼び出しをrate.Limiterで抑制する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	limiter    *rate.Limiter
	endpoint   string // テスト用にエンドポイントを差し替え可能
	apiKey     string
}

// ClientConfig はClientの設定。
type ClientConfig struct {
	Endpoint     string
	APIKey       string
	CallInterval time.Duration // API呼び出しの最小間隔
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, cfg ClientConfig) *Client {
	interval := cfg.CallInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
	}
}

// forecastResponse は天気APIのレスポンス形式。
type forecastResponse struct {
	City  string         `json:"city"`
	Daily []dailyWeather `json:"daily"`
}

type dailyWeather struct {
	Date         string   `json:"date"` // YYYY-MM-DD
	TempMax      *float64 `json:"temp_max"`
	TempMin      *float64 `json:"temp_min"`
	PrecipChance *float64 `json:"precipitation_probability"`
	Condition    string   `json:"condition"`
}

// FetchForecast は指定都市・日付範囲の日別予報を取得する。
// 日付をパースできないエントリと範囲外のエントリは黙ってスキップする。
func (c *Client) FetchForecast(ctx context.Context, city string, startDate, endDate time.Time) ([]model.Forecast, error) {
	if c.apiKey == "" {
		return nil, &FetchError{Kind: FetchErrAPIKeyMissing}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{Kind: FetchErrNetwork, Err: err}
	}

	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, &FetchError{Kind: FetchErrNetwork, Err: err}
	}
	q := reqURL.Query()
	q.Set("city", city)
	q.Set("from", startDate.Format("2006-01-02"))
	q.Set("to", endDate.Format("2006-01-02"))
	q.Set("key", c.apiKey)
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, &FetchError{Kind: FetchErrNetwork, Err: err}
	}
	req.Header.Set("User-Agent", "Nizukuri/1.0 Packing List")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("天気APIの呼び出しに失敗しました",
			slog.String("city", city),
			slog.String("error", err.Error()),
		)
		return nil, &FetchError{Kind: FetchErrNetwork, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fallthrough to decode
	case resp.StatusCode == http.StatusBadRequest:
		return nil, &FetchError{Kind: FetchErrInvalidCity, StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusNotFound:
		return nil, &FetchError{Kind: FetchErrNotFound, StatusCode: resp.StatusCode}
	default:
		c.logger.Error("天気APIがエラーステータスを返しました",
			slog.String("city", city),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, &FetchError{Kind: FetchErrServer, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Kind: FetchErrNetwork, Err: err}
	}

	var decoded forecastResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		c.logger.Error("天気APIレスポンスのパースに失敗しました",
			slog.String("city", city),
			slog.String("error", err.Error()),
		)
		return nil, &FetchError{Kind: FetchErrNetwork, Err: err}
	}

	forecasts := make([]model.Forecast, 0, len(decoded.Daily))
	for _, day := range decoded.Daily {
		date, err := time.Parse("2006-01-02", day.Date)
		if err != nil {
			continue
		}
		forecasts = append(forecasts, model.Forecast{
			Date:          date,
			HighTemp:      day.TempMax,
			LowTemp:       day.TempMin,
			PrecipChance:  day.PrecipChance,
			ConditionCode: day.Condition,
		})
	}

	return forecasts, nil
}
