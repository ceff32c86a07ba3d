// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層やワーカーから利用する。
type MetricsCollector interface {
	RecordTripCreated()
	RecordItemToggled()
	RecordGenerateLatency(duration time.Duration)
	RecordWeatherFetchSuccess()
	RecordWeatherFetchFailure(reason string)
	RecordWeatherFetchLatency(duration time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	tripsCreated    prometheus.Counter
	itemsToggled    prometheus.Counter
	generateLatency prometheus.Histogram
	weatherSuccess  prometheus.Counter
	weatherFail     *prometheus.CounterVec
	weatherLatency  prometheus.Histogram
	httpStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		tripsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nizukuri_trips_created_total",
			Help: "作成された旅行の合計数",
		}),
		itemsToggled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nizukuri_items_toggled_total",
			Help: "持ち物チェック切り替えの合計数",
		}),
		generateLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nizukuri_generate_latency_seconds",
			Help:    "持ち物リスト生成のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		weatherSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nizukuri_weather_fetch_success_total",
			Help: "天気予報取得成功の合計数",
		}),
		weatherFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nizukuri_weather_fetch_fail_total",
			Help: "天気予報取得失敗の合計数（失敗種別ごと）",
		}, []string{"reason"}),
		weatherLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nizukuri_weather_fetch_latency_seconds",
			Help:    "天気予報取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nizukuri_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.tripsCreated,
		c.itemsToggled,
		c.generateLatency,
		c.weatherSuccess,
		c.weatherFail,
		c.weatherLatency,
		c.httpStatus,
	)

	return c
}

// RecordTripCreated は旅行の作成を記録する。
func (c *Collector) RecordTripCreated() {
	c.tripsCreated.Inc()
}

// RecordItemToggled は持ち物チェックの切り替えを記録する。
func (c *Collector) RecordItemToggled() {
	c.itemsToggled.Inc()
}

// RecordGenerateLatency は持ち物リスト生成のレイテンシを記録する。
func (c *Collector) RecordGenerateLatency(duration time.Duration) {
	c.generateLatency.Observe(duration.Seconds())
}

// RecordWeatherFetchSuccess は天気予報取得の成功を記録する。
func (c *Collector) RecordWeatherFetchSuccess() {
	c.weatherSuccess.Inc()
}

// RecordWeatherFetchFailure は天気予報取得の失敗を失敗種別付きで記録する。
func (c *Collector) RecordWeatherFetchFailure(reason string) {
	c.weatherFail.WithLabelValues(reason).Inc()
}

// RecordWeatherFetchLatency は天気予報取得のレイテンシを記録する。
func (c *Collector) RecordWeatherFetchLatency(duration time.Duration) {
	c.weatherLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
