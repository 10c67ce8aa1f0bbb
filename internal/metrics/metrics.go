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
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordHTTPLatency(duration time.Duration)
	IncLoginSuccess()
	IncLoginFailure()
	IncProfileUpdate()
	IncCSRFRejection()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus     *prometheus.CounterVec
	httpLatency    prometheus.Histogram
	loginSuccess   prometheus.Counter
	loginFail      prometheus.Counter
	profileUpdates prometheus.Counter
	csrfRejections prometheus.Counter
}

// インターフェース実装チェック
var _ MetricsCollector = (*Collector)(nil)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "profiled_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "profiled_http_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "profiled_login_success_total",
			Help: "ログイン成功の合計数",
		}),
		loginFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "profiled_login_fail_total",
			Help: "ログイン失敗の合計数",
		}),
		profileUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "profiled_profile_updates_total",
			Help: "プロフィール更新の合計数",
		}),
		csrfRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "profiled_csrf_rejections_total",
			Help: "CSRFトークン検証失敗の合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.httpLatency,
		c.loginSuccess,
		c.loginFail,
		c.profileUpdates,
		c.csrfRejections,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordHTTPLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordHTTPLatency(duration time.Duration) {
	c.httpLatency.Observe(duration.Seconds())
}

// IncLoginSuccess はログイン成功を記録する。
func (c *Collector) IncLoginSuccess() {
	c.loginSuccess.Inc()
}

// IncLoginFailure はログイン失敗を記録する。
func (c *Collector) IncLoginFailure() {
	c.loginFail.Inc()
}

// IncProfileUpdate はプロフィール更新を記録する。
func (c *Collector) IncProfileUpdate() {
	c.profileUpdates.Inc()
}

// IncCSRFRejection はCSRFトークン検証失敗を記録する。
func (c *Collector) IncCSRFRejection() {
	c.csrfRejections.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
