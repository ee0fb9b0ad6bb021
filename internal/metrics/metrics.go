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
// ミドルウェアやユースケース層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordTodoCreated()
	RecordTodoCompleted()
	RecordUserCreated()
	RecordAuthFailure()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	todosCreated  prometheus.Counter
	todosComplete prometheus.Counter
	usersCreated  prometheus.Counter
	authFailures  prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todoapp_http_requests_total",
			Help: "ルートとステータスコード別のHTTPリクエスト数",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "todoapp_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		todosCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "todoapp_todos_created_total",
			Help: "作成されたTodoの合計数",
		}),
		todosComplete: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "todoapp_todos_completed_total",
			Help: "完了状態にされたTodoの合計数",
		}),
		usersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "todoapp_users_created_total",
			Help: "登録されたユーザーの合計数",
		}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "todoapp_auth_failures_total",
			Help: "認証失敗の合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.todosCreated,
		c.todosComplete,
		c.usersCreated,
		c.authFailures,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの件数と処理時間を記録する。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordTodoCreated はTodo作成を記録する。
func (c *Collector) RecordTodoCreated() {
	c.todosCreated.Inc()
}

// RecordTodoCompleted はTodo完了を記録する。
func (c *Collector) RecordTodoCompleted() {
	c.todosComplete.Inc()
}

// RecordUserCreated はユーザー登録を記録する。
func (c *Collector) RecordUserCreated() {
	c.usersCreated.Inc()
}

// RecordAuthFailure は認証失敗を記録する。
func (c *Collector) RecordAuthFailure() {
	c.authFailures.Inc()
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type Nop struct{}

func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
func (Nop) RecordTodoCreated()                                   {}
func (Nop) RecordTodoCompleted()                                 {}
func (Nop) RecordUserCreated()                                   {}
func (Nop) RecordAuthFailure()                                   {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
