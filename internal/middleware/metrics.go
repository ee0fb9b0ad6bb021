package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/todoapp/internal/metrics"
)

// NewMetricsMiddleware はリクエスト数と処理時間をルートパターン単位で記録するミドルウェアを返す。
// パスパラメータを含む実パスではなく "/todos/{id}" のようなパターンをラベルにする。
func NewMetricsMiddleware(collector metrics.MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			collector.RecordHTTPRequest(r.Method, route, rec.statusCode, time.Since(start))
		})
	}
}
