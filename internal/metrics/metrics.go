// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ログイン結果のラベル値
const (
	LoginSuccess            = "success"
	LoginInvalidCredentials = "invalid_credentials"
	LoginDeactivated        = "deactivated"
	LoginError              = "error"
)

// アップロード結果のラベル値
const (
	UploadSuccess  = "success"
	UploadRejected = "rejected"
	UploadError    = "error"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 認証サービス、ミドルウェア、ワーカーから利用する。
type MetricsCollector interface {
	RecordLogin(result string)
	RecordSessionCreated()
	RecordSessionRevoked()
	RecordSessionsReaped(count int64)
	RecordGuardDecision(decision string)
	RecordUpload(result string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins          *prometheus.CounterVec
	sessionsCreated prometheus.Counter
	sessionsRevoked prometheus.Counter
	sessionsReaped  prometheus.Counter
	guardDecisions  *prometheus.CounterVec
	uploads         *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tkdadmin_login_total",
			Help: "結果別のログイン試行数",
		}, []string{"result"}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tkdadmin_sessions_created_total",
			Help: "発行したセッションの合計数",
		}),
		sessionsRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tkdadmin_sessions_revoked_total",
			Help: "ログアウトで破棄したセッションの合計数",
		}),
		sessionsReaped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tkdadmin_sessions_reaped_total",
			Help: "期限切れで削除したセッションの合計数",
		}),
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tkdadmin_guard_decisions_total",
			Help: "認可判定の結果別件数",
		}, []string{"decision"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tkdadmin_uploads_total",
			Help: "結果別のファイルアップロード数",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.logins,
		c.sessionsCreated,
		c.sessionsRevoked,
		c.sessionsReaped,
		c.guardDecisions,
		c.uploads,
	)

	return c
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

// RecordSessionCreated はセッション発行を記録する。
func (c *Collector) RecordSessionCreated() {
	c.sessionsCreated.Inc()
}

// RecordSessionRevoked はセッション破棄を記録する。
func (c *Collector) RecordSessionRevoked() {
	c.sessionsRevoked.Inc()
}

// RecordSessionsReaped は期限切れセッションの削除件数を記録する。
func (c *Collector) RecordSessionsReaped(count int64) {
	c.sessionsReaped.Add(float64(count))
}

// RecordGuardDecision は認可判定の結果を記録する。
func (c *Collector) RecordGuardDecision(decision string) {
	c.guardDecisions.WithLabelValues(decision).Inc()
}

// RecordUpload はアップロード結果を記録する。
func (c *Collector) RecordUpload(result string) {
	c.uploads.WithLabelValues(result).Inc()
}

// Nop は何も記録しないMetricsCollector。
// メトリクスを使わないテストやコマンドで使用する。
type Nop struct{}

func (Nop) RecordLogin(string)         {}
func (Nop) RecordSessionCreated()      {}
func (Nop) RecordSessionRevoked()      {}
func (Nop) RecordSessionsReaped(int64) {}
func (Nop) RecordGuardDecision(string) {}
func (Nop) RecordUpload(string)        {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
