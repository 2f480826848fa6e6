package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetric はレジストリから指定名のメトリクスファミリーを探す。
func findMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

// labelValue はメトリクスから指定ラベルの値を取り出す。
func labelValue(m *dto.Metric, label string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == label {
			return lp.GetValue()
		}
	}
	return ""
}

func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordLogin_CountsByResult はログイン結果ごとにカウントが分かれることを検証する。
func TestRecordLogin_CountsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin(LoginSuccess)
	c.RecordLogin(LoginSuccess)
	c.RecordLogin(LoginInvalidCredentials)

	mf := findMetric(t, reg, "tkdadmin_login_total")
	got := map[string]float64{}
	for _, m := range mf.GetMetric() {
		got[labelValue(m, "result")] = m.GetCounter().GetValue()
	}
	if got[LoginSuccess] != 2 {
		t.Errorf("login_total{result=success} = %v, want 2", got[LoginSuccess])
	}
	if got[LoginInvalidCredentials] != 1 {
		t.Errorf("login_total{result=invalid_credentials} = %v, want 1", got[LoginInvalidCredentials])
	}
}

func TestRecordSessionsReaped_AddsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSessionsReaped(3)
	c.RecordSessionsReaped(0)
	c.RecordSessionsReaped(4)

	mf := findMetric(t, reg, "tkdadmin_sessions_reaped_total")
	if v := mf.GetMetric()[0].GetCounter().GetValue(); v != 7 {
		t.Errorf("sessions_reaped_total = %v, want 7", v)
	}
}

func TestRecordSessionCreatedAndRevoked(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSessionCreated()
	c.RecordSessionCreated()
	c.RecordSessionRevoked()

	if v := findMetric(t, reg, "tkdadmin_sessions_created_total").GetMetric()[0].GetCounter().GetValue(); v != 2 {
		t.Errorf("sessions_created_total = %v, want 2", v)
	}
	if v := findMetric(t, reg, "tkdadmin_sessions_revoked_total").GetMetric()[0].GetCounter().GetValue(); v != 1 {
		t.Errorf("sessions_revoked_total = %v, want 1", v)
	}
}

// TestHandler_ServesMetrics はスクレイプ用ハンドラーがメトリクスを返すことを検証する。
func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordGuardDecision("forbidden")
	c.RecordUpload("success")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	for _, name := range []string{"tkdadmin_guard_decisions_total", "tkdadmin_uploads_total"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("response should contain %s", name)
		}
	}
}

func TestNop_DoesNotPanic(t *testing.T) {
	var c MetricsCollector = Nop{}
	c.RecordLogin(LoginError)
	c.RecordSessionCreated()
	c.RecordSessionRevoked()
	c.RecordSessionsReaped(10)
	c.RecordGuardDecision("authorized")
	c.RecordUpload("rejected")
}
