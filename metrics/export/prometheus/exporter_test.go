package prometheus

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	clubAuth "github.com/MrEthical07/clubAuth"
	"github.com/prometheus/client_golang/prometheus"
)

type fakeSource struct {
	snapshot clubAuth.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() clubAuth.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                      { return f.dropped }

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	h, err := Handler(c)
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rr.Body)
	return string(body)
}

func TestCollectorCountersAndHistogram(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: clubAuth.MetricsSnapshot{
			Counters: map[clubAuth.MetricID]uint64{
				clubAuth.MetricLoginChallengeIssued: 7,
				clubAuth.MetricTwoFactorFailure:     3,
			},
			Histograms: map[clubAuth.MetricID][]uint64{
				clubAuth.MetricVerifyLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := scrape(t, c)
	for _, want := range []string{
		"clubauth_login_challenge_issued_total 7",
		"clubauth_two_factor_failure_total 3",
		"clubauth_oauth_failure_total 0",
		`clubauth_verify_latency_seconds_bucket{le="0.005"} 1`,
		`clubauth_verify_latency_seconds_bucket{le="+Inf"} 36`,
		"clubauth_verify_latency_seconds_count 36",
		"clubauth_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestCollectorSkipsDisabledHistogram(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: clubAuth.MetricsSnapshot{
			Counters:   map[clubAuth.MetricID]uint64{},
			Histograms: map[clubAuth.MetricID][]uint64{},
		},
	})

	out := scrape(t, c)
	if strings.Contains(out, "clubauth_verify_latency_seconds_bucket") {
		t.Fatalf("histogram must be omitted when latency is disabled:\n%s", out)
	}
	if !strings.Contains(out, "clubauth_login_failure_total 0") {
		t.Fatalf("counters must always be exported:\n%s", out)
	}
}

func TestCollectorWithEngine(t *testing.T) {
	cfg := clubAuth.DefaultConfig()
	cfg.Audit.Enabled = false
	engine, err := clubAuth.New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	if _, err := engine.ContinueAnonymously(clubAuth.WithClientIP(t.Context(), "192.0.2.1")); err != nil {
		t.Fatalf("ContinueAnonymously: %v", err)
	}

	reg := prometheus.NewRegistry()
	if err := reg.Register(NewCollector(engine)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var found bool
	for _, mf := range families {
		if mf.GetName() == "clubauth_anonymous_session_total" {
			found = true
			if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 1 {
				t.Fatalf("expected 1 anonymous session, got %v", got)
			}
		}
	}
	if !found {
		t.Fatal("anonymous session counter not gathered")
	}
}
