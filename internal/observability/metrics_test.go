package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestCounterVecWritesLabeledSeries(t *testing.T) {
	c := NewCounterVec("test_requests_total", "Requests.", []string{"method", "status"})
	c.Inc("GET", "200")
	c.Inc("GET", "200")
	c.Inc("POST", "500")

	var buf bytes.Buffer
	if err := c.WritePrometheus(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "# TYPE test_requests_total counter") {
		t.Fatalf("missing type line:\n%s", out)
	}
	if !strings.Contains(out, `test_requests_total{method="GET",status="200"} 2.0`) {
		t.Fatalf("missing GET series:\n%s", out)
	}
	if !strings.Contains(out, `test_requests_total{method="POST",status="500"} 1.0`) {
		t.Fatalf("missing POST series:\n%s", out)
	}
}

func TestGaugeVecOverwrites(t *testing.T) {
	g := NewGaugeVec("test_users", "Users.", []string{"gender"})
	g.Set(3, "female")
	g.Set(7, "female")

	var buf bytes.Buffer
	if err := g.WritePrometheus(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), `test_users{gender="female"} 7.0`) {
		t.Fatalf("gauge not overwritten:\n%s", buf.String())
	}
}

func TestHistogramVecBuckets(t *testing.T) {
	h := NewHistogramVec("test_latency_seconds", "Latency.", []string{"route"}, []float64{0.1, 1})
	h.Observe(0.05, "/healthcheck")
	h.Observe(0.5, "/healthcheck")
	h.Observe(5, "/healthcheck")

	var buf bytes.Buffer
	if err := h.WritePrometheus(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	checks := []string{
		`test_latency_seconds_bucket{route="/healthcheck",le="0.1"} 1`,
		`test_latency_seconds_bucket{route="/healthcheck",le="1"} 2`,
		`test_latency_seconds_bucket{route="/healthcheck",le="+Inf"} 3`,
		`test_latency_seconds_count{route="/healthcheck"} 3`,
	}
	for _, want := range checks {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestLabelStringEscapes(t *testing.T) {
	got := labelString([]string{"q"}, []string{`say "hi"` + "\nthere"})
	want := `{q="say \"hi\"\nthere"}`
	if got != want {
		t.Fatalf("label escaping: got=%q want=%q", got, want)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", "200", time.Millisecond)
	m.APIInflightInc()
	m.APIInflightDec()
	m.IncViewGeneration("ready")
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("nil write: %v", err)
	}
}
