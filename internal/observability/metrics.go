package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/styleswipe/backend/internal/logger"
	"github.com/styleswipe/backend/internal/types"
)

// Metrics is a process-local registry exposed in Prometheus text format.
// Gauges describing catalog and engagement state are recomputed from the
// database on a ticker rather than maintained inline.
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	viewGenerations *CounterVec
	searchRequests  *CounterVec

	usersTotal      *Gauge
	usersByGender   *GaugeVec
	usersBySize     *GaugeVec
	productsTotal   *Gauge
	productsByType  *GaugeVec
	swipesTotal     *GaugeVec
	clicksTotal     *Gauge
	clicksByType    *GaugeVec
	ctrByType       *GaugeVec
	stylePopularity *GaugeVec

	pgStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

var (
	currentMu sync.RWMutex
	current   *Metrics
)

func Enabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("METRICS_ENABLED")))
	return v != "0" && v != "false" && v != "off"
}

func Current() *Metrics {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}

func scrapeInterval() time.Duration {
	secs := 30
	if v := os.Getenv("METRICS_SCRAPE_INTERVAL_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			secs = parsed
		}
	}
	return time.Duration(secs) * time.Second
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		if log != nil {
			log.Info("metrics disabled")
		}
		return nil
	}

	m := &Metrics{
		apiRequests: NewCounterVec("styleswipe_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("styleswipe_api_request_duration_seconds", "API request latency by route.", []string{"route"}, nil),
		apiInflight: NewGauge("styleswipe_api_inflight_requests", "In-flight API requests."),

		viewGenerations: NewCounterVec("styleswipe_view_generations_total", "Composite view generations by status.", []string{"status"}),
		searchRequests:  NewCounterVec("styleswipe_search_requests_total", "Shopping search requests by status.", []string{"status"}),

		usersTotal:      NewGauge("styleswipe_users_total", "Total registered users."),
		usersByGender:   NewGaugeVec("styleswipe_users_by_gender", "Users by preferred gender.", []string{"gender"}),
		usersBySize:     NewGaugeVec("styleswipe_users_by_size", "Users by preferred size.", []string{"size"}),
		productsTotal:   NewGauge("styleswipe_products_total", "Total sourced products."),
		productsByType:  NewGaugeVec("styleswipe_products_by_type", "Products by clothing type.", []string{"clothing_type"}),
		swipesTotal:     NewGaugeVec("styleswipe_swipes_total", "Swipes by action.", []string{"action"}),
		clicksTotal:     NewGauge("styleswipe_clicks_total", "Total product clicks."),
		clicksByType:    NewGaugeVec("styleswipe_clicks_by_product_type", "Clicks by clothing type.", []string{"clothing_type"}),
		ctrByType:       NewGaugeVec("styleswipe_ctr_by_product_type", "Click-through rate by clothing type.", []string{"clothing_type"}),
		stylePopularity: NewGaugeVec("styleswipe_style_popularity", "How often each style appears in saved preferences.", []string{"style"}),

		pgStats:   NewGaugeVec("styleswipe_postgres_pool", "Postgres connection pool stats.", []string{"stat"}),
		redisUp:   NewGauge("styleswipe_redis_up", "Whether redis responds to ping."),
		redisPing: NewGauge("styleswipe_redis_ping_seconds", "Redis ping latency."),
	}

	currentMu.Lock()
	current = m
	currentMu.Unlock()

	if log != nil {
		log.Info("metrics enabled")
	}
	return m
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), route)
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) IncViewGeneration(status string) {
	if m == nil {
		return
	}
	m.viewGenerations.Inc(status)
}

func (m *Metrics) IncSearchRequest(status string) {
	if m == nil {
		return
	}
	m.searchRequests.Inc(status)
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		http.Error(w, "metrics disabled", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.viewGenerations, m.searchRequests,
		m.usersTotal, m.usersByGender, m.usersBySize,
		m.productsTotal, m.productsByType,
		m.swipesTotal, m.clicksTotal, m.clicksByType, m.ctrByType,
		m.stylePopularity,
		m.pgStats, m.redisUp, m.redisPing,
	}
	for _, wr := range writers {
		if err := wr.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

// StartDomainCollector recomputes the catalog and engagement gauges
// from the database on a fixed interval.
func (m *Metrics) StartDomainCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.collectDomain(ctx, db); err != nil && log != nil {
					log.Warn("metrics: domain collection failed", "error", err)
				}
			}
		}
	}()
}

func (m *Metrics) collectDomain(ctx context.Context, db *gorm.DB) error {
	var userCount int64
	if err := db.WithContext(ctx).Model(&types.User{}).Count(&userCount).Error; err != nil {
		return err
	}
	m.usersTotal.Set(float64(userCount))

	type labelCount struct {
		Label string
		Count int64
	}

	var byGender []labelCount
	if err := db.WithContext(ctx).Model(&types.Preference{}).
		Select("gender as label, count(*) as count").
		Where("gender <> ''").
		Group("gender").
		Scan(&byGender).Error; err != nil {
		return err
	}
	for _, row := range byGender {
		m.usersByGender.Set(float64(row.Count), row.Label)
	}

	var bySize []labelCount
	if err := db.WithContext(ctx).Model(&types.Preference{}).
		Select("size as label, count(*) as count").
		Where("size <> ''").
		Group("size").
		Scan(&bySize).Error; err != nil {
		return err
	}
	for _, row := range bySize {
		m.usersBySize.Set(float64(row.Count), row.Label)
	}

	var productCount int64
	if err := db.WithContext(ctx).Model(&types.Product{}).Count(&productCount).Error; err != nil {
		return err
	}
	m.productsTotal.Set(float64(productCount))

	var byType []labelCount
	if err := db.WithContext(ctx).Model(&types.Product{}).
		Select("product_type as label, count(*) as count").
		Where("product_type <> ''").
		Group("product_type").
		Scan(&byType).Error; err != nil {
		return err
	}
	productsByType := map[string]int64{}
	for _, row := range byType {
		productsByType[row.Label] = row.Count
		m.productsByType.Set(float64(row.Count), row.Label)
	}

	var likes, dislikes int64
	if err := db.WithContext(ctx).Model(&types.Swipe{}).Where("liked = ?", true).Count(&likes).Error; err != nil {
		return err
	}
	if err := db.WithContext(ctx).Model(&types.Swipe{}).Where("liked = ?", false).Count(&dislikes).Error; err != nil {
		return err
	}
	m.swipesTotal.Set(float64(likes), "liked")
	m.swipesTotal.Set(float64(dislikes), "disliked")

	var clickCount int64
	if err := db.WithContext(ctx).Model(&types.EngagementEvent{}).
		Where("type = ?", types.EngagementClick).
		Count(&clickCount).Error; err != nil {
		return err
	}
	m.clicksTotal.Set(float64(clickCount))

	var clicksByType []labelCount
	if err := db.WithContext(ctx).Model(&types.EngagementEvent{}).
		Select("product.product_type as label, count(*) as count").
		Joins("JOIN product ON product.id = engagement_event.product_id").
		Where("engagement_event.type = ? AND product.product_type <> ''", types.EngagementClick).
		Group("product.product_type").
		Scan(&clicksByType).Error; err != nil {
		return err
	}
	for _, row := range clicksByType {
		m.clicksByType.Set(float64(row.Count), row.Label)
		if total := productsByType[row.Label]; total > 0 {
			m.ctrByType.Set(float64(row.Count)/float64(total), row.Label)
		}
	}

	var styleRows []struct{ Styles []byte }
	if err := db.WithContext(ctx).Model(&types.Preference{}).
		Select("styles").
		Scan(&styleRows).Error; err != nil {
		return err
	}
	styleCounts := map[string]int{}
	for _, row := range styleRows {
		if len(row.Styles) == 0 {
			continue
		}
		var styles []string
		if err := json.Unmarshal(row.Styles, &styles); err != nil {
			continue
		}
		for _, s := range styles {
			if s = strings.TrimSpace(s); s != "" {
				styleCounts[s]++
			}
		}
	}
	for style, count := range styleCounts {
		m.stylePopularity.Set(float64(count), style)
	}
	return nil
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: postgres stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.Set(float64(stats.OpenConnections), "open_connections")
				m.pgStats.Set(float64(stats.InUse), "in_use")
				m.pgStats.Set(float64(stats.Idle), "idle")
				m.pgStats.Set(float64(stats.WaitCount), "wait_count")
				m.pgStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.pgStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	interval := scrapeInterval()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

type CounterVec struct {
	name       string
	help       string
	labelNames []string
	mu         sync.RWMutex
	values     map[string]float64
}

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{name: name, help: help, labelNames: labels, values: map[string]float64{}}
}

func (c *CounterVec) Inc(values ...string) {
	if c == nil {
		return
	}
	lbl := labelString(c.labelNames, values)
	c.mu.Lock()
	c.values[lbl]++
	c.mu.Unlock()
}

func (c *CounterVec) Add(v float64, values ...string) {
	if c == nil {
		return
	}
	lbl := labelString(c.labelNames, values)
	c.mu.Lock()
	c.values[lbl] += v
	c.mu.Unlock()
}

func (c *CounterVec) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s counter\n", c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for k, v := range c.values {
		if _, err := fmt.Fprintf(w, "%s%s %f\n", c.name, k, v); err != nil {
			return err
		}
	}
	return nil
}

type Counter struct {
	name string
	help string
	mu   sync.RWMutex
	val  float64
}

func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

func (c *Counter) Inc() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.val++
	c.mu.Unlock()
}

func (c *Counter) Value() float64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val
}

func (c *Counter) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s counter\n", c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, err := fmt.Fprintf(w, "%s %f\n", c.name, c.val)
	return err
}

type Gauge struct {
	name string
	help string
	mu   sync.RWMutex
	val  float64
}

func NewGauge(name, help string) *Gauge {
	return &Gauge{name: name, help: help}
}

func (g *Gauge) Set(v float64) {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.val = v
	g.mu.Unlock()
}

func (g *Gauge) Inc() {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.val++
	g.mu.Unlock()
}

func (g *Gauge) Dec() {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.val--
	g.mu.Unlock()
}

func (g *Gauge) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", g.name, g.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s gauge\n", g.name); err != nil {
		return err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, err := fmt.Fprintf(w, "%s %f\n", g.name, g.val)
	return err
}

type GaugeVec struct {
	name       string
	help       string
	labelNames []string
	mu         sync.RWMutex
	values     map[string]float64
}

func NewGaugeVec(name, help string, labels []string) *GaugeVec {
	return &GaugeVec{name: name, help: help, labelNames: labels, values: map[string]float64{}}
}

func (g *GaugeVec) Set(v float64, values ...string) {
	if g == nil {
		return
	}
	lbl := labelString(g.labelNames, values)
	g.mu.Lock()
	g.values[lbl] = v
	g.mu.Unlock()
}

func (g *GaugeVec) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", g.name, g.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s gauge\n", g.name); err != nil {
		return err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	for k, v := range g.values {
		if _, err := fmt.Fprintf(w, "%s%s %f\n", g.name, k, v); err != nil {
			return err
		}
	}
	return nil
}

type HistogramVec struct {
	name       string
	help       string
	labelNames []string
	buckets    []float64
	mu         sync.RWMutex
	values     map[string]*histogram
}

type histogram struct {
	buckets []float64
	counts  []uint64
	sum     float64
	total   uint64
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	}
	return &HistogramVec{name: name, help: help, labelNames: labels, buckets: buckets, values: map[string]*histogram{}}
}

func (h *HistogramVec) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	lbl := labelString(h.labelNames, values)
	h.mu.Lock()
	defer h.mu.Unlock()
	hist, ok := h.values[lbl]
	if !ok {
		hist = &histogram{
			buckets: h.buckets,
			counts:  make([]uint64, len(h.buckets)+1),
		}
		h.values[lbl] = hist
	}
	hist.sum += v
	hist.total++
	for i, b := range hist.buckets {
		if v <= b {
			hist.counts[i]++
		}
	}
	hist.counts[len(hist.counts)-1]++
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", h.name, h.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s histogram\n", h.name); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for k, v := range h.values {
		for i, b := range v.buckets {
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, fmt.Sprintf("%g", b)), v.counts[i]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, "+Inf"), v.counts[len(v.counts)-1]); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_sum%s %f\n", h.name, k, v.sum); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_count%s %d\n", h.name, k, v.total); err != nil {
			return err
		}
	}
	return nil
}

func labelString(names []string, values []string) string {
	if len(names) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("{")
	for i, name := range names {
		if i > 0 {
			b.WriteString(",")
		}
		val := "unknown"
		if i < len(values) {
			val = values[i]
		}
		b.WriteString(name)
		b.WriteString("=\"")
		b.WriteString(escapeLabel(val))
		b.WriteString("\"")
	}
	b.WriteString("}")
	return b.String()
}

func escapeLabel(v string) string {
	if v == "" {
		return ""
	}
	v = strings.ReplaceAll(v, "\\", "\\\\")
	v = strings.ReplaceAll(v, "\"", "\\\"")
	v = strings.ReplaceAll(v, "\n", "\\n")
	return v
}

func withLe(labels string, le string) string {
	le = escapeLabel(le)
	if labels == "" || labels == "{}" {
		return "{le=\"" + le + "\"}"
	}
	if strings.HasSuffix(labels, "}") {
		return strings.TrimSuffix(labels, "}") + ",le=\"" + le + "\"}"
	}
	return "{le=\"" + le + "\"}"
}
