package api

import (
	"fmt"
	"io"
	"net/http"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"ecomapi/internal/version"
)

// MetricsCollector collects and exposes Prometheus metrics
type MetricsCollector struct {
	requestsTotal   *Counter
	errorsTotal     *Counter
	requestDuration *Histogram

	inFlight atomic.Int64

	startTime time.Time
}

// Counter is a monotonically increasing counter
type Counter struct {
	name   string
	help   string
	labels []string
	values sync.Map // map[string]*uint64
}

// Histogram tracks distributions of values
type Histogram struct {
	name    string
	help    string
	labels  []string
	buckets []float64
	values  sync.Map // map[string]*histogramValue
}

type histogramValue struct {
	mu      sync.Mutex
	sum     float64
	count   uint64
	buckets []uint64
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		startTime: time.Now(),
		requestsTotal: &Counter{
			name:   "ecomapi_http_requests_total",
			help:   "Total number of HTTP requests",
			labels: []string{"method", "route", "status"},
		},
		errorsTotal: &Counter{
			name:   "ecomapi_errors_total",
			help:   "Total number of failed queries by error code",
			labels: []string{"code"},
		},
		requestDuration: &Histogram{
			name:    "ecomapi_http_request_duration_seconds",
			help:    "Duration of HTTP requests in seconds",
			labels:  []string{"route"},
			buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	}
}

// RecordRequest records one served request
func (m *MetricsCollector) RecordRequest(method, route string, status int, duration time.Duration) {
	m.requestsTotal.Inc(method, route, strconv.Itoa(status))
	m.requestDuration.Observe(duration.Seconds(), route)
}

// RecordError records a failed query
func (m *MetricsCollector) RecordError(code string) {
	m.errorsTotal.Inc(code)
}

// WritePrometheus writes metrics in Prometheus text format
func (m *MetricsCollector) WritePrometheus(w io.Writer) {
	fmt.Fprintf(w, "# HELP ecomapi_info Build information\n")
	fmt.Fprintf(w, "# TYPE ecomapi_info gauge\n")
	fmt.Fprintf(w, "ecomapi_info{version=%q} 1\n\n", version.Version)

	fmt.Fprintf(w, "# HELP ecomapi_uptime_seconds Time since the server started\n")
	fmt.Fprintf(w, "# TYPE ecomapi_uptime_seconds counter\n")
	fmt.Fprintf(w, "ecomapi_uptime_seconds %.3f\n\n", time.Since(m.startTime).Seconds())

	m.requestsTotal.write(w)
	m.errorsTotal.write(w)
	m.requestDuration.write(w)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	writeGauge(w, "ecomapi_http_requests_in_flight", "Requests currently being served", float64(m.inFlight.Load()))
	writeGauge(w, "ecomapi_goroutines", "Number of goroutines", float64(runtime.NumGoroutine()))
	writeGauge(w, "ecomapi_memory_alloc_bytes", "Allocated memory in bytes", float64(memStats.Alloc))
}

func writeGauge(w io.Writer, name, help string, value float64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s gauge\n", name)
	fmt.Fprintf(w, "%s %g\n\n", name, value)
}

// Inc adds one to the series for labelValues
func (c *Counter) Inc(labelValues ...string) {
	c.Add(1, labelValues...)
}

// Add adds delta to the series for labelValues
func (c *Counter) Add(delta uint64, labelValues ...string) {
	key := labelsToKey(c.labels, labelValues)
	val, _ := c.values.LoadOrStore(key, new(uint64))
	atomic.AddUint64(val.(*uint64), delta)
}

// Value returns the current count for labelValues
func (c *Counter) Value(labelValues ...string) uint64 {
	val, ok := c.values.Load(labelsToKey(c.labels, labelValues))
	if !ok {
		return 0
	}
	return atomic.LoadUint64(val.(*uint64))
}

func (c *Counter) write(w io.Writer) {
	fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help)
	fmt.Fprintf(w, "# TYPE %s counter\n", c.name)

	for _, key := range sortedKeys(&c.values) {
		val, _ := c.values.Load(key)
		fmt.Fprintf(w, "%s%s %d\n", c.name, key, atomic.LoadUint64(val.(*uint64)))
	}
	fmt.Fprintln(w)
}

// Observe adds value to the series for labelValues
func (h *Histogram) Observe(value float64, labelValues ...string) {
	key := labelsToKey(h.labels, labelValues)
	val, _ := h.values.LoadOrStore(key, &histogramValue{
		buckets: make([]uint64, len(h.buckets)+1), // +1 for +Inf
	})
	hv := val.(*histogramValue)

	hv.mu.Lock()
	defer hv.mu.Unlock()

	hv.sum += value
	hv.count++

	bucketIdx := len(h.buckets)
	for i, bound := range h.buckets {
		if value <= bound {
			bucketIdx = i
			break
		}
	}
	hv.buckets[bucketIdx]++
}

// Count returns the number of observations for labelValues
func (h *Histogram) Count(labelValues ...string) uint64 {
	val, ok := h.values.Load(labelsToKey(h.labels, labelValues))
	if !ok {
		return 0
	}
	hv := val.(*histogramValue)
	hv.mu.Lock()
	defer hv.mu.Unlock()
	return hv.count
}

func (h *Histogram) write(w io.Writer) {
	fmt.Fprintf(w, "# HELP %s %s\n", h.name, h.help)
	fmt.Fprintf(w, "# TYPE %s histogram\n", h.name)

	for _, key := range sortedKeys(&h.values) {
		val, _ := h.values.Load(key)
		hv := val.(*histogramValue)

		hv.mu.Lock()
		cumulative := uint64(0)
		for i, bound := range h.buckets {
			cumulative += hv.buckets[i]
			fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLabel(key, "le", strconv.FormatFloat(bound, 'g', -1, 64)), cumulative)
		}
		cumulative += hv.buckets[len(h.buckets)]
		fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLabel(key, "le", "+Inf"), cumulative)
		fmt.Fprintf(w, "%s_sum%s %.6f\n", h.name, key, hv.sum)
		fmt.Fprintf(w, "%s_count%s %d\n", h.name, key, hv.count)
		hv.mu.Unlock()
	}
	fmt.Fprintln(w)
}

// labelsToKey renders label pairs in Prometheus form, e.g. {route="/api/stats"}
func labelsToKey(labels, values []string) string {
	if len(labels) == 0 || len(values) == 0 {
		return ""
	}

	pairs := make([]string, 0, len(labels))
	for i, label := range labels {
		if i < len(values) {
			pairs = append(pairs, fmt.Sprintf("%s=%q", label, values[i]))
		}
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

// withLabel appends one more label pair to a rendered key.
func withLabel(key, label, value string) string {
	pair := fmt.Sprintf("%s=%q", label, value)
	if key == "" {
		return "{" + pair + "}"
	}
	return key[:len(key)-1] + "," + pair + "}"
}

func sortedKeys(m *sync.Map) []string {
	var keys []string
	m.Range(func(key, _ interface{}) bool {
		keys = append(keys, key.(string))
		return true
	})
	sort.Strings(keys)
	return keys
}

// handleMetrics serves the Prometheus text exposition
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	s.metrics.WritePrometheus(w)
}
