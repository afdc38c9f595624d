package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

type requestLabel struct {
	method string
	path   string
	status string
}

// Recorder aggregates in-memory metrics counters and gauges for HTTP
// requests, catalogue lifecycle events, and datastore health. It coordinates
// concurrent writers via a RWMutex.
type Recorder struct {
	mu              sync.RWMutex
	requestCount    map[requestLabel]uint64
	requestDuration map[requestLabel]time.Duration
	courseEvents    map[string]uint64
	sessionEvents   map[string]uint64
	datastoreHealth float64
}

var defaultRecorder = New()

// New constructs an empty Recorder with initialized backing maps so callers
// can immediately record metrics without additional setup.
func New() *Recorder {
	return &Recorder{
		requestCount:    make(map[requestLabel]uint64),
		requestDuration: make(map[requestLabel]time.Duration),
		courseEvents:    make(map[string]uint64),
		sessionEvents:   make(map[string]uint64),
		datastoreHealth: 1,
	}
}

// Default returns the singleton Recorder shared across helper functions for
// callers that do not require custom instrumentation pipelines.
func Default() *Recorder {
	return defaultRecorder
}

// ObserveRequest normalizes the request label set and accumulates totals for
// request count and cumulative duration by HTTP method, normalized path, and
// status code.
func (r *Recorder) ObserveRequest(method, path string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	label := requestLabel{
		method: strings.ToUpper(method),
		path:   normalizePath(path),
		status: fmt.Sprintf("%d", status),
	}
	r.mu.Lock()
	r.requestCount[label]++
	r.requestDuration[label] += duration
	r.mu.Unlock()
}

// RecordCourseEvent counts a course lifecycle event ("created", "updated",
// "deleted").
func (r *Recorder) RecordCourseEvent(event string) {
	if r == nil {
		return
	}
	normalized := normalizeName(event)
	r.mu.Lock()
	r.courseEvents[normalized]++
	r.mu.Unlock()
}

// RecordSessionEvent counts a session lifecycle event.
func (r *Recorder) RecordSessionEvent(event string) {
	if r == nil {
		return
	}
	normalized := normalizeName(event)
	r.mu.Lock()
	r.sessionEvents[normalized]++
	r.mu.Unlock()
}

// SetDatastoreHealth records the result of the latest datastore ping.
func (r *Recorder) SetDatastoreHealth(healthy bool) {
	if r == nil {
		return
	}
	value := 0.0
	if healthy {
		value = 1
	}
	r.mu.Lock()
	r.datastoreHealth = value
	r.mu.Unlock()
}

// Reset clears all counters and gauges. It is intended for test setups.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requestCount = make(map[requestLabel]uint64)
	r.requestDuration = make(map[requestLabel]time.Duration)
	r.courseEvents = make(map[string]uint64)
	r.sessionEvents = make(map[string]uint64)
	r.datastoreHealth = 1
}

// Handler exposes the Recorder as an http.Handler that writes Prometheus text
// exposition data with the appropriate content type.
func (r *Recorder) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		r.Write(w)
	})
}

// Write renders the Recorder's metrics in Prometheus text format, sorting
// label sets to provide stable output for scrapes and tests.
func (r *Recorder) Write(w io.Writer) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	requestLabels := r.sortedRequestLabels()
	courseEvents := sortedKeys(r.courseEvents)
	sessionEvents := sortedKeys(r.sessionEvents)

	fmt.Fprintln(w, "# HELP courseware_http_requests_total Total number of HTTP requests processed by the API")
	fmt.Fprintln(w, "# TYPE courseware_http_requests_total counter")
	for _, label := range requestLabels {
		count := r.requestCount[label]
		fmt.Fprintf(w, "courseware_http_requests_total{method=\"%s\",path=\"%s\",status=\"%s\"} %d\n", label.method, label.path, label.status, count)
	}

	fmt.Fprintln(w, "# HELP courseware_http_request_duration_seconds_sum Cumulative duration of HTTP requests in seconds")
	fmt.Fprintln(w, "# TYPE courseware_http_request_duration_seconds_sum counter")
	for _, label := range requestLabels {
		duration := r.requestDuration[label].Seconds()
		fmt.Fprintf(w, "courseware_http_request_duration_seconds_sum{method=\"%s\",path=\"%s\",status=\"%s\"} %f\n", label.method, label.path, label.status, duration)
	}

	fmt.Fprintln(w, "# HELP courseware_http_request_duration_seconds_count Total number of observations for request durations")
	fmt.Fprintln(w, "# TYPE courseware_http_request_duration_seconds_count counter")
	for _, label := range requestLabels {
		count := r.requestCount[label]
		fmt.Fprintf(w, "courseware_http_request_duration_seconds_count{method=\"%s\",path=\"%s\",status=\"%s\"} %d\n", label.method, label.path, label.status, count)
	}

	fmt.Fprintln(w, "# HELP courseware_course_events_total Course lifecycle events by type")
	fmt.Fprintln(w, "# TYPE courseware_course_events_total counter")
	for _, event := range courseEvents {
		fmt.Fprintf(w, "courseware_course_events_total{event=\"%s\"} %d\n", event, r.courseEvents[event])
	}

	fmt.Fprintln(w, "# HELP courseware_session_events_total Session lifecycle events by type")
	fmt.Fprintln(w, "# TYPE courseware_session_events_total counter")
	for _, event := range sessionEvents {
		fmt.Fprintf(w, "courseware_session_events_total{event=\"%s\"} %d\n", event, r.sessionEvents[event])
	}

	fmt.Fprintln(w, "# HELP courseware_datastore_healthy Result of the latest datastore ping (1=ok,0=failing)")
	fmt.Fprintln(w, "# TYPE courseware_datastore_healthy gauge")
	fmt.Fprintf(w, "courseware_datastore_healthy %f\n", r.datastoreHealth)
}

func (r *Recorder) sortedRequestLabels() []requestLabel {
	labels := make([]requestLabel, 0, len(r.requestCount))
	for label := range r.requestCount {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].method != labels[j].method {
			return labels[i].method < labels[j].method
		}
		if labels[i].path != labels[j].path {
			return labels[i].path < labels[j].path
		}
		return labels[i].status < labels[j].status
	})
	return labels
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func normalizePath(path string) string {
	if path == "" || path == "/" {
		return "/"
	}
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if looksLikeIdentifier(part) {
			parts[i] = ":id"
		}
	}
	normalized := strings.Join(parts, "/")
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if strings.HasSuffix(normalized, "/") && len(normalized) > 1 {
		normalized = strings.TrimSuffix(normalized, "/")
	}
	return normalized
}

// looksLikeIdentifier keeps label cardinality bounded by collapsing numeric
// path segments.
func looksLikeIdentifier(segment string) bool {
	if segment == "" {
		return false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func normalizeName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}

// ObserveRequest is a helper on the default recorder.
func ObserveRequest(method, path string, status int, duration time.Duration) {
	defaultRecorder.ObserveRequest(method, path, status, duration)
}

// Handler exposes the default recorder as an HTTP handler.
func Handler() http.Handler {
	return defaultRecorder.Handler()
}
