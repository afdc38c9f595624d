package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"/api/courses", "/api/courses"},
		{"/api/courses/42", "/api/courses/:id"},
		{"/api/courses/42/sessions/7", "/api/courses/:id/sessions/:id"},
		{"/api/courses/42/", "/api/courses/:id"},
		{"/api/courses/abc123", "/api/courses/abc123"},
	}
	for _, tc := range cases {
		if got := normalizePath(tc.in); got != tc.want {
			t.Fatalf("normalizePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestObserveRequestAggregatesByLabel(t *testing.T) {
	recorder := New()
	recorder.ObserveRequest("get", "/api/courses/1", 200, 10*time.Millisecond)
	recorder.ObserveRequest("GET", "/api/courses/2", 200, 30*time.Millisecond)
	recorder.ObserveRequest("GET", "/api/courses/2", 404, time.Millisecond)

	var builder strings.Builder
	recorder.Write(&builder)
	output := builder.String()

	if !strings.Contains(output, `courseware_http_requests_total{method="GET",path="/api/courses/:id",status="200"} 2`) {
		t.Fatalf("missing aggregated counter:\n%s", output)
	}
	if !strings.Contains(output, `courseware_http_requests_total{method="GET",path="/api/courses/:id",status="404"} 1`) {
		t.Fatalf("missing 404 counter:\n%s", output)
	}
	if !strings.Contains(output, `courseware_http_request_duration_seconds_sum{method="GET",path="/api/courses/:id",status="200"} 0.040000`) {
		t.Fatalf("missing duration sum:\n%s", output)
	}
	if !strings.Contains(output, `courseware_http_request_duration_seconds_count{method="GET",path="/api/courses/:id",status="200"} 2`) {
		t.Fatalf("missing duration count:\n%s", output)
	}
}

func TestLifecycleEventCounters(t *testing.T) {
	recorder := New()
	recorder.RecordCourseEvent("created")
	recorder.RecordCourseEvent("created")
	recorder.RecordCourseEvent("Deleted")
	recorder.RecordSessionEvent("updated")
	recorder.RecordSessionEvent("")

	var builder strings.Builder
	recorder.Write(&builder)
	output := builder.String()

	if !strings.Contains(output, `courseware_course_events_total{event="created"} 2`) {
		t.Fatalf("missing created counter:\n%s", output)
	}
	if !strings.Contains(output, `courseware_course_events_total{event="deleted"} 1`) {
		t.Fatalf("missing case-folded counter:\n%s", output)
	}
	if !strings.Contains(output, `courseware_session_events_total{event="updated"} 1`) {
		t.Fatalf("missing session counter:\n%s", output)
	}
	if !strings.Contains(output, `courseware_session_events_total{event="unknown"} 1`) {
		t.Fatalf("missing unknown counter:\n%s", output)
	}
}

func TestDatastoreHealthGauge(t *testing.T) {
	recorder := New()

	var builder strings.Builder
	recorder.Write(&builder)
	if !strings.Contains(builder.String(), "courseware_datastore_healthy 1.000000") {
		t.Fatalf("expected healthy gauge by default:\n%s", builder.String())
	}

	recorder.SetDatastoreHealth(false)
	builder.Reset()
	recorder.Write(&builder)
	if !strings.Contains(builder.String(), "courseware_datastore_healthy 0.000000") {
		t.Fatalf("expected unhealthy gauge:\n%s", builder.String())
	}
}

func TestHandlerServesExposition(t *testing.T) {
	recorder := New()
	recorder.ObserveRequest("GET", "/healthz", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	recorder.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/plain; version=0.0.4" {
		t.Fatalf("unexpected content type %q", got)
	}
	if !strings.Contains(rec.Body.String(), `path="/healthz"`) {
		t.Fatalf("missing healthz sample:\n%s", rec.Body.String())
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var recorder *Recorder
	recorder.ObserveRequest("GET", "/", 200, time.Millisecond)
	recorder.RecordCourseEvent("created")
	recorder.RecordSessionEvent("created")
	recorder.SetDatastoreHealth(true)
}

func TestResetClearsState(t *testing.T) {
	recorder := New()
	recorder.ObserveRequest("GET", "/api/courses", 200, time.Millisecond)
	recorder.RecordCourseEvent("created")
	recorder.SetDatastoreHealth(false)

	recorder.Reset()

	var builder strings.Builder
	recorder.Write(&builder)
	output := builder.String()
	if strings.Contains(output, `event="created"`) {
		t.Fatalf("expected counters to be cleared:\n%s", output)
	}
	if !strings.Contains(output, "courseware_datastore_healthy 1.000000") {
		t.Fatalf("expected health gauge reset:\n%s", output)
	}
}
