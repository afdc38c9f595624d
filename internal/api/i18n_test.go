package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLocalizeNegotiatesAcceptLanguage(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
	}{
		{name: "no header defaults to French", header: "", want: "Cours non trouvé."},
		{name: "french", header: "fr-FR,fr;q=0.9", want: "Cours non trouvé."},
		{name: "english", header: "en-US,en;q=0.8", want: "Course not found."},
		{name: "english beats french on weight", header: "en;q=0.9,fr;q=0.2", want: "Course not found."},
		{name: "unsupported falls back to French", header: "de-DE", want: "Cours non trouvé."},
		{name: "garbage falls back to French", header: ";;;", want: "Cours non trouvé."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/courses/1", nil)
			if tc.header != "" {
				req.Header.Set("Accept-Language", tc.header)
			}
			if got := localize(req, msgCourseNotFound); got != tc.want {
				t.Fatalf("localize with %q = %q, want %q", tc.header, got, tc.want)
			}
		})
	}
}

func TestLocalizeToleratesNilRequest(t *testing.T) {
	if got := localize(nil, msgSessionCreated); got != "Séance créée avec succès." {
		t.Fatalf("localize(nil) = %q", got)
	}
}

func TestWriteLocalizedErrorBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/courses/abc", nil)
	req.Header.Set("Accept-Language", "en")
	rec := httptest.NewRecorder()

	writeLocalizedError(rec, req, http.StatusBadRequest, msgInvalidID)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type %q", got)
	}
	if body := rec.Body.String(); body != "{\"error\":\"Invalid identifier.\"}\n" {
		t.Fatalf("unexpected body %q", body)
	}
}
